// Package story defines the YAML walkthrough format: a named sequence
// of pages wired by edges, where each page declares what to show and
// which interactions it carries.
package story

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidStory = errors.New("story: invalid story")

// PageKind selects the component a page hosts.
type PageKind string

const (
	KindStatic     PageKind = "static"
	KindScatter    PageKind = "scatter"
	KindKNN        PageKind = "knn"
	KindTreeManual PageKind = "tree-manual"
	KindTreeTrain  PageKind = "tree-train"
)

// Condition gates an edge. An empty condition behaves as CondAlways.
type Condition string

const (
	CondAlways    Condition = "always"
	CondCompleted Condition = "completed"
)

func (c Condition) met(completed bool) bool {
	return c != CondCompleted || completed
}

// Story is a walkthrough: pages holding the content and edges holding
// the allowed transitions between them.
type Story struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	StartPage   int    `yaml:"start_page"`
	Pages       []Page `yaml:"pages"`
	Edges       []Edge `yaml:"edges"`
}

// Page is the union of every kind's parameters; which fields matter is
// decided by Kind. Unused fields stay at their zero value.
type Page struct {
	Kind  PageKind `yaml:"kind"`
	Title string   `yaml:"title"`
	Text  string   `yaml:"text,omitempty"`

	Dataset  string `yaml:"dataset,omitempty"`
	Features []int  `yaml:"features,omitempty"`

	// knn
	K        int    `yaml:"k,omitempty"`
	Weights  string `yaml:"weights,omitempty"`
	Metric   string `yaml:"metric,omitempty"`
	Boundary bool   `yaml:"boundary,omitempty"`

	// tree-manual and tree-train
	Criterion       string `yaml:"criterion,omitempty"`
	MaxDepth        int    `yaml:"max_depth,omitempty"`
	MinSamplesSplit int    `yaml:"min_samples_split,omitempty"`
	MinSamplesLeaf  int    `yaml:"min_samples_leaf,omitempty"`

	Zoom     *ZoomSettings     `yaml:"zoom,omitempty"`
	Playback *PlaybackSettings `yaml:"playback,omitempty"`
}

// ZoomSettings enables zoom/pan on a page's plot.
type ZoomSettings struct {
	MinScale float64 `yaml:"min_scale"`
	MaxScale float64 `yaml:"max_scale"`
	Pan      bool    `yaml:"pan"`
}

// PlaybackSettings enables step playback on a page's plot.
type PlaybackSettings struct {
	StepMillis         int  `yaml:"step_millis,omitempty"`
	InterpolationSteps int  `yaml:"interpolation_steps,omitempty"`
	AutoPlay           bool `yaml:"autoplay,omitempty"`
	Slider             bool `yaml:"slider,omitempty"`
}

// Edge allows moving from page From to page To once its condition is
// met.
type Edge struct {
	From      int       `yaml:"from"`
	To        int       `yaml:"to"`
	Condition Condition `yaml:"condition,omitempty"`
}

func Load(path string) (*Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Story
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func Save(path string, s *Story) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Next returns the target of the first edge leaving cur whose
// condition is met. completed reports whether the current page's
// component considers itself done.
func (s *Story) Next(cur int, completed bool) (int, bool) {
	for _, e := range s.Edges {
		if e.From == cur && e.Condition.met(completed) {
			return e.To, true
		}
	}
	return 0, false
}

// Validate checks structural soundness: page indices in range, known
// kinds and conditions, and per-kind parameters that downstream
// components would reject.
func (s *Story) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidStory)
	}
	if len(s.Pages) == 0 {
		return fmt.Errorf("%w: no pages", ErrInvalidStory)
	}
	if s.StartPage < 0 || s.StartPage >= len(s.Pages) {
		return fmt.Errorf("%w: start page %d out of range", ErrInvalidStory, s.StartPage)
	}
	for i, p := range s.Pages {
		if err := p.validate(); err != nil {
			return fmt.Errorf("%w: page %d: %v", ErrInvalidStory, i, err)
		}
	}
	for i, e := range s.Edges {
		if e.From < 0 || e.From >= len(s.Pages) {
			return fmt.Errorf("%w: edge %d: from %d out of range", ErrInvalidStory, i, e.From)
		}
		if e.To < 0 || e.To >= len(s.Pages) {
			return fmt.Errorf("%w: edge %d: to %d out of range", ErrInvalidStory, i, e.To)
		}
		switch e.Condition {
		case "", CondAlways, CondCompleted:
		default:
			return fmt.Errorf("%w: edge %d: unknown condition %q", ErrInvalidStory, i, e.Condition)
		}
	}
	return nil
}

func (p *Page) validate() error {
	switch p.Kind {
	case KindStatic:
	case KindScatter, KindKNN, KindTreeManual, KindTreeTrain:
		if p.Dataset == "" {
			return errors.New("missing dataset")
		}
	default:
		return fmt.Errorf("unknown kind %q", p.Kind)
	}
	if len(p.Features) > 3 {
		return fmt.Errorf("%d feature axes, at most 3", len(p.Features))
	}
	for _, f := range p.Features {
		if f < 0 {
			return fmt.Errorf("negative feature index %d", f)
		}
	}
	if p.K < 0 {
		return fmt.Errorf("negative k %d", p.K)
	}
	switch p.Weights {
	case "", "uniform", "distance":
	default:
		return fmt.Errorf("unknown weights %q", p.Weights)
	}
	switch p.Metric {
	case "", "minkowski", "euclidean", "manhattan", "chebyshev":
	default:
		return fmt.Errorf("unknown metric %q", p.Metric)
	}
	switch p.Criterion {
	case "", "gini", "entropy":
	default:
		return fmt.Errorf("unknown criterion %q", p.Criterion)
	}
	if p.MaxDepth < 0 || p.MinSamplesSplit < 0 || p.MinSamplesLeaf < 0 {
		return errors.New("negative tree growth limit")
	}
	if z := p.Zoom; z != nil {
		if z.MinScale <= 0 {
			return fmt.Errorf("zoom min scale %v must be positive", z.MinScale)
		}
		if z.MaxScale < z.MinScale {
			return fmt.Errorf("zoom scale extent [%v, %v] inverted", z.MinScale, z.MaxScale)
		}
	}
	if pb := p.Playback; pb != nil {
		if pb.StepMillis < 0 {
			return fmt.Errorf("negative step duration %dms", pb.StepMillis)
		}
		if pb.InterpolationSteps < 0 {
			return fmt.Errorf("negative interpolation steps %d", pb.InterpolationSteps)
		}
	}
	return nil
}
