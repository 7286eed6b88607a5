package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/mlviz/internal/dataset"
	"github.com/san-kum/mlviz/internal/mltree"
	"github.com/san-kum/mlviz/internal/plot"
	"github.com/san-kum/mlviz/internal/story"
	"github.com/san-kum/mlviz/internal/surface"
	"github.com/san-kum/mlviz/internal/viz"
)

// treeTrainPage replays a greedy tree fit depth by depth: the decision
// regions of each truncation wipe across the plane while the transport
// steps through the snapshots.
type treeTrainPage struct {
	page     story.Page
	ds       *dataset.Dataset
	snaps    []*mltree.Node
	accuracy []float64
	surf     *surface.Surface
	prog     progress.Model
	palette  []lipgloss.Style
	maxSteps int

	mounted    bool
	reachedEnd bool
}

func newTreeTrainPage(p story.Page, reg *dataset.Registry) (*treeTrainPage, error) {
	ds, err := loadProjection(reg, p.Dataset, p.Features)
	if err != nil {
		return nil, err
	}
	dims, err := plot.DetectDimensions(ds.NumFeatures())
	if err != nil {
		return nil, err
	}
	renderer, err := plot.SelectRenderer(dims)
	if err != nil {
		return nil, err
	}
	crit, err := mltree.ParseCriterion(p.Criterion)
	if err != nil {
		return nil, err
	}

	cfg := mltree.DefaultTrainConfig()
	if p.MaxDepth > 0 {
		cfg.MaxDepth = p.MaxDepth
	}
	if p.MinSamplesSplit > 0 {
		cfg.MinSamplesSplit = p.MinSamplesSplit
	}
	if p.MinSamplesLeaf > 0 {
		cfg.MinSamplesLeaf = p.MinSamplesLeaf
	}
	cfg.MaxThresholds = 32

	tree := mltree.Train(ds.X, ds.Y, ds.NumClasses(), crit, cfg)
	snaps := mltree.DepthSnapshots(tree, crit)

	bounds, err := plot.CalculateBounds(ds.X, nil, 0.1)
	if err != nil {
		return nil, err
	}
	mesh, err := plot.MeshGrid(bounds, boundaryResolution)
	if err != nil {
		return nil, err
	}

	boundaries := make([]*plot.Boundary, len(snaps))
	accuracy := make([]float64, len(snaps))
	for i, snap := range snaps {
		classes, err := plot.ClassifyMesh(mesh, func(pt []float64) (int, error) {
			return snap.Predict(pt), nil
		})
		if err != nil {
			return nil, err
		}
		boundaries[i] = &plot.Boundary{Dims: dims, Mesh: mesh, Classes: classes}
		accuracy[i] = trainAccuracy(snap, ds)
	}

	n := ds.NumClasses()
	points := plot.FromDataset(ds)
	draw := func(c *viz.Canvas, _ any, f surface.Frame) {
		scene := plot.Scene{
			Points:   points,
			Boundary: wipeBoundary(boundaries, bounds, f.Step, f.Progress),
		}
		_ = renderer.Draw(c, scene, plot.Frame{
			Bounds:        bounds,
			Transform:     f.Transform,
			BoundaryColor: boundarySlot(n),
		})
	}
	surf := surface.NewLenient(surface.Config{
		Zoom:     zoomConfig(p.Zoom, bounds),
		Playback: playbackConfig(p.Playback, len(snaps)),
	}, draw)

	return &treeTrainPage{
		page:     p,
		ds:       ds,
		snaps:    snaps,
		accuracy: accuracy,
		surf:     surf,
		prog:     progress.New(progress.WithDefaultGradient()),
		palette:  classPalette(n),
		maxSteps: len(snaps),
	}, nil
}

// wipeBoundary blends two adjacent depth boundaries during a playback
// transition: mesh cells left of the sweep line already show the new
// depth, the rest still shows the old one. At rest the step's boundary
// passes through unchanged.
func wipeBoundary(boundaries []*plot.Boundary, bounds plot.Bounds, step int, progress float64) *plot.Boundary {
	if len(boundaries) == 0 {
		return nil
	}
	if step < 0 {
		step = 0
	}
	if step > len(boundaries)-1 {
		step = len(boundaries) - 1
	}
	cur := boundaries[step]
	if progress >= 1 || step == 0 {
		return cur
	}
	prev := boundaries[step-1]
	sweep := bounds.Min(0) + progress*bounds.Range(0)
	classes := make([]int, len(cur.Classes))
	for i, row := range cur.Mesh {
		if row[0] <= sweep {
			classes[i] = cur.Classes[i]
		} else {
			classes[i] = prev.Classes[i]
		}
	}
	return &plot.Boundary{Dims: cur.Dims, Mesh: cur.Mesh, Classes: classes}
}

// trainAccuracy measures how many training samples a snapshot already
// classifies correctly.
func trainAccuracy(root *mltree.Node, ds *dataset.Dataset) float64 {
	if ds.NumSamples() == 0 {
		return 0
	}
	correct := 0
	for i, row := range ds.X {
		if root.Predict(row) == ds.Y[i] {
			correct++
		}
	}
	return float64(correct) / float64(ds.NumSamples())
}

func (tt *treeTrainPage) init() tea.Cmd { return nil }

func (tt *treeTrainPage) update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case sizeMsg:
		cols, rows := msg.w-4, msg.h-6
		if cols < 20 {
			cols = 20
		}
		if rows < 6 {
			rows = 6
		}
		tt.prog.Width = cols
		if !tt.mounted {
			tt.surf.Mount(cols, rows)
			tt.mounted = true
		} else {
			tt.surf.Resize(cols, rows)
		}
		return nil, false
	case tickMsg:
		f := tt.surf.Frame()
		if f.Step == tt.maxSteps-1 && f.Progress >= 1 {
			tt.reachedEnd = true
		}
		return nil, false
	case tea.KeyMsg:
		return nil, tt.key(msg.String())
	}
	return nil, false
}

func (tt *treeTrainPage) key(key string) bool {
	switch key {
	case " ":
		tt.surf.Toggle()
	case "[":
		_ = tt.surf.StepBy(-1)
	case "]":
		_ = tt.surf.StepBy(1)
	case "r":
		tt.surf.ResetView()
		_ = tt.surf.Seek(0)
	default:
		return zoomKey(tt.surf, tt.page.Zoom, key)
	}
	return true
}

func (tt *treeTrainPage) view() string {
	var b strings.Builder
	if tt.page.Text != "" {
		b.WriteString("  " + dim.Render(tt.page.Text) + "\n\n")
	}
	indent(&b, tt.surf.View(tt.palette))

	f := tt.surf.Frame()
	status := green.Render("● playing")
	if !f.Playing {
		status = yellow.Render("○ paused")
	}
	step := f.Step
	if step < 0 {
		step = 0
	}
	if step > len(tt.snaps)-1 {
		step = len(tt.snaps) - 1
	}
	b.WriteString(fmt.Sprintf("\n  %s  %s %d/%d  %s %.1f%%  %s %d\n",
		status,
		dim.Render("depth"), step, tt.maxSteps-1,
		dim.Render("accuracy"), tt.accuracy[step]*100,
		dim.Render("leaves"), tt.snaps[step].NumLeaves()))
	if tt.surf.ShowSlider() {
		b.WriteString("  " + tt.prog.ViewAs(tt.fraction(f)) + "\n")
	}
	b.WriteString("  " + legend(tt.ds.ClassNames, tt.palette) + "\n")
	b.WriteString(dim.Render("  space play/pause  [ ] step  r restart") + "\n")
	return b.String()
}

// fraction maps the transport position onto [0,1], including the
// partial progress of a running transition.
func (tt *treeTrainPage) fraction(f surface.Frame) float64 {
	if tt.maxSteps < 2 {
		return 1
	}
	pos := float64(f.Step)
	if f.Progress < 1 {
		pos -= 1 - f.Progress
	}
	frac := pos / float64(tt.maxSteps-1)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return frac
}

func (tt *treeTrainPage) done() bool { return tt.reachedEnd || tt.maxSteps < 2 }
func (tt *treeTrainPage) close()     { tt.surf.Close() }
