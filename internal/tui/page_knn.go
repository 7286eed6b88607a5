package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/mlviz/internal/dataset"
	"github.com/san-kum/mlviz/internal/knn"
	"github.com/san-kum/mlviz/internal/plot"
	"github.com/san-kum/mlviz/internal/story"
	"github.com/san-kum/mlviz/internal/surface"
	"github.com/san-kum/mlviz/internal/viz"
)

const boundaryResolution = 48

// knnPage explores a nearest-neighbor classifier: arrows steer a query
// point across the feature plane, +/- change the neighbor count, and
// the k nearest training points light up under the prediction.
type knnPage struct {
	page     story.Page
	clf      *knn.Classifier
	surf     *surface.Surface
	palette  []lipgloss.Style
	bounds   plot.Bounds
	boundary *plot.Boundary

	k       int
	query   []float64
	pred    int
	nbs     []knn.Neighbor
	mounted bool
	errLine string
}

func newKNNPage(p story.Page, reg *dataset.Registry) (*knnPage, error) {
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
	weights, err := knn.ParseWeights(p.Weights)
	if err != nil {
		return nil, err
	}
	metric, err := knn.ParseMetric(p.Metric)
	if err != nil {
		return nil, err
	}

	cfg := knn.DefaultConfig()
	cfg.Weights, cfg.Metric = weights, metric
	if p.K > 0 {
		cfg.K = p.K
	}
	if cfg.K > ds.NumSamples() {
		cfg.K = ds.NumSamples()
	}
	clf, err := knn.New(ds, cfg)
	if err != nil {
		return nil, err
	}

	// The classifier meshes its boundary over the same padded extent,
	// so boundary cells and samples share one coordinate frame.
	bounds, err := plot.CalculateBounds(ds.X, nil, 0.1)
	if err != nil {
		return nil, err
	}

	kp := &knnPage{
		page:    p,
		clf:     clf,
		palette: classPalette(ds.NumClasses()),
		bounds:  bounds,
		k:       cfg.K,
		query:   make([]float64, ds.NumFeatures()),
	}
	for axis := range kp.query {
		kp.query[axis] = (bounds.Min(axis) + bounds.Max(axis)) / 2
	}

	n := ds.NumClasses()
	draw := func(c *viz.Canvas, data any, f surface.Frame) {
		scene, ok := data.(plot.Scene)
		if !ok {
			return
		}
		_ = renderer.Draw(c, scene, plot.Frame{
			Bounds:        bounds,
			Transform:     f.Transform,
			BoundaryColor: boundarySlot(n),
			QueryColor:    querySlot(n),
		})
	}
	kp.surf = surface.NewLenient(surface.Config{Zoom: zoomConfig(p.Zoom, bounds)}, draw)

	if p.Boundary {
		if err := kp.rebuildBoundary(); err != nil {
			return nil, err
		}
	}
	kp.refresh()
	return kp, nil
}

func (kp *knnPage) init() tea.Cmd { return nil }

func (kp *knnPage) update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case sizeMsg:
		cols, rows := msg.w-4, msg.h-4
		if cols < 20 {
			cols = 20
		}
		if rows < 6 {
			rows = 6
		}
		if !kp.mounted {
			kp.surf.Mount(cols, rows)
			kp.mounted = true
		} else {
			kp.surf.Resize(cols, rows)
		}
		return nil, false
	case tea.KeyMsg:
		return nil, kp.key(msg.String())
	}
	return nil, false
}

func (kp *knnPage) key(key string) bool {
	switch key {
	case "left", "h":
		kp.move(0, -1)
	case "right", "l":
		kp.move(0, +1)
	case "up", "k":
		kp.move(1, +1)
	case "down", "j":
		kp.move(1, -1)
	case "+", "=":
		kp.setK(kp.k + 1)
	case "-", "_":
		kp.setK(kp.k - 1)
	case "z":
		return kp.zoom(zoomStep)
	case "x":
		return kp.zoom(1 / zoomStep)
	case "r":
		if kp.page.Zoom == nil {
			return false
		}
		kp.surf.ResetView()
	default:
		return false
	}
	return true
}

// zoom scales around the canvas center. Arrow keys steer the query on
// this page, so zooming gets its own keys.
func (kp *knnPage) zoom(factor float64) bool {
	if kp.page.Zoom == nil {
		return false
	}
	f := kp.surf.Frame()
	kp.surf.ZoomAt(factor, float64(f.PixelW)/2, float64(f.PixelH)/2)
	return true
}

// move nudges the query along one axis by a fraction of its range.
func (kp *knnPage) move(axis, dir int) {
	if axis >= len(kp.query) {
		return
	}
	step := kp.bounds.Range(axis) / 40
	v := kp.query[axis] + float64(dir)*step
	if v < kp.bounds.Min(axis) {
		v = kp.bounds.Min(axis)
	}
	if v > kp.bounds.Max(axis) {
		v = kp.bounds.Max(axis)
	}
	kp.query[axis] = v
	kp.refresh()
}

// setK rebuilds the classifier and, when shown, the decision boundary.
func (kp *knnPage) setK(k int) {
	ds := kp.clf.Dataset()
	if k < 1 || k > ds.NumSamples() {
		return
	}
	cfg := kp.clf.Config()
	cfg.K = k
	clf, err := knn.New(ds, cfg)
	if err != nil {
		kp.errLine = err.Error()
		return
	}
	kp.clf = clf
	kp.k = k
	if kp.page.Boundary {
		if err := kp.rebuildBoundary(); err != nil {
			kp.errLine = err.Error()
			return
		}
	}
	kp.refresh()
}

func (kp *knnPage) rebuildBoundary() error {
	b, err := kp.clf.DecisionBoundary(boundaryResolution)
	if err != nil {
		return err
	}
	kp.boundary = b
	return nil
}

// refresh reruns prediction and neighbor lookup for the current query
// and pushes the rebuilt scene to the surface.
func (kp *knnPage) refresh() {
	kp.errLine = ""
	pred, err := kp.clf.Predict(kp.query)
	if err != nil {
		kp.errLine = err.Error()
		return
	}
	nbs, err := kp.clf.Neighbors(kp.query, kp.k)
	if err != nil {
		kp.errLine = err.Error()
		return
	}
	kp.pred, kp.nbs = pred, nbs
	kp.surf.SetData(kp.scene())
}

// scene layers the neighbor highlights over the training points by
// drawing them again in the highlight slot past the class palette.
func (kp *knnPage) scene() plot.Scene {
	ds := kp.clf.Dataset()
	pts := plot.FromDataset(ds)
	slot := highlightSlot(ds.NumClasses())
	for _, nb := range kp.nbs {
		pts = append(pts, plot.Point{
			Kind:   plot.KindClassification,
			Coords: nb.Coords,
			Class:  slot,
			Label:  nb.Label,
		})
	}
	return plot.Scene{Points: pts, Boundary: kp.boundary, Query: kp.query}
}

func (kp *knnPage) view() string {
	var b strings.Builder
	if kp.page.Text != "" {
		b.WriteString("  " + dim.Render(kp.page.Text) + "\n\n")
	}
	indent(&b, kp.surf.View(kp.palette))

	ds := kp.clf.Dataset()
	pred := ""
	if kp.pred >= 0 && kp.pred < ds.NumClasses() {
		pred = kp.palette[kp.pred].Render(ds.ClassNames[kp.pred])
	}
	b.WriteString(fmt.Sprintf("\n  %s %s   %s   %s %s\n",
		dim.Render("query"), white.Render(formatCoords(kp.query)),
		dim.Render(fmt.Sprintf("k=%d %s", kp.k, kp.clf.Config().Weights)),
		dim.Render("predicted"), pred))
	b.WriteString("  " + legend(ds.ClassNames, kp.palette) + "\n")
	if kp.errLine != "" {
		b.WriteString("  " + red.Render(kp.errLine) + "\n")
	}
	hint := "←↑↓→ move query  +/- neighbors"
	if kp.page.Zoom != nil {
		hint += "  z/x zoom  r reset"
	}
	b.WriteString(dim.Render("  "+hint) + "\n")
	return b.String()
}

func formatCoords(q []float64) string {
	parts := make([]string, len(q))
	for i, v := range q {
		parts[i] = fmt.Sprintf("%.2f", v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (kp *knnPage) done() bool { return true }
func (kp *knnPage) close()     { kp.surf.Close() }
