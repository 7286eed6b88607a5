package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/mlviz/internal/dataset"
	"github.com/san-kum/mlviz/internal/plot"
	"github.com/san-kum/mlviz/internal/story"
	"github.com/san-kum/mlviz/internal/surface"
	"github.com/san-kum/mlviz/internal/viz"
)

// scatterPage projects a dataset onto 1 to 3 feature axes. Flat views
// zoom and pan through the surface transform; 3D views orbit a camera
// instead, since the perspective projection ignores the pixel transform.
type scatterPage struct {
	page    story.Page
	ds      *dataset.Dataset
	dims    plot.Dimensions
	surf    *surface.Surface
	cam     *viz.Camera
	palette []lipgloss.Style
	mounted bool
}

func newScatterPage(p story.Page, reg *dataset.Registry) (*scatterPage, error) {
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
	bounds, err := plot.CalculateBounds(ds.X, nil, 0.05)
	if err != nil {
		return nil, err
	}

	sp := &scatterPage{
		page:    p,
		ds:      ds,
		dims:    dims,
		cam:     viz.NewCamera(),
		palette: classPalette(ds.NumClasses()),
	}
	draw := func(c *viz.Canvas, data any, f surface.Frame) {
		scene, ok := data.(plot.Scene)
		if !ok {
			return
		}
		_ = renderer.Draw(c, scene, plot.Frame{
			Bounds:    bounds,
			Transform: f.Transform,
			Camera:    sp.cam,
		})
	}
	sp.surf = surface.NewLenient(surface.Config{Zoom: zoomConfig(p.Zoom, bounds)}, draw)
	sp.surf.SetData(plot.Scene{Points: plot.FromDataset(ds)})
	return sp, nil
}

func (s *scatterPage) init() tea.Cmd { return nil }

func (s *scatterPage) update(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case sizeMsg:
		cols, rows := msg.w-4, msg.h-3
		if cols < 20 {
			cols = 20
		}
		if rows < 6 {
			rows = 6
		}
		if !s.mounted {
			s.surf.Mount(cols, rows)
			s.mounted = true
		} else {
			s.surf.Resize(cols, rows)
		}
		return nil, false
	case tea.KeyMsg:
		if s.dims == plot.Dim3 {
			return nil, s.orbitKey(msg.String())
		}
		return nil, zoomKey(s.surf, s.page.Zoom, msg.String())
	}
	return nil, false
}

// orbitKey rotates or zooms the 3D camera.
func (s *scatterPage) orbitKey(key string) bool {
	const step = 0.12
	switch key {
	case "left", "h":
		s.cam.RotateY(-step)
	case "right", "l":
		s.cam.RotateY(step)
	case "up", "k":
		s.cam.RotateX(-step)
	case "down", "j":
		s.cam.RotateX(step)
	case "+", "=":
		s.cam.ZoomIn()
	case "-", "_":
		s.cam.ZoomOut()
	case "r":
		s.cam = viz.NewCamera()
	default:
		return false
	}
	s.surf.Render()
	return true
}

func (s *scatterPage) view() string {
	var b strings.Builder
	if s.page.Text != "" {
		b.WriteString("  " + dim.Render(s.page.Text) + "\n\n")
	}
	indent(&b, s.surf.View(s.palette))
	b.WriteString("\n  " + legend(s.ds.ClassNames, s.palette) + "\n")
	b.WriteString(dim.Render("  "+s.hints()) + "\n")
	return b.String()
}

func (s *scatterPage) hints() string {
	if s.dims == plot.Dim3 {
		return "←↑↓→ orbit  +/- zoom  r reset"
	}
	if s.page.Zoom == nil {
		return strings.Join(s.ds.FeatureNames, " × ")
	}
	hint := "+/- zoom"
	if s.page.Zoom.Pan {
		hint += "  ←↑↓→ pan"
	}
	if s.surf.ShowsReset() {
		hint += "  r reset"
	}
	return fmt.Sprintf("%s  ×%.1f", hint, s.surf.Transform().Scale)
}

func (s *scatterPage) done() bool { return true }
func (s *scatterPage) close()     { s.surf.Close() }
