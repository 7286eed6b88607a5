package export

import (
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/mlviz/internal/plot"
	"github.com/san-kum/mlviz/internal/viz"
)

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(4, 2)
	c.SetColored(0, 0, 0)
	c.SetColored(3, 5, 1)
	c.Set(7, 7)

	svg := CanvasToSVG(c, 4, []string{"#ff0000", "#00ff00"})

	// 4 cells * 2 sub-pixels * scale 4 wide, 2 * 4 * 4 tall.
	if !strings.Contains(svg, `width="32" height="32"`) {
		t.Errorf("svg header missing scaled size:\n%s", svg)
	}
	if !strings.Contains(svg, `fill="#0a0a0a"`) {
		t.Error("background rect missing")
	}
	if got := strings.Count(svg, "<circle"); got != 3 {
		t.Errorf("circles = %d, want 3", got)
	}
	if !strings.Contains(svg, `<g fill="#ff0000">`) || !strings.Contains(svg, `<g fill="#00ff00">`) {
		t.Error("palette groups missing")
	}
	// The uncolored dot falls back to the neutral group.
	if !strings.Contains(svg, `<g fill="`+defaultFill+`">`) {
		t.Error("default fill group missing")
	}
}

func TestCanvasToSVGNil(t *testing.T) {
	if got := CanvasToSVG(nil, 4, nil); got != "" {
		t.Errorf("nil canvas produced %q", got)
	}
}

func TestCanvasToSVGEmpty(t *testing.T) {
	svg := CanvasToSVG(viz.NewCanvas(3, 3), 4, []string{"#ff0000"})
	if strings.Contains(svg, "<circle") {
		t.Error("empty canvas produced circles")
	}
	if !strings.Contains(svg, "</svg>") {
		t.Error("svg not closed")
	}
}

func TestCanvasToSVGTextOverlay(t *testing.T) {
	c := viz.NewCanvas(10, 2)
	c.SetText(0, 1, "x<1 & y>2")

	svg := CanvasToSVG(c, 4, nil)
	if !strings.Contains(svg, "x&lt;1 &amp; y&gt;2") {
		t.Errorf("overlay not escaped:\n%s", svg)
	}
	if !strings.Contains(svg, `font-family="monospace"`) {
		t.Error("text group missing monospace font")
	}
}

func TestScatterToSVG(t *testing.T) {
	scene := plot.Scene{
		Points: []plot.Point{
			plot.ClassPoint([]float64{0, 0}, 0, "a"),
			plot.ClassPoint([]float64{1, 0.5}, 1, "b"),
			plot.ClassPoint([]float64{0.5, 1}, 2, "c"),
		},
		Query: []float64{0.5, 0.5},
	}
	bounds, err := plot.CalculateBounds(plot.Coords(scene.Points), nil, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	mesh, err := plot.MeshGrid(bounds, 3)
	if err != nil {
		t.Fatal(err)
	}
	classes := make([]int, len(mesh))
	for i := range classes {
		classes[i] = i % 2
	}
	scene.Boundary = &plot.Boundary{Dims: plot.Dim2, Mesh: mesh, Classes: classes}

	svg, err := ScatterToSVG(scene, 400, 300, []string{"#ff0000", "#00ff00"})
	if err != nil {
		t.Fatalf("ScatterToSVG: %v", err)
	}
	if got := strings.Count(svg, "<rect"); got != len(mesh)+1 {
		t.Errorf("rects = %d, want %d mesh cells plus background", got, len(mesh)+1)
	}
	// Three samples plus the query ring.
	if got := strings.Count(svg, "<circle"); got != 4 {
		t.Errorf("circles = %d, want 4", got)
	}
	if !strings.Contains(svg, `stroke="#ffffff"`) {
		t.Error("query ring missing")
	}
	// Class 2 is past the palette and must fall back.
	if !strings.Contains(svg, `fill="`+defaultFill+`"`) {
		t.Error("fallback fill missing for class beyond palette")
	}
}

func TestScatterToSVGErrors(t *testing.T) {
	if _, err := ScatterToSVG(plot.Scene{}, 100, 100, nil); !errors.Is(err, plot.ErrNoData) {
		t.Errorf("empty scene error = %v, want ErrNoData", err)
	}

	oneAxis := plot.Scene{Points: []plot.Point{plot.ClassPoint([]float64{1}, 0, "")}}
	if _, err := ScatterToSVG(oneAxis, 100, 100, nil); !errors.Is(err, plot.ErrDimensionMismatch) {
		t.Errorf("1d scene error = %v, want ErrDimensionMismatch", err)
	}

	bad := plot.Scene{
		Points:   []plot.Point{plot.ClassPoint([]float64{0, 0}, 0, "")},
		Boundary: &plot.Boundary{Dims: plot.Dim2, Mesh: [][]float64{{0, 0}}, Classes: []int{0, 1}},
	}
	if _, err := ScatterToSVG(bad, 100, 100, nil); !errors.Is(err, plot.ErrBadBoundary) {
		t.Errorf("misaligned boundary error = %v, want ErrBadBoundary", err)
	}
}
