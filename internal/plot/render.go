package plot

import (
	"fmt"
	"math"

	"github.com/san-kum/mlviz/internal/viz"
)

// Scene is everything one frame draws: samples, an optional decision
// boundary behind them, and an optional probe coordinate.
type Scene struct {
	Points   []Point
	Boundary *Boundary
	Query    []float64
}

// Frame carries the per-draw context a renderer needs. Zero values
// degrade gracefully: nil Bounds are computed from the scene, a zero
// Transform means the identity view, a nil Camera gets the default.
type Frame struct {
	Bounds    Bounds
	Transform Transform
	Camera    *viz.Camera

	// PointColor maps a sample to a canvas color index. Nil uses the
	// class index directly (regression points map to 0).
	PointColor func(Point) int
	// BoundaryColor maps a predicted class to a canvas color index.
	// Nil uses the class index directly.
	BoundaryColor func(class int) int
	// QueryColor is the canvas color index for the probe marker.
	QueryColor int
}

// Renderer draws a scene onto a canvas for one fixed dimensionality.
type Renderer interface {
	Dims() Dimensions
	Draw(c *viz.Canvas, scene Scene, f Frame) error
}

// SelectRenderer routes a dimensionality to its renderer. The mapping
// is total over valid dimensions and fails for anything else.
func SelectRenderer(d Dimensions) (Renderer, error) {
	switch d {
	case Dim1:
		return renderer1D{}, nil
	case Dim2:
		return renderer2D{}, nil
	case Dim3:
		return renderer3D{}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrBadDimensions, int(d))
}

func (f Frame) pointColor(p Point) int {
	if f.PointColor != nil {
		return f.PointColor(p)
	}
	if p.Kind == KindClassification {
		return p.Class
	}
	return 0
}

func (f Frame) boundaryColor(class int) int {
	if f.BoundaryColor != nil {
		return f.BoundaryColor(class)
	}
	return class
}

// resolve fills in frame defaults and checks the scene against the
// expected dimensionality.
func (f Frame) resolve(scene Scene, dims Dimensions) (Frame, error) {
	if scene.Boundary != nil {
		if err := scene.Boundary.Validate(); err != nil {
			return f, err
		}
		if scene.Boundary.Dims != dims {
			return f, fmt.Errorf("%w: %v boundary in a %v plot", ErrDimensionMismatch, scene.Boundary.Dims, dims)
		}
	}
	for i, p := range scene.Points {
		if len(p.Coords) < int(dims) {
			return f, fmt.Errorf("%w: point %d has %d coords, want %d", ErrDimensionMismatch, i, len(p.Coords), int(dims))
		}
	}
	if scene.Query != nil && len(scene.Query) < int(dims) {
		return f, fmt.Errorf("%w: query has %d coords, want %d", ErrDimensionMismatch, len(scene.Query), int(dims))
	}
	if f.Bounds == nil {
		var mesh [][]float64
		if scene.Boundary != nil {
			mesh = scene.Boundary.Mesh
		}
		b, err := CalculateBounds(Coords(scene.Points), mesh, 0.05)
		if err != nil {
			return f, err
		}
		f.Bounds = b
	}
	if f.Bounds.Dims() < int(dims) {
		return f, fmt.Errorf("%w: bounds cover %d axes, want %d", ErrDimensionMismatch, f.Bounds.Dims(), int(dims))
	}
	if f.Transform.Scale == 0 {
		f.Transform = Identity()
	}
	return f, nil
}

// mapper converts data coordinates on two axes into transformed canvas
// pixels. yNorm inputs are already in [0,1] (1 = top of the plot).
type mapper struct {
	f       Frame
	pw, ph  int
	xAxis   int
	yAxis   int
	yIsNorm bool
	yMin    float64
	yRange  float64
}

func newMapper(c *viz.Canvas, f Frame, xAxis, yAxis int) mapper {
	m := mapper{f: f, pw: c.Width * 2, ph: c.Height * 4, xAxis: xAxis, yAxis: yAxis}
	if yAxis < 0 {
		m.yIsNorm = true
	} else {
		m.yMin = f.Bounds.Min(yAxis)
		m.yRange = f.Bounds.Range(yAxis)
	}
	return m
}

func (m mapper) pixel(x, y float64) (int, int) {
	nx := (x - m.f.Bounds.Min(m.xAxis)) / m.f.Bounds.Range(m.xAxis)
	var ny float64
	if m.yIsNorm {
		ny = y
	} else {
		ny = (y - m.yMin) / m.yRange
	}
	px := nx * float64(m.pw-1)
	py := (1 - ny) * float64(m.ph-1)
	tx, ty := m.f.Transform.Apply(px, py)
	return int(math.Round(tx)), int(math.Round(ty))
}

type renderer1D struct{}

func (renderer1D) Dims() Dimensions { return Dim1 }

// Draw lays samples out along a horizontal axis. Classification points
// stack on per-class rows above the axis; regression points rise with
// their value. A boundary paints a colored band onto the axis itself.
func (renderer1D) Draw(c *viz.Canvas, scene Scene, f Frame) error {
	f, err := f.resolve(scene, Dim1)
	if err != nil {
		return err
	}
	m := newMapper(c, f, 0, -1)

	const axisY = 0.35
	x0, y0 := m.pixel(f.Bounds.Min(0), axisY)
	x1, _ := m.pixel(f.Bounds.Max(0), axisY)
	c.DrawLine(x0, y0, x1, y0)

	if scene.Boundary != nil {
		for i, row := range scene.Boundary.Mesh {
			px, py := m.pixel(row[0], axisY)
			color := f.boundaryColor(scene.Boundary.Classes[i])
			for dy := -2; dy <= 2; dy++ {
				c.SetColored(px, py+dy, color)
			}
		}
	}

	vMin, vMax := valueRange(scene.Points)
	for _, p := range scene.Points {
		ny := axisY
		switch p.Kind {
		case KindClassification:
			ny = axisY + 0.12*float64(p.Class+1)
		case KindRegression:
			if vMax > vMin {
				ny = axisY + 0.1 + 0.5*(p.Value-vMin)/(vMax-vMin)
			} else {
				ny = axisY + 0.1
			}
		}
		if ny > 0.98 {
			ny = 0.98
		}
		px, py := m.pixel(p.Coords[0], ny)
		c.SetColored(px, py, f.pointColor(p))
	}

	if scene.Query != nil {
		px, top := m.pixel(scene.Query[0], 0.98)
		_, bottom := m.pixel(scene.Query[0], 0.02)
		c.DrawLineColored(px, top, px, bottom, f.QueryColor)
	}
	return nil
}

type renderer2D struct{}

func (renderer2D) Dims() Dimensions { return Dim2 }

// Draw shades the boundary mesh first and scatters samples over it, so
// data always wins where a sample and a region cell share a braille
// cell.
func (renderer2D) Draw(c *viz.Canvas, scene Scene, f Frame) error {
	f, err := f.resolve(scene, Dim2)
	if err != nil {
		return err
	}
	m := newMapper(c, f, 0, 1)

	if scene.Boundary != nil {
		for i, row := range scene.Boundary.Mesh {
			px, py := m.pixel(row[0], row[1])
			c.SetColored(px, py, f.boundaryColor(scene.Boundary.Classes[i]))
		}
	}
	for _, p := range scene.Points {
		px, py := m.pixel(p.Coords[0], p.Coords[1])
		c.SetColored(px, py, f.pointColor(p))
	}
	if scene.Query != nil {
		px, py := m.pixel(scene.Query[0], scene.Query[1])
		drawCross(c, px, py, f.QueryColor)
	}
	return nil
}

type renderer3D struct{}

func (renderer3D) Dims() Dimensions { return Dim3 }

// Draw projects samples through a perspective camera. Data coordinates
// are normalized into the [-1,1] cube so camera distance and zoom act
// the same for every dataset; a wireframe box marks the data extent.
func (renderer3D) Draw(c *viz.Canvas, scene Scene, f Frame) error {
	f, err := f.resolve(scene, Dim3)
	if err != nil {
		return err
	}
	cam := f.Camera
	if cam == nil {
		cam = viz.NewCamera()
	}

	norm := func(row []float64) viz.Vec3 {
		return viz.Vec3{
			X: 2*(row[0]-f.Bounds.Min(0))/f.Bounds.Range(0) - 1,
			Y: 2*(row[1]-f.Bounds.Min(1))/f.Bounds.Range(1) - 1,
			Z: 2*(row[2]-f.Bounds.Min(2))/f.Bounds.Range(2) - 1,
		}
	}

	cloud := viz.NewPointCloud()
	lo, hi := viz.Vec3{X: -1, Y: -1, Z: -1}, viz.Vec3{X: 1, Y: 1, Z: 1}
	for _, e := range viz.BoxEdges(lo, hi) {
		cloud.AddEdge(e[0], e[1])
	}
	if scene.Boundary != nil {
		for i, row := range scene.Boundary.Mesh {
			cloud.AddPoint(norm(row), f.boundaryColor(scene.Boundary.Classes[i]))
		}
	}
	for _, p := range scene.Points {
		cloud.AddPoint(norm(p.Coords), f.pointColor(p))
	}
	if scene.Query != nil {
		cloud.AddPoint(norm(scene.Query), f.QueryColor)
	}
	viz.RenderCloud(c, cloud, cam)
	return nil
}

func drawCross(c *viz.Canvas, px, py, color int) {
	for d := -2; d <= 2; d++ {
		c.SetColored(px+d, py, color)
		c.SetColored(px, py+d, color)
	}
}

func valueRange(pts []Point) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		if p.Kind != KindRegression {
			continue
		}
		lo = math.Min(lo, p.Value)
		hi = math.Max(hi, p.Value)
	}
	return lo, hi
}
