package viz

import (
	"math"
	"sort"
)

type Vec3 struct {
	X, Y, Z float64
}

// Vec3 methods.
func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Length() float64      { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Camera projects 3D scatter coordinates onto the 2D canvas plane.
type Camera struct {
	Distance         float64
	Near             float64
	RotX, RotY, RotZ float64
	Zoom             float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 50, Near: 0.1, RotX: -0.4, RotY: 0.6, Zoom: 1.0}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) RotateZ(a float64) { c.RotZ += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// RotatePoint rotates a point around the camera's axes.
func (c *Camera) RotatePoint(p Vec3) Vec3 {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	return p
}

// Project converts 3D coordinates to sub-pixel screen coordinates.
// Returns x, y, depth, and visibility. Input is expected roughly inside
// the unit cube around the origin; callers normalize their data first.
func (c *Camera) Project(p Vec3, sw, sh int) (int, int, float64, bool) {
	rot := c.RotatePoint(p).Scale(c.Zoom)
	dist := c.Distance
	if rot.Z >= dist-c.Near {
		return 0, 0, 0, false
	}
	scale := dist / (dist - rot.Z)
	minDim := float64(sh)
	if float64(sw) < minDim {
		minDim = float64(sw)
	}
	pScale := minDim / 3.0
	sx := int(rot.X*scale*pScale) + sw/2
	sy := int(-rot.Y*scale*pScale) + sh/2
	return sx, sy, rot.Z, sx >= 0 && sx < sw && sy >= 0 && sy < sh
}

// CloudPoint is a colored sample in camera space.
type CloudPoint struct {
	Pos   Vec3
	Color int
}

// PointCloud collects the scatter samples and reference edges of a 3D
// scene. Edges carry no color and render beneath the points.
type PointCloud struct {
	Points []CloudPoint
	Edges  [][2]Vec3
}

func NewPointCloud() *PointCloud              { return &PointCloud{} }
func (pc *PointCloud) AddPoint(p Vec3, c int) { pc.Points = append(pc.Points, CloudPoint{p, c}) }
func (pc *PointCloud) AddEdge(a, b Vec3)      { pc.Edges = append(pc.Edges, [2]Vec3{a, b}) }
func (pc *PointCloud) Clear()                 { pc.Points, pc.Edges = pc.Points[:0], pc.Edges[:0] }

type projected struct {
	x, y  int
	depth float64
	color int
}

// RenderCloud draws edges first, then the points far-to-near so closer
// samples overwrite the cells behind them.
func RenderCloud(c *Canvas, pc *PointCloud, cam *Camera) {
	if c == nil || pc == nil || cam == nil {
		return
	}
	sw, sh := c.Width*2, c.Height*4
	for _, e := range pc.Edges {
		x1, y1, _, v1 := cam.Project(e[0], sw, sh)
		x2, y2, _, v2 := cam.Project(e[1], sw, sh)
		if v1 || v2 {
			c.DrawLine(x1, y1, x2, y2)
		}
	}

	pts := make([]projected, 0, len(pc.Points))
	for _, p := range pc.Points {
		x, y, d, vis := cam.Project(p.Pos, sw, sh)
		if vis {
			pts = append(pts, projected{x, y, d, p.Color})
		}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].depth < pts[j].depth })
	for _, p := range pts {
		c.SetColored(p.x, p.y, p.color)
	}
}

// BoxEdges returns the 12 edges of the axis-aligned box spanning min
// to max, used as the reference frame around a 3D scatter.
func BoxEdges(min, max Vec3) [][2]Vec3 {
	v := []Vec3{
		{min.X, min.Y, min.Z}, {max.X, min.Y, min.Z},
		{max.X, max.Y, min.Z}, {min.X, max.Y, min.Z},
		{min.X, min.Y, max.Z}, {max.X, min.Y, max.Z},
		{max.X, max.Y, max.Z}, {min.X, max.Y, max.Z},
	}
	ei := [][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	edges := make([][2]Vec3, len(ei))
	for i, e := range ei {
		edges[i] = [2]Vec3{v[e[0]], v[e[1]]}
	}
	return edges
}
