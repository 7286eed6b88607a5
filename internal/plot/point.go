package plot

import "github.com/san-kum/mlviz/internal/dataset"

// PointKind discriminates the two sample flavors a scene can carry.
type PointKind int

const (
	// KindClassification points carry a class index and display label.
	KindClassification PointKind = iota
	// KindRegression points carry a continuous value instead.
	KindRegression
)

// Point is one drawable sample. Kind states which of the remaining
// fields are meaningful; there is no third variant.
type Point struct {
	Kind   PointKind
	Coords []float64
	Class  int
	Label  string
	Value  float64
}

// ClassPoint builds a classification sample.
func ClassPoint(coords []float64, class int, label string) Point {
	return Point{Kind: KindClassification, Coords: coords, Class: class, Label: label}
}

// ValuePoint builds a regression sample.
func ValuePoint(coords []float64, value float64) Point {
	return Point{Kind: KindRegression, Coords: coords, Value: value}
}

// FromDataset converts every row of ds into a classification point.
// Coordinate slices alias the dataset rows.
func FromDataset(ds *dataset.Dataset) []Point {
	pts := make([]Point, len(ds.X))
	for i, row := range ds.X {
		label := ""
		if ds.Y[i] >= 0 && ds.Y[i] < len(ds.ClassNames) {
			label = ds.ClassNames[ds.Y[i]]
		}
		pts[i] = ClassPoint(row, ds.Y[i], label)
	}
	return pts
}

// Coords extracts the coordinate rows of pts, preserving order.
func Coords(pts []Point) [][]float64 {
	rows := make([][]float64, len(pts))
	for i, p := range pts {
		rows[i] = p.Coords
	}
	return rows
}
