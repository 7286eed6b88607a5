package plot

import "fmt"

// Dimensions classifies how many feature axes a drawing uses. The set
// is closed: every renderer, mesh generator and view switches over it
// exhaustively.
type Dimensions int

const (
	Dim1 Dimensions = 1
	Dim2 Dimensions = 2
	Dim3 Dimensions = 3
)

func (d Dimensions) String() string {
	switch d {
	case Dim1:
		return "1d"
	case Dim2:
		return "2d"
	case Dim3:
		return "3d"
	}
	return fmt.Sprintf("Dimensions(%d)", int(d))
}

// Valid reports whether d is one of the supported dimensionalities.
func (d Dimensions) Valid() bool {
	return d >= Dim1 && d <= Dim3
}

// DetectDimensions maps a selected feature count onto a dimensionality.
// Counts outside 1..3 are rejected so the caller can surface the error
// once instead of every renderer guessing at a fallback.
func DetectDimensions(features int) (Dimensions, error) {
	d := Dimensions(features)
	if !d.Valid() {
		return 0, fmt.Errorf("%w: %d features", ErrBadDimensions, features)
	}
	return d, nil
}

// DimensionsOf detects the shared coordinate arity of raw sample rows.
// Empty input and ragged rows are rejected before the arity test, so
// untrusted point lists can be handed straight in.
func DimensionsOf(points [][]float64) (Dimensions, error) {
	if len(points) == 0 {
		return 0, fmt.Errorf("%w: no points", ErrNoData)
	}
	arity := len(points[0])
	for i, row := range points {
		if len(row) != arity {
			return 0, fmt.Errorf("%w: row %d has %d values, row 0 has %d",
				ErrDimensionMismatch, i, len(row), arity)
		}
	}
	return DetectDimensions(arity)
}
