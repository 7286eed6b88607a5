package plot

import "fmt"

// Bounds holds the padded [min, max] extent per axis.
type Bounds [][2]float64

func (b Bounds) Dims() int            { return len(b) }
func (b Bounds) Min(axis int) float64 { return b[axis][0] }
func (b Bounds) Max(axis int) float64 { return b[axis][1] }

// Range returns the axis extent. CalculateBounds never produces a zero
// range, so callers can divide by it.
func (b Bounds) Range(axis int) float64 { return b[axis][1] - b[axis][0] }

// CalculateBounds computes per-axis extents over the union of data
// points and an optional boundary mesh, then widens each axis by
// padding (a fraction of the axis range, 0.1 adds 10% on both sides).
//
// An axis where every value coincides gets a synthetic range of 1.0
// centered on the value before padding applies, so downstream
// pixel-mapping and mesh generation never divide by zero.
func CalculateBounds(points, mesh [][]float64, padding float64) (Bounds, error) {
	if padding < 0 {
		return nil, fmt.Errorf("%w: %v", ErrBadPadding, padding)
	}
	var first []float64
	for _, row := range points {
		first = row
		break
	}
	if first == nil {
		for _, row := range mesh {
			first = row
			break
		}
	}
	if first == nil {
		return nil, ErrNoData
	}

	dims := len(first)
	if dims == 0 {
		return nil, fmt.Errorf("%w: empty coordinate row", ErrDimensionMismatch)
	}
	b := make(Bounds, dims)
	for axis := 0; axis < dims; axis++ {
		b[axis] = [2]float64{first[axis], first[axis]}
	}

	scan := func(rows [][]float64) error {
		for i, row := range rows {
			if len(row) != dims {
				return fmt.Errorf("%w: row %d has %d values, want %d", ErrDimensionMismatch, i, len(row), dims)
			}
			for axis, v := range row {
				if v < b[axis][0] {
					b[axis][0] = v
				}
				if v > b[axis][1] {
					b[axis][1] = v
				}
			}
		}
		return nil
	}
	if err := scan(points); err != nil {
		return nil, err
	}
	if err := scan(mesh); err != nil {
		return nil, err
	}

	for axis := range b {
		if b[axis][1] == b[axis][0] {
			b[axis][0] -= 0.5
			b[axis][1] += 0.5
		}
		pad := padding * (b[axis][1] - b[axis][0])
		b[axis][0] -= pad
		b[axis][1] += pad
	}
	return b, nil
}
