package plot

// Transform is the view-space affine a zoomable surface applies on top
// of the data-to-pixel mapping. Scale multiplies pixel coordinates,
// the translations shift them afterwards, so Scale 1 with zero offsets
// is the untouched fit-to-canvas view.
type Transform struct {
	Scale      float64
	TranslateX float64
	TranslateY float64
}

// Identity returns the untransformed view.
func Identity() Transform { return Transform{Scale: 1} }

func (t Transform) IsIdentity() bool {
	return t.Scale == 1 && t.TranslateX == 0 && t.TranslateY == 0
}

// Apply maps a pixel coordinate through the view transform.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return x*t.Scale + t.TranslateX, y*t.Scale + t.TranslateY
}

// Invert maps a screen pixel back into pre-transform pixel space.
// A zero scale inverts to the origin rather than dividing by zero.
func (t Transform) Invert(x, y float64) (float64, float64) {
	if t.Scale == 0 {
		return 0, 0
	}
	return (x - t.TranslateX) / t.Scale, (y - t.TranslateY) / t.Scale
}
