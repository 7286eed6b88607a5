package plot

import "errors"

// Errors returned by bounds, mesh and renderer operations.
var (
	ErrNoData            = errors.New("plot: no points to compute bounds from")
	ErrDimensionMismatch = errors.New("plot: coordinate width does not match")
	ErrBadDimensions     = errors.New("plot: dimensionality outside 1..3")
	ErrBadPadding        = errors.New("plot: padding must be non-negative")
	ErrBadResolution     = errors.New("plot: mesh resolution must be at least 2")
	ErrBadBoundary       = errors.New("plot: malformed boundary")
)
