package plot

import (
	"fmt"
	"runtime"
	"sync"
)

// max3DResolution caps the per-axis mesh density in 3D. A full cube at
// the 2D default would evaluate the classifier a million times for a
// plot that can only show a few thousand cells.
const max3DResolution = 30

// Boundary is a classified decision-region mesh: Classes[i] is the
// predicted class for Mesh[i].
type Boundary struct {
	Dims    Dimensions
	Mesh    [][]float64
	Classes []int
}

// Validate checks mesh/prediction alignment and coordinate widths.
func (b *Boundary) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil boundary", ErrBadBoundary)
	}
	if !b.Dims.Valid() {
		return fmt.Errorf("%w: %d", ErrBadDimensions, int(b.Dims))
	}
	if len(b.Mesh) != len(b.Classes) {
		return fmt.Errorf("%w: %d mesh points but %d predictions", ErrBadBoundary, len(b.Mesh), len(b.Classes))
	}
	for i, row := range b.Mesh {
		if len(row) != int(b.Dims) {
			return fmt.Errorf("%w: mesh row %d has %d values, want %d", ErrBadBoundary, i, len(row), int(b.Dims))
		}
	}
	return nil
}

// MeshGrid builds an evaluation grid spanning b with resolution points
// per axis, row-major over the axes in order. In 3D the resolution is
// capped at 30 per side.
func MeshGrid(b Bounds, resolution int) ([][]float64, error) {
	if resolution < 2 {
		return nil, fmt.Errorf("%w: %d", ErrBadResolution, resolution)
	}
	dims, err := DetectDimensions(b.Dims())
	if err != nil {
		return nil, err
	}
	if dims == Dim3 && resolution > max3DResolution {
		resolution = max3DResolution
	}

	axes := make([][]float64, dims)
	for axis := 0; axis < int(dims); axis++ {
		axes[axis] = linspace(b.Min(axis), b.Max(axis), resolution)
	}

	switch dims {
	case Dim1:
		mesh := make([][]float64, 0, resolution)
		for _, x := range axes[0] {
			mesh = append(mesh, []float64{x})
		}
		return mesh, nil
	case Dim2:
		mesh := make([][]float64, 0, resolution*resolution)
		for _, x := range axes[0] {
			for _, y := range axes[1] {
				mesh = append(mesh, []float64{x, y})
			}
		}
		return mesh, nil
	case Dim3:
		mesh := make([][]float64, 0, resolution*resolution*resolution)
		for _, x := range axes[0] {
			for _, y := range axes[1] {
				for _, z := range axes[2] {
					mesh = append(mesh, []float64{x, y, z})
				}
			}
		}
		return mesh, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrBadDimensions, dims)
}

// classifyChunk is the smallest mesh slice worth a goroutine. A 2D
// boundary at the default resolution is ~2300 points, so sweeps split
// into at most a handful of chunks.
const classifyChunk = 256

// ClassifyMesh evaluates classify at every mesh point and returns the
// predictions in mesh order. Large meshes are swept in parallel; the
// first error aborts the sweep's result.
func ClassifyMesh(mesh [][]float64, classify func([]float64) (int, error)) ([]int, error) {
	classes := make([]int, len(mesh))
	errs := make([]error, len(mesh))
	parallelFor(len(mesh), classifyChunk, func(start, end int) {
		for i := start; i < end; i++ {
			classes[i], errs[i] = classify(mesh[i])
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return classes, nil
}

// parallelFor runs fn over contiguous chunks of [0, n), one goroutine
// per chunk. Ranges smaller than minChunk stay on the caller.
func parallelFor(n, minChunk int, fn func(start, end int)) {
	workers := runtime.GOMAXPROCS(0)
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}
	if n/minChunk < workers {
		workers = n / minChunk
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > n {
			end = n
		}
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// linspace returns n evenly spaced values from lo to hi inclusive.
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}
