// Package dataset provides the sample collections the visualizations
// are built on: a bundled iris copy, synthetic generators and a loader
// registry.
package dataset

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrUnknownDataset = errors.New("dataset: unknown dataset")
	ErrBadDataset     = errors.New("dataset: malformed dataset")
	ErrBadFeature     = errors.New("dataset: feature index out of range")
)

// Dataset is a labeled sample matrix. Rows of X are samples, Y holds
// the class index per row, and the name slices describe columns and
// classes for display.
type Dataset struct {
	Name         string
	X            [][]float64
	Y            []int
	FeatureNames []string
	ClassNames   []string
}

func (d *Dataset) NumSamples() int  { return len(d.X) }
func (d *Dataset) NumFeatures() int { return len(d.FeatureNames) }
func (d *Dataset) NumClasses() int  { return len(d.ClassNames) }

// Validate checks the matrix shape against the name slices and the
// label range.
func (d *Dataset) Validate() error {
	if len(d.X) != len(d.Y) {
		return fmt.Errorf("%w: %d rows but %d labels", ErrBadDataset, len(d.X), len(d.Y))
	}
	if len(d.FeatureNames) == 0 {
		return fmt.Errorf("%w: no features", ErrBadDataset)
	}
	for i, row := range d.X {
		if len(row) != len(d.FeatureNames) {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrBadDataset, i, len(row), len(d.FeatureNames))
		}
	}
	for i, y := range d.Y {
		if y < 0 || y >= len(d.ClassNames) {
			return fmt.Errorf("%w: label %d at row %d outside %d classes", ErrBadDataset, y, i, len(d.ClassNames))
		}
	}
	return nil
}

// Column copies one feature column.
func (d *Dataset) Column(feature int) ([]float64, error) {
	if feature < 0 || feature >= d.NumFeatures() {
		return nil, fmt.Errorf("%w: %d", ErrBadFeature, feature)
	}
	col := make([]float64, len(d.X))
	for i, row := range d.X {
		col[i] = row[feature]
	}
	return col, nil
}

// Subset returns a view over the given row indices. Rows are shared
// with the parent, not copied.
func (d *Dataset) Subset(idx []int) *Dataset {
	sub := &Dataset{
		Name:         d.Name,
		X:            make([][]float64, 0, len(idx)),
		Y:            make([]int, 0, len(idx)),
		FeatureNames: d.FeatureNames,
		ClassNames:   d.ClassNames,
	}
	for _, i := range idx {
		sub.X = append(sub.X, d.X[i])
		sub.Y = append(sub.Y, d.Y[i])
	}
	return sub
}

// SelectFeatures projects the dataset onto the given feature columns,
// in order. Plots use this to reduce to 1-3 dimensions.
func (d *Dataset) SelectFeatures(features ...int) (*Dataset, error) {
	names := make([]string, len(features))
	for i, f := range features {
		if f < 0 || f >= d.NumFeatures() {
			return nil, fmt.Errorf("%w: %d", ErrBadFeature, f)
		}
		names[i] = d.FeatureNames[f]
	}
	out := &Dataset{
		Name:         d.Name,
		X:            make([][]float64, len(d.X)),
		Y:            d.Y,
		FeatureNames: names,
		ClassNames:   d.ClassNames,
	}
	for i, row := range d.X {
		proj := make([]float64, len(features))
		for j, f := range features {
			proj[j] = row[f]
		}
		out.X[i] = proj
	}
	return out, nil
}

// Split shuffles the rows with the given seed and cuts off testFrac of
// them as the test set. testFrac 0 returns everything as training data
// and an empty test set.
func (d *Dataset) Split(testFrac float64, seed int64) (train, test *Dataset) {
	idx := make([]int, len(d.X))
	for i := range idx {
		idx[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

	nTest := int(float64(len(idx)) * testFrac)
	if nTest < 0 {
		nTest = 0
	}
	if nTest > len(idx) {
		nTest = len(idx)
	}
	return d.Subset(idx[nTest:]), d.Subset(idx[:nTest])
}

// ClassCounts tallies labels over the whole dataset.
func (d *Dataset) ClassCounts() []int {
	counts := make([]int, d.NumClasses())
	for _, y := range d.Y {
		if y >= 0 && y < len(counts) {
			counts[y]++
		}
	}
	return counts
}
