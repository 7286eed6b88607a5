// Package knn is a brute-force k-nearest-neighbor classifier sized for
// the datasets the visualizations explore. Besides prediction it
// exposes the artifacts the neighbor pages render: per-query neighbor
// lists, full distance matrices, neighbor graphs and class decision
// boundaries over a mesh.
package knn

import (
	"errors"
	"fmt"
	"sort"

	"github.com/san-kum/mlviz/internal/dataset"
	"github.com/san-kum/mlviz/internal/plot"
)

var (
	ErrBadK     = errors.New("knn: neighbor count out of range")
	ErrBadP     = errors.New("knn: minkowski power must be >= 1")
	ErrBadPoint = errors.New("knn: query point has wrong dimensions")
)

// Config selects the algorithm parameters.
type Config struct {
	K       int
	Weights Weights
	Metric  Metric
	// P is the Minkowski power; 1 is Manhattan, 2 Euclidean.
	P float64
}

func DefaultConfig() Config {
	return Config{K: 5, Weights: WeightsUniform, Metric: MetricMinkowski, P: 2}
}

// Classifier holds the training samples; there is no fitting step
// beyond validation.
type Classifier struct {
	ds  *dataset.Dataset
	cfg Config
}

// New validates cfg against ds. K must lie in [1, samples].
func New(ds *dataset.Dataset, cfg Config) (*Classifier, error) {
	if cfg.K < 1 || cfg.K > ds.NumSamples() {
		return nil, fmt.Errorf("%w: k=%d with %d samples", ErrBadK, cfg.K, ds.NumSamples())
	}
	if cfg.Metric == MetricMinkowski && cfg.P < 1 {
		return nil, fmt.Errorf("%w: p=%g", ErrBadP, cfg.P)
	}
	return &Classifier{ds: ds, cfg: cfg}, nil
}

func (c *Classifier) Config() Config            { return c.cfg }
func (c *Classifier) Dataset() *dataset.Dataset { return c.ds }

// Neighbor is one training point seen from a query point.
type Neighbor struct {
	Index    int
	Distance float64
	Class    int
	Label    string
	Coords   []float64
}

// Predict classifies query by vote among the K nearest training
// points. Uniform weighting counts each neighbor once; distance
// weighting counts 1/d, so exact matches dominate. Vote ties go to the
// lower class index.
func (c *Classifier) Predict(query []float64) (int, error) {
	nbs, err := c.Neighbors(query, c.cfg.K)
	if err != nil {
		return 0, err
	}
	votes := make([]float64, c.ds.NumClasses())
	for _, nb := range nbs {
		votes[nb.Class] += c.weight(nb.Distance)
	}
	best := 0
	for class, v := range votes {
		if v > votes[best] {
			best = class
		}
	}
	return best, nil
}

const minDistance = 1e-12

func (c *Classifier) weight(d float64) float64 {
	if c.cfg.Weights == WeightsUniform {
		return 1
	}
	if d < minDistance {
		d = minDistance
	}
	return 1 / d
}

// Neighbors returns the k training points closest to query, nearest
// first. Equal distances order by training index.
func (c *Classifier) Neighbors(query []float64, k int) ([]Neighbor, error) {
	if k < 1 || k > c.ds.NumSamples() {
		return nil, fmt.Errorf("%w: k=%d with %d samples", ErrBadK, k, c.ds.NumSamples())
	}
	dists, err := c.Distances(query)
	if err != nil {
		return nil, err
	}
	order := make([]int, len(dists))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		i, j := order[a], order[b]
		if dists[i] != dists[j] {
			return dists[i] < dists[j]
		}
		return i < j
	})

	nbs := make([]Neighbor, k)
	for n := 0; n < k; n++ {
		i := order[n]
		nbs[n] = Neighbor{
			Index:    i,
			Distance: dists[i],
			Class:    c.ds.Y[i],
			Label:    c.ds.ClassNames[c.ds.Y[i]],
			Coords:   c.ds.X[i],
		}
	}
	return nbs, nil
}

// Distances returns the distance from query to every training point,
// in training order.
func (c *Classifier) Distances(query []float64) ([]float64, error) {
	if len(query) != c.ds.NumFeatures() {
		return nil, fmt.Errorf("%w: got %d values, want %d", ErrBadPoint, len(query), c.ds.NumFeatures())
	}
	dists := make([]float64, c.ds.NumSamples())
	for i, row := range c.ds.X {
		dists[i] = Distance(query, row, c.cfg.Metric, c.cfg.P)
	}
	return dists, nil
}

// DistanceMatrix returns pairwise training distances with an exactly
// zero diagonal.
func (c *Classifier) DistanceMatrix() [][]float64 {
	n := c.ds.NumSamples()
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Distance(c.ds.X[i], c.ds.X[j], c.cfg.Metric, c.cfg.P)
			m[i][j], m[j][i] = d, d
		}
	}
	return m
}

// NeighborIndices returns, for every training point, the indices of its
// K nearest other training points, closest first. The point itself is
// excluded.
func (c *Classifier) NeighborIndices() [][]int {
	n := c.ds.NumSamples()
	k := c.cfg.K
	if k > n-1 {
		k = n - 1
	}
	m := c.DistanceMatrix()
	out := make([][]int, n)
	for i := 0; i < n; i++ {
		order := make([]int, 0, n-1)
		for j := 0; j < n; j++ {
			if j != i {
				order = append(order, j)
			}
		}
		sort.Slice(order, func(a, b int) bool {
			x, y := order[a], order[b]
			if m[i][x] != m[i][y] {
				return m[i][x] < m[i][y]
			}
			return x < y
		})
		out[i] = order[:k:k]
	}
	return out
}

// DecisionBoundary predicts the class at every point of a mesh spanning
// the training data with a 10% margin. The dataset must have 1 to 3
// features; project it first otherwise.
func (c *Classifier) DecisionBoundary(resolution int) (*plot.Boundary, error) {
	dims, err := plot.DimensionsOf(c.ds.X)
	if err != nil {
		return nil, err
	}
	bounds, err := plot.CalculateBounds(c.ds.X, nil, 0.1)
	if err != nil {
		return nil, err
	}
	mesh, err := plot.MeshGrid(bounds, resolution)
	if err != nil {
		return nil, err
	}
	classes, err := plot.ClassifyMesh(mesh, c.Predict)
	if err != nil {
		return nil, err
	}
	return &plot.Boundary{Dims: dims, Mesh: mesh, Classes: classes}, nil
}
