package knn

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/mlviz/internal/dataset"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// clusters is two well separated 2D blobs of four points each.
func clusters() *dataset.Dataset {
	return &dataset.Dataset{
		Name: "clusters",
		X: [][]float64{
			{1, 1}, {1, 2}, {2, 1}, {2, 2},
			{8, 8}, {8, 9}, {9, 8}, {9, 9},
		},
		Y:            []int{0, 0, 0, 0, 1, 1, 1, 1},
		FeatureNames: []string{"x", "y"},
		ClassNames:   []string{"low", "high"},
	}
}

func TestDistance(t *testing.T) {
	a := []float64{0, 0}
	b := []float64{3, 4}
	tests := []struct {
		name   string
		metric Metric
		p      float64
		want   float64
	}{
		{"euclidean", MetricEuclidean, 2, 5},
		{"manhattan", MetricManhattan, 2, 7},
		{"chebyshev", MetricChebyshev, 2, 4},
		{"minkowski p=2", MetricMinkowski, 2, 5},
		{"minkowski p=1", MetricMinkowski, 1, 7},
		{"minkowski p=3", MetricMinkowski, 3, math.Cbrt(91)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(a, b, tt.metric, tt.p); !almostEqual(got, tt.want) {
				t.Errorf("Distance = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsers(t *testing.T) {
	for _, s := range []string{"minkowski", "euclidean", "manhattan", "chebyshev"} {
		m, err := ParseMetric(s)
		if err != nil {
			t.Fatalf("ParseMetric(%q): %v", s, err)
		}
		if m.String() != s {
			t.Errorf("round trip %q -> %q", s, m.String())
		}
	}
	if m, err := ParseMetric(""); err != nil || m != MetricMinkowski {
		t.Errorf("empty metric = %v, %v; want minkowski", m, err)
	}
	if _, err := ParseMetric("cosine"); err == nil {
		t.Errorf("unknown metric accepted")
	}

	for _, s := range []string{"uniform", "distance"} {
		w, err := ParseWeights(s)
		if err != nil {
			t.Fatalf("ParseWeights(%q): %v", s, err)
		}
		if w.String() != s {
			t.Errorf("round trip %q -> %q", s, w.String())
		}
	}
	if _, err := ParseWeights("squared"); err == nil {
		t.Errorf("unknown weights accepted")
	}
}

func TestNewValidatesConfig(t *testing.T) {
	ds := clusters()
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"k zero", Config{K: 0, P: 2}, ErrBadK},
		{"k beyond samples", Config{K: 9, P: 2}, ErrBadK},
		{"minkowski p below 1", Config{K: 3, Metric: MetricMinkowski, P: 0.5}, ErrBadP},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(ds, tt.cfg); !errors.Is(err, tt.want) {
				t.Errorf("New err = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := New(ds, DefaultConfig()); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
}

func TestPredict(t *testing.T) {
	c, err := New(clusters(), Config{K: 3, Metric: MetricEuclidean, P: 2})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Predict([]float64{1.5, 1.5}); got != 0 {
		t.Errorf("Predict near low cluster = %d, want 0", got)
	}
	if got, _ := c.Predict([]float64{8.5, 8.5}); got != 1 {
		t.Errorf("Predict near high cluster = %d, want 1", got)
	}
	if _, err := c.Predict([]float64{1}); !errors.Is(err, ErrBadPoint) {
		t.Errorf("short query err = %v, want ErrBadPoint", err)
	}
}

func TestPredictTieGoesToLowerClass(t *testing.T) {
	ds := &dataset.Dataset{
		Name:         "pair",
		X:            [][]float64{{0}, {2}},
		Y:            []int{0, 1},
		FeatureNames: []string{"x"},
		ClassNames:   []string{"a", "b"},
	}
	c, err := New(ds, Config{K: 2, Metric: MetricEuclidean, P: 2})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Predict([]float64{1}); got != 0 {
		t.Errorf("tie broke to %d, want 0", got)
	}
}

// Distance weighting must let one close neighbor outvote two far ones.
func TestDistanceWeighting(t *testing.T) {
	ds := &dataset.Dataset{
		Name:         "skewed",
		X:            [][]float64{{0}, {3}, {3.5}},
		Y:            []int{1, 0, 0},
		FeatureNames: []string{"x"},
		ClassNames:   []string{"far", "near"},
	}

	uniform, err := New(ds, Config{K: 3, Weights: WeightsUniform, Metric: MetricEuclidean, P: 2})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := uniform.Predict([]float64{0.5}); got != 0 {
		t.Errorf("uniform vote = %d, want 0", got)
	}

	weighted, err := New(ds, Config{K: 3, Weights: WeightsDistance, Metric: MetricEuclidean, P: 2})
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := weighted.Predict([]float64{0.5}); got != 1 {
		t.Errorf("weighted vote = %d, want 1", got)
	}
}

func TestNeighbors(t *testing.T) {
	c, err := New(clusters(), Config{K: 3, Metric: MetricEuclidean, P: 2})
	if err != nil {
		t.Fatal(err)
	}
	nbs, err := c.Neighbors([]float64{1, 1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(nbs) != 3 {
		t.Fatalf("got %d neighbors, want 3", len(nbs))
	}
	if nbs[0].Index != 0 || !almostEqual(nbs[0].Distance, 0) {
		t.Errorf("nearest = %+v, want index 0 at distance 0", nbs[0])
	}
	for i := 1; i < len(nbs); i++ {
		if nbs[i].Distance < nbs[i-1].Distance {
			t.Errorf("neighbors out of order: %v then %v", nbs[i-1].Distance, nbs[i].Distance)
		}
	}
	if nbs[0].Label != "low" || nbs[0].Class != 0 {
		t.Errorf("neighbor labeling: %+v", nbs[0])
	}
	if nbs[0].Coords[0] != 1 || nbs[0].Coords[1] != 1 {
		t.Errorf("neighbor coords: %v", nbs[0].Coords)
	}

	if _, err := c.Neighbors([]float64{1, 1}, 0); !errors.Is(err, ErrBadK) {
		t.Errorf("k=0 err = %v, want ErrBadK", err)
	}
	if _, err := c.Neighbors([]float64{1, 1}, 99); !errors.Is(err, ErrBadK) {
		t.Errorf("k=99 err = %v, want ErrBadK", err)
	}
}

func TestDistances(t *testing.T) {
	c, err := New(clusters(), Config{K: 1, Metric: MetricManhattan, P: 2})
	if err != nil {
		t.Fatal(err)
	}
	dists, err := c.Distances([]float64{0, 0})
	if err != nil {
		t.Fatal(err)
	}
	if len(dists) != 8 {
		t.Fatalf("got %d distances, want 8", len(dists))
	}
	if !almostEqual(dists[0], 2) || !almostEqual(dists[7], 18) {
		t.Errorf("dists[0]=%v dists[7]=%v, want 2 and 18", dists[0], dists[7])
	}
}

func TestDistanceMatrix(t *testing.T) {
	c, err := New(clusters(), Config{K: 2, Metric: MetricEuclidean, P: 2})
	if err != nil {
		t.Fatal(err)
	}
	m := c.DistanceMatrix()
	for i := range m {
		if m[i][i] != 0 {
			t.Errorf("diagonal [%d][%d] = %v, want 0", i, i, m[i][i])
		}
	}
	if !almostEqual(m[0][1], 1) || !almostEqual(m[1][0], 1) {
		t.Errorf("m[0][1]=%v m[1][0]=%v, want 1", m[0][1], m[1][0])
	}
	if !almostEqual(m[0][3], math.Sqrt2) {
		t.Errorf("m[0][3] = %v, want sqrt(2)", m[0][3])
	}
}

func TestNeighborIndices(t *testing.T) {
	c, err := New(clusters(), Config{K: 2, Metric: MetricEuclidean, P: 2})
	if err != nil {
		t.Fatal(err)
	}
	idx := c.NeighborIndices()
	if len(idx) != 8 {
		t.Fatalf("got %d rows, want 8", len(idx))
	}
	for i, row := range idx {
		if len(row) != 2 {
			t.Fatalf("row %d has %d entries, want 2", i, len(row))
		}
		for _, j := range row {
			if j == i {
				t.Errorf("row %d contains itself", i)
			}
		}
	}
	// Point 0 at (1,1): nearest others are (1,2) and (2,1).
	if idx[0][0] != 1 || idx[0][1] != 2 {
		t.Errorf("idx[0] = %v, want [1 2]", idx[0])
	}
}

func TestDecisionBoundary(t *testing.T) {
	c, err := New(clusters(), Config{K: 3, Metric: MetricEuclidean, P: 2})
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.DecisionBoundary(10)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("boundary invalid: %v", err)
	}
	if len(b.Mesh) != 100 {
		t.Errorf("mesh has %d points, want 100", len(b.Mesh))
	}
	var lows, highs int
	for _, class := range b.Classes {
		switch class {
		case 0:
			lows++
		case 1:
			highs++
		default:
			t.Fatalf("unexpected class %d", class)
		}
	}
	if lows == 0 || highs == 0 {
		t.Errorf("boundary misses a class: %d low, %d high", lows, highs)
	}
}

func TestEvaluate(t *testing.T) {
	ds := clusters()
	c, err := New(ds, Config{K: 1, Metric: MetricEuclidean, P: 2})
	if err != nil {
		t.Fatal(err)
	}
	ev, err := c.Evaluate(ds)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(ev.Accuracy, 1) || !almostEqual(ev.F1, 1) {
		t.Errorf("self evaluation accuracy=%v f1=%v, want 1", ev.Accuracy, ev.F1)
	}
	if ev.ConfusionMatrix[0][0] != 4 || ev.ConfusionMatrix[1][1] != 4 {
		t.Errorf("confusion matrix = %v", ev.ConfusionMatrix)
	}
	if ev.ConfusionMatrix[0][1] != 0 || ev.ConfusionMatrix[1][0] != 0 {
		t.Errorf("off-diagonal entries: %v", ev.ConfusionMatrix)
	}

	short := &dataset.Dataset{
		Name:         "short",
		X:            [][]float64{{1}},
		Y:            []int{0},
		FeatureNames: []string{"x"},
		ClassNames:   []string{"a"},
	}
	if _, err := c.Evaluate(short); !errors.Is(err, ErrBadPoint) {
		t.Errorf("mismatched features err = %v, want ErrBadPoint", err)
	}
}
