package knn

import (
	"fmt"
	"math"
	"strings"
)

// Weights selects how neighbor votes are counted.
type Weights int

const (
	WeightsUniform Weights = iota
	WeightsDistance
)

func (w Weights) String() string {
	if w == WeightsDistance {
		return "distance"
	}
	return "uniform"
}

func ParseWeights(s string) (Weights, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uniform", "":
		return WeightsUniform, nil
	case "distance":
		return WeightsDistance, nil
	default:
		return 0, fmt.Errorf("knn: unknown weights %q", s)
	}
}

// Metric selects the distance function.
type Metric int

const (
	MetricMinkowski Metric = iota
	MetricEuclidean
	MetricManhattan
	MetricChebyshev
)

func (m Metric) String() string {
	switch m {
	case MetricEuclidean:
		return "euclidean"
	case MetricManhattan:
		return "manhattan"
	case MetricChebyshev:
		return "chebyshev"
	default:
		return "minkowski"
	}
}

func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minkowski", "":
		return MetricMinkowski, nil
	case "euclidean":
		return MetricEuclidean, nil
	case "manhattan":
		return MetricManhattan, nil
	case "chebyshev":
		return MetricChebyshev, nil
	default:
		return 0, fmt.Errorf("knn: unknown metric %q", s)
	}
}

// Distance computes the metric between two points of equal dimension.
// p only applies to the Minkowski metric.
func Distance(a, b []float64, m Metric, p float64) float64 {
	switch m {
	case MetricEuclidean:
		sum := 0.0
		for i := range a {
			d := a[i] - b[i]
			sum += d * d
		}
		return math.Sqrt(sum)
	case MetricManhattan:
		sum := 0.0
		for i := range a {
			sum += math.Abs(a[i] - b[i])
		}
		return sum
	case MetricChebyshev:
		max := 0.0
		for i := range a {
			if d := math.Abs(a[i] - b[i]); d > max {
				max = d
			}
		}
		return max
	default:
		sum := 0.0
		for i := range a {
			sum += math.Pow(math.Abs(a[i]-b[i]), p)
		}
		return math.Pow(sum, 1/p)
	}
}
