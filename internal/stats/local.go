package stats

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/san-kum/mlviz/internal/dataset"
	"github.com/san-kum/mlviz/internal/mltree"
)

const (
	defaultBins          = 10
	defaultMaxThresholds = 50
)

// Local computes statistics directly over an in-memory dataset. Safe
// for concurrent use; the dataset is never mutated.
type Local struct {
	ds            *dataset.Dataset
	crit          mltree.Criterion
	bins          int
	maxThresholds int
}

// LocalOption adjusts a Local provider.
type LocalOption func(*Local)

// WithCriterion selects the impurity measure, Gini by default.
func WithCriterion(c mltree.Criterion) LocalOption {
	return func(l *Local) { l.crit = c }
}

// WithBins sets the default histogram bucket count.
func WithBins(n int) LocalOption {
	return func(l *Local) {
		if n > 0 {
			l.bins = n
		}
	}
}

// WithMaxThresholds caps how many candidate thresholds a feature
// analysis returns. Beyond the cap candidates are percentile-sampled.
func WithMaxThresholds(n int) LocalOption {
	return func(l *Local) {
		if n > 0 {
			l.maxThresholds = n
		}
	}
}

// NewLocal builds an in-process provider over ds.
func NewLocal(ds *dataset.Dataset, opts ...LocalOption) *Local {
	l := &Local{
		ds:            ds,
		crit:          mltree.CriterionGini,
		bins:          defaultBins,
		maxThresholds: defaultMaxThresholds,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FetchHistogram returns the per-class value histogram of a feature
// over the node subset. An empty subset yields an empty histogram, not
// an error, so freshly split-away nodes still render.
func (l *Local) FetchHistogram(ctx context.Context, q Query) (*mltree.Histogram, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	values, labels, err := l.subset(q)
	if err != nil {
		return nil, err
	}
	return buildHistogram(values, labels, l.bins, nil, q.Threshold), nil
}

// FeatureStats scores every candidate threshold of a feature over the
// node subset. Candidates are midpoints between consecutive unique
// values, percentile-sampled down to the configured cap; the returned
// histogram aligns its buckets to the candidates so each bar shows the
// samples between adjacent split points.
func (l *Local) FeatureStats(ctx context.Context, q Query) (*FeatureStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	values, labels, err := l.subset(q)
	if err != nil {
		return nil, err
	}

	uniq := uniqueSorted(values)
	if len(uniq) < 2 {
		return nil, fmt.Errorf("%w: feature %q", ErrNoSplit, l.ds.FeatureNames[q.Feature])
	}
	mids := make([]float64, len(uniq)-1)
	for i := range mids {
		mids[i] = (uniq[i] + uniq[i+1]) / 2
	}
	candidates := percentileCap(mids, l.maxThresholds)

	parent := l.nodeStats(labels)
	stats := make([]ThresholdStat, 0, len(candidates))
	best := 0
	for _, th := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var leftLabels, rightLabels []int
		for i, v := range values {
			if v <= th {
				leftLabels = append(leftLabels, labels[i])
			} else {
				rightLabels = append(rightLabels, labels[i])
			}
		}
		left := l.nodeStats(leftLabels)
		right := l.nodeStats(rightLabels)
		n := float64(parent.Samples)
		weighted := float64(left.Samples)/n*left.Impurity + float64(right.Samples)/n*right.Impurity
		stats = append(stats, ThresholdStat{
			Threshold:        th,
			Gain:             parent.Impurity - weighted,
			WeightedImpurity: weighted,
			Left:             left,
			Right:            right,
		})
		if stats[len(stats)-1].Gain > stats[best].Gain {
			best = len(stats) - 1
		}
	}

	bestTh := stats[best].Threshold
	fs := &FeatureStats{
		Feature:      q.Feature,
		FeatureName:  l.ds.FeatureNames[q.Feature],
		Parent:       parent,
		Thresholds:   stats,
		BestIndex:    best,
		Range:        [2]float64{uniq[0], uniq[len(uniq)-1]},
		UniqueValues: len(uniq),
		Histogram:    buildHistogram(values, labels, len(stats), candidates, &bestTh),
	}
	return fs, nil
}

// subset replays the query rules and projects the feature column.
func (l *Local) subset(q Query) (values []float64, labels []int, err error) {
	if q.Feature < 0 || q.Feature >= l.ds.NumFeatures() {
		return nil, nil, fmt.Errorf("%w: feature %d out of range", ErrBadQuery, q.Feature)
	}
	idx, err := SubsetIndex(l.ds, q.Rules)
	if err != nil {
		return nil, nil, err
	}
	values = make([]float64, len(idx))
	labels = make([]int, len(idx))
	for i, row := range idx {
		values[i] = l.ds.X[row][q.Feature]
		labels[i] = l.ds.Y[row]
	}
	return values, labels, nil
}

func (l *Local) nodeStats(labels []int) NodeStats {
	counts := mltree.CountClasses(labels, l.ds.NumClasses())
	return NodeStats{
		Samples:     len(labels),
		Impurity:    l.crit.Impurity(counts),
		ClassCounts: counts,
	}
}

// buildHistogram buckets values per class. Bucket edges align to the
// candidate thresholds when provided, fall back to even spacing
// otherwise, and degenerate to one bucket around a constant value.
func buildHistogram(values []float64, labels []int, numBins int, edges []float64, threshold *float64) *mltree.Histogram {
	h := &mltree.Histogram{
		Bins:          []float64{},
		CountsByClass: map[string][]int{},
		TotalSamples:  len(values),
		Threshold:     threshold,
	}
	if len(values) == 0 {
		return h
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	switch {
	case lo == hi:
		h.Bins = []float64{lo - 0.1, lo + 0.1}
	case len(edges) > 0:
		inner := uniqueSorted(edges)
		bins := make([]float64, 0, len(inner)+2)
		bins = append(bins, lo)
		for _, e := range inner {
			if e > lo && e < hi {
				bins = append(bins, e)
			}
		}
		h.Bins = append(bins, hi)
	default:
		n := numBins
		if n > len(values) {
			n = len(values)
		}
		if n < 1 {
			n = 1
		}
		h.Bins = evenEdges(lo, hi, n+1)
	}

	buckets := len(h.Bins) - 1
	for i, v := range values {
		key := strconv.Itoa(labels[i])
		counts, ok := h.CountsByClass[key]
		if !ok {
			counts = make([]int, buckets)
			h.CountsByClass[key] = counts
		}
		counts[bucketIndex(h.Bins, v)]++
	}
	return h
}

// bucketIndex places v using half-open buckets [e_i, e_i+1), with the
// final bucket closed so the maximum value is counted.
func bucketIndex(bins []float64, v float64) int {
	i := sort.SearchFloat64s(bins, v)
	if i >= len(bins)-1 {
		return len(bins) - 2
	}
	if bins[i] == v {
		return i
	}
	return i - 1
}

// percentileCap reduces sorted candidates to at most max values by
// sampling evenly spaced percentiles with linear interpolation, then
// deduplicating.
func percentileCap(sorted []float64, max int) []float64 {
	if max <= 0 || len(sorted) <= max {
		return sorted
	}
	if max == 1 {
		return sorted[:1]
	}
	out := make([]float64, 0, max)
	n := len(sorted)
	for i := 0; i < max; i++ {
		p := float64(i) / float64(max-1) * 100
		rank := p / 100 * float64(n-1)
		lo := int(rank)
		frac := rank - float64(lo)
		v := sorted[lo]
		if frac > 0 && lo+1 < n {
			v += frac * (sorted[lo+1] - sorted[lo])
		}
		out = append(out, v)
	}
	return uniqueSorted(out)
}

func uniqueSorted(values []float64) []float64 {
	out := append([]float64(nil), values...)
	sort.Float64s(out)
	uniq := out[:0]
	for i, v := range out {
		if i == 0 || v != out[i-1] {
			uniq = append(uniq, v)
		}
	}
	return uniq
}

func evenEdges(lo, hi float64, n int) []float64 {
	edges := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range edges {
		edges[i] = lo + float64(i)*step
	}
	edges[n-1] = hi
	return edges
}
