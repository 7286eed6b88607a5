package mltree

import "fmt"

// Histogram summarizes how one feature's values are distributed over the
// samples reaching a node: ascending bin edges plus a count vector per
// class, keyed by the class index printed as a string. Threshold, when
// set, marks a split position inside the bin range.
type Histogram struct {
	Bins          []float64        `json:"bins"`
	CountsByClass map[string][]int `json:"counts_by_class"`
	TotalSamples  int              `json:"total_samples"`
	Threshold     *float64         `json:"threshold,omitempty"`
}

// NumBuckets returns the number of bins (edges minus one).
func (h *Histogram) NumBuckets() int {
	if len(h.Bins) < 2 {
		return 0
	}
	return len(h.Bins) - 1
}

// BucketTotals sums the per-class counts bucket by bucket.
func (h *Histogram) BucketTotals() []int {
	totals := make([]int, h.NumBuckets())
	for _, counts := range h.CountsByClass {
		for i, c := range counts {
			if i < len(totals) {
				totals[i] += c
			}
		}
	}
	return totals
}

// Validate checks internal consistency: at least two bin edges, every
// class row sized to the bucket count, and all counts summing to
// TotalSamples.
func (h *Histogram) Validate() error {
	if len(h.Bins) < 2 {
		return fmt.Errorf("%w: need at least 2 bin edges, have %d", ErrBadHistogram, len(h.Bins))
	}
	for i := 1; i < len(h.Bins); i++ {
		if h.Bins[i] < h.Bins[i-1] {
			return fmt.Errorf("%w: bin edges not ascending at %d", ErrBadHistogram, i)
		}
	}
	buckets := h.NumBuckets()
	total := 0
	for class, counts := range h.CountsByClass {
		if len(counts) != buckets {
			return fmt.Errorf("%w: class %s has %d buckets, want %d", ErrBadHistogram, class, len(counts), buckets)
		}
		for _, c := range counts {
			if c < 0 {
				return fmt.Errorf("%w: negative count for class %s", ErrBadHistogram, class)
			}
			total += c
		}
	}
	if total != h.TotalSamples {
		return fmt.Errorf("%w: counts sum to %d, total_samples says %d", ErrBadHistogram, total, h.TotalSamples)
	}
	return nil
}
