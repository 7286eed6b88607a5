// Package stats computes the statistics the interactive tree builder
// shows while a node is being split: per-feature class histograms and
// the split quality of every candidate threshold, always over the
// subset of samples reaching the inspected node.
//
// Consumers depend on [Provider]. [Local] computes in-process; the
// statshttp client satisfies the same interface over HTTP. The sample
// subset travels as replayable [SplitRule]s rather than row indices,
// so a provider never needs the caller's tree and requests stay small.
package stats

import (
	"context"
	"errors"

	"github.com/san-kum/mlviz/internal/mltree"
)

var (
	// ErrUnavailable wraps transport failures; the engine treats such
	// fetches as missed, never as corrupt state.
	ErrUnavailable = errors.New("stats: provider unavailable")
	// ErrBadQuery covers out-of-range features and malformed rules.
	ErrBadQuery = errors.New("stats: malformed query")
	// ErrNoSplit means the feature carries a single unique value on
	// the subset, so no threshold can partition it.
	ErrNoSplit = errors.New("stats: feature has a single unique value")
)

// Query identifies a node subset and a feature to analyze. Rules are
// replayed from the root to rebuild the subset; an empty list means
// the whole dataset. Threshold, when set, is attached to histogram
// responses for display.
type Query struct {
	Rules     []SplitRule
	Feature   int
	Threshold *float64
}

// Provider supplies node statistics. Implementations must be safe for
// concurrent use and should honor ctx cancellation.
type Provider interface {
	FetchHistogram(ctx context.Context, q Query) (*mltree.Histogram, error)
	FeatureStats(ctx context.Context, q Query) (*FeatureStats, error)
}

// NodeStats summarizes the labels reaching one (potential) node.
type NodeStats struct {
	Samples     int     `json:"samples"`
	Impurity    float64 `json:"impurity"`
	ClassCounts []int   `json:"class_counts"`
}

// ThresholdStat scores one candidate threshold.
type ThresholdStat struct {
	Threshold        float64   `json:"threshold"`
	Gain             float64   `json:"information_gain"`
	WeightedImpurity float64   `json:"weighted_impurity"`
	Left             NodeStats `json:"left"`
	Right            NodeStats `json:"right"`
}

// FeatureStats is the full candidate analysis for one feature on one
// node subset.
type FeatureStats struct {
	Feature      int               `json:"feature_index"`
	FeatureName  string            `json:"feature"`
	Parent       NodeStats         `json:"parent"`
	Thresholds   []ThresholdStat   `json:"thresholds"`
	BestIndex    int               `json:"best_threshold_index"`
	Range        [2]float64        `json:"feature_range"`
	UniqueValues int               `json:"total_unique_values"`
	Histogram    *mltree.Histogram `json:"histogram_data,omitempty"`
}

// Best returns the highest-gain candidate. Valid on any FeatureStats a
// provider returned, since providers fail instead of returning an
// empty candidate list.
func (fs *FeatureStats) Best() ThresholdStat {
	return fs.Thresholds[fs.BestIndex]
}
