package stats

import (
	"encoding/json"
	"fmt"

	"github.com/san-kum/mlviz/internal/dataset"
	"github.com/san-kum/mlviz/internal/mltree"
)

// SplitRule is one replayable routing decision: samples with
// value <= Threshold on Feature go Left, the rest Right, and Branch
// says which side the subset keeps following.
type SplitRule struct {
	Feature   int
	Threshold float64
	Branch    mltree.Branch
}

// Match reports whether a sample row stays in the subset under r.
func (r SplitRule) Match(row []float64) bool {
	left := row[r.Feature] <= r.Threshold
	if r.Branch == mltree.Left {
		return left
	}
	return !left
}

type wireRule struct {
	Feature   int     `json:"feature_index"`
	Threshold float64 `json:"threshold"`
	Branch    string  `json:"branch"`
}

// MarshalJSON encodes the branch as "left"/"right" for the wire.
func (r SplitRule) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireRule{Feature: r.Feature, Threshold: r.Threshold, Branch: r.Branch.String()})
}

func (r *SplitRule) UnmarshalJSON(data []byte) error {
	var w wireRule
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var b mltree.Branch
	switch w.Branch {
	case "left", "L", "l":
		b = mltree.Left
	case "right", "R", "r":
		b = mltree.Right
	default:
		return fmt.Errorf("%w: branch %q", ErrBadQuery, w.Branch)
	}
	*r = SplitRule{Feature: w.Feature, Threshold: w.Threshold, Branch: b}
	return nil
}

// PathRules collects the routing decisions along path, the replayable
// form of "the subset reaching this node".
func PathRules(root *mltree.Node, path mltree.Path) ([]SplitRule, error) {
	rules := make([]SplitRule, 0, len(path))
	n := root
	for _, b := range path {
		if n == nil || n.Kind != mltree.KindSplit {
			return nil, fmt.Errorf("%w: %s", mltree.ErrPathNotFound, path)
		}
		rules = append(rules, SplitRule{Feature: n.Feature, Threshold: n.Threshold, Branch: b})
		if b == mltree.Left {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	if n == nil {
		return nil, fmt.Errorf("%w: %s", mltree.ErrPathNotFound, path)
	}
	return rules, nil
}

// SubsetIndex replays rules over ds and returns the row indices that
// satisfy all of them, in dataset order. No rules selects every row.
func SubsetIndex(ds *dataset.Dataset, rules []SplitRule) ([]int, error) {
	for _, r := range rules {
		if r.Feature < 0 || r.Feature >= ds.NumFeatures() {
			return nil, fmt.Errorf("%w: rule feature %d out of range", ErrBadQuery, r.Feature)
		}
	}
	idx := make([]int, 0, ds.NumSamples())
rows:
	for i, row := range ds.X {
		for _, r := range rules {
			if !r.Match(row) {
				continue rows
			}
		}
		idx = append(idx, i)
	}
	return idx, nil
}
