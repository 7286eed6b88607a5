package mltree

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates the two node variants.
type Kind int

const (
	KindLeaf Kind = iota
	KindSplit
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindSplit:
		return "split"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is one node of a binary decision tree. A node is either a leaf
// carrying per-class sample counts, or a split carrying a feature index,
// a threshold and exactly two children. The zero fields of the other
// variant are never populated.
type Node struct {
	Kind     Kind
	Samples  int
	Impurity float64

	// Leaf only.
	ClassCounts []int

	// Split only.
	Feature     int
	FeatureName string
	Threshold   float64
	Left, Right *Node

	// Hist is the feature-value histogram captured when the node was
	// split, kept for display alongside the threshold.
	Hist *Histogram
}

// NewLeaf builds a leaf node. Samples is the sum of counts.
func NewLeaf(counts []int, impurity float64) *Node {
	total := 0
	for _, c := range counts {
		total += c
	}
	return &Node{
		Kind:        KindLeaf,
		Samples:     total,
		Impurity:    impurity,
		ClassCounts: append([]int(nil), counts...),
	}
}

// NewSplit builds a split node over two existing subtrees. Samples is
// the sum of the children's, preserving the partition invariant by
// construction. Impurity is that of the combined subset.
func NewSplit(feature int, threshold, impurity float64, left, right *Node) *Node {
	return &Node{
		Kind:      KindSplit,
		Samples:   left.Samples + right.Samples,
		Impurity:  impurity,
		Feature:   feature,
		Threshold: threshold,
		Left:      left,
		Right:     right,
	}
}

// MajorityClass returns the most populated class of a leaf. The second
// return is false for splits and empty leaves. Ties go to the lower
// class index.
func (n *Node) MajorityClass() (int, bool) {
	if n == nil || n.Kind != KindLeaf || len(n.ClassCounts) == 0 {
		return 0, false
	}
	best, bestCount := 0, n.ClassCounts[0]
	for i, c := range n.ClassCounts[1:] {
		if c > bestCount {
			best, bestCount = i+1, c
		}
	}
	return best, true
}

// Predict routes a sample down the tree and returns the majority class
// of the leaf it lands in. Empty leaves predict class 0.
func (n *Node) Predict(x []float64) int {
	cur := n
	for cur != nil && cur.Kind == KindSplit {
		if x[cur.Feature] <= cur.Threshold {
			cur = cur.Left
		} else {
			cur = cur.Right
		}
	}
	class, _ := cur.MajorityClass()
	return class
}

// Depth returns the length of the longest root-to-leaf branch sequence.
// A lone leaf has depth 0.
func (n *Node) Depth() int {
	if n == nil || n.Kind == KindLeaf {
		return 0
	}
	l, r := n.Left.Depth(), n.Right.Depth()
	if l > r {
		return 1 + l
	}
	return 1 + r
}

// NumNodes counts all nodes in the subtree.
func (n *Node) NumNodes() int {
	if n == nil {
		return 0
	}
	if n.Kind == KindLeaf {
		return 1
	}
	return 1 + n.Left.NumNodes() + n.Right.NumNodes()
}

// NumLeaves counts the leaves in the subtree.
func (n *Node) NumLeaves() int {
	if n == nil {
		return 0
	}
	if n.Kind == KindLeaf {
		return 1
	}
	return n.Left.NumLeaves() + n.Right.NumLeaves()
}

// Walk visits every node in depth-first order, passing each node's path.
// It stops early when fn returns false.
func (n *Node) Walk(fn func(path Path, node *Node) bool) {
	if n == nil {
		return
	}
	walk(n, nil, fn)
}

func walk(n *Node, p Path, fn func(Path, *Node) bool) bool {
	if !fn(p.Clone(), n) {
		return false
	}
	if n.Kind != KindSplit {
		return true
	}
	if !walk(n.Left, append(p, Left), fn) {
		return false
	}
	return walk(n.Right, append(p, Right), fn)
}

// wireNode is the JSON shape, discriminated by the "type" field.
type wireNode struct {
	Type       string     `json:"type"`
	Samples    int        `json:"samples"`
	Impurity   float64    `json:"impurity"`
	Value      []int      `json:"value,omitempty"`
	Feature    string     `json:"feature,omitempty"`
	FeatureIdx *int       `json:"feature_index,omitempty"`
	Threshold  *float64   `json:"threshold,omitempty"`
	Hist       *Histogram `json:"histogram_data,omitempty"`
	Left       *Node      `json:"left,omitempty"`
	Right      *Node      `json:"right,omitempty"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	w := wireNode{
		Type:     n.Kind.String(),
		Samples:  n.Samples,
		Impurity: n.Impurity,
		Hist:     n.Hist,
	}
	switch n.Kind {
	case KindLeaf:
		w.Value = n.ClassCounts
	case KindSplit:
		f, t := n.Feature, n.Threshold
		w.Feature = n.FeatureName
		w.FeatureIdx = &f
		w.Threshold = &t
		w.Left = n.Left
		w.Right = n.Right
	default:
		return nil, fmt.Errorf("%w: kind %d", ErrBadNode, int(n.Kind))
	}
	return json.Marshal(w)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case "leaf":
		n.Kind = KindLeaf
		n.ClassCounts = w.Value
		n.Feature, n.Threshold = 0, 0
		n.Left, n.Right = nil, nil
	case "split":
		if w.FeatureIdx == nil || w.Threshold == nil {
			return fmt.Errorf("%w: split without feature_index or threshold", ErrBadNode)
		}
		if w.Left == nil || w.Right == nil {
			return fmt.Errorf("%w: split without two children", ErrBadNode)
		}
		n.Kind = KindSplit
		n.Feature = *w.FeatureIdx
		n.FeatureName = w.Feature
		n.Threshold = *w.Threshold
		n.Left, n.Right = w.Left, w.Right
		n.ClassCounts = nil
	default:
		return fmt.Errorf("%w: unknown node type %q", ErrBadNode, w.Type)
	}
	n.Samples = w.Samples
	n.Impurity = w.Impurity
	n.Hist = w.Hist
	return nil
}
