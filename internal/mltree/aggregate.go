package mltree

import "fmt"

// Aggregate sums the leaf populations under n and recomputes the
// impurity of the combined subset. Collapsing a split into a leaf with
// the returned values preserves the partition invariant.
func Aggregate(n *Node, crit Criterion) (samples int, counts []int, impurity float64) {
	counts = gatherCounts(n, nil)
	for _, c := range counts {
		samples += c
	}
	return samples, counts, crit.Impurity(counts)
}

func gatherCounts(n *Node, acc []int) []int {
	if n == nil {
		return acc
	}
	if n.Kind == KindLeaf {
		for len(acc) < len(n.ClassCounts) {
			acc = append(acc, 0)
		}
		for i, c := range n.ClassCounts {
			acc[i] += c
		}
		return acc
	}
	acc = gatherCounts(n.Left, acc)
	return gatherCounts(n.Right, acc)
}

// CheckPartition verifies that every split's sample count equals the sum
// of its children's, i.e. that splits partition their samples exactly.
func CheckPartition(root *Node) error {
	if root == nil {
		return ErrNilNode
	}
	var bad Path
	ok := true
	root.Walk(func(p Path, n *Node) bool {
		if n.Kind != KindSplit {
			return true
		}
		if n.Left == nil || n.Right == nil || n.Samples != n.Left.Samples+n.Right.Samples {
			bad, ok = p, false
			return false
		}
		return true
	})
	if !ok {
		return fmt.Errorf("%w: split at %s does not partition its samples", ErrBadNode, bad)
	}
	return nil
}
