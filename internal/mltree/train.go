package mltree

import "sort"

// TrainConfig bounds the greedy tree growth.
type TrainConfig struct {
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	// MaxThresholds caps the split candidates evaluated per feature.
	// Zero means all midpoints.
	MaxThresholds int
}

func DefaultTrainConfig() TrainConfig {
	return TrainConfig{MaxDepth: 3, MinSamplesSplit: 2, MinSamplesLeaf: 1}
}

// Train grows a tree greedily: at each node it evaluates candidate
// thresholds on every feature and keeps the split with the highest
// impurity reduction, stopping at pure nodes or the configured limits.
func Train(x [][]float64, y []int, numClasses int, crit Criterion, cfg TrainConfig) *Node {
	if len(x) == 0 {
		return NewLeaf(make([]int, numClasses), 0)
	}
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	return grow(x, y, idx, numClasses, crit, cfg, 0)
}

func grow(x [][]float64, y []int, idx []int, numClasses int, crit Criterion, cfg TrainConfig, depth int) *Node {
	counts := make([]int, numClasses)
	for _, i := range idx {
		if y[i] >= 0 && y[i] < numClasses {
			counts[y[i]]++
		}
	}
	imp := crit.Impurity(counts)
	if depth >= cfg.MaxDepth || len(idx) < cfg.MinSamplesSplit || imp == 0 {
		return NewLeaf(counts, imp)
	}

	const minGain = 1e-12
	bestGain := minGain
	bestFeature, bestThreshold := -1, 0.0
	var bestLeft, bestRight []int

	numFeatures := len(x[idx[0]])
	values := make([]float64, len(idx))
	for f := 0; f < numFeatures; f++ {
		for i, s := range idx {
			values[i] = x[s][f]
		}
		for _, thr := range SplitCandidates(values, cfg.MaxThresholds) {
			left, right := partition(x, idx, f, thr)
			if len(left) < cfg.MinSamplesLeaf || len(right) < cfg.MinSamplesLeaf {
				continue
			}
			g := gain(y, idx, left, right, numClasses, crit, imp)
			if g > bestGain {
				bestGain, bestFeature, bestThreshold = g, f, thr
				bestLeft, bestRight = left, right
			}
		}
	}
	if bestFeature < 0 {
		return NewLeaf(counts, imp)
	}

	left := grow(x, y, bestLeft, numClasses, crit, cfg, depth+1)
	right := grow(x, y, bestRight, numClasses, crit, cfg, depth+1)
	return NewSplit(bestFeature, bestThreshold, imp, left, right)
}

func partition(x [][]float64, idx []int, feature int, threshold float64) (left, right []int) {
	for _, i := range idx {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

func gain(y, parent, left, right []int, numClasses int, crit Criterion, parentImp float64) float64 {
	li := crit.Impurity(CountClasses(pick(y, left), numClasses))
	ri := crit.Impurity(CountClasses(pick(y, right), numClasses))
	n := float64(len(parent))
	weighted := (float64(len(left))*li + float64(len(right))*ri) / n
	return parentImp - weighted
}

func pick(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, s := range idx {
		out[i] = y[s]
	}
	return out
}

// SplitCandidates returns the midpoints between consecutive distinct
// sorted values. When max > 0 and there are more midpoints than max,
// the list is thinned to max evenly spaced entries.
func SplitCandidates(values []float64, max int) []float64 {
	if len(values) < 2 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	uniq := sorted[:1]
	for _, v := range sorted[1:] {
		if v != uniq[len(uniq)-1] {
			uniq = append(uniq, v)
		}
	}
	if len(uniq) < 2 {
		return nil
	}

	mids := make([]float64, len(uniq)-1)
	for i := 1; i < len(uniq); i++ {
		mids[i-1] = (uniq[i-1] + uniq[i]) / 2
	}
	if max <= 0 || len(mids) <= max {
		return mids
	}
	if max == 1 {
		return mids[len(mids)/2 : len(mids)/2+1]
	}

	thinned := make([]float64, 0, max)
	last := -1
	for k := 0; k < max; k++ {
		i := k * (len(mids) - 1) / (max - 1)
		if i != last {
			thinned = append(thinned, mids[i])
			last = i
		}
	}
	return thinned
}

// DepthSnapshots returns the tree truncated at every depth from 0 up to
// its full depth. Truncated splits collapse into aggregated leaves; the
// last snapshot is the tree itself.
func DepthSnapshots(root *Node, crit Criterion) []*Node {
	if root == nil {
		return nil
	}
	d := root.Depth()
	out := make([]*Node, 0, d+1)
	for k := 0; k < d; k++ {
		out = append(out, truncate(root, k, crit))
	}
	return append(out, root)
}

func truncate(n *Node, depth int, crit Criterion) *Node {
	if n.Kind == KindLeaf {
		return n
	}
	if depth == 0 {
		_, counts, imp := Aggregate(n, crit)
		return NewLeaf(counts, imp)
	}
	cp := *n
	cp.Left = truncate(n.Left, depth-1, crit)
	cp.Right = truncate(n.Right, depth-1, crit)
	return &cp
}
