package mltree

import (
	"fmt"
	"math"
	"strings"
)

// Criterion selects the impurity measure used to score nodes and splits.
type Criterion int

const (
	CriterionGini Criterion = iota
	CriterionEntropy
)

func (c Criterion) String() string {
	if c == CriterionEntropy {
		return "entropy"
	}
	return "gini"
}

func ParseCriterion(s string) (Criterion, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gini", "":
		return CriterionGini, nil
	case "entropy":
		return CriterionEntropy, nil
	default:
		return 0, fmt.Errorf("mltree: unknown criterion %q", s)
	}
}

// Impurity computes the criterion over a class-count vector. Empty
// subsets score 0.
func (c Criterion) Impurity(counts []int) float64 {
	if c == CriterionEntropy {
		return Entropy(counts)
	}
	return Gini(counts)
}

// Gini returns 1 - sum(p_i^2) over class proportions.
func Gini(counts []int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		sum += p * p
	}
	return 1 - sum
}

// Entropy returns -sum(p_i * log2(p_i)) over class proportions.
func Entropy(counts []int) float64 {
	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	e := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / float64(total)
		e -= p * math.Log2(p)
	}
	return e
}

// CountClasses tallies labels into a count vector of length numClasses.
// Labels outside [0, numClasses) are ignored.
func CountClasses(labels []int, numClasses int) []int {
	counts := make([]int, numClasses)
	for _, y := range labels {
		if y >= 0 && y < numClasses {
			counts[y]++
		}
	}
	return counts
}
