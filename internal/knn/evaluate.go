package knn

import (
	"fmt"

	"github.com/san-kum/mlviz/internal/dataset"
)

// Evaluation summarizes classifier quality on a held-out set. The
// confusion matrix is indexed [true][predicted]; precision, recall and
// F1 are averaged over classes weighted by support.
type Evaluation struct {
	ConfusionMatrix [][]int
	Accuracy        float64
	Precision       float64
	Recall          float64
	F1              float64
}

// Evaluate predicts every row of test and scores the results. The test
// set must share the training feature count.
func (c *Classifier) Evaluate(test *dataset.Dataset) (*Evaluation, error) {
	if test.NumFeatures() != c.ds.NumFeatures() {
		return nil, fmt.Errorf("%w: test has %d features, train has %d",
			ErrBadPoint, test.NumFeatures(), c.ds.NumFeatures())
	}
	nc := c.ds.NumClasses()
	cm := make([][]int, nc)
	for i := range cm {
		cm[i] = make([]int, nc)
	}
	for i, row := range test.X {
		pred, err := c.Predict(row)
		if err != nil {
			return nil, err
		}
		cm[test.Y[i]][pred]++
	}

	total, correct := 0, 0
	var precision, recall, f1 float64
	for class := 0; class < nc; class++ {
		tp := cm[class][class]
		support, predicted := 0, 0
		for other := 0; other < nc; other++ {
			support += cm[class][other]
			predicted += cm[other][class]
		}
		total += support
		correct += tp

		var p, r float64
		if predicted > 0 {
			p = float64(tp) / float64(predicted)
		}
		if support > 0 {
			r = float64(tp) / float64(support)
		}
		var f float64
		if p+r > 0 {
			f = 2 * p * r / (p + r)
		}
		w := float64(support)
		precision += w * p
		recall += w * r
		f1 += w * f
	}

	ev := &Evaluation{ConfusionMatrix: cm}
	if total > 0 {
		ev.Accuracy = float64(correct) / float64(total)
		ev.Precision = precision / float64(total)
		ev.Recall = recall / float64(total)
		ev.F1 = f1 / float64(total)
	}
	return ev, nil
}
