// Package eval computes classification metrics: accuracy plus
// support-weighted precision, recall, and F1 with zero-division treated
// as zero, matching the evaluation used when runs are logged.
package eval

import "fmt"

// Classifier is the minimal inference surface the evaluator needs.
type Classifier interface {
	Predict(x []float64) int
}

// Accuracy is the fraction of samples predicted correctly.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// Precision is the support-weighted average of per-class precision.
// A class with no predicted members contributes 0, never an error.
func Precision(yTrue, yPred []int) float64 {
	return weighted(yTrue, yPred, func(tp, fp, fn int) float64 {
		if tp+fp == 0 {
			return 0
		}
		return float64(tp) / float64(tp+fp)
	})
}

// Recall is the support-weighted average of per-class recall.
func Recall(yTrue, yPred []int) float64 {
	return weighted(yTrue, yPred, func(tp, fp, fn int) float64 {
		if tp+fn == 0 {
			return 0
		}
		return float64(tp) / float64(tp+fn)
	})
}

// F1 is the support-weighted average of per-class F1.
func F1(yTrue, yPred []int) float64 {
	return weighted(yTrue, yPred, func(tp, fp, fn int) float64 {
		if 2*tp+fp+fn == 0 {
			return 0
		}
		return 2 * float64(tp) / float64(2*tp+fp+fn)
	})
}

// Evaluate runs the classifier over a split and returns the four metrics
// keyed with the split-name prefix (e.g. "test_accuracy").
func Evaluate(m Classifier, x [][]float64, y []int, split string) (map[string]float64, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("feature/label length mismatch: %d vs %d", len(x), len(y))
	}
	yPred := make([]int, len(x))
	for i, row := range x {
		yPred[i] = m.Predict(row)
	}
	return map[string]float64{
		split + "_accuracy":  Accuracy(y, yPred),
		split + "_precision": Precision(y, yPred),
		split + "_recall":    Recall(y, yPred),
		split + "_f1":        F1(y, yPred),
	}, nil
}

// weighted averages a per-class metric over classes present in yTrue or
// yPred, weighting by true-class support.
func weighted(yTrue, yPred []int, metric func(tp, fp, fn int) float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	nc := 0
	for i := range yTrue {
		if yTrue[i]+1 > nc {
			nc = yTrue[i] + 1
		}
		if yPred[i]+1 > nc {
			nc = yPred[i] + 1
		}
	}
	tp := make([]int, nc)
	fp := make([]int, nc)
	fn := make([]int, nc)
	support := make([]int, nc)
	for i := range yTrue {
		support[yTrue[i]]++
		if yTrue[i] == yPred[i] {
			tp[yTrue[i]]++
		} else {
			fp[yPred[i]]++
			fn[yTrue[i]]++
		}
	}
	sum := 0.0
	for c := 0; c < nc; c++ {
		if support[c] == 0 {
			continue
		}
		sum += float64(support[c]) * metric(tp[c], fp[c], fn[c])
	}
	return sum / float64(len(yTrue))
}
