// Package metrics provides evaluation metrics for tabular models. Scores are
// plain functions from (labels, predictions) to a float; the Metric struct
// pairs a score with a name so runners can log results uniformly.
package metrics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// Metric is a named score function. Maximize indicates whether larger scores
// are better (AUC, accuracy) or worse (MSE, log loss).
type Metric struct {
	Name     string
	Maximize bool
	Score    func(labels, preds []float64) (float64, error)
}

// AUC returns the area-under-ROC-curve metric for binary labels and
// probability-like scores.
func AUC() Metric {
	return Metric{Name: "auc", Maximize: true, Score: RocAucScore}
}

// Accuracy returns the accuracy metric with the given decision threshold.
func Accuracy(threshold float64) Metric {
	return Metric{
		Name:     "accuracy",
		Maximize: true,
		Score: func(labels, preds []float64) (float64, error) {
			return AccuracyScore(labels, preds, threshold)
		},
	}
}

// MSE returns the mean-squared-error metric.
func MSE() Metric {
	return Metric{Name: "mse", Score: MeanSquaredError}
}

// RMSE returns the root-mean-squared-error metric.
func RMSE() Metric {
	return Metric{
		Name: "rmse",
		Score: func(labels, preds []float64) (float64, error) {
			mse, err := MeanSquaredError(labels, preds)
			if err != nil {
				return 0, err
			}
			return math.Sqrt(mse), nil
		},
	}
}

// LogLoss returns the binary cross-entropy metric.
func LogLoss() Metric {
	return Metric{Name: "logloss", Score: LogLossScore}
}

// RocAucScore computes the area under the ROC curve for binary labels
// (0 or 1) and arbitrary real-valued scores.
func RocAucScore(labels, preds []float64) (float64, error) {
	if err := checkPair(labels, preds); err != nil {
		return 0, err
	}

	idx := make([]int, len(preds))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return preds[idx[a]] < preds[idx[b]] })

	y := make([]float64, len(preds))
	classes := make([]bool, len(preds))
	pos := 0
	for out, i := range idx {
		y[out] = preds[i]
		classes[out] = labels[i] > 0.5
		if classes[out] {
			pos++
		}
	}
	if pos == 0 || pos == len(labels) {
		return 0, fmt.Errorf("auc undefined: labels contain a single class")
	}

	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr), nil
}

// AccuracyScore computes the fraction of predictions on the correct side of
// the threshold.
func AccuracyScore(labels, preds []float64, threshold float64) (float64, error) {
	if err := checkPair(labels, preds); err != nil {
		return 0, err
	}
	correct := 0
	for i, p := range preds {
		predicted := 0.0
		if p > threshold {
			predicted = 1.0
		}
		if predicted == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(labels)), nil
}

// MeanSquaredError computes the mean of squared residuals.
func MeanSquaredError(labels, preds []float64) (float64, error) {
	if err := checkPair(labels, preds); err != nil {
		return 0, err
	}
	var sum float64
	for i := range labels {
		d := labels[i] - preds[i]
		sum += d * d
	}
	return sum / float64(len(labels)), nil
}

// LogLossScore computes binary cross-entropy with predictions clipped away
// from 0 and 1.
func LogLossScore(labels, preds []float64) (float64, error) {
	if err := checkPair(labels, preds); err != nil {
		return 0, err
	}
	const eps = 1e-15
	var sum float64
	for i, p := range preds {
		p = math.Min(math.Max(p, eps), 1-eps)
		if labels[i] > 0.5 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(labels)), nil
}

func checkPair(labels, preds []float64) error {
	if len(labels) == 0 {
		return fmt.Errorf("empty labels")
	}
	if len(labels) != len(preds) {
		return fmt.Errorf("labels length %d does not match predictions length %d", len(labels), len(preds))
	}
	return nil
}
