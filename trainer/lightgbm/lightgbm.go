// Package lightgbm provides a trainer backend over the pure-Go LightGBM port
// from SciGo. It covers both directions: training scikit-learn style
// classifiers / regressors from tabkit datasets, and applying boosters
// trained in Python LightGBM and loaded from their text dumps.
package lightgbm

import (
	"context"
	"fmt"

	"github.com/YuminosukeSato/scigo/sklearn/lightgbm"
	"gonum.org/v1/gonum/mat"

	"github.com/tabml/tabkit/core"
	"github.com/tabml/tabkit/trainer"
)

// importanceKind selects gain-based scores from the port's importance
// accessors.
const importanceKind = "gain"

// Classifier trains a LightGBM binary classifier.
type Classifier struct {
	clf   *lightgbm.LGBMClassifier
	names []string
}

// NewClassifier creates an untrained classifier.
func NewClassifier() *Classifier { return &Classifier{} }

// Fit implements trainer.Trainer. The validation dataset is currently
// unused; the underlying port has no early stopping hook.
func (c *Classifier) Fit(_ context.Context, train, _ *core.Dataset) error {
	x, y, err := toMatrices(train)
	if err != nil {
		return err
	}
	clf := lightgbm.NewLGBMClassifier()
	if err := clf.Fit(x, y); err != nil {
		return fmt.Errorf("lightgbm fit: %w", err)
	}
	c.clf = clf
	c.names = train.Names()
	return nil
}

// Predict implements trainer.Trainer; returns positive-class probabilities.
func (c *Classifier) Predict(data *core.Dataset) ([]float64, error) {
	if c.clf == nil {
		return nil, trainer.ErrNotFitted
	}
	proba, err := c.clf.PredictProba(data.Matrix())
	if err != nil {
		return nil, fmt.Errorf("lightgbm predict: %w", err)
	}
	return lastColumn(proba), nil
}

// Importance implements trainer.Trainer; per-feature normalized gain.
func (c *Classifier) Importance() map[string]float64 {
	if c.clf == nil {
		return nil
	}
	return importanceMap(c.names, c.clf.GetFeatureImportance(importanceKind))
}

// Info implements trainer.Trainer.
func (c *Classifier) Info() trainer.Info {
	return trainer.Info{Name: "lgbm_classifier", Backend: "lightgbm", Task: trainer.TaskClassification}
}

// Regressor trains a LightGBM regressor.
type Regressor struct {
	reg   *lightgbm.LGBMRegressor
	names []string
}

// NewRegressor creates an untrained regressor.
func NewRegressor() *Regressor { return &Regressor{} }

// Fit implements trainer.Trainer.
func (r *Regressor) Fit(_ context.Context, train, _ *core.Dataset) error {
	x, y, err := toMatrices(train)
	if err != nil {
		return err
	}
	reg := lightgbm.NewLGBMRegressor()
	if err := reg.Fit(x, y); err != nil {
		return fmt.Errorf("lightgbm fit: %w", err)
	}
	r.reg = reg
	r.names = train.Names()
	return nil
}

// Predict implements trainer.Trainer.
func (r *Regressor) Predict(data *core.Dataset) ([]float64, error) {
	if r.reg == nil {
		return nil, trainer.ErrNotFitted
	}
	out, err := r.reg.Predict(data.Matrix())
	if err != nil {
		return nil, fmt.Errorf("lightgbm predict: %w", err)
	}
	return firstColumn(out), nil
}

// Importance implements trainer.Trainer; per-feature normalized gain.
func (r *Regressor) Importance() map[string]float64 {
	if r.reg == nil {
		return nil
	}
	return importanceMap(r.names, r.reg.GetFeatureImportance(importanceKind))
}

// Info implements trainer.Trainer.
func (r *Regressor) Info() trainer.Info {
	return trainer.Info{Name: "lgbm_regressor", Backend: "lightgbm", Task: trainer.TaskRegression}
}

// Booster applies a model trained in Python LightGBM and loaded from its
// text dump. It is inference-only.
type Booster struct {
	model *lightgbm.Model
}

// LoadBooster reads a LightGBM text model file.
func LoadBooster(path string) (*Booster, error) {
	model, err := lightgbm.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load lightgbm model %q: %w", path, err)
	}
	return &Booster{model: model}, nil
}

// Fit implements trainer.Trainer. The backend cannot train.
func (b *Booster) Fit(context.Context, *core.Dataset, *core.Dataset) error {
	return trainer.ErrNotTrainable
}

// Predict implements trainer.Trainer.
func (b *Booster) Predict(data *core.Dataset) ([]float64, error) {
	if b.model == nil {
		return nil, trainer.ErrNotFitted
	}
	out, err := b.model.Predict(data.Matrix())
	if err != nil {
		return nil, fmt.Errorf("lightgbm predict: %w", err)
	}
	return firstColumn(out), nil
}

// Importance implements trainer.Trainer; per-feature normalized gain, keyed
// by the model's feature names from the text dump.
func (b *Booster) Importance() map[string]float64 {
	if b.model == nil {
		return nil
	}
	return importanceMap(b.model.FeatureNames, b.model.GetFeatureImportance(importanceKind))
}

// Info implements trainer.Trainer.
func (b *Booster) Info() trainer.Info {
	return trainer.Info{Name: "lgbm_booster", Backend: "lightgbm", Task: trainer.TaskClassification}
}

// importanceMap keys positional importance scores by feature name, falling
// back to f<index> when names are missing.
func importanceMap(names []string, vals []float64) map[string]float64 {
	if len(vals) == 0 {
		return nil
	}
	imp := make(map[string]float64, len(vals))
	for i, v := range vals {
		name := fmt.Sprintf("f%d", i)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		imp[name] = v
	}
	return imp
}

func toMatrices(train *core.Dataset) (*mat.Dense, *mat.Dense, error) {
	labels := train.Labels()
	if labels == nil {
		return nil, nil, fmt.Errorf("dataset has no labels")
	}
	return train.Matrix(), mat.NewDense(train.NumRows(), 1, labels), nil
}

func firstColumn(m mat.Matrix) []float64 {
	if m == nil {
		return nil
	}
	rows, _ := m.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = m.At(i, 0)
	}
	return out
}

// lastColumn extracts the positive-class column from a probability matrix.
func lastColumn(m mat.Matrix) []float64 {
	if m == nil {
		return nil
	}
	rows, cols := m.Dims()
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = m.At(i, cols-1)
	}
	return out
}
