// Package leaves provides an inference-only trainer backend for gradient
// boosting models trained elsewhere (LightGBM text dumps, XGBoost json/bin)
// using the pure-Go leaves runtime. It adapts tabkit datasets into the
// library's dense prediction API and supports averaging over a bag of model
// files, the common pattern for per-fold models.
package leaves

import (
	"context"
	"fmt"

	"github.com/dmitryikh/leaves"

	"github.com/tabml/tabkit/core"
	"github.com/tabml/tabkit/trainer"
)

// Options configure the leaves backend.
type Options struct {
	// NEstimators limits how many trees are used at prediction time.
	// Zero means all trees.
	NEstimators int
	// Threads is the prediction parallelism passed to leaves. Defaults
	// to 1.
	Threads int
}

// Model applies one or more pre-trained boosting ensembles, averaging their
// predictions. It is inference-only: Fit returns trainer.ErrNotTrainable.
type Model struct {
	opts      Options
	ensembles []*leaves.Ensemble
}

// LoadLightGBM loads LightGBM text model files.
func LoadLightGBM(paths []string, optFns ...func(o *Options)) (*Model, error) {
	return load(paths, leaves.LGEnsembleFromFile, optFns)
}

// LoadXGBoost loads XGBoost model files.
func LoadXGBoost(paths []string, optFns ...func(o *Options)) (*Model, error) {
	return load(paths, leaves.XGEnsembleFromFile, optFns)
}

func load(paths []string, fromFile func(string, bool) (*leaves.Ensemble, error), optFns []func(o *Options)) (*Model, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no model files given")
	}
	opts := Options{Threads: 1}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Threads < 1 {
		opts.Threads = 1
	}

	m := &Model{opts: opts}
	for _, path := range paths {
		// true loads the output transformation (e.g. sigmoid) so scores
		// are comparable across backends
		e, err := fromFile(path, true)
		if err != nil {
			return nil, fmt.Errorf("load model %q: %w", path, err)
		}
		if len(m.ensembles) > 0 && e.NFeatures() != m.ensembles[0].NFeatures() {
			return nil, fmt.Errorf("model %q expects %d features, previous models expect %d",
				path, e.NFeatures(), m.ensembles[0].NFeatures())
		}
		m.ensembles = append(m.ensembles, e)
	}
	return m, nil
}

// Fit implements trainer.Trainer. The backend cannot train.
func (m *Model) Fit(context.Context, *core.Dataset, *core.Dataset) error {
	return trainer.ErrNotTrainable
}

// Predict implements trainer.Trainer; returns the mean prediction over all
// loaded ensembles.
func (m *Model) Predict(data *core.Dataset) ([]float64, error) {
	if len(m.ensembles) == 0 {
		return nil, trainer.ErrNotFitted
	}
	rows, cols := data.NumRows(), data.NumCols()
	if want := m.ensembles[0].NFeatures(); cols < want {
		return nil, fmt.Errorf("dataset has %d features, model expects %d", cols, want)
	}

	vals := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		vals = append(vals, data.Row(i)...)
	}

	out := make([]float64, rows)
	preds := make([]float64, rows)
	for _, e := range m.ensembles {
		nEstimators := m.opts.NEstimators
		if nEstimators <= 0 || nEstimators > e.NEstimators() {
			nEstimators = e.NEstimators()
		}
		if err := e.PredictDense(vals, rows, cols, preds, nEstimators, m.opts.Threads); err != nil {
			return nil, fmt.Errorf("predict: %w", err)
		}
		for i, p := range preds {
			out[i] += p
		}
	}
	for i := range out {
		out[i] /= float64(len(m.ensembles))
	}
	return out, nil
}

// Importance implements trainer.Trainer. The runtime exposes no gain
// statistics, so there is none.
func (m *Model) Importance() map[string]float64 { return nil }

// Info implements trainer.Trainer.
func (m *Model) Info() trainer.Info {
	name := "leaves"
	if len(m.ensembles) > 0 {
		name = m.ensembles[0].Name()
	}
	return trainer.Info{Name: name, Backend: "leaves", Task: trainer.TaskClassification}
}
