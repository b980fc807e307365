package trainer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tabml/tabkit/core"
)

var (
	// ErrNotFitted is returned by Predict and Importance when Fit has not
	// completed successfully.
	ErrNotFitted = errors.New("trainer is not fitted")
	// ErrNotTrainable is returned by Fit on inference-only backends that
	// apply models trained elsewhere.
	ErrNotTrainable = errors.New("trainer backend is inference-only")
)

// TaskKind distinguishes classification from regression backends.
type TaskKind string

const (
	// TaskClassification marks binary classification trainers; predictions
	// are probability-like scores.
	TaskClassification TaskKind = "classification"
	// TaskRegression marks regression trainers; predictions are raw values.
	TaskRegression TaskKind = "regression"
)

// Info contains metadata about a trainer implementation.
type Info struct {
	Name    string   `json:"name"`
	Backend string   `json:"backend"` // "lightgbm", "leaves", "linear", "mock", etc.
	Task    TaskKind `json:"task"`
}

// Trainer is the minimal interface required by runners and the experiment
// façade to drive model fitting and inference.
type Trainer interface {
	// Fit trains on train, using valid for early stopping or evaluation
	// where the backend supports it.
	Fit(ctx context.Context, train, valid *core.Dataset) error

	// Predict returns one prediction per row of data.
	Predict(data *core.Dataset) ([]float64, error)

	// Importance returns per-feature importance keyed by feature name, or
	// nil when the backend has none.
	Importance() map[string]float64

	// Info returns information about the trainer implementation.
	Info() Info
}

// Factory constructs a fresh trainer. Cross-validation runners call it once
// per fold so folds never share fitted state.
type Factory func() Trainer

// MockTrainer is a lightweight in-memory Trainer useful for tests & examples.
// It predicts a constant value (or the mean label seen during Fit) and counts
// calls so tests can assert interaction patterns.
type MockTrainer struct {
	mu           sync.Mutex
	info         Info
	constant     *float64
	mean         float64
	fitted       bool
	importance   map[string]float64
	fitErr       error
	FitCalls     int
	PredictCalls int
}

// NewMockTrainer constructs a MockTrainer reporting the given name.
func NewMockTrainer(name string) *MockTrainer {
	return &MockTrainer{
		info: Info{Name: name, Backend: "mock", Task: TaskRegression},
	}
}

// WithConstant pins the prediction to a fixed value (chainable).
func (m *MockTrainer) WithConstant(v float64) *MockTrainer {
	m.constant = &v
	return m
}

// WithImportance registers a canned importance map (chainable).
func (m *MockTrainer) WithImportance(imp map[string]float64) *MockTrainer {
	m.importance = imp
	return m
}

// WithFitError makes Fit fail with err (chainable).
func (m *MockTrainer) WithFitError(err error) *MockTrainer {
	m.fitErr = err
	return m
}

// Fit implements Trainer; records the mean training label.
func (m *MockTrainer) Fit(_ context.Context, train, _ *core.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FitCalls++
	if m.fitErr != nil {
		return m.fitErr
	}
	labels := train.Labels()
	if labels == nil {
		return fmt.Errorf("mock trainer requires labels")
	}
	var sum float64
	for _, y := range labels {
		sum += y
	}
	m.mean = sum / float64(len(labels))
	m.fitted = true
	return nil
}

// Predict implements Trainer.
func (m *MockTrainer) Predict(data *core.Dataset) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PredictCalls++
	if !m.fitted && m.constant == nil {
		return nil, ErrNotFitted
	}
	v := m.mean
	if m.constant != nil {
		v = *m.constant
	}
	out := make([]float64, data.NumRows())
	for i := range out {
		out[i] = v
	}
	return out, nil
}

// Importance implements Trainer.
func (m *MockTrainer) Importance() map[string]float64 { return m.importance }

// Info implements Trainer.
func (m *MockTrainer) Info() Info { return m.info }
