// Package testutil provides small fluent builders shared by tests.
package testutil

import (
	"math/rand"
	"testing"

	"github.com/tabml/tabkit/core"
)

// DatasetBuilder constructs datasets with fluent chaining for tests.
// Example:
//
//	ds := NewDatasetBuilder(t, "x1", "x2").Row(1, 2).Row(3, 4).Labels(0, 1).Build()
type DatasetBuilder struct {
	t           *testing.T
	names       []string
	rows        [][]float64
	labels      []float64
	categorical []string
}

// NewDatasetBuilder creates a builder over the named feature columns.
func NewDatasetBuilder(t *testing.T, names ...string) *DatasetBuilder {
	t.Helper()
	return &DatasetBuilder{t: t, names: names}
}

// Row appends one row of feature values (chainable).
func (b *DatasetBuilder) Row(values ...float64) *DatasetBuilder {
	b.rows = append(b.rows, values)
	return b
}

// Labels sets the target column (chainable).
func (b *DatasetBuilder) Labels(labels ...float64) *DatasetBuilder {
	b.labels = labels
	return b
}

// Categorical marks feature names as categorical (chainable).
func (b *DatasetBuilder) Categorical(names ...string) *DatasetBuilder {
	b.categorical = append(b.categorical, names...)
	return b
}

// Random fills n rows with seeded uniform values and binary labels derived
// from the first column (chainable).
func (b *DatasetBuilder) Random(n int, seed int64) *DatasetBuilder {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		row := make([]float64, len(b.names))
		for j := range row {
			row[j] = rng.Float64()
		}
		b.rows = append(b.rows, row)
		if row[0] > 0.5 {
			b.labels = append(b.labels, 1)
		} else {
			b.labels = append(b.labels, 0)
		}
	}
	return b
}

// Build returns the dataset, failing the test on construction errors.
func (b *DatasetBuilder) Build() *core.Dataset {
	b.t.Helper()
	ds, err := core.NewDataset(b.names, b.rows, func(o *core.DatasetOptions) {
		o.Labels = b.labels
		o.Categorical = b.categorical
	})
	if err != nil {
		b.t.Fatalf("build dataset: %v", err)
	}
	return ds
}
