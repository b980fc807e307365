package lightgbm

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/tabml/tabkit/core"
	"github.com/tabml/tabkit/trainer"
)

var (
	_ trainer.Trainer = (*Classifier)(nil)
	_ trainer.Trainer = (*Regressor)(nil)
	_ trainer.Trainer = (*Booster)(nil)
)

// binaryDataset builds a separable problem: label follows x1 with x2 noise.
func binaryDataset(t *testing.T, n int, seed int64) *core.Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	rows := make([][]float64, n)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		x1 := rng.Float64()
		x2 := rng.Float64()
		rows[i] = []float64{x1, x2}
		if x1 > 0.5 {
			labels[i] = 1
		}
	}
	ds, err := core.NewDataset([]string{"x1", "x2"}, rows, func(o *core.DatasetOptions) {
		o.Labels = labels
	})
	if err != nil {
		t.Fatalf("build dataset: %v", err)
	}
	return ds
}

func TestClassifier_FitPredict(t *testing.T) {
	ctx := context.Background()
	ds := binaryDataset(t, 120, 7)

	c := NewClassifier()
	if err := c.Fit(ctx, ds, nil); err != nil {
		t.Fatalf("fit: %v", err)
	}

	preds, err := c.Predict(ds)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(preds) != ds.NumRows() {
		t.Fatalf("got %d predictions for %d rows", len(preds), ds.NumRows())
	}

	labels := ds.Labels()
	correct := 0
	for i, p := range preds {
		if p < 0 || p > 1 {
			t.Fatalf("prediction %d = %v outside [0, 1]", i, p)
		}
		if (p >= 0.5) == (labels[i] == 1) {
			correct++
		}
	}
	if acc := float64(correct) / float64(len(preds)); acc < 0.8 {
		t.Fatalf("train accuracy %.3f too low for a separable problem", acc)
	}
}

func TestClassifier_ImportanceAfterFit(t *testing.T) {
	ctx := context.Background()
	ds := binaryDataset(t, 120, 11)

	c := NewClassifier()
	if c.Importance() != nil {
		t.Fatal("untrained classifier must report no importance")
	}
	if err := c.Fit(ctx, ds, nil); err != nil {
		t.Fatalf("fit: %v", err)
	}

	imp := c.Importance()
	if len(imp) != 2 {
		t.Fatalf("expected importance for 2 features, got %v", imp)
	}
	for name, v := range imp {
		if v < 0 {
			t.Fatalf("negative importance for %s: %v", name, v)
		}
	}
	// the label is a function of x1, so it must dominate
	if imp["x1"] <= imp["x2"] {
		t.Fatalf("expected x1 to dominate importance, got %v", imp)
	}
}

func TestRegressor_FitPredict(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(3))
	n := 120
	rows := make([][]float64, n)
	labels := make([]float64, n)
	for i := 0; i < n; i++ {
		x := rng.Float64() * 10
		rows[i] = []float64{x}
		labels[i] = 3 * x
	}
	ds, err := core.NewDataset([]string{"x"}, rows, func(o *core.DatasetOptions) {
		o.Labels = labels
	})
	if err != nil {
		t.Fatalf("build dataset: %v", err)
	}

	r := NewRegressor()
	if err := r.Fit(ctx, ds, nil); err != nil {
		t.Fatalf("fit: %v", err)
	}
	preds, err := r.Predict(ds)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(preds) != n {
		t.Fatalf("got %d predictions for %d rows", len(preds), n)
	}
	if r.Importance() == nil {
		t.Fatal("trained regressor must report importance")
	}
}

func TestNotFitted(t *testing.T) {
	if _, err := NewClassifier().Predict(nil); !errors.Is(err, trainer.ErrNotFitted) {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}
	if _, err := NewRegressor().Predict(nil); !errors.Is(err, trainer.ErrNotFitted) {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}
}

func TestLoadBooster_MissingFile(t *testing.T) {
	if _, err := LoadBooster("does/not/exist.txt"); err == nil {
		t.Fatal("expected error for missing model file")
	}
}

func TestBooster_InferenceOnly(t *testing.T) {
	b := &Booster{}
	if err := b.Fit(context.Background(), nil, nil); !errors.Is(err, trainer.ErrNotTrainable) {
		t.Fatalf("expected ErrNotTrainable, got %v", err)
	}
	if b.Importance() != nil {
		t.Fatal("empty booster must report no importance")
	}
}

func TestImportanceMap(t *testing.T) {
	named := importanceMap([]string{"age", "fare"}, []float64{0.8, 0.2})
	if len(named) != 2 || named["age"] != 0.8 || named["fare"] != 0.2 {
		t.Fatalf("unexpected map %v", named)
	}

	// positional fallback when the model carries no names
	anon := importanceMap(nil, []float64{0.6, 0.4})
	if anon["f0"] != 0.6 || anon["f1"] != 0.4 {
		t.Fatalf("unexpected map %v", anon)
	}

	if importanceMap([]string{"a"}, nil) != nil {
		t.Fatal("no scores must yield nil importance")
	}
}
