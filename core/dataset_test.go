package core

import (
	"testing"
)

func newTestDataset(t *testing.T) *Dataset {
	t.Helper()
	d, err := NewDataset(
		[]string{"a", "b", "c"},
		[][]float64{
			{1, 2, 3},
			{4, 5, 6},
			{7, 8, 9},
			{10, 11, 12},
		},
		func(o *DatasetOptions) {
			o.Labels = []float64{0, 1, 0, 1}
			o.Categorical = []string{"c"}
		},
	)
	if err != nil {
		t.Fatalf("new dataset: %v", err)
	}
	return d
}

func TestDataset_Validation(t *testing.T) {
	if _, err := NewDataset([]string{"a"}, [][]float64{{1, 2}}); err == nil {
		t.Fatal("expected error for ragged row")
	}
	if _, err := NewDataset([]string{"a", "a"}, [][]float64{{1, 2}}); err == nil {
		t.Fatal("expected error for duplicate name")
	}
	if _, err := NewDataset(nil, nil); err == nil {
		t.Fatal("expected error for empty names")
	}
	_, err := NewDataset([]string{"a"}, [][]float64{{1}}, func(o *DatasetOptions) {
		o.Labels = []float64{1, 2}
	})
	if err == nil {
		t.Fatal("expected error for label length mismatch")
	}
	_, err = NewDataset([]string{"a"}, [][]float64{{1}}, func(o *DatasetOptions) {
		o.Categorical = []string{"nope"}
	})
	if err == nil {
		t.Fatal("expected error for unknown categorical")
	}
}

func TestDataset_AccessorIsolation(t *testing.T) {
	d := newTestDataset(t)

	row := d.Row(0)
	row[0] = 99
	if got := d.Row(0)[0]; got != 1 {
		t.Fatalf("row mutation leaked, got %v", got)
	}

	labels := d.Labels()
	labels[0] = 99
	if got := d.Labels()[0]; got != 0 {
		t.Fatalf("label mutation leaked, got %v", got)
	}

	col, err := d.Column("b")
	if err != nil {
		t.Fatalf("column: %v", err)
	}
	if col[2] != 8 {
		t.Fatalf("expected 8, got %v", col[2])
	}
	if _, err := d.Column("zz"); err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestDataset_Select(t *testing.T) {
	d := newTestDataset(t)
	s := d.Select([]int{3, 1})
	if s.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", s.NumRows())
	}
	if got := s.Row(0)[0]; got != 10 {
		t.Fatalf("expected row 3 first, got %v", got)
	}
	if got := s.Labels(); got[0] != 1 || got[1] != 1 {
		t.Fatalf("labels not reordered: %v", got)
	}
	if !s.IsCategorical("c") {
		t.Fatal("categorical metadata lost on select")
	}
}

func TestDataset_SplitDeterministic(t *testing.T) {
	d := newTestDataset(t)
	train1, valid1, err := d.Split(0.25, 7)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	train2, valid2, _ := d.Split(0.25, 7)
	if train1.NumRows() != 3 || valid1.NumRows() != 1 {
		t.Fatalf("unexpected split sizes: %d/%d", train1.NumRows(), valid1.NumRows())
	}
	if valid1.Row(0)[0] != valid2.Row(0)[0] || train1.Row(0)[0] != train2.Row(0)[0] {
		t.Fatal("same seed produced different splits")
	}
	if _, _, err := d.Split(1.5, 7); err == nil {
		t.Fatal("expected error for fraction out of range")
	}
}

func TestDataset_KFold(t *testing.T) {
	d := newTestDataset(t)
	folds, err := d.KFold(2, 42)
	if err != nil {
		t.Fatalf("kfold: %v", err)
	}
	if len(folds) != 2 {
		t.Fatalf("expected 2 folds, got %d", len(folds))
	}
	seen := map[int]int{}
	for _, f := range folds {
		if f.Train.NumRows()+f.Valid.NumRows() != d.NumRows() {
			t.Fatalf("fold %d does not cover dataset", f.Index)
		}
		for _, i := range f.ValidIdx {
			seen[i]++
		}
	}
	// every row validates exactly once across folds
	if len(seen) != d.NumRows() {
		t.Fatalf("expected %d distinct valid rows, got %d", d.NumRows(), len(seen))
	}
	for i, n := range seen {
		if n != 1 {
			t.Fatalf("row %d validated %d times", i, n)
		}
	}
	if _, err := d.KFold(1, 42); err == nil {
		t.Fatal("expected error for k < 2")
	}
	if _, err := d.KFold(10, 42); err == nil {
		t.Fatal("expected error for k > rows")
	}
}

func TestDataset_Matrix(t *testing.T) {
	d := newTestDataset(t)
	m := d.Matrix()
	r, c := m.Dims()
	if r != 4 || c != 3 {
		t.Fatalf("unexpected dims %dx%d", r, c)
	}
	m.Set(0, 0, 99)
	if d.Row(0)[0] != 1 {
		t.Fatal("matrix mutation leaked into dataset")
	}
}
