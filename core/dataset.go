package core

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// Dataset is a dense, row-major tabular feature matrix with named columns and
// optional labels, per-row weights and categorical feature metadata. It is
// immutable after construction; derivation methods (Select, Split, KFold)
// return new datasets and accessor methods return copies so callers cannot
// mutate internal state.
type Dataset struct {
	names       []string
	data        []float64 // row major, len == rows*cols
	rows        int
	cols        int
	labels      []float64
	weights     []float64
	categorical map[string]struct{}
}

// DatasetOptions holds the optional parts of a dataset.
type DatasetOptions struct {
	// Labels is the target column, one value per row.
	Labels []float64
	// Weights holds per-row sample weights, one value per row.
	Weights []float64
	// Categorical lists feature names to be treated as categorical by
	// trainers that support it. Names not present in the dataset are
	// rejected at construction.
	Categorical []string
}

// NewDataset validates and constructs a Dataset from named columns and
// row-major values. Ragged rows, a name/width mismatch, or label/weight
// length mismatches are construction errors.
func NewDataset(names []string, rows [][]float64, optFns ...func(o *DatasetOptions)) (*Dataset, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("dataset requires at least one feature name")
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			return nil, fmt.Errorf("empty feature name")
		}
		if _, dup := seen[n]; dup {
			return nil, fmt.Errorf("duplicate feature name %q", n)
		}
		seen[n] = struct{}{}
	}

	opts := DatasetOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	cols := len(names)
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), cols)
		}
		data = append(data, row...)
	}

	if opts.Labels != nil && len(opts.Labels) != len(rows) {
		return nil, fmt.Errorf("labels length %d does not match %d rows", len(opts.Labels), len(rows))
	}
	if opts.Weights != nil && len(opts.Weights) != len(rows) {
		return nil, fmt.Errorf("weights length %d does not match %d rows", len(opts.Weights), len(rows))
	}

	var categorical map[string]struct{}
	if len(opts.Categorical) > 0 {
		categorical = make(map[string]struct{}, len(opts.Categorical))
		for _, n := range opts.Categorical {
			if _, ok := seen[n]; !ok {
				return nil, fmt.Errorf("categorical feature %q is not a dataset column", n)
			}
			categorical[n] = struct{}{}
		}
	}

	d := &Dataset{
		names:       append([]string(nil), names...),
		data:        data,
		rows:        len(rows),
		cols:        cols,
		categorical: categorical,
	}
	if opts.Labels != nil {
		d.labels = append([]float64(nil), opts.Labels...)
	}
	if opts.Weights != nil {
		d.weights = append([]float64(nil), opts.Weights...)
	}
	return d, nil
}

// NumRows returns the number of rows.
func (d *Dataset) NumRows() int { return d.rows }

// NumCols returns the number of feature columns.
func (d *Dataset) NumCols() int { return d.cols }

// Names returns a copy of the feature names in column order.
func (d *Dataset) Names() []string { return append([]string(nil), d.names...) }

// HasLabels reports whether the dataset carries a target column.
func (d *Dataset) HasLabels() bool { return d.labels != nil }

// Labels returns a copy of the target column or nil.
func (d *Dataset) Labels() []float64 {
	if d.labels == nil {
		return nil
	}
	return append([]float64(nil), d.labels...)
}

// Weights returns a copy of the per-row sample weights or nil.
func (d *Dataset) Weights() []float64 {
	if d.weights == nil {
		return nil
	}
	return append([]float64(nil), d.weights...)
}

// Categorical returns the categorical feature names in column order.
func (d *Dataset) Categorical() []string {
	if len(d.categorical) == 0 {
		return nil
	}
	out := make([]string, 0, len(d.categorical))
	for _, n := range d.names {
		if _, ok := d.categorical[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

// IsCategorical reports whether the named feature was declared categorical.
func (d *Dataset) IsCategorical(name string) bool {
	_, ok := d.categorical[name]
	return ok
}

// Row returns a copy of row i.
func (d *Dataset) Row(i int) []float64 {
	out := make([]float64, d.cols)
	copy(out, d.data[i*d.cols:(i+1)*d.cols])
	return out
}

// Column returns a copy of the named feature column.
func (d *Dataset) Column(name string) ([]float64, error) {
	j := -1
	for idx, n := range d.names {
		if n == name {
			j = idx
			break
		}
	}
	if j < 0 {
		return nil, fmt.Errorf("unknown feature %q", name)
	}
	out := make([]float64, d.rows)
	for i := 0; i < d.rows; i++ {
		out[i] = d.data[i*d.cols+j]
	}
	return out, nil
}

// Matrix returns the feature values as a freshly allocated gonum matrix.
func (d *Dataset) Matrix() *mat.Dense {
	data := make([]float64, len(d.data))
	copy(data, d.data)
	return mat.NewDense(d.rows, d.cols, data)
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	idx := make([]int, d.rows)
	for i := range idx {
		idx[i] = i
	}
	return d.Select(idx)
}

// Select returns a new dataset containing the given rows in order. Indices
// may repeat; out-of-range indices panic as a programming error.
func (d *Dataset) Select(indices []int) *Dataset {
	out := &Dataset{
		names:       d.names,
		data:        make([]float64, 0, len(indices)*d.cols),
		rows:        len(indices),
		cols:        d.cols,
		categorical: d.categorical,
	}
	for _, i := range indices {
		out.data = append(out.data, d.data[i*d.cols:(i+1)*d.cols]...)
	}
	if d.labels != nil {
		out.labels = make([]float64, 0, len(indices))
		for _, i := range indices {
			out.labels = append(out.labels, d.labels[i])
		}
	}
	if d.weights != nil {
		out.weights = make([]float64, 0, len(indices))
		for _, i := range indices {
			out.weights = append(out.weights, d.weights[i])
		}
	}
	return out
}

// Split shuffles rows with the given seed and splits off validFraction of
// them into a validation dataset. The same seed always produces the same
// partition.
func (d *Dataset) Split(validFraction float64, seed int64) (train, valid *Dataset, err error) {
	if validFraction <= 0 || validFraction >= 1 {
		return nil, nil, fmt.Errorf("valid fraction must be in (0, 1), got %v", validFraction)
	}
	if d.rows < 2 {
		return nil, nil, fmt.Errorf("need at least 2 rows to split, have %d", d.rows)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(d.rows)
	nValid := int(float64(d.rows) * validFraction)
	if nValid == 0 {
		nValid = 1
	}
	return d.Select(perm[nValid:]), d.Select(perm[:nValid]), nil
}

// Fold is a single cross-validation partition. ValidIdx holds the original
// row indices of the validation rows; runners use it to scatter out-of-fold
// predictions back into dataset order.
type Fold struct {
	Index    int
	Train    *Dataset
	Valid    *Dataset
	ValidIdx []int
}

// KFold shuffles rows with the given seed and partitions them into k folds.
// Fold sizes differ by at most one row. The same seed always produces the
// same folds.
func (d *Dataset) KFold(k int, seed int64) ([]Fold, error) {
	if k < 2 {
		return nil, fmt.Errorf("k must be >= 2, got %d", k)
	}
	if d.rows < k {
		return nil, fmt.Errorf("cannot split %d rows into %d folds", d.rows, k)
	}
	perm := rand.New(rand.NewSource(seed)).Perm(d.rows)
	folds := make([]Fold, k)
	for f := 0; f < k; f++ {
		validIdx := make([]int, 0, d.rows/k+1)
		trainIdx := make([]int, 0, d.rows)
		for pos, i := range perm {
			if pos%k == f {
				validIdx = append(validIdx, i)
			} else {
				trainIdx = append(trainIdx, i)
			}
		}
		folds[f] = Fold{
			Index:    f,
			Train:    d.Select(trainIdx),
			Valid:    d.Select(validIdx),
			ValidIdx: validIdx,
		}
	}
	return folds, nil
}
