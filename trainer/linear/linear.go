// Package linear provides classical linear models on gonum implementing the
// trainer.Trainer interface: ordinary least squares, ridge regression and
// binary logistic regression. They are deterministic, dependency-light and
// serve as baselines next to the boosting backends.
package linear

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/tabml/tabkit/core"
	"github.com/tabml/tabkit/trainer"
)

// Options configure the linear backends.
type Options struct {
	// FitIntercept appends a bias term. Defaults to true.
	FitIntercept bool
	// Alpha is the L2 penalty for ridge and logistic regression. Zero
	// means unpenalized. The intercept is never penalized.
	Alpha float64
	// MaxIter bounds the LBFGS iterations for logistic regression.
	MaxIter int
}

func buildOptions(optFns []func(o *Options)) Options {
	opts := Options{FitIntercept: true, MaxIter: 100}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// WithAlpha sets the L2 penalty.
func WithAlpha(alpha float64) func(o *Options) {
	return func(o *Options) { o.Alpha = alpha }
}

// WithoutIntercept disables the bias term.
func WithoutIntercept() func(o *Options) {
	return func(o *Options) { o.FitIntercept = false }
}

// Regression fits a least-squares linear model, optionally L2 penalized
// (ridge). OLS uses a QR factorization; ridge solves the normal equations
// with a Cholesky factorization.
type Regression struct {
	opts  Options
	names []string
	coef  []float64 // feature coefficients, bias last when present
}

// NewLinearRegression creates an unpenalized least-squares trainer.
func NewLinearRegression(optFns ...func(o *Options)) *Regression {
	return &Regression{opts: buildOptions(optFns)}
}

// NewRidge creates an L2 penalized least-squares trainer.
func NewRidge(alpha float64, optFns ...func(o *Options)) *Regression {
	r := &Regression{opts: buildOptions(optFns)}
	r.opts.Alpha = alpha
	return r
}

// Fit implements trainer.Trainer. The validation dataset is unused; linear
// models have no early stopping.
func (r *Regression) Fit(_ context.Context, train, _ *core.Dataset) error {
	x, y, err := designMatrix(train, r.opts.FitIntercept)
	if err != nil {
		return err
	}
	_, cols := x.Dims()

	if r.opts.Alpha == 0 {
		var qr mat.QR
		qr.Factorize(x)
		var beta mat.Dense
		if err := qr.SolveTo(&beta, false, y); err != nil {
			return fmt.Errorf("least squares solve: %w", err)
		}
		r.coef = make([]float64, cols)
		for j := 0; j < cols; j++ {
			r.coef[j] = beta.At(j, 0)
		}
	} else {
		coef, err := solveRidge(x, y, r.opts.Alpha, r.opts.FitIntercept)
		if err != nil {
			return err
		}
		r.coef = coef
	}
	r.names = train.Names()
	return nil
}

// Predict implements trainer.Trainer.
func (r *Regression) Predict(data *core.Dataset) ([]float64, error) {
	if r.coef == nil {
		return nil, trainer.ErrNotFitted
	}
	return applyLinear(data, r.coef, r.opts.FitIntercept)
}

// Importance implements trainer.Trainer: absolute coefficient per feature.
func (r *Regression) Importance() map[string]float64 {
	return coefImportance(r.names, r.coef)
}

// Info implements trainer.Trainer.
func (r *Regression) Info() trainer.Info {
	name := "linear_regression"
	if r.opts.Alpha > 0 {
		name = "ridge"
	}
	return trainer.Info{Name: name, Backend: "linear", Task: trainer.TaskRegression}
}

// Classifier fits binary logistic regression by minimizing the (optionally
// L2 penalized) negative log-likelihood with LBFGS. Predictions are
// probabilities of the positive class.
type Classifier struct {
	opts  Options
	names []string
	coef  []float64
}

// NewLogisticRegression creates a logistic regression trainer.
func NewLogisticRegression(optFns ...func(o *Options)) *Classifier {
	return &Classifier{opts: buildOptions(optFns)}
}

// Fit implements trainer.Trainer. Labels must be 0 or 1.
func (c *Classifier) Fit(_ context.Context, train, _ *core.Dataset) error {
	x, yDense, err := designMatrix(train, c.opts.FitIntercept)
	if err != nil {
		return err
	}
	rows, cols := x.Dims()
	y := make([]float64, rows)
	for i := 0; i < rows; i++ {
		v := yDense.At(i, 0)
		if v != 0 && v != 1 {
			return fmt.Errorf("logistic regression requires 0/1 labels, got %v at row %d", v, i)
		}
		y[i] = v
	}

	nPenalized := cols
	if c.opts.FitIntercept {
		nPenalized = cols - 1
	}
	problem := optimize.Problem{
		Func: func(w []float64) float64 {
			var nll float64
			for i := 0; i < rows; i++ {
				z := rowDot(x, i, w)
				// log(1 + exp(z)) - y*z, computed stably
				nll += math.Log1p(math.Exp(-math.Abs(z))) + math.Max(z, 0) - y[i]*z
			}
			for j := 0; j < nPenalized; j++ {
				nll += 0.5 * c.opts.Alpha * w[j] * w[j]
			}
			return nll
		},
		Grad: func(grad, w []float64) {
			for j := range grad {
				grad[j] = 0
			}
			for i := 0; i < rows; i++ {
				z := rowDot(x, i, w)
				d := sigmoid(z) - y[i]
				for j := 0; j < cols; j++ {
					grad[j] += d * x.At(i, j)
				}
			}
			for j := 0; j < nPenalized; j++ {
				grad[j] += c.opts.Alpha * w[j]
			}
		},
	}

	settings := &optimize.Settings{MajorIterations: c.opts.MaxIter}
	result, err := optimize.Minimize(problem, make([]float64, cols), settings, &optimize.LBFGS{})
	if err != nil {
		// On near-separable data LBFGS stops with a linesearch failure
		// once it cannot improve further; result.X is still the optimum.
		if !errors.Is(err, optimize.ErrLinesearcherFailure) || result == nil || result.X == nil {
			return fmt.Errorf("logistic regression did not converge: %w", err)
		}
	}
	c.coef = result.X
	c.names = train.Names()
	return nil
}

// Predict implements trainer.Trainer; returns positive-class probabilities.
func (c *Classifier) Predict(data *core.Dataset) ([]float64, error) {
	if c.coef == nil {
		return nil, trainer.ErrNotFitted
	}
	raw, err := applyLinear(data, c.coef, c.opts.FitIntercept)
	if err != nil {
		return nil, err
	}
	for i, z := range raw {
		raw[i] = sigmoid(z)
	}
	return raw, nil
}

// Importance implements trainer.Trainer: absolute coefficient per feature.
func (c *Classifier) Importance() map[string]float64 {
	return coefImportance(c.names, c.coef)
}

// Info implements trainer.Trainer.
func (c *Classifier) Info() trainer.Info {
	return trainer.Info{Name: "logistic_regression", Backend: "linear", Task: trainer.TaskClassification}
}

// designMatrix builds the (rows x features[+bias]) matrix and the label
// column vector.
func designMatrix(d *core.Dataset, intercept bool) (*mat.Dense, *mat.Dense, error) {
	labels := d.Labels()
	if labels == nil {
		return nil, nil, fmt.Errorf("dataset has no labels")
	}
	rows, cols := d.NumRows(), d.NumCols()
	if rows < cols {
		return nil, nil, fmt.Errorf("underdetermined system: %d rows for %d features", rows, cols)
	}

	width := cols
	if intercept {
		width++
	}
	x := mat.NewDense(rows, width, nil)
	for i := 0; i < rows; i++ {
		row := d.Row(i)
		for j, v := range row {
			x.Set(i, j, v)
		}
		if intercept {
			x.Set(i, width-1, 1)
		}
	}
	return x, mat.NewDense(rows, 1, labels), nil
}

func solveRidge(x, y *mat.Dense, alpha float64, intercept bool) ([]float64, error) {
	_, cols := x.Dims()
	var xtx mat.Dense
	xtx.Mul(x.T(), x)

	sym := mat.NewSymDense(cols, nil)
	for i := 0; i < cols; i++ {
		for j := i; j < cols; j++ {
			v := xtx.At(i, j)
			if i == j {
				penalized := !intercept || i != cols-1
				if penalized {
					v += alpha
				}
			}
			sym.SetSym(i, j, v)
		}
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), y.ColView(0))

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return nil, fmt.Errorf("ridge normal equations are not positive definite")
	}
	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, &xty); err != nil {
		return nil, fmt.Errorf("ridge solve: %w", err)
	}
	coef := make([]float64, cols)
	for j := 0; j < cols; j++ {
		coef[j] = beta.AtVec(j)
	}
	return coef, nil
}

func applyLinear(d *core.Dataset, coef []float64, intercept bool) ([]float64, error) {
	cols := d.NumCols()
	want := cols
	if intercept {
		want++
	}
	if len(coef) != want {
		return nil, fmt.Errorf("model has %d coefficients, dataset has %d features", len(coef), cols)
	}
	out := make([]float64, d.NumRows())
	for i := range out {
		row := d.Row(i)
		var z float64
		for j, v := range row {
			z += coef[j] * v
		}
		if intercept {
			z += coef[len(coef)-1]
		}
		out[i] = z
	}
	return out, nil
}

func coefImportance(names []string, coef []float64) map[string]float64 {
	if coef == nil {
		return nil
	}
	imp := make(map[string]float64, len(names))
	for j, n := range names {
		imp[n] = math.Abs(coef[j])
	}
	return imp
}

func rowDot(x *mat.Dense, i int, w []float64) float64 {
	var z float64
	for j, wj := range w {
		z += x.At(i, j) * wj
	}
	return z
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }
