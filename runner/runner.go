package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tabml/tabkit/cache"
	"github.com/tabml/tabkit/core"
	"github.com/tabml/tabkit/logging"
	"github.com/tabml/tabkit/metrics"
	"github.com/tabml/tabkit/tracking"
	"github.com/tabml/tabkit/trainer"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Folds is the number of cross-validation folds.
	Folds int
	// Seed drives the fold assignment shuffle.
	Seed int64
	// ModelDir, when non-empty, persists per-fold outputs through the
	// cache package under this directory.
	ModelDir string
	// Reuse loads previously persisted fold outputs instead of
	// retraining. Only meaningful together with ModelDir.
	Reuse bool
	// Recorder receives parameters and scores of the run. Nil disables
	// tracking.
	Recorder tracking.Recorder
	// Logging services.
	Logger logging.Logger
}

// Runner executes cross-validated training runs. It splits the dataset,
// trains a fresh model per fold via the configured factory, assembles
// out-of-fold predictions, and reports scores to the tracking layer.
type Runner struct {
	folds    int
	seed     int64
	modelDir string
	reuse    bool
	recorder tracking.Recorder
	logger   logging.Logger
}

// New constructs a Runner with optional overrides.
func New(optFns ...func(o *Options)) *Runner {
	opts := Options{
		Folds:  5,
		Seed:   42,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{
		folds:    opts.Folds,
		seed:     opts.Seed,
		modelDir: opts.ModelDir,
		reuse:    opts.Reuse,
		recorder: opts.Recorder,
		logger:   opts.Logger,
	}
}

// Result aggregates the outcome of one cross-validated run.
type Result struct {
	// OOF holds the out-of-fold prediction for every row of the input.
	OOF []float64
	// FoldScores holds the metric score per fold, in fold order.
	FoldScores []float64
	// MeanScore is the arithmetic mean of FoldScores.
	MeanScore float64
	// Importance is the per-feature importance averaged over folds.
	// Empty when no fold reported importance.
	Importance map[string]float64
}

// foldOutput is the persisted unit of work for one fold.
type foldOutput struct {
	Preds      []float64
	Score      float64
	Importance map[string]float64
}

// CV runs k-fold cross-validation of the factory's trainer over data,
// scoring out-of-fold predictions with metric. The context is checked
// between folds so long runs cancel promptly.
func (r *Runner) CV(ctx context.Context, data *core.Dataset, factory trainer.Factory, metric metrics.Metric, params trainer.Params) (*Result, error) {
	if factory == nil {
		return nil, fmt.Errorf("trainer factory is required")
	}
	if metric.Score == nil {
		return nil, fmt.Errorf("metric is required")
	}
	if !data.HasLabels() {
		return nil, fmt.Errorf("cross-validation requires labels")
	}

	folds, err := data.KFold(r.folds, r.seed)
	if err != nil {
		return nil, err
	}

	if r.recorder != nil {
		p := map[string]string{
			"folds": strconv.Itoa(r.folds),
			"seed":  strconv.FormatInt(r.seed, 10),
		}
		if err := r.recorder.LogParams(ctx, p, "cv_"); err != nil {
			return nil, fmt.Errorf("log run params: %w", err)
		}
		if len(params) > 0 {
			if err := r.recorder.LogParams(ctx, params.Strings(), ""); err != nil {
				return nil, fmt.Errorf("log trainer params: %w", err)
			}
		}
	}

	result := &Result{
		OOF:        make([]float64, data.NumRows()),
		FoldScores: make([]float64, 0, len(folds)),
		Importance: make(map[string]float64),
	}

	for _, fold := range folds {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		start := time.Now()
		out, err := r.runFold(ctx, fold, factory, metric)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", fold.Index, err)
		}

		for i, idx := range fold.ValidIdx {
			result.OOF[idx] = out.Preds[i]
		}
		result.FoldScores = append(result.FoldScores, out.Score)
		for name, v := range out.Importance {
			result.Importance[name] += v
		}

		r.logger.Info("Fold finished",
			"fold", fold.Index,
			"metric", metric.Name,
			"score", out.Score,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		if r.recorder != nil {
			if err := r.recorder.LogMetric(ctx, metric.Name+"_fold", out.Score, int64(fold.Index)); err != nil {
				return nil, fmt.Errorf("log fold metric: %w", err)
			}
		}
	}

	for _, s := range result.FoldScores {
		result.MeanScore += s
	}
	result.MeanScore /= float64(len(result.FoldScores))
	for name := range result.Importance {
		result.Importance[name] /= float64(len(folds))
	}

	if r.recorder != nil {
		if err := r.recorder.LogMetric(ctx, metric.Name, result.MeanScore, 0); err != nil {
			return nil, fmt.Errorf("log mean metric: %w", err)
		}
	}
	return result, nil
}

// runFold trains and scores a single fold, going through the cache when a
// model directory is configured.
func (r *Runner) runFold(ctx context.Context, fold core.Fold, factory trainer.Factory, metric metrics.Metric) (foldOutput, error) {
	produce := func(ctx context.Context) (foldOutput, error) {
		return r.trainFold(ctx, fold, factory, metric)
	}
	if r.modelDir == "" {
		return produce(ctx)
	}
	location := filepath.Join(r.modelDir, fmt.Sprintf("fold_%d.bin", fold.Index))
	return cache.Cached(location, produce,
		cache.WithReuse(r.reuse),
		cache.WithLogger(r.logger),
	)(ctx)
}

func (r *Runner) trainFold(ctx context.Context, fold core.Fold, factory trainer.Factory, metric metrics.Metric) (foldOutput, error) {
	t := factory()
	if err := t.Fit(ctx, fold.Train, fold.Valid); err != nil {
		return foldOutput{}, fmt.Errorf("fit: %w", err)
	}
	preds, err := t.Predict(fold.Valid)
	if err != nil {
		return foldOutput{}, fmt.Errorf("predict: %w", err)
	}
	score, err := metric.Score(fold.Valid.Labels(), preds)
	if err != nil {
		return foldOutput{}, fmt.Errorf("score: %w", err)
	}
	return foldOutput{Preds: preds, Score: score, Importance: t.Importance()}, nil
}
