// Package tabkit provides a high-level façade over the runner, tracking,
// cache and trainer abstractions enabling rapid construction of tabular
// machine-learning experiments. Most applications interact with this package
// by:
//  1. Creating an Experiment via New() (optionally overriding default in-memory services)
//  2. Supplying a trainer factory and a metric
//  3. Running cross-validation (Run) and reading the aggregated Result
//
// The façade delegates orchestration to runner.Runner while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production setups typically supply a remote tracking client
// and a structured logger.
package tabkit

import (
	"context"
	"fmt"

	"github.com/tabml/tabkit/core"
	"github.com/tabml/tabkit/internal/util"
	"github.com/tabml/tabkit/logging"
	"github.com/tabml/tabkit/metrics"
	"github.com/tabml/tabkit/runner"
	"github.com/tabml/tabkit/tracking"
	"github.com/tabml/tabkit/trainer"
)

// Options configures the Experiment instance.
type Options struct {
	// Name identifies the experiment in tracking and logs.
	Name string

	// Folds is the number of cross-validation folds.
	Folds int

	// Seed drives fold assignment and is forwarded to trainer params.
	Seed int64

	// Params are the hyperparameters handed to every fold's trainer and
	// logged as run parameters.
	Params trainer.Params

	// ModelDir, when non-empty, persists per-fold outputs on disk so an
	// interrupted experiment can resume.
	ModelDir string

	// Reuse loads persisted fold outputs instead of retraining.
	Reuse bool

	// Recorder receives run parameters and scores. Defaults to a run in
	// an in-memory tracking store.
	Recorder tracking.Recorder

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Experiment is the high-level façade aggregating a trainer factory, a
// metric, and the tracking and caching services around one experiment.
type Experiment struct {
	opts    Options
	factory trainer.Factory
	metric  metrics.Metric
	runner  *runner.Runner
}

// New creates an Experiment with optional overrides. Any unset service is
// initialized with an in-memory implementation.
func New(factory trainer.Factory, metric metrics.Metric, optFns ...func(o *Options)) *Experiment {
	opts := Options{
		Name:   "default",
		Folds:  5,
		Seed:   42,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Recorder == nil {
		opts.Recorder = tracking.NewInMemoryStore().StartRun(opts.Name)
	}

	r := runner.New(func(o *runner.Options) {
		o.Folds = opts.Folds
		o.Seed = opts.Seed
		o.ModelDir = opts.ModelDir
		o.Reuse = opts.Reuse
		o.Recorder = opts.Recorder
		o.Logger = opts.Logger
	})

	return &Experiment{opts: opts, factory: factory, metric: metric, runner: r}
}

// Recorder exposes the active run recorder, e.g. to log extra artifacts.
func (e *Experiment) Recorder() tracking.Recorder { return e.opts.Recorder }

// Run cross-validates the experiment's trainer over data and records the
// outcome. The run is marked FINISHED on success and FAILED on error.
func (e *Experiment) Run(ctx context.Context, data *core.Dataset) (*runner.Result, error) {
	rec := e.opts.Recorder

	if err := rec.LogParams(ctx, util.FlattenParams(struct {
		Experiment string
		Trainer    string
	}{e.opts.Name, e.trainerName()}), ""); err != nil {
		return nil, fmt.Errorf("log experiment params: %w", err)
	}

	params := e.opts.Params
	if params != nil {
		params = params.WithSeed(e.opts.Seed)
	}

	res, err := e.runner.CV(ctx, data, e.factory, e.metric, params)
	if err != nil {
		if termErr := rec.SetTerminated(ctx, tracking.StatusFailed); termErr != nil {
			e.opts.Logger.Warn("Failed to mark run failed", "error", termErr)
		}
		return nil, err
	}
	if err := rec.SetTerminated(ctx, tracking.StatusFinished); err != nil {
		return nil, fmt.Errorf("terminate run: %w", err)
	}
	return res, nil
}

func (e *Experiment) trainerName() string {
	if e.factory == nil {
		return "unknown"
	}
	return e.factory().Info().Name
}
