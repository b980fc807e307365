package tracking

import "context"

// Run status values accepted by SetTerminated.
const (
	StatusFinished = "FINISHED"
	StatusFailed   = "FAILED"
	StatusKilled   = "KILLED"
)

// Recorder is the minimal run-recording interface consumed by runners and
// the experiment façade. Client (remote server) and the in-memory store both
// implement it.
type Recorder interface {
	// RunID returns the identifier of the active run.
	RunID() string

	// LogParam records a single immutable parameter.
	LogParam(ctx context.Context, key, value string) error

	// LogParams records every entry of params, each key prefixed with
	// prefix when non-empty.
	LogParams(ctx context.Context, params map[string]string, prefix string) error

	// LogMetric records a metric point at the given step.
	LogMetric(ctx context.Context, key string, value float64, step int64) error

	// LogArtifact stores the file at localPath under the active run.
	LogArtifact(ctx context.Context, localPath string) error

	// SetTerminated marks the run finished with the given status.
	SetTerminated(ctx context.Context, status string) error
}
