package tracking

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MetricPoint is a single recorded metric value.
type MetricPoint struct {
	Value     float64
	Step      int64
	Timestamp time.Time
}

// Run is a snapshot of a recorded run.
type Run struct {
	ID         string
	Experiment string
	Status     string
	Params     map[string]string
	Metrics    map[string][]MetricPoint
	Artifacts  map[string][]byte
	StartTime  time.Time
	EndTime    time.Time
}

// Clone returns a deep copy so callers cannot mutate store state.
func (r *Run) Clone() *Run {
	cp := *r
	cp.Params = make(map[string]string, len(r.Params))
	for k, v := range r.Params {
		cp.Params[k] = v
	}
	cp.Metrics = make(map[string][]MetricPoint, len(r.Metrics))
	for k, v := range r.Metrics {
		cp.Metrics[k] = append([]MetricPoint(nil), v...)
	}
	cp.Artifacts = make(map[string][]byte, len(r.Artifacts))
	for k, v := range r.Artifacts {
		cp.Artifacts[k] = append([]byte(nil), v...)
	}
	return &cp
}

// InMemoryStore is a volatile run store keeping runs in a process local map.
// It is safe for concurrent access and best suited for tests or offline
// experimentation. Each returned run is cloned to prevent external mutation
// of internal state.
type InMemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewInMemoryStore constructs an empty in-memory run store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{runs: make(map[string]*Run)}
}

// StartRun opens a new run in the named experiment and returns a Recorder
// bound to it. Run IDs are fresh UUIDs.
func (s *InMemoryStore) StartRun(experiment string) Recorder {
	s.mu.Lock()
	defer s.mu.Unlock()
	run := &Run{
		ID:         uuid.NewString(),
		Experiment: experiment,
		Status:     "RUNNING",
		Params:     make(map[string]string),
		Metrics:    make(map[string][]MetricPoint),
		Artifacts:  make(map[string][]byte),
		StartTime:  time.Now(),
	}
	s.runs[run.ID] = run
	return &memoryRecorder{store: s, runID: run.ID}
}

// Get returns a clone of the run or an error when unknown.
func (s *InMemoryStore) Get(runID string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("unknown run %q", runID)
	}
	return run.Clone(), nil
}

// List returns the run IDs for an experiment, sorted.
func (s *InMemoryStore) List(experiment string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.runs))
	for id, run := range s.runs {
		if run.Experiment == experiment {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (s *InMemoryStore) withRun(runID string, fn func(run *Run) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("unknown run %q", runID)
	}
	return fn(run)
}

// memoryRecorder binds the Recorder interface to one run in an
// InMemoryStore.
type memoryRecorder struct {
	store *InMemoryStore
	runID string
}

// RunID implements Recorder.
func (r *memoryRecorder) RunID() string { return r.runID }

// LogParam implements Recorder.
func (r *memoryRecorder) LogParam(_ context.Context, key, value string) error {
	return r.store.withRun(r.runID, func(run *Run) error {
		run.Params[key] = value
		return nil
	})
}

// LogParams implements Recorder.
func (r *memoryRecorder) LogParams(ctx context.Context, params map[string]string, prefix string) error {
	for k, v := range params {
		if err := r.LogParam(ctx, prefix+k, v); err != nil {
			return err
		}
	}
	return nil
}

// LogMetric implements Recorder.
func (r *memoryRecorder) LogMetric(_ context.Context, key string, value float64, step int64) error {
	return r.store.withRun(r.runID, func(run *Run) error {
		run.Metrics[key] = append(run.Metrics[key], MetricPoint{Value: value, Step: step, Timestamp: time.Now()})
		return nil
	})
}

// LogArtifact implements Recorder; the file content is held in memory.
func (r *memoryRecorder) LogArtifact(_ context.Context, localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read artifact %q: %w", localPath, err)
	}
	return r.store.withRun(r.runID, func(run *Run) error {
		run.Artifacts[filepath.Base(localPath)] = append([]byte(nil), data...)
		return nil
	})
}

// SetTerminated implements Recorder.
func (r *memoryRecorder) SetTerminated(_ context.Context, status string) error {
	return r.store.withRun(r.runID, func(run *Run) error {
		run.Status = status
		run.EndTime = time.Now()
		return nil
	})
}
