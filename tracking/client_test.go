package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabml/tabkit/artifact"
)

var _ Recorder = (*Client)(nil)

// fakeServer implements the subset of the MLflow REST API the client uses.
type fakeServer struct {
	mu          sync.Mutex
	experiments map[string]string // name -> id
	params      map[string]string
	metrics     map[string]float64
	status      string
	runCreated  bool
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		experiments: map[string]string{},
		params:      map[string]string{},
		metrics:     map[string]float64{},
	}
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/2.0/mlflow/experiments/get-by-name", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		name := r.URL.Query().Get("experiment_name")
		id, ok := f.experiments[name]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error_code": "RESOURCE_DOES_NOT_EXIST",
				"message":    "experiment not found",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"experiment": map[string]string{"experiment_id": id, "name": name},
		})
	})
	mux.HandleFunc("/api/2.0/mlflow/experiments/create", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.experiments[body.Name] = "exp-1"
		_ = json.NewEncoder(w).Encode(map[string]string{"experiment_id": "exp-1"})
	})
	mux.HandleFunc("/api/2.0/mlflow/runs/create", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.runCreated = true
		_ = json.NewEncoder(w).Encode(map[string]any{
			"run": map[string]any{"info": map[string]string{"run_id": "run-42"}},
		})
	})
	mux.HandleFunc("/api/2.0/mlflow/runs/log-parameter", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body struct {
			RunID string `json:"run_id"`
			Key   string `json:"key"`
			Value string `json:"value"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.params[body.Key] = body.Value
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})
	mux.HandleFunc("/api/2.0/mlflow/runs/log-metric", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body struct {
			Key   string  `json:"key"`
			Value float64 `json:"value"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.metrics[body.Key] = body.Value
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})
	mux.HandleFunc("/api/2.0/mlflow/runs/update", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		var body struct {
			Status string `json:"status"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.status = body.Status
		_ = json.NewEncoder(w).Encode(map[string]any{})
	})
	return mux
}

func TestClient_CreatesExperimentAndRun(t *testing.T) {
	ctx := context.Background()
	fake := newFakeServer()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c, err := NewClient(ctx, srv.URL, "titanic")
	require.NoError(t, err)

	assert.Equal(t, "exp-1", c.ExperimentID())
	assert.Equal(t, "run-42", c.RunID())
	assert.True(t, fake.runCreated)
}

func TestClient_ReusesExistingExperiment(t *testing.T) {
	ctx := context.Background()
	fake := newFakeServer()
	fake.experiments["titanic"] = "exp-7"
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c, err := NewClient(ctx, srv.URL, "titanic")
	require.NoError(t, err)
	assert.Equal(t, "exp-7", c.ExperimentID())
}

func TestClient_LogsParamsMetricsStatus(t *testing.T) {
	ctx := context.Background()
	fake := newFakeServer()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	c, err := NewClient(ctx, srv.URL, "titanic")
	require.NoError(t, err)

	require.NoError(t, c.LogParam(ctx, "objective", "binary"))
	require.NoError(t, c.LogParams(ctx, map[string]string{"num_leaves": "31", "lr": "0.1"}, "lgbm_"))
	require.NoError(t, c.LogMetric(ctx, "auc", 0.87, 0))
	require.NoError(t, c.SetTerminated(ctx, StatusFinished))

	assert.Equal(t, "binary", fake.params["objective"])
	assert.Equal(t, "31", fake.params["lgbm_num_leaves"])
	assert.Equal(t, "0.1", fake.params["lgbm_lr"])
	assert.InDelta(t, 0.87, fake.metrics["auc"], 1e-9)
	assert.Equal(t, StatusFinished, fake.status)
}

func TestClient_LogArtifact(t *testing.T) {
	ctx := context.Background()
	fake := newFakeServer()
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	store := artifact.NewInMemoryStore()
	c, err := NewClient(ctx, srv.URL, "titanic", func(o *ClientOptions) {
		o.ArtifactStore = store
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.bin")
	require.NoError(t, os.WriteFile(path, []byte("weights"), 0o644))
	require.NoError(t, c.LogArtifact(ctx, path))

	data, err := store.Get(ctx, c.RunID(), "model.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("weights"), data)

	// missing local file surfaces as error
	assert.Error(t, c.LogArtifact(ctx, filepath.Join(t.TempDir(), "missing.bin")))
}

func TestClient_ServerErrorSurfacesAsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error_code": "INTERNAL_ERROR",
			"message":    "boom",
		})
	}))
	defer srv.Close()

	_, err := NewClient(context.Background(), srv.URL, "titanic")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", apiErr.Code)
	assert.Contains(t, apiErr.Error(), "boom")
}

func TestClient_Validation(t *testing.T) {
	_, err := NewClient(context.Background(), "", "titanic")
	assert.Error(t, err)
	_, err = NewClient(context.Background(), "http://localhost:5000", " ")
	assert.Error(t, err)
}
