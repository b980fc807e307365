package tracking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tabml/tabkit/artifact"
	"github.com/tabml/tabkit/core"
	"github.com/tabml/tabkit/logging"
)

const apiPrefix = "/api/2.0/mlflow"

// Environment variables read by ConfigFromEnv.
const (
	EnvTrackingURI = "TABKIT_TRACKING_URI"
	EnvExperiment  = "TABKIT_EXPERIMENT"
)

// ClientOptions configure a tracking client.
type ClientOptions struct {
	// HTTPClient is the transport used for API calls. Defaults to a
	// client with a 30s timeout.
	HTTPClient *http.Client
	// ArtifactStore persists LogArtifact payloads scoped by run ID.
	// Defaults to an in-memory store.
	ArtifactStore core.ArtifactStore
	// RunName is an optional display name for the created run.
	RunName string
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Client talks to an MLflow-compatible tracking server. Construction
// resolves the experiment by name (creating it when absent) and opens a run;
// all subsequent logging operations target that run.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	artifacts    core.ArtifactStore
	logger       logging.Logger
	experimentID string
	runID        string
}

// NewClient connects to the tracking server at baseURI and opens a run in
// the named experiment.
func NewClient(ctx context.Context, baseURI, experimentName string, optFns ...func(o *ClientOptions)) (*Client, error) {
	if strings.TrimSpace(baseURI) == "" {
		return nil, fmt.Errorf("tracking uri is required")
	}
	if strings.TrimSpace(experimentName) == "" {
		return nil, fmt.Errorf("experiment name is required")
	}

	opts := ClientOptions{
		HTTPClient:    &http.Client{Timeout: 30 * time.Second},
		ArtifactStore: artifact.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(baseURI, "/"),
		httpClient: opts.HTTPClient,
		artifacts:  opts.ArtifactStore,
		logger:     opts.Logger,
	}

	experimentID, err := c.resolveExperiment(ctx, experimentName)
	if err != nil {
		return nil, err
	}
	c.experimentID = experimentID

	runID, err := c.createRun(ctx, opts.RunName)
	if err != nil {
		return nil, err
	}
	c.runID = runID

	c.logger.Info("Tracking run opened", "experiment_id", experimentID, "run_id", runID)
	return c, nil
}

// NewClientFromEnv reads the tracking URI and experiment name from the
// environment (EnvTrackingURI, EnvExperiment).
func NewClientFromEnv(ctx context.Context, optFns ...func(o *ClientOptions)) (*Client, error) {
	return NewClient(ctx, os.Getenv(EnvTrackingURI), os.Getenv(EnvExperiment), optFns...)
}

// RunID implements Recorder.
func (c *Client) RunID() string { return c.runID }

// ExperimentID returns the resolved experiment identifier.
func (c *Client) ExperimentID() string { return c.experimentID }

// resolveExperiment finds the experiment by name, creating it when the
// server reports it absent.
func (c *Client) resolveExperiment(ctx context.Context, name string) (string, error) {
	res, err := c.get(ctx, "/experiments/get-by-name", url.Values{"experiment_name": {name}})
	if err == nil {
		return res.Get("experiment.experiment_id").String(), nil
	}
	apiErr, ok := err.(*APIError)
	if !ok || apiErr.Code != "RESOURCE_DOES_NOT_EXIST" {
		return "", err
	}

	res, err = c.post(ctx, "/experiments/create", map[string]any{"name": name})
	if err != nil {
		return "", err
	}
	return res.Get("experiment_id").String(), nil
}

func (c *Client) createRun(ctx context.Context, runName string) (string, error) {
	body := map[string]any{
		"experiment_id": c.experimentID,
		"start_time":    time.Now().UnixMilli(),
	}
	if runName != "" {
		body["run_name"] = runName
	}
	res, err := c.post(ctx, "/runs/create", body)
	if err != nil {
		return "", err
	}
	runID := res.Get("run.info.run_id").String()
	if runID == "" {
		return "", fmt.Errorf("tracking server returned no run id")
	}
	return runID, nil
}

// LogParam implements Recorder.
func (c *Client) LogParam(ctx context.Context, key, value string) error {
	_, err := c.post(ctx, "/runs/log-parameter", map[string]any{
		"run_id": c.runID,
		"key":    key,
		"value":  value,
	})
	return err
}

// LogParams implements Recorder. Keys are logged in sorted order so retries
// produce identical call sequences.
func (c *Client) LogParams(ctx context.Context, params map[string]string, prefix string) error {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := c.LogParam(ctx, prefix+k, params[k]); err != nil {
			return err
		}
	}
	return nil
}

// LogMetric implements Recorder.
func (c *Client) LogMetric(ctx context.Context, key string, value float64, step int64) error {
	_, err := c.post(ctx, "/runs/log-metric", map[string]any{
		"run_id":    c.runID,
		"key":       key,
		"value":     value,
		"timestamp": time.Now().UnixMilli(),
		"step":      step,
	})
	return err
}

// LogArtifact implements Recorder; reads the local file and stores it under
// the run in the configured artifact store.
func (c *Client) LogArtifact(ctx context.Context, localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read artifact %q: %w", localPath, err)
	}
	name := filepath.Base(localPath)
	if err := c.artifacts.Save(ctx, c.runID, name, data); err != nil {
		return fmt.Errorf("store artifact %q: %w", name, err)
	}
	c.logger.Debug("Artifact stored", "run_id", c.runID, "name", name, "bytes", len(data))
	return nil
}

// SetTerminated implements Recorder.
func (c *Client) SetTerminated(ctx context.Context, status string) error {
	_, err := c.post(ctx, "/runs/update", map[string]any{
		"run_id":   c.runID,
		"status":   status,
		"end_time": time.Now().UnixMilli(),
	})
	return err
}

func (c *Client) get(ctx context.Context, endpoint string, query url.Values) (gjson.Result, error) {
	u := c.baseURL + apiPrefix + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	return c.do(req, endpoint)
}

func (c *Client) post(ctx context.Context, endpoint string, body map[string]any) (gjson.Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return gjson.Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+endpoint, bytes.NewReader(payload))
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, endpoint)
}

func (c *Client) do(req *http.Request, endpoint string) (gjson.Result, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("tracking %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("tracking %s: read response: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		parsed := gjson.ParseBytes(data)
		return gjson.Result{}, &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Code:       parsed.Get("error_code").String(),
			Message:    parsed.Get("message").String(),
		}
	}
	return gjson.ParseBytes(data), nil
}
