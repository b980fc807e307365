package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func jsonLogger(buf *bytes.Buffer, level LogLevel) *TabkitLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	cfg.Output = buf
	cfg.AddSource = false
	return NewLogger(cfg)
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", line, err)
	}
	return entry
}

func TestTabkitLogger_KeyValueArgs(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, LogLevelDebug)

	l.Debug("Cache entry written", "location", "/tmp/x.bin", "bytes", 42)

	entry := decodeLine(t, &buf)
	if entry["msg"] != "Cache entry written" {
		t.Fatalf("message mangled: %v", entry["msg"])
	}
	if entry["location"] != "/tmp/x.bin" {
		t.Fatalf("location attr missing: %v", entry)
	}
	if entry["bytes"] != float64(42) {
		t.Fatalf("bytes attr missing: %v", entry)
	}
}

func TestTabkitLogger_ContextAndRunFields(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, LogLevelInfo).
		WithComponent("runner").
		WithRun("titanic", "run-1")

	l.Info("Fold finished", "fold", 2, "score", 0.87)

	entry := decodeLine(t, &buf)
	if entry["component"] != "runner" || entry["experiment"] != "titanic" || entry["run_id"] != "run-1" {
		t.Fatalf("contextual fields missing: %v", entry)
	}
	if entry["fold"] != float64(2) || entry["score"] != 0.87 {
		t.Fatalf("call-site attrs missing: %v", entry)
	}
}

func TestTabkitLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, LogLevelWarn)

	l.Debug("dropped")
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}
	l.Warn("kept")
	if buf.Len() == 0 {
		t.Fatal("warn message was filtered")
	}
}

func TestTabkitLogger_StrayArg(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, LogLevelInfo)

	l.Info("odd args", "key")

	entry := decodeLine(t, &buf)
	if entry["msg"] != "odd args" {
		t.Fatalf("message mangled: %v", entry["msg"])
	}
	if entry["!BADKEY"] != "key" {
		t.Fatalf("stray arg not preserved: %v", entry)
	}
}

func TestTabkitLogger_ErrorWithStack(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, LogLevelError)

	l.ErrorWithStack(errors.New("boom"), "fit failed", "trainer", "lgbm")

	entry := decodeLine(t, &buf)
	if entry["error"] != "boom" || entry["trainer"] != "lgbm" {
		t.Fatalf("attrs missing: %v", entry)
	}
	if entry["stack_trace"] == nil {
		t.Fatalf("stack trace missing: %v", entry)
	}
}

func TestLogCacheEventHelper(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, LogLevelDebug)

	l.LogCacheEvent("/tmp/f.bin", true, 5*time.Millisecond)

	entry := decodeLine(t, &buf)
	if entry["msg"] != "Cache hit" || entry["location"] != "/tmp/f.bin" || entry["hit"] != true {
		t.Fatalf("unexpected entry: %v", entry)
	}
}
