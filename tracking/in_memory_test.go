package tracking

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_RecordsRun(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	rec := store.StartRun("titanic")
	require.NotEmpty(t, rec.RunID())

	require.NoError(t, rec.LogParam(ctx, "objective", "binary"))
	require.NoError(t, rec.LogParams(ctx, map[string]string{"num_leaves": "31"}, "lgbm_"))
	require.NoError(t, rec.LogMetric(ctx, "auc", 0.85, 0))
	require.NoError(t, rec.LogMetric(ctx, "auc", 0.87, 1))
	require.NoError(t, rec.SetTerminated(ctx, StatusFinished))

	run, err := store.Get(rec.RunID())
	require.NoError(t, err)
	assert.Equal(t, "titanic", run.Experiment)
	assert.Equal(t, StatusFinished, run.Status)
	assert.Equal(t, "binary", run.Params["objective"])
	assert.Equal(t, "31", run.Params["lgbm_num_leaves"])
	require.Len(t, run.Metrics["auc"], 2)
	assert.InDelta(t, 0.87, run.Metrics["auc"][1].Value, 1e-9)
	assert.False(t, run.EndTime.IsZero())
}

func TestInMemoryStore_GetReturnsClone(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	rec := store.StartRun("titanic")
	require.NoError(t, rec.LogParam(ctx, "seed", "42"))

	run, err := store.Get(rec.RunID())
	require.NoError(t, err)
	run.Params["seed"] = "mutated"

	again, err := store.Get(rec.RunID())
	require.NoError(t, err)
	assert.Equal(t, "42", again.Params["seed"])
}

func TestInMemoryStore_LogArtifact(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	rec := store.StartRun("titanic")

	path := filepath.Join(t.TempDir(), "oof.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))
	require.NoError(t, rec.LogArtifact(ctx, path))

	run, err := store.Get(rec.RunID())
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, run.Artifacts["oof.bin"])

	assert.Error(t, rec.LogArtifact(ctx, filepath.Join(t.TempDir(), "missing")))
}

func TestInMemoryStore_ListFiltersByExperiment(t *testing.T) {
	store := NewInMemoryStore()
	a := store.StartRun("exp-a")
	b := store.StartRun("exp-a")
	store.StartRun("exp-b")

	ids := store.List("exp-a")
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, a.RunID())
	assert.Contains(t, ids, b.RunID())

	_, err := store.Get("nope")
	assert.Error(t, err)
}

func TestInMemoryStore_ConcurrentRecording(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	rec := store.StartRun("titanic")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(step int64) {
			defer wg.Done()
			_ = rec.LogMetric(ctx, "loss", float64(step), step)
		}(int64(i))
	}
	wg.Wait()

	run, err := store.Get(rec.RunID())
	require.NoError(t, err)
	assert.Len(t, run.Metrics["loss"], 20)
}
