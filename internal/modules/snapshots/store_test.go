package snapshots

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/quantfolio/internal/domain"
	"github.com/aristath/quantfolio/internal/modules/backtest"
	"github.com/aristath/quantfolio/internal/pipeline"
)

func sampleResult() *pipeline.RunResult {
	return &pipeline.RunResult{
		ID:          "run-1",
		GeneratedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Selected:    []string{"AAA", "BBB"},
		Weights:     domain.WeightVector{"AAA": 0.6, "BBB": 0.4},
		Backtest: &backtest.Result{
			Dates:     []string{"2024-01-02", "2024-01-03"},
			Strategy:  []float64{1.0, 1.01},
			Benchmark: []float64{1.0, 1.005},
		},
		Outperformance: 0.005,
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.msgpack")
	store := NewStore(path, zerolog.Nop())

	require.NoError(t, store.Save(sampleResult()))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.ID)
	assert.Equal(t, []string{"AAA", "BBB"}, loaded.Selected)
	assert.InDelta(t, 0.6, loaded.Weights["AAA"], 1e-12)
	assert.Equal(t, []float64{1.0, 1.01}, loaded.Backtest.Strategy)
}

func TestStore_LoadMissing(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "nope.msgpack"), zerolog.Nop())

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestStore_SaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latest.msgpack")
	store := NewStore(path, zerolog.Nop())

	first := sampleResult()
	require.NoError(t, store.Save(first))

	second := sampleResult()
	second.ID = "run-2"
	require.NoError(t, store.Save(second))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "run-2", loaded.ID)
}

func TestStore_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "latest.msgpack")
	store := NewStore(path, zerolog.Nop())

	require.NoError(t, store.Save(sampleResult()))
	_, err := store.Load()
	require.NoError(t, err)
}
