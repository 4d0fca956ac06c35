package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smallnest/fincrag/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCheckpointStore_New(t *testing.T) {
	checkpointPath := filepath.Join(t.TempDir(), "journal", "runs")

	fs, err := NewFileCheckpointStore(checkpointPath)
	require.NoError(t, err)
	assert.NotNil(t, fs)

	info, err := os.Stat(checkpointPath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFileCheckpointStore_SaveLoadList(t *testing.T) {
	ctx := context.Background()
	fs, err := NewFileCheckpointStore(t.TempDir())
	require.NoError(t, err)

	cp := &store.Checkpoint{
		ID:       "run-1-generate",
		RunID:    "run-1",
		NodeName: "generate",
		Step:     4,
		State: store.RunSnapshot{
			Question: "What is the revenue?",
			Ticker:   "MSFT",
			Quality:  "ambiguous",
			WebKind:  "disabled",
			Answer:   "Unknown",
			Documents: []store.DocumentRef{
				{ID: "MSFT-fundamentals", Source: "yfinance", Ticker: "MSFT", Excerpt: "Microsoft"},
			},
		},
		Timestamp: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, fs.Save(ctx, cp))
	require.NoError(t, fs.Save(ctx, &store.Checkpoint{ID: "run-1-retrieve", RunID: "run-1", NodeName: "retrieve", Step: 1}))
	require.NoError(t, fs.Save(ctx, &store.Checkpoint{ID: "run-2-retrieve", RunID: "run-2", NodeName: "retrieve", Step: 1}))

	_, err = os.Stat(filepath.Join(fs.path, cp.ID+".json"))
	require.NoError(t, err)

	loaded, err := fs.Load(ctx, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, cp.State, loaded.State)
	assert.True(t, cp.Timestamp.Equal(loaded.Timestamp))

	list, err := fs.List(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "retrieve", list[0].NodeName)
	assert.Equal(t, "generate", list[1].NodeName)

	require.NoError(t, fs.Clear(ctx, "run-1"))
	list, err = fs.List(ctx, "run-1")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = fs.Load(ctx, cp.ID)
	assert.ErrorIs(t, err, store.ErrCheckpointNotFound)

	list, _ = fs.List(ctx, "run-2")
	assert.Len(t, list, 1)
}

func TestFileCheckpointStore_InvalidID(t *testing.T) {
	fs, err := NewFileCheckpointStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, fs.Save(context.Background(), &store.Checkpoint{ID: "../escape"}))
	assert.Error(t, fs.Save(context.Background(), &store.Checkpoint{}))
}
