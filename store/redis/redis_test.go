package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/smallnest/fincrag/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCheckpointStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := NewRedisCheckpointStore(RedisOptions{Addr: mr.Addr()})
	defer s.Close()

	ctx := context.Background()
	runID := "run-123"

	cp := &store.Checkpoint{
		ID:       "run-123-assess",
		RunID:    runID,
		NodeName: "assess",
		Step:     2,
		State: store.RunSnapshot{
			Question: "How did the stock do?",
			Ticker:   "TSLA",
			Quality:  "incorrect",
		},
		Timestamp: time.Now().UTC(),
	}
	require.NoError(t, s.Save(ctx, cp))
	require.NoError(t, s.Save(ctx, &store.Checkpoint{ID: "run-123-retrieve", RunID: runID, NodeName: "retrieve", Step: 1}))

	assert.True(t, mr.Exists("fincrag:checkpoint:run-123-assess"))

	loaded, err := s.Load(ctx, cp.ID)
	require.NoError(t, err)
	assert.Equal(t, cp.NodeName, loaded.NodeName)
	assert.Equal(t, cp.State, loaded.State)

	list, err := s.List(ctx, runID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "retrieve", list[0].NodeName)
	assert.Equal(t, "assess", list[1].NodeName)

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrCheckpointNotFound)

	require.NoError(t, s.Clear(ctx, runID))
	list, err = s.List(ctx, runID)
	require.NoError(t, err)
	assert.Len(t, list, 0)
	assert.False(t, mr.Exists("fincrag:checkpoint:run-123-assess"))
}

func TestRedisCheckpointStore_TTL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s, err := NewRedisCheckpointStoreFromURL("redis://"+mr.Addr()+"/0", time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, &store.Checkpoint{ID: "cp", RunID: "run", Step: 1}))
	assert.Equal(t, time.Minute, mr.TTL("fincrag:checkpoint:cp"))

	mr.FastForward(2 * time.Minute)

	list, err := s.List(ctx, "run")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNewRedisCheckpointStoreFromURL_Invalid(t *testing.T) {
	_, err := NewRedisCheckpointStoreFromURL("://bad", 0)
	assert.Error(t, err)
}
