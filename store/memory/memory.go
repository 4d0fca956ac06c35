package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/smallnest/fincrag/store"
)

// DefaultMaxRuns is how many runs NewMemoryCheckpointStore keeps.
const DefaultMaxRuns = 256

// MemoryCheckpointStore keeps checkpoints in process memory. Only the most
// recently written runs are kept; older ones are dropped with all their
// checkpoints.
type MemoryCheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*store.Checkpoint
	runs        *lru.Cache[string, []string]
}

var _ store.CheckpointStore = (*MemoryCheckpointStore)(nil)

// NewMemoryCheckpointStore creates a store that keeps DefaultMaxRuns runs
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return NewMemoryCheckpointStoreWithCapacity(DefaultMaxRuns)
}

// NewMemoryCheckpointStoreWithCapacity creates a store that keeps the
// checkpoints of the maxRuns most recently written runs.
func NewMemoryCheckpointStoreWithCapacity(maxRuns int) *MemoryCheckpointStore {
	if maxRuns <= 0 {
		maxRuns = DefaultMaxRuns
	}
	m := &MemoryCheckpointStore{
		checkpoints: make(map[string]*store.Checkpoint),
	}
	// the callback runs on the goroutine that holds m.mu
	m.runs, _ = lru.NewWithEvict(maxRuns, func(_ string, ids []string) {
		for _, id := range ids {
			delete(m.checkpoints, id)
		}
	})
	return m
}

// Save stores a copy of the checkpoint
func (m *MemoryCheckpointStore) Save(_ context.Context, checkpoint *store.Checkpoint) error {
	if checkpoint == nil || checkpoint.ID == "" {
		return fmt.Errorf("checkpoint must have an ID")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *checkpoint
	_, exists := m.checkpoints[checkpoint.ID]
	m.checkpoints[checkpoint.ID] = &cp
	if checkpoint.RunID != "" {
		ids, _ := m.runs.Peek(checkpoint.RunID)
		if !exists {
			ids = append(ids, checkpoint.ID)
		}
		m.runs.Add(checkpoint.RunID, ids)
	}
	return nil
}

// Load retrieves a checkpoint by ID
func (m *MemoryCheckpointStore) Load(_ context.Context, checkpointID string) (*store.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cp, ok := m.checkpoints[checkpointID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrCheckpointNotFound, checkpointID)
	}
	out := *cp
	return &out, nil
}

// List returns all checkpoints of a run ordered by step
func (m *MemoryCheckpointStore) List(_ context.Context, runID string) ([]*store.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids, _ := m.runs.Peek(runID)
	checkpoints := make([]*store.Checkpoint, 0, len(ids))
	for _, id := range ids {
		cp := *m.checkpoints[id]
		checkpoints = append(checkpoints, &cp)
	}
	slices.SortStableFunc(checkpoints, func(a, b *store.Checkpoint) int {
		return a.Step - b.Step
	})
	return checkpoints, nil
}

// Clear removes all checkpoints of a run
func (m *MemoryCheckpointStore) Clear(_ context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs.Remove(runID)
	return nil
}

// Len returns the number of checkpoints held.
func (m *MemoryCheckpointStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.checkpoints)
}
