package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/smallnest/fincrag/store"
)

// FileCheckpointStore writes one JSON file per checkpoint into a directory.
type FileCheckpointStore struct {
	mu   sync.RWMutex
	path string
}

var _ store.CheckpointStore = (*FileCheckpointStore)(nil)

// NewFileCheckpointStore creates the directory if needed and returns a store rooted there.
func NewFileCheckpointStore(path string) (*FileCheckpointStore, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	return &FileCheckpointStore{path: path}, nil
}

func (f *FileCheckpointStore) filename(id string) string {
	return filepath.Join(f.path, id+".json")
}

// Save stores a checkpoint
func (f *FileCheckpointStore) Save(_ context.Context, checkpoint *store.Checkpoint) error {
	if checkpoint == nil || checkpoint.ID == "" {
		return fmt.Errorf("checkpoint must have an ID")
	}
	if strings.ContainsAny(checkpoint.ID, `/\`) {
		return fmt.Errorf("invalid checkpoint ID: %s", checkpoint.ID)
	}

	data, err := json.MarshalIndent(checkpoint, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp := f.filename(checkpoint.ID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := os.Rename(tmp, f.filename(checkpoint.ID)); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// Load retrieves a checkpoint by ID
func (f *FileCheckpointStore) Load(_ context.Context, checkpointID string) (*store.Checkpoint, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return f.read(f.filename(checkpointID), checkpointID)
}

func (f *FileCheckpointStore) read(filename, id string) (*store.Checkpoint, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", store.ErrCheckpointNotFound, id)
		}
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp store.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkpoint: %w", err)
	}
	return &cp, nil
}

// List returns all checkpoints of a run ordered by step
func (f *FileCheckpointStore) List(_ context.Context, runID string) ([]*store.Checkpoint, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	matches, err := filepath.Glob(filepath.Join(f.path, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	checkpoints := []*store.Checkpoint{}
	for _, m := range matches {
		cp, err := f.read(m, filepath.Base(m))
		if err != nil {
			continue
		}
		if cp.RunID == runID {
			checkpoints = append(checkpoints, cp)
		}
	}
	slices.SortStableFunc(checkpoints, func(a, b *store.Checkpoint) int {
		return a.Step - b.Step
	})
	return checkpoints, nil
}

// Clear removes all checkpoints of a run
func (f *FileCheckpointStore) Clear(ctx context.Context, runID string) error {
	checkpoints, err := f.List(ctx, runID)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, cp := range checkpoints {
		if err := os.Remove(f.filename(cp.ID)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete checkpoint %s: %w", cp.ID, err)
		}
	}
	return nil
}
