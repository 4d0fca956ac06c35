package store

import (
	"context"
	"errors"
	"time"
)

// ErrCheckpointNotFound is returned by Load when no checkpoint has the given ID.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// DocumentRef is the journaled form of a retrieved document.
type DocumentRef struct {
	ID      string `json:"id"`
	Source  string `json:"source"`
	Ticker  string `json:"ticker"`
	Excerpt string `json:"excerpt"`
}

// RunSnapshot is the state of one pipeline run as seen after a node completed.
type RunSnapshot struct {
	Question   string        `json:"question"`
	Ticker     string        `json:"ticker"`
	Documents  []DocumentRef `json:"documents,omitempty"`
	Quality    string        `json:"quality"`
	WebKind    string        `json:"web_kind,omitempty"`
	WebResults string        `json:"web_results,omitempty"`
	Context    string        `json:"context,omitempty"`
	Answer     string        `json:"answer,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Checkpoint represents a saved state at a specific point in a run
type Checkpoint struct {
	ID        string         `json:"id"`
	RunID     string         `json:"run_id"`
	NodeName  string         `json:"node_name"`
	Step      int            `json:"step"`
	State     RunSnapshot    `json:"state"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// CheckpointStore defines the interface for run journal persistence
type CheckpointStore interface {
	// Save stores a checkpoint
	Save(ctx context.Context, checkpoint *Checkpoint) error

	// Load retrieves a checkpoint by ID
	Load(ctx context.Context, checkpointID string) (*Checkpoint, error)

	// List returns all checkpoints of a run ordered by step
	List(ctx context.Context, runID string) ([]*Checkpoint, error)

	// Clear removes all checkpoints of a run
	Clear(ctx context.Context, runID string) error
}
