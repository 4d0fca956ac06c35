package crag

import (
	"context"
	"fmt"
	"time"

	"github.com/smallnest/fincrag/store"
)

const excerptLength = 120

// Snapshot converts a run state into its journaled form. runErr, when set,
// is recorded as the failure of the node that produced it.
func Snapshot(state *RunState, runErr error) store.RunSnapshot {
	snap := store.RunSnapshot{
		Question:   state.Question,
		Ticker:     state.Ticker,
		Quality:    state.Quality.String(),
		WebResults: state.WebResults,
		Context:    state.Context,
		Answer:     state.Answer,
	}
	if state.Web.Kind != WebSkipped {
		snap.WebKind = state.Web.Kind.String()
	}
	for _, doc := range state.Documents {
		snap.Documents = append(snap.Documents, store.DocumentRef{
			ID:      doc.ID,
			Source:  doc.Provenance.Source.String(),
			Ticker:  doc.Provenance.Ticker,
			Excerpt: truncate(doc.Content, excerptLength),
		})
	}
	if runErr != nil {
		snap.Error = runErr.Error()
	}
	return snap
}

// checkpoint writes the state after node to the journal. Journal failures
// never affect the run.
func (o *Orchestrator) checkpoint(ctx context.Context, state *RunState, node Node, step int, elapsed time.Duration, runErr error) {
	if o.journal == nil {
		return
	}

	cp := &store.Checkpoint{
		ID:       fmt.Sprintf("%s-%02d-%s", state.RunID, step, node),
		RunID:    state.RunID,
		NodeName: string(node),
		Step:     step,
		State:    Snapshot(state, runErr),
		Metadata: map[string]any{
			"duration_ms": elapsed.Milliseconds(),
		},
		Timestamp: time.Now(),
	}
	if err := o.journal.Save(ctx, cp); err != nil {
		o.logger.Warn("run %s: journal save after %s failed: %v", state.RunID, node, err)
	}
}
