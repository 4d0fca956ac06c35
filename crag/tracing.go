package crag

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/smallnest/fincrag/log"
)

// DefaultTracedRuns is how many runs a Tracer keeps spans for.
const DefaultTracedRuns = 128

// TraceEvent represents different types of events in a pipeline run
type TraceEvent string

const (
	// TraceEventRunStart indicates the start of a run
	TraceEventRunStart TraceEvent = "run_start"

	// TraceEventRunEnd indicates the end of a run
	TraceEventRunEnd TraceEvent = "run_end"

	// TraceEventNodeStart indicates the start of node execution
	TraceEventNodeStart TraceEvent = "node_start"

	// TraceEventNodeEnd indicates the end of node execution
	TraceEventNodeEnd TraceEvent = "node_end"

	// TraceEventNodeError indicates an error occurred in node execution
	TraceEventNodeError TraceEvent = "node_error"

	// TraceEventEdgeTraversal indicates a transition from one node to another
	TraceEventEdgeTraversal TraceEvent = "edge_traversal"
)

// TraceSpan represents a span of execution with timing and metadata
type TraceSpan struct {
	ID       string
	ParentID string
	RunID    string
	Event    TraceEvent

	// Node is the node being executed, empty for run spans
	Node Node

	// FromNode and ToNode are set for edge traversals
	FromNode Node
	ToNode   Node

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	Error    error
	Metadata map[string]any
}

// TraceHook receives span events
type TraceHook interface {
	OnEvent(ctx context.Context, span *TraceSpan)
}

// TraceHookFunc is a function adapter for TraceHook
type TraceHookFunc func(ctx context.Context, span *TraceSpan)

// OnEvent implements the TraceHook interface
func (f TraceHookFunc) OnEvent(ctx context.Context, span *TraceSpan) {
	f(ctx, span)
}

// NewLoggingHook returns a hook that writes every span event to logger at
// debug level.
func NewLoggingHook(logger log.Logger) TraceHook {
	logger = log.OrDefault(logger)
	return TraceHookFunc(func(ctx context.Context, span *TraceSpan) {
		switch span.Event {
		case TraceEventRunStart:
			logger.Debug("run %s started (ticker=%v)", span.RunID, span.Metadata["ticker"])
		case TraceEventRunEnd:
			if span.Error != nil {
				logger.Debug("run %s failed after %s (quality=%v): %v", span.RunID, span.Duration, span.Metadata["quality"], span.Error)
				return
			}
			logger.Debug("run %s finished in %s (quality=%v, web=%v)", span.RunID, span.Duration, span.Metadata["quality"], span.Metadata["used_web"])
		case TraceEventNodeStart:
			logger.Debug("run %s: %s started", span.RunID, span.Node)
		case TraceEventNodeEnd:
			logger.Debug("run %s: %s done in %s", span.RunID, span.Node, span.Duration)
		case TraceEventNodeError:
			logger.Debug("run %s: %s failed after %s: %v", span.RunID, span.Node, span.Duration, span.Error)
		case TraceEventEdgeTraversal:
			logger.Debug("run %s: %s -> %s", span.RunID, span.FromNode, span.ToNode)
		}
	})
}

// Tracer fans span events out to hooks and keeps the spans of the most
// recent runs. It is shared by concurrent runs.
type Tracer struct {
	mu    sync.RWMutex
	hooks []TraceHook
	spans *lru.Cache[string, []*TraceSpan]
}

// NewTracer creates a tracer that keeps spans for DefaultTracedRuns runs
func NewTracer() *Tracer {
	return NewTracerWithCapacity(DefaultTracedRuns)
}

// NewTracerWithCapacity creates a tracer that keeps spans for the n most recent runs
func NewTracerWithCapacity(n int) *Tracer {
	if n <= 0 {
		n = DefaultTracedRuns
	}
	cache, _ := lru.New[string, []*TraceSpan](n)
	return &Tracer{spans: cache}
}

// AddHook registers a new trace hook
func (t *Tracer) AddHook(hook TraceHook) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hooks = append(t.hooks, hook)
}

// StartSpan creates a new span for a run or a node. metadata is copied into
// the span before any hook sees it.
func (t *Tracer) StartSpan(ctx context.Context, event TraceEvent, runID string, node Node, metadata map[string]any) *TraceSpan {
	span := &TraceSpan{
		ID:        uuid.NewString(),
		RunID:     runID,
		Event:     event,
		Node:      node,
		StartTime: time.Now(),
		Metadata:  make(map[string]any, len(metadata)),
	}
	maps.Copy(span.Metadata, metadata)
	if parent := SpanFromContext(ctx); parent != nil {
		span.ParentID = parent.ID
	}

	t.record(span)
	t.notify(ctx, span)
	return span
}

// Annotate sets metadata on a span that may already be visible through
// GetSpans.
func (t *Tracer) Annotate(span *TraceSpan, metadata map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	maps.Copy(span.Metadata, metadata)
}

// EndSpan completes a span and turns start events into end or error events
func (t *Tracer) EndSpan(ctx context.Context, span *TraceSpan, err error) {
	t.mu.Lock()
	span.EndTime = time.Now()
	span.Duration = span.EndTime.Sub(span.StartTime)
	span.Error = err

	switch span.Event {
	case TraceEventNodeStart:
		if err != nil {
			span.Event = TraceEventNodeError
		} else {
			span.Event = TraceEventNodeEnd
		}
	case TraceEventRunStart:
		span.Event = TraceEventRunEnd
	}
	t.mu.Unlock()

	t.notify(ctx, span)
}

// TraceEdgeTraversal records a transition between two nodes
func (t *Tracer) TraceEdgeTraversal(ctx context.Context, runID string, from, to Node) {
	now := time.Now()
	span := &TraceSpan{
		ID:        uuid.NewString(),
		RunID:     runID,
		Event:     TraceEventEdgeTraversal,
		FromNode:  from,
		ToNode:    to,
		StartTime: now,
		EndTime:   now,
		Metadata:  make(map[string]any),
	}
	if parent := SpanFromContext(ctx); parent != nil {
		span.ParentID = parent.ID
	}

	t.record(span)
	t.notify(ctx, span)
}

// GetSpans returns copies of the spans recorded for runID in emission order
func (t *Tracer) GetSpans(runID string) []*TraceSpan {
	t.mu.RLock()
	defer t.mu.RUnlock()

	recorded, _ := t.spans.Peek(runID)
	spans := make([]*TraceSpan, len(recorded))
	for i, s := range recorded {
		cp := *s
		cp.Metadata = maps.Clone(s.Metadata)
		spans[i] = &cp
	}
	return spans
}

// Clear removes all collected spans
func (t *Tracer) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans.Purge()
}

func (t *Tracer) record(span *TraceSpan) {
	t.mu.Lock()
	defer t.mu.Unlock()
	recorded, _ := t.spans.Get(span.RunID)
	t.spans.Add(span.RunID, append(recorded, span))
}

func (t *Tracer) notify(ctx context.Context, span *TraceSpan) {
	t.mu.RLock()
	hooks := make([]TraceHook, len(t.hooks))
	copy(hooks, t.hooks)
	t.mu.RUnlock()

	for _, hook := range hooks {
		hook.OnEvent(ctx, span)
	}
}

type contextKey string

const spanContextKey contextKey = "fincrag_span"

// ContextWithSpan returns a new context with the span stored
func ContextWithSpan(ctx context.Context, span *TraceSpan) context.Context {
	return context.WithValue(ctx, spanContextKey, span)
}

// SpanFromContext extracts a span from context
func SpanFromContext(ctx context.Context) *TraceSpan {
	if span, ok := ctx.Value(spanContextKey).(*TraceSpan); ok {
		return span
	}
	return nil
}
