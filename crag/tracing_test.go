package crag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracer_Spans(t *testing.T) {
	tracer := NewTracer()
	ctx := context.Background()

	var seen []TraceEvent
	tracer.AddHook(TraceHookFunc(func(ctx context.Context, span *TraceSpan) {
		seen = append(seen, span.Event)
	}))

	run := tracer.StartSpan(ctx, TraceEventRunStart, "run-1", "", map[string]any{"ticker": "AAPL"})
	runCtx := ContextWithSpan(ctx, run)
	assert.Same(t, run, SpanFromContext(runCtx))

	node := tracer.StartSpan(runCtx, TraceEventNodeStart, "run-1", NodeRetrieve, nil)
	assert.Equal(t, run.ID, node.ParentID)
	tracer.EndSpan(runCtx, node, errors.New("boom"))
	assert.Equal(t, TraceEventNodeError, node.Event)
	assert.Error(t, node.Error)

	tracer.TraceEdgeTraversal(runCtx, "run-1", NodeRetrieve, NodeAssess)
	tracer.EndSpan(ctx, run, nil)
	assert.Equal(t, TraceEventRunEnd, run.Event)

	assert.Equal(t, []TraceEvent{
		TraceEventRunStart,
		TraceEventNodeStart,
		TraceEventNodeError,
		TraceEventEdgeTraversal,
		TraceEventRunEnd,
	}, seen)

	spans := tracer.GetSpans("run-1")
	require.Len(t, spans, 3)
	assert.Equal(t, NodeAssess, spans[2].ToNode)
	assert.Empty(t, tracer.GetSpans("run-2"))

	tracer.Clear()
	assert.Empty(t, tracer.GetSpans("run-1"))
}

func TestTracer_KeepsRecentRuns(t *testing.T) {
	tracer := NewTracerWithCapacity(2)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		tracer.StartSpan(ctx, TraceEventRunStart, fmt.Sprintf("run-%d", i), "", nil)
	}

	assert.Empty(t, tracer.GetSpans("run-0"))
	assert.Len(t, tracer.GetSpans("run-1"), 1)
	assert.Len(t, tracer.GetSpans("run-2"), 1)
}

func TestTracer_MetadataIsCopied(t *testing.T) {
	tracer := NewTracer()
	ctx := context.Background()

	meta := map[string]any{"ticker": "AAPL"}
	run := tracer.StartSpan(ctx, TraceEventRunStart, "run-1", "", meta)
	meta["ticker"] = "MSFT"
	assert.Equal(t, "AAPL", run.Metadata["ticker"])

	spans := tracer.GetSpans("run-1")
	spans[0].Metadata["ticker"] = "changed"

	tracer.Annotate(run, map[string]any{"quality": "correct"})
	spans = tracer.GetSpans("run-1")
	assert.Equal(t, map[string]any{"ticker": "AAPL", "quality": "correct"}, spans[0].Metadata)
}

func TestTracer_ReadWhileRunning(t *testing.T) {
	tracer := NewTracer()
	p := pipeline{
		store:     &fakeStore{docs: makeDocs(2, 10)},
		assessor:  &fakeAssessor{quality: QualityAmbiguous},
		generator: &fakeGenerator{},
	}
	// fakes are not safe for concurrent use, so runs stay sequential
	// while a reader polls the tracer
	o := newTestOrchestrator(t, p, func(c *Config) { c.Tracer = tracer })

	runIDs := make(chan string, 64)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		var ids []string
		for {
			select {
			case id := <-runIDs:
				ids = append(ids, id)
			case <-done:
				return
			default:
			}
			for _, id := range ids {
				for _, span := range tracer.GetSpans(id) {
					for k, v := range span.Metadata {
						_, _ = k, v
					}
				}
			}
		}
	}()

	for i := 0; i < 50; i++ {
		state, err := o.Run(context.Background(), "q", "AAPL")
		require.NoError(t, err)
		select {
		case runIDs <- state.RunID:
		default:
		}
	}
	close(done)
	wg.Wait()
}

type lineRecorder struct {
	mu    sync.Mutex
	lines []string
}

func (r *lineRecorder) Debug(format string, v ...any) { r.add(format, v) }
func (r *lineRecorder) Info(format string, v ...any)  { r.add(format, v) }
func (r *lineRecorder) Warn(format string, v ...any)  { r.add(format, v) }
func (r *lineRecorder) Error(format string, v ...any) { r.add(format, v) }

func (r *lineRecorder) add(format string, v []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, fmt.Sprintf(format, v...))
}

func TestLoggingHook(t *testing.T) {
	rec := &lineRecorder{}
	tracer := NewTracer()
	tracer.AddHook(NewLoggingHook(rec))

	p := pipeline{
		store:     &fakeStore{docs: makeDocs(1, 10)},
		assessor:  &fakeAssessor{quality: QualityIncorrect},
		generator: &fakeGenerator{err: errBackend},
	}
	o := newTestOrchestrator(t, p, func(c *Config) { c.Tracer = tracer })
	state, err := o.Run(context.Background(), "q", "AAPL")
	require.Error(t, err)

	out := strings.Join(rec.lines, "\n")
	assert.Contains(t, out, "run "+state.RunID+" started (ticker=AAPL)")
	assert.Contains(t, out, "retrieve -> assess")
	assert.Contains(t, out, "assess -> web_search")
	assert.Contains(t, out, "generate failed after")
	assert.Contains(t, out, "quality=incorrect")
	assert.NotContains(t, out, "generate -> done")
}

func TestSpanFromContext_Empty(t *testing.T) {
	assert.Nil(t, SpanFromContext(context.Background()))
}
