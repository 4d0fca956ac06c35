package crag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smallnest/fincrag/log"
	"github.com/smallnest/fincrag/rag"
	"github.com/smallnest/fincrag/store"
)

// DefaultTopK is the number of documents retrieved per question.
const DefaultTopK = 5

// Config wires the components of an Orchestrator.
type Config struct {
	// Store is the document store of the loaded instrument. Required.
	Store rag.DocumentStore
	// Assessor grades the retrieved documents. Required.
	Assessor Assessor
	// Generator writes the answer. Required.
	Generator Generator
	// Searcher is the web search fallback. Nil disables web search.
	Searcher WebSearcher

	// Journal receives a checkpoint after every node. Optional.
	Journal store.CheckpointStore
	// Tracer receives spans for the run, its nodes and transitions. Optional.
	Tracer *Tracer
	// Logger defaults to the package-level logger.
	Logger log.Logger

	// TopK defaults to DefaultTopK.
	TopK int
}

// Orchestrator runs the corrective RAG pipeline:
//
//	retrieve -> assess -> (web_search if quality != correct) -> generate -> done
//
// It holds no per-run state and is safe for concurrent use as long as its
// components are.
type Orchestrator struct {
	store     rag.DocumentStore
	assessor  Assessor
	generator Generator
	searcher  WebSearcher
	journal   store.CheckpointStore
	tracer    *Tracer
	logger    log.Logger
	topK      int
}

// New validates cfg and builds an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	switch {
	case cfg.Store == nil:
		return nil, fmt.Errorf("%w: document store", ErrMissingComponent)
	case cfg.Assessor == nil:
		return nil, fmt.Errorf("%w: assessor", ErrMissingComponent)
	case cfg.Generator == nil:
		return nil, fmt.Errorf("%w: generator", ErrMissingComponent)
	}

	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	return &Orchestrator{
		store:     cfg.Store,
		assessor:  cfg.Assessor,
		generator: cfg.Generator,
		searcher:  cfg.Searcher,
		journal:   cfg.Journal,
		tracer:    cfg.Tracer,
		logger:    log.For(cfg.Logger, "crag"),
		topK:      topK,
	}, nil
}

// WebSearchEnabled reports whether a web searcher is configured.
func (o *Orchestrator) WebSearchEnabled() bool {
	return o.searcher != nil
}

// Route is the single decision point of the pipeline: correct documents go
// straight to generation, everything else through web search first.
func Route(q Quality) Node {
	switch q {
	case QualityCorrect:
		return NodeGenerate
	case QualityAmbiguous, QualityIncorrect:
		return NodeWebSearch
	default:
		// an unassessed run never counts as correct
		return NodeWebSearch
	}
}

// Run answers question about ticker. On failure the returned state holds
// whatever the run produced before the failing node, and the error wraps
// one of ErrRetrieval, ErrAssessment or ErrGeneration.
func (o *Orchestrator) Run(ctx context.Context, question, ticker string) (*RunState, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}

	state := &RunState{
		RunID:    uuid.NewString(),
		Question: question,
		Ticker:   ticker,
	}

	var runSpan *TraceSpan
	if o.tracer != nil {
		runSpan = o.tracer.StartSpan(ctx, TraceEventRunStart, state.RunID, "", map[string]any{"ticker": ticker})
		ctx = ContextWithSpan(ctx, runSpan)
	}

	err := o.execute(ctx, state)

	if o.tracer != nil {
		o.tracer.Annotate(runSpan, map[string]any{
			"quality":  state.Quality.String(),
			"used_web": state.UsedWeb(),
		})
		o.tracer.EndSpan(ctx, runSpan, err)
	}
	if err != nil {
		o.logger.Error("run %s: %v", state.RunID, err)
		return state, err
	}
	o.logger.Info("run %s: answered (quality=%s, web=%s)", state.RunID, state.Quality, state.Web.Kind)
	return state, nil
}

func (o *Orchestrator) execute(ctx context.Context, state *RunState) error {
	node := NodeRetrieve
	for step := 1; node != NodeDone; step++ {
		nodeCtx := ctx
		var span *TraceSpan
		if o.tracer != nil {
			span = o.tracer.StartSpan(ctx, TraceEventNodeStart, state.RunID, node, nil)
			nodeCtx = ContextWithSpan(ctx, span)
		}

		start := time.Now()
		next, err := o.step(nodeCtx, node, state)
		elapsed := time.Since(start)

		if o.tracer != nil {
			o.tracer.EndSpan(nodeCtx, span, err)
		}
		o.checkpoint(ctx, state, node, step, elapsed, err)
		if err != nil {
			return err
		}

		if o.tracer != nil {
			o.tracer.TraceEdgeTraversal(ctx, state.RunID, node, next)
		}
		node = next
	}
	return nil
}

// step runs one node and returns the next one.
func (o *Orchestrator) step(ctx context.Context, node Node, state *RunState) (Node, error) {
	switch node {
	case NodeRetrieve:
		docs, err := o.store.Search(ctx, state.Question, o.topK)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrRetrieval, err)
		}
		state.Documents = docs
		o.logger.Debug("run %s: retrieved %d documents", state.RunID, len(docs))
		return NodeAssess, nil

	case NodeAssess:
		quality, err := o.assessor.Assess(ctx, state.Question, state.Documents)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrAssessment, err)
		}
		if !quality.Valid() {
			return "", fmt.Errorf("%w: invalid quality %s", ErrAssessment, quality)
		}
		state.Quality = quality
		o.logger.Debug("run %s: quality %s", state.RunID, quality)
		return Route(quality), nil

	case NodeWebSearch:
		state.Web = searchWeb(ctx, o.searcher, state.Ticker, state.Question)
		state.WebResults = state.Web.Text()
		switch state.Web.Kind {
		case WebFailed:
			o.logger.Warn("run %s: web search failed: %v", state.RunID, state.Web.Err)
		case WebDisabled:
			o.logger.Debug("run %s: web search disabled", state.RunID)
		}
		return NodeGenerate, nil

	case NodeGenerate:
		state.Context = AssembleContext(state)
		answer, err := o.generator.Generate(ctx, state.Question, state.Context)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrGeneration, err)
		}
		state.Answer = answer
		return NodeDone, nil
	}
	return "", fmt.Errorf("unknown node %q", node)
}
