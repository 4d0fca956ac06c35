package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/smallnest/fincrag/crag"
	"github.com/smallnest/fincrag/log"
	"github.com/smallnest/fincrag/rag"
	"github.com/smallnest/fincrag/store"
)

// DocumentSource produces the documents indexed for a ticker.
type DocumentSource interface {
	Fetch(ctx context.Context, ticker string) ([]rag.Document, error)
}

// StoreFactory returns an empty store for a new session.
type StoreFactory func(ctx context.Context, ticker string) (rag.IndexedStore, error)

// Config wires a Manager.
type Config struct {
	Source    DocumentSource
	NewStore  StoreFactory
	Assessor  crag.Assessor
	Generator crag.Generator
	// Searcher may be nil, which disables web search.
	Searcher crag.WebSearcher

	Journal store.CheckpointStore
	Tracer  *crag.Tracer
	Logger  log.Logger
	TopK    int
}

// Session is one loaded instrument. It is never mutated once published.
type Session struct {
	Ticker   string
	Store    rag.DocumentStore
	LoadedAt time.Time

	pipeline *crag.Orchestrator
	// inflight counts the queries still running against this session.
	inflight sync.WaitGroup
}

// Result is the outcome of a query.
type Result struct {
	RunID    string
	Question string
	Answer   string
	Quality  crag.Quality
	UsedWeb  bool
}

// Manager owns the current session. Queries run concurrently against a
// snapshot of the session; Setup builds the next session off to the side
// and swaps it in only once it is complete.
type Manager struct {
	cfg    Config
	logger log.Logger
	now    func() time.Time

	mu      sync.RWMutex
	current *Session

	setupMu  sync.Mutex
	retiring sync.WaitGroup
}

// NewManager validates cfg and returns a Manager with no session loaded.
func NewManager(cfg Config) (*Manager, error) {
	switch {
	case cfg.Source == nil:
		return nil, fmt.Errorf("%w: document source", crag.ErrMissingComponent)
	case cfg.NewStore == nil:
		return nil, fmt.Errorf("%w: store factory", crag.ErrMissingComponent)
	case cfg.Assessor == nil:
		return nil, fmt.Errorf("%w: assessor", crag.ErrMissingComponent)
	case cfg.Generator == nil:
		return nil, fmt.Errorf("%w: generator", crag.ErrMissingComponent)
	}
	return &Manager{
		cfg:    cfg,
		logger: log.For(cfg.Logger, "session"),
		now:    time.Now,
	}, nil
}

// NormalizeTicker trims and upper-cases a ticker.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// Setup loads ticker into a fresh session. On failure the previous session,
// if any, stays current. The store of a replaced session is released in the
// background once its last query returns.
func (m *Manager) Setup(ctx context.Context, ticker string) error {
	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		return ErrEmptyTicker
	}

	m.setupMu.Lock()
	defer m.setupMu.Unlock()

	m.logger.Info("setting up %s", ticker)
	docs, err := m.cfg.Source.Fetch(ctx, ticker)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSetup, ticker, err)
	}

	st, err := m.cfg.NewStore(ctx, ticker)
	if err != nil {
		return fmt.Errorf("%w: %s: create store: %w", ErrSetup, ticker, err)
	}
	if err := st.Add(ctx, docs); err != nil {
		m.release(context.WithoutCancel(ctx), ticker, st)
		return fmt.Errorf("%w: %s: index documents: %w", ErrSetup, ticker, err)
	}

	pipeline, err := crag.New(crag.Config{
		Store:     st,
		Assessor:  m.cfg.Assessor,
		Generator: m.cfg.Generator,
		Searcher:  m.cfg.Searcher,
		Journal:   m.cfg.Journal,
		Tracer:    m.cfg.Tracer,
		Logger:    m.cfg.Logger,
		TopK:      m.cfg.TopK,
	})
	if err != nil {
		m.release(context.WithoutCancel(ctx), ticker, st)
		return fmt.Errorf("%w: %s: %w", ErrSetup, ticker, err)
	}

	next := &Session{
		Ticker:   ticker,
		Store:    st,
		LoadedAt: m.now(),
		pipeline: pipeline,
	}

	m.mu.Lock()
	prev := m.current
	m.current = next
	m.mu.Unlock()

	if prev != nil {
		m.retiring.Add(1)
		go func() {
			defer m.retiring.Done()
			prev.inflight.Wait()
			m.release(context.WithoutCancel(ctx), prev.Ticker, prev.Store)
		}()
	}

	m.logger.Info("%s ready (%d documents)", ticker, len(docs))
	return nil
}

func (m *Manager) release(ctx context.Context, ticker string, st rag.DocumentStore) {
	r, ok := st.(rag.Releaser)
	if !ok {
		return
	}
	if err := r.Release(ctx); err != nil {
		m.logger.Warn("release %s store: %v", ticker, err)
		return
	}
	m.logger.Debug("released %s store", ticker)
}

// Close waits for replaced sessions to be released and then releases the
// current one. The manager is not ready afterwards.
func (m *Manager) Close(ctx context.Context) {
	m.setupMu.Lock()
	defer m.setupMu.Unlock()

	m.mu.Lock()
	last := m.current
	m.current = nil
	m.mu.Unlock()

	m.retiring.Wait()
	if last != nil {
		last.inflight.Wait()
		m.release(ctx, last.Ticker, last.Store)
	}
}

// Current returns the active session, or nil before the first Setup.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Ready reports whether a session is loaded.
func (m *Manager) Ready() bool {
	return m.Current() != nil
}

// WebSearchEnabled reports whether queries can fall back to web search.
func (m *Manager) WebSearchEnabled() bool {
	return m.cfg.Searcher != nil
}

// Query answers question against the current session. An empty ticker
// means the session's ticker.
func (m *Manager) Query(ctx context.Context, question, ticker string) (*Result, error) {
	m.mu.RLock()
	sess := m.current
	if sess != nil {
		sess.inflight.Add(1)
	}
	m.mu.RUnlock()
	if sess == nil {
		return nil, ErrNotReady
	}
	defer sess.inflight.Done()

	ticker = NormalizeTicker(ticker)
	if ticker == "" {
		ticker = sess.Ticker
	}

	state, err := sess.pipeline.Run(ctx, question, ticker)
	if err != nil {
		return nil, err
	}
	return &Result{
		RunID:    state.RunID,
		Question: state.Question,
		Answer:   state.Answer,
		Quality:  state.Quality,
		UsedWeb:  state.UsedWeb(),
	}, nil
}
