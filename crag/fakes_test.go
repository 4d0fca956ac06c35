package crag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/smallnest/fincrag/rag"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel is an llms.Model returning canned responses and recording calls.
type fakeModel struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     [][]llms.MessageContent
	options   []llms.CallOptions
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	opts := llms.CallOptions{}
	for _, opt := range options {
		opt(&opts)
	}
	m.calls = append(m.calls, messages)
	m.options = append(m.options, opts)

	if m.err != nil {
		return nil, m.err
	}
	if len(m.responses) == 0 {
		return &llms.ContentResponse{}, nil
	}
	resp := m.responses[0]
	if len(m.responses) > 1 {
		m.responses = m.responses[1:]
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: resp}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

// messageText returns the text of the i-th message of the n-th call.
func (m *fakeModel) messageText(call, i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sb strings.Builder
	for _, part := range m.calls[call][i].Parts {
		if tc, ok := part.(llms.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}

type fakeStore struct {
	docs  []rag.Document
	err   error
	calls int
	lastK int
}

func (s *fakeStore) Search(ctx context.Context, query string, k int) ([]rag.Document, error) {
	s.calls++
	s.lastK = k
	if s.err != nil {
		return nil, s.err
	}
	if k < len(s.docs) {
		return s.docs[:k], nil
	}
	return s.docs, nil
}

type fakeAssessor struct {
	quality Quality
	err     error
	seen    []rag.Document
}

func (a *fakeAssessor) Assess(ctx context.Context, question string, docs []rag.Document) (Quality, error) {
	a.seen = docs
	if a.err != nil {
		return QualityUnknown, a.err
	}
	return a.quality, nil
}

type fakeGenerator struct {
	err         error
	calls       int
	lastContext string
}

func (g *fakeGenerator) Generate(ctx context.Context, question, docContext string) (string, error) {
	g.calls++
	g.lastContext = docContext
	if g.err != nil {
		return "", g.err
	}
	return "answer to " + question, nil
}

type fakeSearcher struct {
	results   []SearchResult
	err       error
	calls     int
	lastQuery string
	lastMax   int
}

func (s *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	s.calls++
	s.lastQuery = query
	s.lastMax = maxResults
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

var errBackend = errors.New("backend unavailable")

func makeDocs(n int, size int) []rag.Document {
	docs := make([]rag.Document, n)
	for i := range docs {
		docs[i] = rag.Document{
			ID:         fmt.Sprintf("doc-%d", i),
			Content:    strings.Repeat(string(rune('a'+i)), size),
			Provenance: rag.Provenance{Source: rag.SourceOther, Ticker: "AAPL"},
		}
	}
	return docs
}
