package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/fincrag/config"
	"github.com/smallnest/fincrag/crag"
	"github.com/smallnest/fincrag/datasource"
	"github.com/smallnest/fincrag/llms/openaisdk"
	"github.com/smallnest/fincrag/rag"
	ragstore "github.com/smallnest/fincrag/rag/store"
	"github.com/smallnest/fincrag/store"
	"github.com/smallnest/fincrag/tool"
)

func testConfig() *config.Config {
	return &config.Config{
		LLM:         config.LLMConfig{Backend: "go-openai", Model: "gpt-4o-mini", APIKey: "sk-test", BaseURL: "http://127.0.0.1:1/v1"},
		Embedding:   config.EmbeddingConfig{Provider: "hash"},
		VectorStore: config.VectorStoreConfig{Provider: "memory"},
		News:        config.NewsConfig{Provider: "rss", Days: 7},
		WebSearch:   config.WebSearchConfig{Provider: "tavily"},
		Journal:     config.JournalConfig{Driver: "memory"},
		Log:         config.LogConfig{Level: "error"},
	}
}

func TestBuildSearcher(t *testing.T) {
	cfg := testConfig()

	s, err := buildSearcher(cfg)
	require.NoError(t, err)
	assert.Nil(t, s)

	cfg.WebSearch.APIKey = "key"
	s, err = buildSearcher(cfg)
	require.NoError(t, err)
	assert.IsType(t, &tool.TavilySearch{}, s)

	cfg.WebSearch.Provider = "brave"
	s, err = buildSearcher(cfg)
	require.NoError(t, err)
	assert.IsType(t, &tool.BraveSearch{}, s)
}

func TestBuildNews(t *testing.T) {
	cfg := testConfig()
	n, err := buildNews(cfg)
	require.NoError(t, err)
	assert.IsType(t, &datasource.RSSNews{}, n)

	cfg.News.Provider = "newsapi"
	cfg.News.APIKey = "k"
	n, err = buildNews(cfg)
	require.NoError(t, err)
	assert.IsType(t, &datasource.NewsAPI{}, n)
}

func TestBuildModelAndEmbedder(t *testing.T) {
	cfg := testConfig()
	model, err := buildModel(cfg)
	require.NoError(t, err)
	assert.IsType(t, &openaisdk.LLM{}, model)

	emb, err := buildEmbedder(cfg, model)
	require.NoError(t, err)
	assert.IsType(t, &ragstore.HashEmbedder{}, emb)
}

func TestBuildStoreFactory_Memory(t *testing.T) {
	cfg := testConfig()
	factory := buildStoreFactory(cfg, ragstore.NewHashEmbedder(ragstore.DefaultHashDimension))

	st, err := factory(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NoError(t, st.Add(context.Background(), []rag.Document{
		{ID: "1", Content: "Apple price earnings ratio"},
		{ID: "2", Content: "Apple news digest"},
	}))

	docs, err := st.Search(context.Background(), "price earnings", 5)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "1", docs[0].ID)

	other, err := factory(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.NotSame(t, st, other)
}

func TestOpenJournal(t *testing.T) {
	ctx := context.Background()

	j, closeFn, err := openJournal(ctx, config.JournalConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, j)
	closeFn()

	j, closeFn, err = openJournal(ctx, config.JournalConfig{Driver: "memory"})
	require.NoError(t, err)
	assert.NotNil(t, j)
	closeFn()

	dir := t.TempDir()
	j, closeFn, err = openJournal(ctx, config.JournalConfig{Driver: "file", DSN: filepath.Join(dir, "runs")})
	require.NoError(t, err)
	require.NoError(t, j.Save(ctx, &store.Checkpoint{ID: "r-01-retrieve", RunID: "r", NodeName: "retrieve", Step: 1}))
	closeFn()

	j, closeFn, err = openJournal(ctx, config.JournalConfig{Driver: "sqlite", DSN: filepath.Join(dir, "journal.db")})
	require.NoError(t, err)
	require.NoError(t, j.Save(ctx, &store.Checkpoint{ID: "r-01-retrieve", RunID: "r", NodeName: "retrieve", Step: 1}))
	cps, err := j.List(ctx, "r")
	require.NoError(t, err)
	assert.Len(t, cps, 1)
	closeFn()

	_, _, err = openJournal(ctx, config.JournalConfig{Driver: "etcd"})
	assert.Error(t, err)
}

func TestBuildRuntime(t *testing.T) {
	rt, err := buildRuntime(context.Background(), testConfig(), newLogger("error"))
	require.NoError(t, err)
	defer rt.close()

	assert.False(t, rt.manager.Ready())
	assert.False(t, rt.manager.WebSearchEnabled())
	assert.NotNil(t, rt.journal)
	assert.NotNil(t, rt.tracer)
}

type debugRecorder struct {
	mu    sync.Mutex
	debug []string
}

func (r *debugRecorder) Debug(format string, v ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.debug = append(r.debug, fmt.Sprintf(format, v...))
}
func (r *debugRecorder) Info(string, ...any)  {}
func (r *debugRecorder) Warn(string, ...any)  {}
func (r *debugRecorder) Error(string, ...any) {}

func TestBuildRuntime_LogsTraceEvents(t *testing.T) {
	rec := &debugRecorder{}
	rt, err := buildRuntime(context.Background(), testConfig(), rec)
	require.NoError(t, err)
	defer rt.close()

	ctx := context.Background()
	span := rt.tracer.StartSpan(ctx, crag.TraceEventNodeStart, "run-7", crag.NodeRetrieve, nil)
	rt.tracer.EndSpan(ctx, span, nil)
	rt.tracer.TraceEdgeTraversal(ctx, "run-7", crag.NodeRetrieve, crag.NodeAssess)

	out := strings.Join(rec.debug, "\n")
	assert.Contains(t, out, "[trace] run run-7: retrieve started")
	assert.Contains(t, out, "[trace] run run-7: retrieve done in")
	assert.Contains(t, out, "[trace] run run-7: retrieve -> assess")
}

func TestBuildRuntime_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.APIKey = ""
	_, err := buildRuntime(context.Background(), cfg, newLogger("error"))
	assert.ErrorIs(t, err, config.ErrMissingLLMKey)
}
