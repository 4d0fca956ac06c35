package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kataras/golog"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/vectorstores/chroma"

	"github.com/smallnest/fincrag/config"
	"github.com/smallnest/fincrag/crag"
	"github.com/smallnest/fincrag/datasource"
	"github.com/smallnest/fincrag/llms/openaisdk"
	"github.com/smallnest/fincrag/log"
	"github.com/smallnest/fincrag/rag"
	ragstore "github.com/smallnest/fincrag/rag/store"
	"github.com/smallnest/fincrag/session"
	"github.com/smallnest/fincrag/store"
	"github.com/smallnest/fincrag/store/file"
	"github.com/smallnest/fincrag/store/memory"
	"github.com/smallnest/fincrag/store/postgres"
	"github.com/smallnest/fincrag/store/redis"
	"github.com/smallnest/fincrag/store/sqlite"
	"github.com/smallnest/fincrag/tool"
)

// journalTTL bounds how long redis keeps run checkpoints.
const journalTTL = 7 * 24 * time.Hour

func newLogger(level string) log.Logger {
	lvl, _ := log.ParseLevel(level)
	return log.NewGologLoggerWithLevel(golog.New(), lvl)
}

// chatModel is what the assessor, the generator and the embedder need
// from a backend.
type chatModel interface {
	llms.Model
	embeddings.EmbedderClient
}

func buildModel(cfg *config.Config) (chatModel, error) {
	switch cfg.LLM.Backend {
	case "go-openai":
		opts := []openaisdk.Option{
			openaisdk.WithAPIKey(cfg.LLM.APIKey),
			openaisdk.WithModel(cfg.LLM.Model),
			openaisdk.WithEmbeddingModel(cfg.Embedding.Model),
		}
		if cfg.LLM.BaseURL != "" {
			opts = append(opts, openaisdk.WithBaseURL(cfg.LLM.BaseURL))
		}
		return openaisdk.New(opts...)
	default:
		opts := []openai.Option{
			openai.WithToken(cfg.LLM.APIKey),
			openai.WithModel(cfg.LLM.Model),
			openai.WithEmbeddingModel(cfg.Embedding.Model),
		}
		if cfg.LLM.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.LLM.BaseURL))
		}
		return openai.New(opts...)
	}
}

func buildEmbedder(cfg *config.Config, model chatModel) (embeddings.Embedder, error) {
	if cfg.Embedding.Provider == "hash" {
		return ragstore.NewHashEmbedder(ragstore.DefaultHashDimension), nil
	}
	return embeddings.NewEmbedder(model)
}

func buildStoreFactory(cfg *config.Config, embedder embeddings.Embedder) session.StoreFactory {
	if cfg.VectorStore.Provider == "chroma" {
		return func(ctx context.Context, ticker string) (rag.IndexedStore, error) {
			st, err := chroma.New(
				chroma.WithChromaURL(cfg.VectorStore.ChromaURL),
				chroma.WithEmbedder(embedder),
				chroma.WithNameSpace(ticker+"-"+uuid.NewString()[:8]),
			)
			if err != nil {
				return nil, fmt.Errorf("chroma: %w", err)
			}
			return rag.NewLangChainStore(st).OnRelease(func(context.Context) error {
				return st.RemoveCollection()
			}), nil
		}
	}
	return func(ctx context.Context, ticker string) (rag.IndexedStore, error) {
		return ragstore.NewInMemoryVectorStore(rag.NewLangChainEmbedder(embedder)), nil
	}
}

func buildNews(cfg *config.Config) (datasource.NewsProvider, error) {
	if cfg.News.Provider == "rss" {
		return datasource.NewRSSNews(cfg.News.RSSURL), nil
	}
	return datasource.NewNewsAPI(cfg.News.APIKey)
}

// buildSearcher returns a nil interface when no key is configured, which
// disables web search.
func buildSearcher(cfg *config.Config) (crag.WebSearcher, error) {
	if !cfg.WebSearchEnabled() {
		return nil, nil
	}
	if cfg.WebSearch.Provider == "brave" {
		b, err := tool.NewBraveSearch(cfg.WebSearch.APIKey, tool.WithBraveTimeout(cfg.WebSearch.Timeout))
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	t, err := tool.NewTavilySearch(cfg.WebSearch.APIKey, tool.WithTavilyTimeout(cfg.WebSearch.Timeout))
	if err != nil {
		return nil, err
	}
	return t, nil
}

// openJournal returns a nil store for the "none" driver.
func openJournal(ctx context.Context, cfg config.JournalConfig) (store.CheckpointStore, func(), error) {
	noop := func() {}
	switch cfg.Driver {
	case "none", "":
		return nil, noop, nil
	case "memory":
		return memory.NewMemoryCheckpointStore(), noop, nil
	case "file":
		s, err := file.NewFileCheckpointStore(cfg.DSN)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case "redis":
		s, err := redis.NewRedisCheckpointStoreFromURL(cfg.DSN, journalTTL)
		if err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil
	case "sqlite":
		s, err := sqlite.NewSqliteCheckpointStore(sqlite.SqliteOptions{Path: cfg.DSN})
		if err != nil {
			return nil, noop, err
		}
		return s, func() { _ = s.Close() }, nil
	case "postgres":
		s, err := postgres.NewPostgresCheckpointStore(ctx, postgres.PostgresOptions{ConnString: cfg.DSN})
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown journal driver %q", cfg.Driver)
	}
}

// runtime is everything a command needs to answer questions.
type runtime struct {
	manager *session.Manager
	journal store.CheckpointStore
	tracer  *crag.Tracer
	close   func()
}

func buildRuntime(ctx context.Context, cfg *config.Config, logger log.Logger) (*runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	model, err := buildModel(cfg)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	embedder, err := buildEmbedder(cfg, model)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	news, err := buildNews(cfg)
	if err != nil {
		return nil, fmt.Errorf("news: %w", err)
	}
	searcher, err := buildSearcher(cfg)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}
	journal, closeJournal, err := openJournal(ctx, cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	tracer := crag.NewTracer()
	tracer.AddHook(crag.NewLoggingHook(log.For(logger, "trace")))
	manager, err := session.NewManager(session.Config{
		Source: &datasource.Fetcher{
			Fundamentals: datasource.NewYahooFinance(datasource.WithYahooLogger(logger)),
			News:         news,
			NewsDays:     cfg.News.Days,
			Logger:       logger,
		},
		NewStore:  buildStoreFactory(cfg, embedder),
		Assessor:  crag.NewLLMAssessor(model),
		Generator: crag.NewLLMGenerator(model),
		Searcher:  searcher,
		Journal:   journal,
		Tracer:    tracer,
		Logger:    logger,
	})
	if err != nil {
		closeJournal()
		return nil, err
	}

	if searcher == nil {
		logger.Warn("web search disabled: no %s key", cfg.WebSearch.Provider)
	}
	closeAll := func() {
		manager.Close(context.Background())
		closeJournal()
	}
	return &runtime{manager: manager, journal: journal, tracer: tracer, close: closeAll}, nil
}
