package rag

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

const (
	metadataSource = "source"
	metadataTicker = "ticker"
	metadataID     = "doc_id"
)

// LangChainEmbedder adapts langchaingo's embeddings.Embedder to our Embedder interface
type LangChainEmbedder struct {
	embedder  embeddings.Embedder
	dimension atomic.Int64
}

var _ Embedder = (*LangChainEmbedder)(nil)

// NewLangChainEmbedder creates a new adapter for langchaingo embedders
func NewLangChainEmbedder(embedder embeddings.Embedder) *LangChainEmbedder {
	return &LangChainEmbedder{
		embedder: embedder,
	}
}

// EmbedDocument embeds a single text as a query vector
func (l *LangChainEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	embedding, err := l.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	l.dimension.CompareAndSwap(0, int64(len(embedding)))
	return embedding, nil
}

// EmbedDocuments embeds multiple texts
func (l *LangChainEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := l.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) > 0 {
		l.dimension.CompareAndSwap(0, int64(len(vectors[0])))
	}
	return vectors, nil
}

// GetDimension returns the embedding dimension observed so far, or 0 before
// the first call.
func (l *LangChainEmbedder) GetDimension() int {
	return int(l.dimension.Load())
}

// LangChainStore adapts a langchaingo vectorstores.VectorStore (Chroma,
// pgvector, ...) to IndexedStore. Provenance round-trips through metadata.
type LangChainStore struct {
	store   vectorstores.VectorStore
	opts    []vectorstores.Option
	release func(ctx context.Context) error
}

var (
	_ IndexedStore = (*LangChainStore)(nil)
	_ Releaser     = (*LangChainStore)(nil)
)

// NewLangChainStore creates a new adapter for langchaingo vector stores.
// opts are passed to every AddDocuments and SimilaritySearch call, e.g. a
// per-session namespace.
func NewLangChainStore(store vectorstores.VectorStore, opts ...vectorstores.Option) *LangChainStore {
	return &LangChainStore{
		store: store,
		opts:  opts,
	}
}

// OnRelease sets the function Release calls, e.g. one that deletes the
// store's collection.
func (l *LangChainStore) OnRelease(fn func(ctx context.Context) error) *LangChainStore {
	l.release = fn
	return l
}

// Release drops the resources behind the store. It is a no-op unless
// OnRelease was called.
func (l *LangChainStore) Release(ctx context.Context) error {
	if l.release == nil {
		return nil
	}
	return l.release(ctx)
}

// Add indexes documents in the underlying store
func (l *LangChainStore) Add(ctx context.Context, docs []Document) error {
	schemaDocs := make([]schema.Document, len(docs))
	for i, doc := range docs {
		schemaDocs[i] = toSchemaDocument(doc)
	}

	if _, err := l.store.AddDocuments(ctx, schemaDocs, l.opts...); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

// Search performs similarity search
func (l *LangChainStore) Search(ctx context.Context, query string, k int) ([]Document, error) {
	if k <= 0 {
		return []Document{}, nil
	}
	docs, err := l.store.SimilaritySearch(ctx, query, k, l.opts...)
	if err != nil {
		return nil, err
	}
	return convertSchemaDocuments(docs), nil
}

func toSchemaDocument(doc Document) schema.Document {
	return schema.Document{
		PageContent: doc.Content,
		Metadata: map[string]any{
			metadataID:     doc.ID,
			metadataSource: doc.Provenance.Source.String(),
			metadataTicker: doc.Provenance.Ticker,
		},
	}
}

// convertSchemaDocuments converts langchaingo schema.Document to our Document type
func convertSchemaDocuments(schemaDocs []schema.Document) []Document {
	docs := make([]Document, len(schemaDocs))
	for i, schemaDoc := range schemaDocs {
		docs[i] = Document{
			ID:      metadataString(schemaDoc.Metadata, metadataID),
			Content: schemaDoc.PageContent,
			Provenance: Provenance{
				Source: ParseSource(metadataString(schemaDoc.Metadata, metadataSource)),
				Ticker: metadataString(schemaDoc.Metadata, metadataTicker),
			},
		}
		if docs[i].ID == "" {
			docs[i].ID = fmt.Sprintf("doc_%d", i)
		}
	}
	return docs
}

func metadataString(metadata map[string]any, key string) string {
	v, ok := metadata[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
