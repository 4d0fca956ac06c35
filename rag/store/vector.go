package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/smallnest/fincrag/rag"
)

// ErrNoEmbedder is returned when a document without an embedding is added to
// a store that has no embedder.
var ErrNoEmbedder = errors.New("no embedder configured and document has no embedding")

// InMemoryVectorStore is a simple in-memory vector store implementation.
// It is safe for concurrent searches while no Add is in progress.
type InMemoryVectorStore struct {
	mu         sync.RWMutex
	documents  []rag.Document
	embeddings [][]float32
	embedder   rag.Embedder
}

var _ rag.IndexedStore = (*InMemoryVectorStore)(nil)

// NewInMemoryVectorStore creates a new InMemoryVectorStore
func NewInMemoryVectorStore(embedder rag.Embedder) *InMemoryVectorStore {
	return &InMemoryVectorStore{
		documents:  make([]rag.Document, 0),
		embeddings: make([][]float32, 0),
		embedder:   embedder,
	}
}

// Add adds documents, embedding the ones that carry no vector
func (s *InMemoryVectorStore) Add(ctx context.Context, documents []rag.Document) error {
	var missing []string
	var missingIdx []int
	for i, doc := range documents {
		if len(doc.Embedding) == 0 {
			missing = append(missing, doc.Content)
			missingIdx = append(missingIdx, i)
		}
	}

	vectors := make([][]float32, len(documents))
	for i, doc := range documents {
		vectors[i] = doc.Embedding
	}

	if len(missing) > 0 {
		if s.embedder == nil {
			return ErrNoEmbedder
		}
		embedded, err := s.embedder.EmbedDocuments(ctx, missing)
		if err != nil {
			return fmt.Errorf("failed to embed documents: %w", err)
		}
		if len(embedded) != len(missing) {
			return fmt.Errorf("embedder returned %d vectors for %d documents", len(embedded), len(missing))
		}
		for j, i := range missingIdx {
			vectors[i] = embedded[j]
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, doc := range documents {
		doc.Embedding = vectors[i]
		s.documents = append(s.documents, doc)
		s.embeddings = append(s.embeddings, vectors[i])
	}
	return nil
}

// Search embeds query and returns the k most similar documents
func (s *InMemoryVectorStore) Search(ctx context.Context, query string, k int) ([]rag.Document, error) {
	if k <= 0 {
		return []rag.Document{}, nil
	}

	s.mu.RLock()
	empty := len(s.documents) == 0
	s.mu.RUnlock()
	if empty {
		return []rag.Document{}, nil
	}

	if s.embedder == nil {
		return nil, ErrNoEmbedder
	}
	queryEmbedding, err := s.embedder.EmbedDocument(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	return s.SearchByVector(ctx, queryEmbedding, k)
}

// SearchByVector performs similarity search with a precomputed query vector
func (s *InMemoryVectorStore) SearchByVector(ctx context.Context, queryEmbedding []float32, k int) ([]rag.Document, error) {
	if k <= 0 {
		return []rag.Document{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type docScore struct {
		index int
		score float64
	}

	scores := make([]docScore, len(s.documents))
	for i, docEmb := range s.embeddings {
		scores[i] = docScore{index: i, score: cosineSimilarity32(queryEmbedding, docEmb)}
	}

	// Stable so ties keep insertion order
	slices.SortStableFunc(scores, func(a, b docScore) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		}
		return 0
	})

	if k > len(scores) {
		k = len(scores)
	}

	results := make([]rag.Document, k)
	for i := 0; i < k; i++ {
		results[i] = s.documents[scores[i].index]
	}
	return results, nil
}

// Len returns the number of indexed documents
func (s *InMemoryVectorStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents)
}

// cosineSimilarity32 calculates cosine similarity between two float32 vectors
func cosineSimilarity32(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct float64
	var normA float64
	var normB float64

	for i := range a {
		dotProduct += float64(a[i] * b[i])
		normA += float64(a[i] * a[i])
		normB += float64(b[i] * b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
