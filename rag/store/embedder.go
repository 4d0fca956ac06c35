package store

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/smallnest/fincrag/rag"
)

// DefaultHashDimension is the vector size used when none is given.
const DefaultHashDimension = 256

// HashEmbedder is a deterministic, offline embedder based on feature hashing
// of lower-cased word tokens. Texts sharing words end up with a positive
// cosine similarity, which is enough for a two-document corpus and for tests.
type HashEmbedder struct {
	Dimension int
}

var _ rag.Embedder = (*HashEmbedder)(nil)

// NewHashEmbedder creates a new HashEmbedder
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	return &HashEmbedder{
		Dimension: dimension,
	}
}

// EmbedDocument generates the embedding for a single text
func (e *HashEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return e.generateEmbedding(text), nil
}

// EmbedDocuments generates embeddings for several texts
func (e *HashEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = e.generateEmbedding(text)
	}
	return embeddings, nil
}

// EmbedQuery is EmbedDocument under the langchaingo embeddings.Embedder name,
// so a HashEmbedder can also back langchaingo vector stores.
func (e *HashEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.generateEmbedding(text), nil
}

// GetDimension returns the embedding dimension
func (e *HashEmbedder) GetDimension() int {
	return e.Dimension
}

func (e *HashEmbedder) generateEmbedding(text string) []float32 {
	embedding := make([]float32, e.Dimension)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		h := xxhash.Sum64String(tok)
		idx := int(h % uint64(e.Dimension))
		// the top bit picks the sign so collisions tend to cancel out
		if h>>63 == 1 {
			embedding[idx]--
		} else {
			embedding[idx]++
		}
	}

	// Normalize
	var norm float64
	for _, v := range embedding {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)

	if norm > 0 {
		for i := range embedding {
			embedding[i] = float32(float64(embedding[i]) / norm)
		}
	}

	return embedding
}
