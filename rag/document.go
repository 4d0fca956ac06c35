package rag

import (
	"context"
	"fmt"
)

// Source identifies where a document's text came from.
type Source int

const (
	// SourceOther marks text loaded from anywhere else (files, fixtures).
	SourceOther Source = iota
	// SourceFundamentals marks the fundamentals and price summary of an instrument.
	SourceFundamentals
	// SourceNews marks the recent-news digest of an instrument.
	SourceNews
)

// String returns the metadata tag used for the source.
func (s Source) String() string {
	switch s {
	case SourceFundamentals:
		return "yfinance"
	case SourceNews:
		return "news"
	case SourceOther:
		return "other"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// ParseSource is the inverse of Source.String. Unknown tags map to SourceOther.
func ParseSource(s string) Source {
	switch s {
	case "yfinance":
		return SourceFundamentals
	case "news":
		return SourceNews
	default:
		return SourceOther
	}
}

// Provenance records the origin of a document.
type Provenance struct {
	Source Source
	Ticker string
}

// Document is an immutable retrievable text unit.
type Document struct {
	ID         string
	Content    string
	Provenance Provenance

	// Embedding is filled by stores that embed on insert.
	Embedding []float32
}

// DocumentStore returns at most k documents ranked by similarity to query.
// An empty corpus yields an empty slice, not an error.
type DocumentStore interface {
	Search(ctx context.Context, query string, k int) ([]Document, error)
}

// Releaser is implemented by stores backed by server-side resources, such as
// a Chroma collection, that must be dropped once the store is retired.
type Releaser interface {
	Release(ctx context.Context) error
}

// Embedder turns text into vectors.
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	GetDimension() int
}

// IndexedStore is a DocumentStore that can be populated.
type IndexedStore interface {
	DocumentStore
	Add(ctx context.Context, docs []Document) error
}
