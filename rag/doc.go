// Package rag defines the retrieval side of fincrag: the Document type with
// its provenance, the DocumentStore contract consumed by the CRAG pipeline,
// and adapters onto langchaingo embedders and vector stores.
//
// A DocumentStore only has to answer Search(ctx, query, k) with at most k
// documents ranked by similarity. Two implementations exist:
//
//   - store.InMemoryVectorStore (package rag/store), cosine similarity over
//     vectors produced by any Embedder.
//   - LangChainStore, wrapping any langchaingo vectorstores.VectorStore such
//     as Chroma.
//
// Example:
//
//	embedder := rag.NewLangChainEmbedder(openaiEmbedder)
//	s := store.NewInMemoryVectorStore(embedder)
//	_ = s.Add(ctx, []rag.Document{{ID: "aapl-fundamentals", Content: summary}})
//	docs, err := s.Search(ctx, "What is the P/E ratio?", 5)
package rag
