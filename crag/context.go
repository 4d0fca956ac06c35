package crag

import (
	"strings"

	"github.com/smallnest/fincrag/rag"
)

const (
	// docSeparator joins document and result texts.
	docSeparator = "\n\n"

	// localDocsLimit and localCharLimit bound the local part of the context
	// when web results are mixed in.
	localDocsLimit = 2
	localCharLimit = 800
)

// AssembleContext builds the text handed to the generator.
//
// For QualityCorrect it is the full content of every retrieved document.
// Otherwise it is "Local:\n<first 2 documents, 800 chars each>\n\nWeb:\n<web results>".
// The result depends only on Documents, Quality and WebResults.
func AssembleContext(state *RunState) string {
	if state.Quality == QualityCorrect {
		parts := make([]string, len(state.Documents))
		for i, doc := range state.Documents {
			parts[i] = doc.Content
		}
		return strings.Join(parts, docSeparator)
	}

	local := joinTruncated(state.Documents, localDocsLimit, localCharLimit)
	return "Local:\n" + local + "\n\nWeb:\n" + state.WebResults
}

// joinTruncated joins the content of the first n documents, each cut to at
// most limit characters.
func joinTruncated(docs []rag.Document, n, limit int) string {
	if len(docs) > n {
		docs = docs[:n]
	}
	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = truncate(doc.Content, limit)
	}
	return strings.Join(parts, docSeparator)
}

// truncate cuts s to at most n characters (runes).
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
