package crag

import (
	"context"
	"strings"
)

const (
	// DisabledPlaceholder is the web result text when no searcher is configured.
	DisabledPlaceholder = "[Web search disabled]"

	webMaxResults = 3
)

// SearchResult is one hit from a web search provider.
type SearchResult struct {
	Title   string
	URL     string
	Content string
}

// WebSearcher queries a web search provider.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// WebQuery forms the search query for a question about ticker.
func WebQuery(ticker, question string) string {
	return ticker + " stock " + question
}

// searchWeb runs the searcher and folds every outcome into a WebResult.
func searchWeb(ctx context.Context, searcher WebSearcher, ticker, question string) WebResult {
	if searcher == nil {
		return WebResult{Kind: WebDisabled}
	}

	results, err := searcher.Search(ctx, WebQuery(ticker, question), webMaxResults)
	if err != nil {
		return WebResult{Kind: WebFailed, Err: err}
	}
	if len(results) > webMaxResults {
		results = results[:webMaxResults]
	}

	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Content
	}
	return WebResult{Kind: WebOK, Content: strings.Join(parts, docSeparator)}
}
