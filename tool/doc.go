// Package tool provides web search providers for the CRAG pipeline.
//
// Each provider implements crag.WebSearcher and returns structured results
// whose Content field is what the pipeline folds into the web context.
//
//	searcher, err := tool.NewTavilySearch(os.Getenv("TAVILY_API_KEY"))
//	if err != nil {
//		// no key: run without web search
//	}
//	results, err := searcher.Search(ctx, "AAPL stock latest earnings", 3)
//
// Non-2xx responses are reported as *HTTPError so callers can inspect the
// status code with errors.As.
package tool
