package tool

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/smallnest/fincrag/crag"
)

const defaultTavilyURL = "https://api.tavily.com"

// DefaultTimeout bounds a single search request.
const DefaultTimeout = 30 * time.Second

// TavilySearch queries the Tavily search API.
type TavilySearch struct {
	APIKey      string
	BaseURL     string
	SearchDepth string
	Timeout     time.Duration

	client *resty.Client
}

type TavilyOption func(*TavilySearch)

// WithTavilyBaseURL sets the base URL for the Tavily API.
func WithTavilyBaseURL(baseURL string) TavilyOption {
	return func(t *TavilySearch) {
		t.BaseURL = baseURL
	}
}

// WithTavilySearchDepth sets the search depth ("basic" or "advanced").
func WithTavilySearchDepth(depth string) TavilyOption {
	return func(t *TavilySearch) {
		t.SearchDepth = depth
	}
}

// WithTavilyTimeout bounds each request. Zero or less means DefaultTimeout.
func WithTavilyTimeout(d time.Duration) TavilyOption {
	return func(t *TavilySearch) {
		t.Timeout = d
	}
}

// NewTavilySearch creates a new TavilySearch.
// If apiKey is empty, it tries to read from TAVILY_API_KEY environment variable.
func NewTavilySearch(apiKey string, opts ...TavilyOption) (*TavilySearch, error) {
	if apiKey == "" {
		apiKey = os.Getenv("TAVILY_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("tavily: %w", ErrMissingAPIKey)
	}

	t := &TavilySearch{
		APIKey:      apiKey,
		BaseURL:     defaultTavilyURL,
		SearchDepth: "basic",
		Timeout:     DefaultTimeout,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.Timeout <= 0 {
		t.Timeout = DefaultTimeout
	}

	t.client = resty.New().
		SetTimeout(t.Timeout).
		SetBaseURL(t.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return t, nil
}

type tavilyRequest struct {
	Query       string `json:"query"`
	APIKey      string `json:"api_key"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search implements crag.WebSearcher.
func (t *TavilySearch) Search(ctx context.Context, query string, maxResults int) ([]crag.SearchResult, error) {
	var out tavilyResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(tavilyRequest{
			Query:       query,
			APIKey:      t.APIKey,
			SearchDepth: t.SearchDepth,
			MaxResults:  maxResults,
		}).
		SetResult(&out).
		Post("/search")
	if err != nil {
		return nil, fmt.Errorf("tavily: request failed: %w", err)
	}
	if resp.IsError() {
		return nil, &HTTPError{
			Provider:   "tavily",
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       resp.String(),
		}
	}

	results := make([]crag.SearchResult, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, crag.SearchResult{Title: r.Title, URL: r.URL, Content: r.Content})
	}
	return results, nil
}

var _ crag.WebSearcher = (*TavilySearch)(nil)
