package tool

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/smallnest/fincrag/crag"
)

const (
	defaultBraveURL = "https://api.search.brave.com/res/v1/web/search"
	maxBraveCount   = 20
)

// BraveSearch queries the Brave Search API.
type BraveSearch struct {
	APIKey  string
	BaseURL string
	Country string
	Lang    string
	Timeout time.Duration

	client *resty.Client
}

type BraveOption func(*BraveSearch)

// WithBraveBaseURL sets the base URL for the Brave Search API.
func WithBraveBaseURL(baseURL string) BraveOption {
	return func(b *BraveSearch) {
		b.BaseURL = baseURL
	}
}

// WithBraveCountry sets the country code for search results (e.g., "US", "CN").
func WithBraveCountry(country string) BraveOption {
	return func(b *BraveSearch) {
		b.Country = country
	}
}

// WithBraveLang sets the language code for search results (e.g., "en", "zh").
func WithBraveLang(lang string) BraveOption {
	return func(b *BraveSearch) {
		b.Lang = lang
	}
}

// WithBraveTimeout bounds each request. Zero or less means DefaultTimeout.
func WithBraveTimeout(d time.Duration) BraveOption {
	return func(b *BraveSearch) {
		b.Timeout = d
	}
}

// NewBraveSearch creates a new BraveSearch.
// If apiKey is empty, it tries to read from BRAVE_API_KEY environment variable.
func NewBraveSearch(apiKey string, opts ...BraveOption) (*BraveSearch, error) {
	if apiKey == "" {
		apiKey = os.Getenv("BRAVE_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("brave: %w", ErrMissingAPIKey)
	}

	b := &BraveSearch{
		APIKey:  apiKey,
		BaseURL: defaultBraveURL,
		Country: "US",
		Lang:    "en",
		Timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.Timeout <= 0 {
		b.Timeout = DefaultTimeout
	}

	b.client = resty.New().
		SetTimeout(b.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("X-Subscription-Token", b.APIKey)
	return b, nil
}

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search implements crag.WebSearcher. Brave has no content field, so the
// result description is used as the content.
func (b *BraveSearch) Search(ctx context.Context, query string, maxResults int) ([]crag.SearchResult, error) {
	params := map[string]string{
		"q":     query,
		"count": strconv.Itoa(clampCount(maxResults)),
	}
	if b.Country != "" {
		params["country"] = b.Country
	}
	if b.Lang != "" {
		params["search_lang"] = b.Lang
	}

	var out braveResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&out).
		Get(b.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("brave: request failed: %w", err)
	}
	if resp.IsError() {
		return nil, &HTTPError{
			Provider:   "brave",
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
			Body:       resp.String(),
		}
	}

	results := make([]crag.SearchResult, 0, len(out.Web.Results))
	for _, r := range out.Web.Results {
		results = append(results, crag.SearchResult{Title: r.Title, URL: r.URL, Content: r.Description})
	}
	return results, nil
}

func clampCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > maxBraveCount {
		return maxBraveCount
	}
	return n
}

var _ crag.WebSearcher = (*BraveSearch)(nil)
