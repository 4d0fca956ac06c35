package datasource

import (
	"context"
	"fmt"
	"html"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/microcosm-cc/bluemonday"
)

const defaultNewsAPIURL = "https://newsapi.org"

// NewsAPI searches articles through the newsapi.org "everything" endpoint.
type NewsAPI struct {
	client *resty.Client
	policy *bluemonday.Policy
}

type NewsAPIOption func(*NewsAPI)

// WithNewsAPIBaseURL overrides the API host.
func WithNewsAPIBaseURL(baseURL string) NewsAPIOption {
	return func(n *NewsAPI) {
		n.client.SetBaseURL(baseURL)
	}
}

// NewNewsAPI creates a NewsAPI client.
// If apiKey is empty, it tries to read from NEWSAPI_API_KEY environment variable.
func NewNewsAPI(apiKey string, opts ...NewsAPIOption) (*NewsAPI, error) {
	if apiKey == "" {
		apiKey = os.Getenv("NEWSAPI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("newsapi: %w", ErrMissingAPIKey)
	}

	n := &NewsAPI{
		client: resty.New().
			SetBaseURL(defaultNewsAPIURL).
			SetHeader("X-Api-Key", apiKey).
			SetHeader("User-Agent", DefaultUserAgent).
			SetHeader("Accept", "application/json"),
		policy: bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Name returns the provider name.
func (n *NewsAPI) Name() string { return "newsapi" }

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Search queries articles mentioning the company name, most relevant first.
func (n *NewsAPI) Search(ctx context.Context, q NewsQuery) ([]Article, error) {
	query := coalesce(q.Company, q.Ticker)
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultNewsLimit
	}

	params := map[string]string{
		"q":        query,
		"language": "en",
		"sortBy":   "relevancy",
		"pageSize": strconv.Itoa(limit),
	}
	if !q.Since.IsZero() {
		params["from"] = q.Since.Format(time.DateOnly)
	}

	var out newsAPIResponse
	resp, err := n.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&out).
		SetError(&out).
		Get("/v2/everything")
	if err != nil {
		return nil, fmt.Errorf("newsapi: %w", err)
	}
	if resp.IsError() {
		body := resp.String()
		if out.Message != "" {
			body = out.Code + ": " + out.Message
		}
		return nil, &HTTPError{StatusCode: resp.StatusCode(), Status: resp.Status(), Body: body}
	}
	if out.Status != "" && out.Status != "ok" {
		return nil, fmt.Errorf("newsapi: %s: %s", out.Code, out.Message)
	}

	articles := make([]Article, 0, len(out.Articles))
	for _, a := range out.Articles {
		published, _ := time.Parse(time.RFC3339, a.PublishedAt)
		articles = append(articles, Article{
			Title:       n.clean(a.Title),
			Description: n.clean(a.Description),
			Content:     n.clean(a.Content),
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: published,
		})
	}
	if len(articles) > limit {
		articles = articles[:limit]
	}
	return articles, nil
}

func (n *NewsAPI) clean(s string) string {
	return strings.TrimSpace(html.UnescapeString(n.policy.Sanitize(s)))
}
