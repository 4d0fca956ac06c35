package datasource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	// NoNewsText is the digest when no article matched.
	NoNewsText = "No recent news."
	// NewsUnavailableText is the digest when the news provider failed.
	NewsUnavailableText = "News unavailable."

	// DefaultNewsDays is the look-back window for news.
	DefaultNewsDays = 7
	// DefaultNewsLimit caps the number of articles in a digest.
	DefaultNewsLimit = 10

	contentLimit = 200
)

// Article is one news item.
type Article struct {
	Title       string
	Description string
	Content     string
	URL         string
	Source      string
	PublishedAt time.Time
}

// NewsQuery selects articles about one instrument.
type NewsQuery struct {
	Ticker  string
	Company string
	Since   time.Time
	Limit   int
}

// NewsProvider searches recent news.
type NewsProvider interface {
	Name() string
	Search(ctx context.Context, q NewsQuery) ([]Article, error)
}

// FormatNews renders the news digest document. Each article becomes
// "[date] title" followed by its description, or the first 200 characters
// of its content when the description is empty.
func FormatNews(articles []Article, limit int) string {
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	if len(articles) == 0 {
		return NoNewsText
	}

	parts := make([]string, 0, len(articles))
	for _, a := range articles {
		body := a.Description
		if body == "" {
			body = truncateRunes(a.Content, contentLimit)
		}
		parts = append(parts, fmt.Sprintf("[%s] %s\n%s", formatDate(a.PublishedAt), a.Title, body))
	}
	return strings.Join(parts, "\n\n")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.Format(time.DateOnly)
}

// sortByDate orders articles newest first.
func sortByDate(articles []Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}
