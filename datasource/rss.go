package datasource

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// DefaultRSSURL is the Yahoo Finance headline feed; %s is the ticker.
const DefaultRSSURL = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"

// RSSNews reads a per-ticker RSS feed. It needs no credential.
type RSSNews struct {
	urlTemplate string
	parser      *gofeed.Parser
}

// NewRSSNews creates an RSS news provider. urlTemplate must contain one %s
// for the ticker; empty means DefaultRSSURL.
func NewRSSNews(urlTemplate string) *RSSNews {
	if urlTemplate == "" {
		urlTemplate = DefaultRSSURL
	}
	p := gofeed.NewParser()
	p.UserAgent = DefaultUserAgent
	return &RSSNews{urlTemplate: urlTemplate, parser: p}
}

// Name returns the provider name.
func (r *RSSNews) Name() string { return "rss" }

// Search returns feed items published since q.Since, newest first.
func (r *RSSNews) Search(ctx context.Context, q NewsQuery) ([]Article, error) {
	url := fmt.Sprintf(r.urlTemplate, q.Ticker)
	feed, err := r.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", q.Ticker, err)
	}

	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := Article{
			Title:       strings.TrimSpace(item.Title),
			Description: cleanHTML(item.Description),
			Content:     cleanHTML(item.Content),
			URL:         item.Link,
			Source:      feed.Title,
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = *item.PublishedParsed
		}
		if !q.Since.IsZero() && !a.PublishedAt.IsZero() && a.PublishedAt.Before(q.Since) {
			continue
		}
		articles = append(articles, a)
	}

	sortByDate(articles)
	if q.Limit > 0 && len(articles) > q.Limit {
		articles = articles[:q.Limit]
	}
	return articles, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
