package datasource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallnest/fincrag/log"
	"github.com/smallnest/fincrag/rag"
)

type fakeFundamentals struct {
	f   *Fundamentals
	err error
}

func (s *fakeFundamentals) Fundamentals(ctx context.Context, ticker string) (*Fundamentals, error) {
	return s.f, s.err
}

type fakeNews struct {
	articles []Article
	err      error
	got      NewsQuery
}

func (n *fakeNews) Name() string { return "fake" }

func (n *fakeNews) Search(ctx context.Context, q NewsQuery) ([]Article, error) {
	n.got = q
	return n.articles, n.err
}

func TestFetcher_Fetch(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	news := &fakeNews{articles: []Article{{Title: "Headline", Description: "Body", PublishedAt: now}}}
	f := &Fetcher{
		Fundamentals: &fakeFundamentals{f: &Fundamentals{Ticker: "AAPL", Name: "Apple Inc."}},
		News:         news,
		Logger:       &log.NoOpLogger{},
		now:          func() time.Time { return now },
	}

	docs, err := f.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, rag.SourceFundamentals, docs[0].Provenance.Source)
	assert.Equal(t, "AAPL", docs[0].Provenance.Ticker)
	assert.Contains(t, docs[0].Content, "STOCK: AAPL - Apple Inc.")

	assert.Equal(t, rag.SourceNews, docs[1].Provenance.Source)
	assert.Equal(t, "[2024-03-10] Headline\nBody", docs[1].Content)
	assert.NotEqual(t, docs[0].ID, docs[1].ID)

	assert.Equal(t, "Apple Inc.", news.got.Company)
	assert.Equal(t, now.AddDate(0, 0, -DefaultNewsDays), news.got.Since)
	assert.Equal(t, DefaultNewsLimit, news.got.Limit)
}

func TestFetcher_FundamentalsFailure(t *testing.T) {
	f := &Fetcher{
		Fundamentals: &fakeFundamentals{err: ErrTickerNotFound},
		News:         &fakeNews{},
		Logger:       &log.NoOpLogger{},
	}
	_, err := f.Fetch(context.Background(), "NOPE")
	assert.True(t, errors.Is(err, ErrTickerNotFound))
}

func TestFetcher_NewsDegrades(t *testing.T) {
	tests := []struct {
		name string
		news NewsProvider
		want string
	}{
		{name: "provider error", news: &fakeNews{err: errors.New("boom")}, want: NewsUnavailableText},
		{name: "no articles", news: &fakeNews{}, want: NoNewsText},
		{name: "no provider", news: nil, want: NewsUnavailableText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Fetcher{
				Fundamentals: &fakeFundamentals{f: &Fundamentals{Ticker: "AAPL"}},
				News:         tt.news,
				Logger:       &log.NoOpLogger{},
			}
			docs, err := f.Fetch(context.Background(), "AAPL")
			require.NoError(t, err)
			assert.Equal(t, tt.want, docs[1].Content)
		})
	}
}
