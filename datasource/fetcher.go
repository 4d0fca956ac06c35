package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smallnest/fincrag/log"
	"github.com/smallnest/fincrag/rag"
)

// Fetcher builds the documents indexed for one instrument.
type Fetcher struct {
	Fundamentals FundamentalsSource
	News         NewsProvider
	NewsDays     int
	NewsLimit    int
	Logger       log.Logger

	now func() time.Time
}

// Fetch returns exactly two documents for ticker: the fundamentals summary
// and the news digest. A fundamentals failure is an error; a news failure
// degrades to NewsUnavailableText.
func (f *Fetcher) Fetch(ctx context.Context, ticker string) ([]rag.Document, error) {
	logger := log.For(f.Logger, "fetcher")
	if f.Fundamentals == nil {
		return nil, fmt.Errorf("fetcher: no fundamentals source")
	}

	fund, err := f.Fundamentals.Fundamentals(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("fundamentals: %w", err)
	}
	logger.Info("fetched fundamentals for %s (%s)", ticker, fund.CompanyName())

	digest := f.newsDigest(ctx, ticker, fund.CompanyName(), logger)

	return []rag.Document{
		{
			ID:         uuid.NewString(),
			Content:    fund.Format(),
			Provenance: rag.Provenance{Source: rag.SourceFundamentals, Ticker: ticker},
		},
		{
			ID:         uuid.NewString(),
			Content:    digest,
			Provenance: rag.Provenance{Source: rag.SourceNews, Ticker: ticker},
		},
	}, nil
}

func (f *Fetcher) newsDigest(ctx context.Context, ticker, company string, logger log.Logger) string {
	if f.News == nil {
		return NewsUnavailableText
	}

	days := f.NewsDays
	if days <= 0 {
		days = DefaultNewsDays
	}
	limit := f.NewsLimit
	if limit <= 0 {
		limit = DefaultNewsLimit
	}
	now := time.Now
	if f.now != nil {
		now = f.now
	}

	articles, err := f.News.Search(ctx, NewsQuery{
		Ticker:  ticker,
		Company: company,
		Since:   now().AddDate(0, 0, -days),
		Limit:   limit,
	})
	if err != nil {
		logger.Warn("news from %s unavailable for %s: %v", f.News.Name(), ticker, err)
		return NewsUnavailableText
	}
	logger.Info("fetched %d articles for %s from %s", len(articles), ticker, f.News.Name())
	return FormatNews(articles, limit)
}
