package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/smallnest/fincrag/log"
)

const (
	defaultYahooURL = "https://query2.finance.yahoo.com"
	summaryModules  = "price,summaryProfile,summaryDetail,defaultKeyStatistics,financialData"

	defaultCacheSize = 64
	defaultCacheTTL  = 5 * time.Minute
)

// FundamentalsSource fetches the fundamentals of a ticker.
type FundamentalsSource interface {
	Fundamentals(ctx context.Context, ticker string) (*Fundamentals, error)
}

// YahooFinance reads quote summaries and price charts from Yahoo Finance.
type YahooFinance struct {
	client *resty.Client
	cache  *expirable.LRU[string, *Fundamentals]
	retry  RetryPolicy
	logger log.Logger
}

type YahooOption func(*yahooOptions)

type yahooOptions struct {
	baseURL  string
	cacheTTL time.Duration
	retry    RetryPolicy
	logger   log.Logger
}

// WithYahooBaseURL overrides the API host.
func WithYahooBaseURL(baseURL string) YahooOption {
	return func(o *yahooOptions) {
		o.baseURL = baseURL
	}
}

// WithYahooCacheTTL sets how long fetched fundamentals are reused.
func WithYahooCacheTTL(ttl time.Duration) YahooOption {
	return func(o *yahooOptions) {
		o.cacheTTL = ttl
	}
}

// WithYahooRetry sets the retry policy for transient failures.
func WithYahooRetry(p RetryPolicy) YahooOption {
	return func(o *yahooOptions) {
		o.retry = p
	}
}

// WithYahooLogger sets the logger.
func WithYahooLogger(l log.Logger) YahooOption {
	return func(o *yahooOptions) {
		o.logger = l
	}
}

// NewYahooFinance creates a Yahoo Finance client.
func NewYahooFinance(opts ...YahooOption) *YahooFinance {
	o := &yahooOptions{
		baseURL:  defaultYahooURL,
		cacheTTL: defaultCacheTTL,
		retry:    DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(o)
	}

	return &YahooFinance{
		client: resty.New().
			SetBaseURL(o.baseURL).
			SetHeader("User-Agent", DefaultUserAgent).
			SetHeader("Accept", "application/json"),
		cache:  expirable.NewLRU[string, *Fundamentals](defaultCacheSize, nil, o.cacheTTL),
		retry:  o.retry,
		logger: log.For(o.logger, "yahoo"),
	}
}

// --- Yahoo Finance API types ---

type yfValue struct {
	Raw *float64 `json:"raw"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yfSummaryResponse struct {
	QuoteSummary struct {
		Result []yfSummaryResult `json:"result"`
		Error  *yfError          `json:"error"`
	} `json:"quoteSummary"`
}

type yfSummaryResult struct {
	Price struct {
		LongName           string  `json:"longName"`
		ShortName          string  `json:"shortName"`
		RegularMarketPrice yfValue `json:"regularMarketPrice"`
		MarketCap          yfValue `json:"marketCap"`
	} `json:"price"`
	SummaryProfile struct {
		Sector              string `json:"sector"`
		Industry            string `json:"industry"`
		LongBusinessSummary string `json:"longBusinessSummary"`
	} `json:"summaryProfile"`
	SummaryDetail struct {
		TrailingPE       yfValue `json:"trailingPE"`
		ForwardPE        yfValue `json:"forwardPE"`
		Beta             yfValue `json:"beta"`
		FiftyTwoWeekLow  yfValue `json:"fiftyTwoWeekLow"`
		FiftyTwoWeekHigh yfValue `json:"fiftyTwoWeekHigh"`
	} `json:"summaryDetail"`
	DefaultKeyStatistics struct {
		PEGRatio yfValue `json:"pegRatio"`
	} `json:"defaultKeyStatistics"`
	FinancialData struct {
		CurrentPrice yfValue `json:"currentPrice"`
	} `json:"financialData"`
}

type yfChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yfError `json:"error"`
	} `json:"chart"`
}

// Fundamentals returns the profile, valuation and one-month history of ticker.
// The quote summary and the chart are fetched concurrently.
func (y *YahooFinance) Fundamentals(ctx context.Context, ticker string) (*Fundamentals, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if cached, ok := y.cache.Get(ticker); ok {
		return cached, nil
	}

	var (
		summary yfSummaryResponse
		chart   yfChartResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return y.get(gctx, "/v10/finance/quoteSummary/"+ticker, map[string]string{"modules": summaryModules}, &summary)
	})
	g.Go(func() error {
		return y.get(gctx, "/v8/finance/chart/"+ticker, map[string]string{"range": "1mo", "interval": "1d"}, &chart)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("yahoo finance %s: %w", ticker, err)
	}

	if e := summary.QuoteSummary.Error; e != nil {
		return nil, fmt.Errorf("yahoo finance %s: %s: %s", ticker, e.Code, e.Description)
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, ticker)
	}

	r := summary.QuoteSummary.Result[0]
	f := &Fundamentals{
		Ticker:      ticker,
		Name:        coalesce(r.Price.LongName, r.Price.ShortName),
		Sector:      r.SummaryProfile.Sector,
		Industry:    r.SummaryProfile.Industry,
		Description: r.SummaryProfile.LongBusinessSummary,
		Price:       firstValue(r.FinancialData.CurrentPrice, r.Price.RegularMarketPrice),
		MarketCap:   r.Price.MarketCap.Raw,
		TrailingPE:  r.SummaryDetail.TrailingPE.Raw,
		ForwardPE:   r.SummaryDetail.ForwardPE.Raw,
		PEGRatio:    r.DefaultKeyStatistics.PEGRatio.Raw,
		Beta:        r.SummaryDetail.Beta.Raw,
		Low52:       r.SummaryDetail.FiftyTwoWeekLow.Raw,
		High52:      r.SummaryDetail.FiftyTwoWeekHigh.Raw,
		History:     summarizeChart(chart),
	}
	if f.History.Bars == 0 {
		y.logger.Warn("yahoo finance: no price history for %s", ticker)
	}

	y.cache.Add(ticker, f)
	return f, nil
}

// get issues a GET and decodes the JSON body into out, retrying
// transport errors and 429/5xx responses.
func (y *YahooFinance) get(ctx context.Context, path string, params map[string]string, out any) error {
	backoff := retry.WithMaxRetries(y.retry.MaxRetries, retry.NewExponential(y.retry.Base))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := y.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(out).
			Get(path)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			y.logger.Debug("yahoo finance: retrying %s: %v", path, err)
			return retry.RetryableError(err)
		}
		if resp.IsError() {
			httpErr := &HTTPError{StatusCode: resp.StatusCode(), Status: resp.Status(), Body: resp.String()}
			if httpErr.retryable() {
				y.logger.Debug("yahoo finance: retrying %s: %v", path, httpErr)
				return retry.RetryableError(httpErr)
			}
			if resp.StatusCode() == 404 {
				return fmt.Errorf("%w: %w", ErrTickerNotFound, httpErr)
			}
			return httpErr
		}
		return nil
	})
}

func summarizeChart(chart yfChartResponse) PriceHistory {
	var h PriceHistory
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return h
	}
	q := chart.Chart.Result[0].Indicators.Quote[0]

	for _, c := range q.Close {
		if c == nil {
			continue
		}
		if h.Bars == 0 {
			h.Start = *c
		}
		h.End = *c
		h.Bars++
	}

	var sum float64
	var n int
	for _, v := range q.Volume {
		if v != nil {
			sum += *v
			n++
		}
	}
	if n > 0 {
		h.AvgVolume = sum / float64(n)
	}
	return h
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstValue(values ...yfValue) *float64 {
	for _, v := range values {
		if v.Raw != nil {
			return v.Raw
		}
	}
	return nil
}
