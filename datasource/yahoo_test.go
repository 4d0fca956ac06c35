package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const summaryJSON = `{"quoteSummary":{"result":[{
	"price":{"longName":"Apple Inc.","shortName":"Apple","regularMarketPrice":{"raw":189.4},"marketCap":{"raw":2950000000000}},
	"summaryProfile":{"sector":"Technology","industry":"Consumer Electronics","longBusinessSummary":"Apple designs phones."},
	"summaryDetail":{"trailingPE":{"raw":29.1},"forwardPE":{"raw":27.3},"beta":{"raw":1.29},"fiftyTwoWeekLow":{"raw":164.08},"fiftyTwoWeekHigh":{"raw":199.62}},
	"defaultKeyStatistics":{"pegRatio":{"raw":2.1}},
	"financialData":{"currentPrice":{"raw":189.5}}
}],"error":null}}`

const chartJSON = `{"chart":{"result":[{
	"timestamp":[1,2,3,4],
	"indicators":{"quote":[{"close":[null,100,105,110],"volume":[10,null,20,30]}]}
}],"error":null}}`

func newYahooServer(t *testing.T, summaryHits *atomic.Int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/v10/finance/quoteSummary/AAPL"):
			if summaryHits != nil {
				summaryHits.Add(1)
			}
			assert.Contains(t, r.URL.Query().Get("modules"), "summaryProfile")
			_, _ = w.Write([]byte(summaryJSON))
		case strings.HasPrefix(r.URL.Path, "/v8/finance/chart/AAPL"):
			assert.Equal(t, "1mo", r.URL.Query().Get("range"))
			_, _ = w.Write([]byte(chartJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"No data"}}}`))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func fastRetry() YahooOption {
	return WithYahooRetry(RetryPolicy{MaxRetries: 2, Base: time.Millisecond})
}

func TestYahooFinance_Fundamentals(t *testing.T) {
	server := newYahooServer(t, nil)
	y := NewYahooFinance(WithYahooBaseURL(server.URL), fastRetry())

	f, err := y.Fundamentals(context.Background(), " aapl ")
	require.NoError(t, err)

	assert.Equal(t, "AAPL", f.Ticker)
	assert.Equal(t, "Apple Inc.", f.Name)
	assert.Equal(t, "Technology", f.Sector)
	require.NotNil(t, f.Price)
	assert.Equal(t, 189.5, *f.Price)
	require.NotNil(t, f.PEGRatio)
	assert.Equal(t, 2.1, *f.PEGRatio)

	assert.Equal(t, 3, f.History.Bars)
	assert.Equal(t, 100.0, f.History.Start)
	assert.Equal(t, 110.0, f.History.End)
	assert.InDelta(t, 20.0, f.History.AvgVolume, 1e-9)
}

func TestYahooFinance_Cache(t *testing.T) {
	var hits atomic.Int32
	server := newYahooServer(t, &hits)
	y := NewYahooFinance(WithYahooBaseURL(server.URL), fastRetry())

	_, err := y.Fundamentals(context.Background(), "AAPL")
	require.NoError(t, err)
	_, err = y.Fundamentals(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestYahooFinance_NotFound(t *testing.T) {
	server := newYahooServer(t, nil)
	y := NewYahooFinance(WithYahooBaseURL(server.URL), fastRetry())

	_, err := y.Fundamentals(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTickerNotFound))
}

func TestYahooFinance_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.URL.Path, "/v8/") {
			_, _ = w.Write([]byte(chartJSON))
			return
		}
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(summaryJSON))
	}))
	defer server.Close()

	y := NewYahooFinance(WithYahooBaseURL(server.URL), fastRetry())
	f, err := y.Fundamentals(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "Apple Inc.", f.Name)
	assert.Equal(t, int32(2), calls.Load())
}

func TestYahooFinance_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v10/") {
			calls.Add(1)
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	y := NewYahooFinance(WithYahooBaseURL(server.URL), fastRetry())
	_, err := y.Fundamentals(context.Background(), "AAPL")
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.LessOrEqual(t, calls.Load(), int32(3))
}

func TestSummarizeChart_Empty(t *testing.T) {
	h := summarizeChart(yfChartResponse{})
	assert.Equal(t, 0, h.Bars)
}
