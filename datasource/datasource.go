package datasource

import (
	"errors"
	"fmt"
	"time"
)

// DefaultUserAgent is sent with every request to the data providers.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

var (
	// ErrTickerNotFound is returned when a provider knows nothing about the ticker.
	ErrTickerNotFound = errors.New("ticker not found")
	// ErrMissingAPIKey is returned by constructors that require a credential.
	ErrMissingAPIKey = errors.New("api key not set")
)

// HTTPError wraps a non-2xx response from a data provider.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// retryable reports whether a status is worth another attempt.
func (e *HTTPError) retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// RetryPolicy bounds retries of data-acquisition calls.
type RetryPolicy struct {
	MaxRetries uint64
	Base       time.Duration
}

// DefaultRetryPolicy retries twice starting at 200ms.
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 2, Base: 200 * time.Millisecond}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
