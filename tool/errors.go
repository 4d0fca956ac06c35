package tool

import (
	"errors"
	"fmt"
)

// ErrMissingAPIKey is returned by constructors when no credential is available.
var ErrMissingAPIKey = errors.New("api key not set")

// HTTPError reports a non-2xx response from a search provider.
type HTTPError struct {
	Provider   string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s: HTTP %d %s: %s", e.Provider, e.StatusCode, e.Status, e.Body)
}
