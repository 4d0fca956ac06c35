package openaisdk

import (
	"net/http"
	"os"

	"github.com/tmc/langchaingo/callbacks"
)

const (
	// DefaultModel matches the chat model used by the pipeline.
	DefaultModel = "gpt-4o-mini"
	// DefaultEmbeddingModel is used by CreateEmbedding.
	DefaultEmbeddingModel = "text-embedding-3-small"
)

type options struct {
	apiKey           string
	baseURL          string
	model            string
	embeddingModel   string
	httpClient       *http.Client
	callbacksHandler callbacks.Handler
}

// Option configures an LLM.
type Option func(*options)

// WithAPIKey sets the API key.
func WithAPIKey(apiKey string) Option {
	return func(o *options) {
		o.apiKey = apiKey
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(o *options) {
		o.baseURL = baseURL
	}
}

// WithModel sets the chat model.
func WithModel(model string) Option {
	return func(o *options) {
		o.model = model
	}
}

// WithEmbeddingModel sets the embedding model.
func WithEmbeddingModel(model string) Option {
	return func(o *options) {
		o.embeddingModel = model
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithCallbacksHandler sets the langchaingo callbacks handler.
func WithCallbacksHandler(handler callbacks.Handler) Option {
	return func(o *options) {
		o.callbacksHandler = handler
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
