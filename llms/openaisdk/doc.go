// Package openaisdk provides a langchaingo llms.Model backed by
// github.com/sashabaranov/go-openai, for OpenAI and OpenAI-compatible
// endpoints. It also implements embeddings.EmbedderClient so the same client
// can feed a langchaingo embedder.
package openaisdk
