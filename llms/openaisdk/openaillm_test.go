package openaisdk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *LLM {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	llm, err := New(WithAPIKey("test-key"), WithBaseURL(server.URL+"/v1"))
	require.NoError(t, err)
	return llm
}

func TestNew_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	_, err := New()
	assert.ErrorIs(t, err, ErrNotSetAuth)
}

func TestNew_EnvKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	llm, err := New()
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, llm.model)
}

func TestLLM_GenerateContent(t *testing.T) {
	var got map[string]any
	llm := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"c1","object":"chat.completion","model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"correct"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":1,"total_tokens":11}
		}`))
	})

	resp, err := llm.GenerateContent(context.Background(), []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, "be terse"),
		llms.TextParts(llms.ChatMessageTypeHuman, "Assessment:"),
	}, llms.WithTemperature(0))
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "correct", resp.Choices[0].Content)
	assert.Equal(t, "stop", resp.Choices[0].StopReason)
	assert.Equal(t, 11, resp.Choices[0].GenerationInfo["total_tokens"])

	assert.Equal(t, "gpt-4o-mini", got["model"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
	assert.Equal(t, "Assessment:", msgs[1].(map[string]any)["content"])

	temp, ok := got["temperature"].(float64)
	require.True(t, ok)
	assert.Less(t, temp, 1e-6)
}

func TestLLM_GenerateContent_ModelOverride(t *testing.T) {
	var got map[string]any
	llm := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`))
	})

	out, err := llm.Call(context.Background(), "hi", llms.WithModel("other-model"))
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, "other-model", got["model"])
}

func TestLLM_GenerateContent_NoChoices(t *testing.T) {
	llm := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := llm.GenerateContent(context.Background(), []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "hi"),
	})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestLLM_GenerateContent_APIError(t *testing.T) {
	llm := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key","type":"auth"}}`))
	})

	_, err := llm.GenerateContent(context.Background(), []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, "hi"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid key")
}

func TestLLM_CreateEmbedding(t *testing.T) {
	llm := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[
			{"object":"embedding","index":1,"embedding":[0.3,0.4]},
			{"object":"embedding","index":0,"embedding":[0.1,0.2]}
		],"model":"text-embedding-3-small"}`))
	})

	emb, err := llm.CreateEmbedding(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, emb, 2)
	assert.InDelta(t, 0.1, emb[0][0], 1e-6)
	assert.InDelta(t, 0.3, emb[1][0], 1e-6)
}

func TestToChatMessages_Roles(t *testing.T) {
	msgs := toChatMessages([]llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, "s"),
		llms.TextParts(llms.ChatMessageTypeHuman, "h1", "h2"),
		llms.TextParts(llms.ChatMessageTypeAI, "a"),
		llms.TextParts(llms.ChatMessageTypeGeneric, "g"),
	})
	require.Len(t, msgs, 4)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Equal(t, "h1h2", msgs[1].Content)
	assert.Equal(t, "assistant", msgs[2].Role)
	assert.Equal(t, "user", msgs[3].Role)
}
