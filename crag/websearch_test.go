package crag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWebQuery(t *testing.T) {
	assert.Equal(t, "AAPL stock What is the outlook?", WebQuery("AAPL", "What is the outlook?"))
}

func TestSearchWeb(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		res := searchWeb(ctx, nil, "AAPL", "q")
		assert.Equal(t, WebDisabled, res.Kind)
		assert.Equal(t, "[Web search disabled]", res.Text())
		assert.False(t, res.Populated())
	})

	t.Run("results joined", func(t *testing.T) {
		s := &fakeSearcher{results: []SearchResult{{Content: "one"}, {Content: "two"}, {Content: "three"}}}
		res := searchWeb(ctx, s, "AAPL", "outlook")
		assert.Equal(t, "AAPL stock outlook", s.lastQuery)
		assert.Equal(t, 3, s.lastMax)
		assert.Equal(t, WebOK, res.Kind)
		assert.Equal(t, "one\n\ntwo\n\nthree", res.Text())
		assert.True(t, res.Populated())
	})

	t.Run("extra results dropped", func(t *testing.T) {
		s := &fakeSearcher{results: []SearchResult{{Content: "1"}, {Content: "2"}, {Content: "3"}, {Content: "4"}}}
		res := searchWeb(ctx, s, "AAPL", "q")
		assert.Equal(t, "1\n\n2\n\n3", res.Text())
	})

	t.Run("failure becomes placeholder", func(t *testing.T) {
		s := &fakeSearcher{err: errors.New("rate limited")}
		res := searchWeb(ctx, s, "AAPL", "q")
		assert.Equal(t, WebFailed, res.Kind)
		assert.Equal(t, "[Error: rate limited]", res.Text())
		assert.False(t, res.Populated())
	})

	t.Run("no hits", func(t *testing.T) {
		res := searchWeb(ctx, &fakeSearcher{}, "AAPL", "q")
		assert.Equal(t, WebOK, res.Kind)
		assert.Equal(t, "", res.Text())
		assert.False(t, res.Populated())
	})
}

func TestWebKind_String(t *testing.T) {
	assert.Equal(t, "skipped", WebSkipped.String())
	assert.Equal(t, "ok", WebOK.String())
	assert.Equal(t, "disabled", WebDisabled.String())
	assert.Equal(t, "failed", WebFailed.String())
	assert.Equal(t, "[Error: unknown]", WebResult{Kind: WebFailed}.Text())
	assert.Equal(t, "", WebResult{}.Text())
}
