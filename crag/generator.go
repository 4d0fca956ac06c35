package crag

import (
	"context"
	"errors"

	"github.com/tmc/langchaingo/llms"
)

const generatorSystemPrompt = "You are a financial analyst. Answer based on the context."

// Generator produces the final answer from a question and its context.
type Generator interface {
	Generate(ctx context.Context, question, docContext string) (string, error)
}

// LLMGenerator answers with a language model at temperature 0.
type LLMGenerator struct {
	model llms.Model
}

var _ Generator = (*LLMGenerator)(nil)

// NewLLMGenerator creates a generator backed by model.
func NewLLMGenerator(model llms.Model) *LLMGenerator {
	return &LLMGenerator{model: model}
}

// Generate implements Generator.
func (g *LLMGenerator) Generate(ctx context.Context, question, docContext string) (string, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, generatorSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, "Question: "+question+"\n\nContext: "+docContext),
	}

	resp, err := g.model.GenerateContent(ctx, messages, llms.WithTemperature(0))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response from model")
	}
	return resp.Choices[0].Content, nil
}
