package crag

import (
	"context"
	"errors"
	"strings"

	"github.com/smallnest/fincrag/rag"
	"github.com/tmc/langchaingo/llms"
)

const (
	assessDocsLimit = 3
	assessCharLimit = 500

	assessPrompt = `You are a document quality assessor for financial Q&A.

Evaluate if retrieved documents contain sufficient information to answer the question.

Return ONLY one word:
- "correct" = Documents fully answer the question
- "ambiguous" = Partial information, web search would help
- "incorrect" = Documents don't answer, web search required

Question: {question}
Documents: {documents}`
)

// Assessor grades retrieved documents against a question.
type Assessor interface {
	Assess(ctx context.Context, question string, docs []rag.Document) (Quality, error)
}

// LLMAssessor asks a language model for a one-word verdict.
type LLMAssessor struct {
	model llms.Model
}

var _ Assessor = (*LLMAssessor)(nil)

// NewLLMAssessor creates an assessor backed by model.
func NewLLMAssessor(model llms.Model) *LLMAssessor {
	return &LLMAssessor{model: model}
}

// AssessmentContext renders the documents the assessor sees: the first 3,
// each cut to 500 characters, separated by blank lines.
func AssessmentContext(docs []rag.Document) string {
	return joinTruncated(docs, assessDocsLimit, assessCharLimit)
}

// Assess implements Assessor.
func (a *LLMAssessor) Assess(ctx context.Context, question string, docs []rag.Document) (Quality, error) {
	system := strings.NewReplacer(
		"{question}", question,
		"{documents}", AssessmentContext(docs),
	).Replace(assessPrompt)

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, "Assessment:"),
	}

	resp, err := a.model.GenerateContent(ctx, messages, llms.WithTemperature(0))
	if err != nil {
		return QualityUnknown, err
	}
	if len(resp.Choices) == 0 {
		return QualityUnknown, errors.New("empty response from model")
	}
	return ParseQuality(resp.Choices[0].Content), nil
}
