package llm_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"github.com/xhad/topicnews/internal/models"
	"github.com/xhad/topicnews/pkg/llm"
)

type fakeModel struct {
	reply    string
	err      error
	messages []llms.MessageContent
}

func (m *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.messages = messages
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func humanPrompt(t *testing.T, m *fakeModel) string {
	t.Helper()
	require.Len(t, m.messages, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, m.messages[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, m.messages[1].Role)
	part, ok := m.messages[1].Parts[0].(llms.TextContent)
	require.True(t, ok)
	return part.Text
}

var testArticle = models.NormalizedArticle{
	ID:          "0",
	Title:       "AI breakthrough announced",
	Description: "A new model",
	Content:     "Short content",
	Source:      "Wire",
	PublishedAt: "1/15/2024",
}

func TestNewSummarizerWithConfig(t *testing.T) {
	s, err := llm.NewSummarizerWithConfig(llm.SummarizerConfig{LLM: &fakeModel{}, Temperature: 0.5})
	assert.NoError(t, err)
	assert.NotNil(t, s)

	_, err = llm.NewSummarizerWithConfig(llm.SummarizerConfig{LLM: &fakeModel{}, Temperature: 1.5})
	assert.Error(t, err)

	_, err = llm.NewSummarizerWithConfig(llm.SummarizerConfig{LLM: &fakeModel{}, MaxTokens: -1})
	assert.Error(t, err)
}

func TestSummarizeUsesBody(t *testing.T) {
	model := &fakeModel{reply: "  A lab unveiled a model.  "}
	s, err := llm.NewSummarizerWithConfig(llm.SummarizerConfig{LLM: model})
	require.NoError(t, err)

	summary, err := s.Summarize(context.Background(), testArticle, "Full page body text")
	require.NoError(t, err)
	assert.Equal(t, "A lab unveiled a model.", summary)

	prompt := humanPrompt(t, model)
	assert.Contains(t, prompt, "Title: AI breakthrough announced")
	assert.Contains(t, prompt, "Source: Wire")
	assert.Contains(t, prompt, "Full page body text")
	assert.NotContains(t, prompt, "Short content")
}

func TestSummarizeFallsBackToContentAndTruncates(t *testing.T) {
	model := &fakeModel{reply: "ok"}
	s, err := llm.NewSummarizerWithConfig(llm.SummarizerConfig{LLM: model, MaxBodyChars: 5})
	require.NoError(t, err)

	_, err = s.Summarize(context.Background(), testArticle, "   ")
	require.NoError(t, err)

	prompt := humanPrompt(t, model)
	assert.True(t, strings.HasSuffix(prompt, "Article:\nShort"))
}

func TestSummarizeError(t *testing.T) {
	modelErr := errors.New("model unavailable")
	s, err := llm.NewSummarizerWithConfig(llm.SummarizerConfig{LLM: &fakeModel{err: modelErr}})
	require.NoError(t, err)

	_, err = s.Summarize(context.Background(), testArticle, "")
	assert.ErrorIs(t, err, modelErr)
}
