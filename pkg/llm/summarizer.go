package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
	"github.com/xhad/topicnews/internal/models"
)

// SummarizerConfig represents the configuration for a Summarizer.
type SummarizerConfig struct {
	Model          string
	Temperature    float64
	MaxTokens      int
	MaxBodyChars   int // article text beyond this is cut before prompting
	SystemTemplate string
	BaseURL        string     // Ollama server URL
	LLM            llms.Model // overrides Model/BaseURL when set
}

// Summarizer writes short briefs of articles for the detail view.
type Summarizer struct {
	config SummarizerConfig
	llm    llms.Model
}

// NewSummarizerWithConfig creates a Summarizer backed by Ollama unless
// config.LLM is set.
func NewSummarizerWithConfig(config SummarizerConfig) (*Summarizer, error) {
	if config.Model == "" {
		config.Model = "mistral" // Default Ollama model
	}
	if config.Temperature < 0 || config.Temperature > 1 {
		return nil, fmt.Errorf("temperature must be between 0 and 1")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 400
	}
	if config.MaxBodyChars == 0 {
		config.MaxBodyChars = 6000
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = "You are a news editor. Summarize the article in 2-3 plain sentences. Use only facts from the article."
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434" // Default Ollama URL
	}

	model := config.LLM
	if model == nil {
		var err error
		model, err = ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM: %w", err)
		}
	}

	return &Summarizer{
		config: config,
		llm:    model,
	}, nil
}

// Summarize returns a brief of article. body is the full page text and may
// be empty, in which case the article's own content is used.
func (s *Summarizer) Summarize(ctx context.Context, article models.NormalizedArticle, body string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, s.config.SystemTemplate),
		llms.TextParts(schema.ChatMessageTypeHuman, s.prompt(article, body)),
	}

	resp, err := s.llm.GenerateContent(ctx, content,
		llms.WithMaxTokens(s.config.MaxTokens),
		llms.WithTemperature(s.config.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("summarize error: %w", err)
	}

	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return "", fmt.Errorf("summarize error: no response from LLM")
	}

	return strings.TrimSpace(resp.Choices[0].Content), nil
}

func (s *Summarizer) prompt(article models.NormalizedArticle, body string) string {
	if strings.TrimSpace(body) == "" {
		body = article.Content
	}
	if runes := []rune(body); len(runes) > s.config.MaxBodyChars {
		body = string(runes[:s.config.MaxBodyChars])
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", article.Title)
	if article.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", article.Source)
	}
	if article.PublishedAt != "" {
		fmt.Fprintf(&b, "Published: %s\n", article.PublishedAt)
	}
	fmt.Fprintf(&b, "Description: %s\n\nArticle:\n%s", article.Description, body)
	return b.String()
}
