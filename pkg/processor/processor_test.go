package processor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/topicnews/internal/models"
)

func TestProcessShortArticle(t *testing.T) {
	p := NewWithConfig(ProcessorConfig{})

	article := models.NormalizedArticle{
		Title:       "AI chips",
		Description: "No description available",
		Content:     "No description available",
	}

	chunks := p.Process([]models.NormalizedArticle{article})

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "AI chips. No description available", chunks[0].Text)
	assert.Equal(t, article, chunks[0].Article)
}

func TestProcessSplitsLongContent(t *testing.T) {
	p := NewWithConfig(ProcessorConfig{
		ChunkSize:      60,
		ChunkOverlap:   10,
		MinChunkLength: 10,
	})

	sentence := "The market moved sharply today."
	article := models.NormalizedArticle{
		Title:       "Markets",
		Description: "Stocks fell.",
		Content:     strings.Repeat(sentence+"   ", 6),
	}

	chunks := p.Process([]models.NormalizedArticle{article})

	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.NotContains(t, c.Text, "  ")
		assert.LessOrEqual(t, len(c.Text), 60+len(sentence))
	}
	assert.True(t, strings.HasPrefix(chunks[0].Text, "Markets. Stocks fell."))
}

func TestSplitIntoSentences(t *testing.T) {
	p := NewWithConfig(ProcessorConfig{})

	got := p.splitIntoSentences("Version 2.0 shipped. Is it fast? Yes! trailing")
	assert.Equal(t, []string{"Version 2.0 shipped.", "Is it fast?", "Yes!", "trailing"}, got)
}

func TestNewWithConfigClampsOverlap(t *testing.T) {
	p := NewWithConfig(ProcessorConfig{ChunkSize: 100, ChunkOverlap: 150})
	assert.Equal(t, 20, p.config.ChunkOverlap)
}

func TestArticleText(t *testing.T) {
	assert.Equal(t, "T. D. C", ArticleText(models.NormalizedArticle{Title: "T", Description: "D", Content: "C"}))
	assert.Equal(t, "T. D", ArticleText(models.NormalizedArticle{Title: "T", Description: "D", Content: "D"}))
}
