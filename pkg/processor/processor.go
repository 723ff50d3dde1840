package processor

import (
	"strings"

	"github.com/xhad/topicnews/internal/models"
)

type ProcessorConfig struct {
	ChunkSize      int
	ChunkOverlap   int
	MinChunkLength int
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1000
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 200
	}
	if config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = config.ChunkSize / 5
	}
	if config.MinChunkLength == 0 {
		config.MinChunkLength = 20
	}

	return Processor{
		config: config,
	}
}

// Process splits each article's text into chunks for embedding. Every
// article yields at least one chunk, even when its text is short.
func (p *Processor) Process(articles []models.NormalizedArticle) []models.ArticleChunk {
	var chunks []models.ArticleChunk

	for _, article := range articles {
		text := p.cleanText(ArticleText(article))
		parts := p.splitIntoChunks(text)
		if len(parts) == 0 && text != "" {
			parts = []string{text}
		}

		for i, part := range parts {
			chunks = append(chunks, models.ArticleChunk{
				Article: article,
				Index:   i,
				Text:    part,
			})
		}
	}

	return chunks
}

// ArticleText is the text that represents an article in the archive.
func ArticleText(article models.NormalizedArticle) string {
	parts := []string{article.Title}
	if article.Description != article.Content {
		parts = append(parts, article.Description)
	}
	parts = append(parts, article.Content)
	return strings.Join(parts, ". ")
}

func (p *Processor) cleanText(text string) string {
	// Replace multiple spaces with single space
	return strings.TrimSpace(strings.Join(strings.Fields(text), " "))
}

func (p *Processor) splitIntoChunks(text string) []string {
	var chunks []string

	// Split by sentences first
	sentences := p.splitIntoSentences(text)

	currentChunk := strings.Builder{}

	for _, sentence := range sentences {
		// If adding this sentence would exceed chunk size
		if currentChunk.Len() > 0 && currentChunk.Len()+len(sentence) > p.config.ChunkSize {
			// Save current chunk if it meets minimum length
			if currentChunk.Len() >= p.config.MinChunkLength {
				chunks = append(chunks, strings.TrimSpace(currentChunk.String()))
			}

			// Start new chunk with overlap
			if p.config.ChunkOverlap > 0 && currentChunk.Len() > p.config.ChunkOverlap {
				text := currentChunk.String()
				lastPart := text[len(text)-p.config.ChunkOverlap:]
				currentChunk.Reset()
				currentChunk.WriteString(strings.ToValidUTF8(lastPart, ""))
			} else {
				currentChunk.Reset()
			}
		}

		currentChunk.WriteString(sentence)
		currentChunk.WriteString(" ")
	}

	// Add the last chunk if it meets minimum length
	if currentChunk.Len() >= p.config.MinChunkLength {
		chunks = append(chunks, strings.TrimSpace(currentChunk.String()))
	}

	return chunks
}

func (p *Processor) splitIntoSentences(text string) []string {
	var sentences []string

	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == len(text) || text[i+1] == ' ' {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					sentences = append(sentences, s)
				}
				start = i + 1
			}
		}
	}

	// Add any remaining text
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
