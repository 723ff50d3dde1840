package types

import (
	"context"

	"github.com/xhad/topicnews/internal/models"
)

// Core interfaces
type Fetcher interface {
	Fetch(ctx context.Context, topic string) ([]models.RawArticle, error)
}

type Archiver interface {
	Archive(ctx context.Context, topic string, articles []models.NormalizedArticle) error
}

type ArticleSearcher interface {
	Related(ctx context.Context, query string, limit int) ([]models.ArchivedArticle, error)
}

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

type PageReader interface {
	Read(ctx context.Context, url string) (*models.ArticlePage, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, article models.NormalizedArticle, body string) (string, error)
}

type NewsLoader interface {
	Load(ctx context.Context, topic string) ([]models.NormalizedArticle, error)
}
