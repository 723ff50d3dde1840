package models

import "time"

// RawArticle is a candidate article as returned by the news source.
// Optional fields are nil when the source omitted them or sent null.
type RawArticle struct {
	Title       *string
	Description *string
	Content     *string
	Author      *string
	PublishedAt string
	SourceName  string
	URL         string
	ImageURL    *string
}

// NormalizedArticle is a display-ready article. ID is the article's rank in
// the list it was returned in and is not stable across calls.
type NormalizedArticle struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Source      string `json:"source"`
	PublishedAt string `json:"publishedAt"`
	URL         string `json:"url"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// ArticlePage is the full text of an article fetched for the detail view.
type ArticlePage struct {
	URL      string            `json:"url"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	ImageURL string            `json:"imageUrl,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// ArticleChunk is a slice of article text prepared for embedding.
type ArticleChunk struct {
	Article NormalizedArticle
	Index   int
	Text    string
}

// ArchivedArticle is an article read back from the archive.
type ArchivedArticle struct {
	URL        string    `json:"url"`
	Title      string    `json:"title"`
	Source     string    `json:"source"`
	Topic      string    `json:"topic"`
	Snippet    string    `json:"snippet"`
	ArchivedAt time.Time `json:"archivedAt"`
	Distance   float64   `json:"distance"`
}

// StringPtr returns a pointer to s. Handy for building RawArticle literals.
func StringPtr(s string) *string {
	return &s
}
