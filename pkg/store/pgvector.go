package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/xhad/topicnews/internal/models"
	"github.com/xhad/topicnews/internal/types"
	"github.com/xhad/topicnews/pkg/processor"
)

type StoreConfig struct {
	ConnString  string
	TablePrefix string
	VectorDim   int
	SearchLimit int
	Embedder    types.Embedder // required for Archive and Related
	Processor   processor.ProcessorConfig
}

type Store struct {
	config    StoreConfig
	pool      *pgxpool.Pool
	processor processor.Processor
}

var validPrefix = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func NewWithConfig(ctx context.Context, config StoreConfig) (*Store, error) {
	if config.TablePrefix == "" {
		config.TablePrefix = "topicnews_"
	}
	if !validPrefix.MatchString(config.TablePrefix) {
		return nil, fmt.Errorf("invalid table prefix: %q", config.TablePrefix)
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768 // nomic-embed-text
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{
		config:    config,
		pool:      pool,
		processor: processor.NewWithConfig(config.Processor),
	}

	if err := s.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) topicsTable() string   { return s.config.TablePrefix + "topics" }
func (s *Store) articlesTable() string { return s.config.TablePrefix + "articles" }

func (s *Store) initialize(ctx context.Context) error {
	// Enable pgvector extension
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTopics := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			selected BOOLEAN NOT NULL DEFAULT FALSE
		)`, s.topicsTable())

	if _, err := s.pool.Exec(ctx, createTopics); err != nil {
		return fmt.Errorf("failed to create topics table: %w", err)
	}

	createArticles := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			topic TEXT NOT NULL,
			title TEXT,
			source TEXT,
			published TEXT,
			chunk_index INTEGER,
			content TEXT,
			embedding vector(%d),
			archived_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.articlesTable(), s.config.VectorDim)

	if _, err := s.pool.Exec(ctx, createArticles); err != nil {
		return fmt.Errorf("failed to create articles table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING hnsw (embedding vector_cosine_ops)`,
		s.articlesTable(), s.articlesTable())

	if _, err := s.pool.Exec(ctx, createIndex); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

// Archive chunks and embeds articles and upserts them keyed by URL and
// chunk index. Articles without a URL are skipped.
func (s *Store) Archive(ctx context.Context, topic string, articles []models.NormalizedArticle) error {
	if s.config.Embedder == nil {
		return fmt.Errorf("archive requires an embedder")
	}

	var keep []models.NormalizedArticle
	for _, a := range articles {
		if a.URL != "" {
			keep = append(keep, a)
		}
	}
	chunks := s.processor.Process(keep)
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = sanitizeUTF8(c.Text)
	}

	vectors, err := s.config.Embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, url, topic, title, source, published, chunk_index, content, embedding, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			topic = EXCLUDED.topic,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			archived_at = EXCLUDED.archived_at`,
		s.articlesTable())

	now := time.Now().UTC()
	for i, c := range chunks {
		_, err := tx.Exec(ctx, stmt,
			fmt.Sprintf("%s#%d", c.Article.URL, c.Index),
			c.Article.URL,
			topic,
			sanitizeUTF8(c.Article.Title),
			c.Article.Source,
			c.Article.PublishedAt,
			c.Index,
			texts[i],
			pgvector.NewVector(vectors[i]),
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert article: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Related returns archived articles closest to query, one row per URL.
func (s *Store) Related(ctx context.Context, query string, limit int) ([]models.ArchivedArticle, error) {
	if s.config.Embedder == nil {
		return nil, fmt.Errorf("related search requires an embedder")
	}
	if limit <= 0 {
		limit = s.config.SearchLimit
	}

	vector, err := s.config.Embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf(`
		SELECT url, title, source, topic, content, archived_at, distance
		FROM (
			SELECT DISTINCT ON (url) url, title, source, topic, content, archived_at,
				embedding <=> $1 AS distance
			FROM %s
			ORDER BY url, embedding <=> $1
		) best
		ORDER BY distance
		LIMIT $2`,
		s.articlesTable())

	rows, err := s.pool.Query(ctx, sql, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var result []models.ArchivedArticle
	for rows.Next() {
		var a models.ArchivedArticle
		if err := rows.Scan(&a.URL, &a.Title, &a.Source, &a.Topic, &a.Snippet, &a.ArchivedAt, &a.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		result = append(result, a)
	}

	return result, rows.Err()
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}
