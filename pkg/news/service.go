// Package news wires the fetch collaborator to the relevance filter.
package news

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/xhad/topicnews/internal/models"
	"github.com/xhad/topicnews/internal/types"
	"github.com/xhad/topicnews/pkg/logging"
	"github.com/xhad/topicnews/pkg/relevance"
)

type ServiceConfig struct {
	Fetcher  types.Fetcher
	Filter   *relevance.Filter
	Archiver types.Archiver // optional
	Logger   *log.Logger

	// ArchiveTimeout bounds one background archive run. Default 30s.
	ArchiveTimeout time.Duration
}

type Service struct {
	config   ServiceConfig
	log      *log.Logger
	archives sync.WaitGroup
}

func NewWithConfig(config ServiceConfig) (*Service, error) {
	if config.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if config.Filter == nil {
		config.Filter = relevance.New()
	}
	if config.ArchiveTimeout == 0 {
		config.ArchiveTimeout = 30 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.WithPrefix("news")
	}

	return &Service{config: config, log: logger}, nil
}

// Load fetches candidates for topic and returns the relevant ones, ready for
// display. A fetch failure is returned with its identity intact.
func (s *Service) Load(ctx context.Context, topic string) ([]models.NormalizedArticle, error) {
	raw, err := s.config.Fetcher.Fetch(ctx, topic)
	if err != nil {
		s.log.Error("fetch failed", "topic", topic, "err", err)
		return nil, fmt.Errorf("fetch %q: %w", topic, err)
	}

	articles := s.config.Filter.Apply(topic, raw)
	s.log.Debug("filtered", "topic", topic, "candidates", len(raw), "kept", len(articles))

	if s.config.Archiver != nil && len(articles) > 0 {
		s.archive(ctx, topic, append([]models.NormalizedArticle(nil), articles...))
	}

	return articles, nil
}

// archive runs in the background so a slow embedder or database never
// delays Load. It outlives ctx's cancellation but not ArchiveTimeout.
func (s *Service) archive(ctx context.Context, topic string, articles []models.NormalizedArticle) {
	s.archives.Add(1)
	go func() {
		defer s.archives.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ArchiveTimeout)
		defer cancel()

		if err := s.config.Archiver.Archive(ctx, topic, articles); err != nil {
			s.log.Warn("archive failed", "topic", topic, "err", err)
			return
		}
		s.log.Debug("archived", "topic", topic, "articles", len(articles))
	}()
}

// Wait blocks until background archive runs have finished.
func (s *Service) Wait() {
	s.archives.Wait()
}
