package main

import (
	"context"
	"fmt"
	"time"

	cfgPkg "github.com/xhad/topicnews/pkg/config"
	"github.com/xhad/topicnews/pkg/llm"
	"github.com/xhad/topicnews/pkg/logging"
	"github.com/xhad/topicnews/pkg/news"
	"github.com/xhad/topicnews/pkg/newsapi"
	"github.com/xhad/topicnews/pkg/processor"
	"github.com/xhad/topicnews/pkg/reader"
	"github.com/xhad/topicnews/pkg/relevance"
	"github.com/xhad/topicnews/pkg/store"
	"github.com/xhad/topicnews/pkg/topics"
)

// app holds the components built from one configuration. Optional parts
// are nil when their backing service is not configured.
type app struct {
	cfg    *cfgPkg.Config
	client *newsapi.Client
	filter *relevance.Filter
	news   *news.Service
	topics *topics.Manager
	store  *store.Store
}

func newApp(ctx context.Context, cfg *cfgPkg.Config) (*app, error) {
	filter, err := relevance.NewWithConfig(relevance.Config{
		Threshold:  cfg.News.RelevanceThreshold,
		MaxResults: cfg.News.MaxResults,
		Location:   cfg.Location(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize filter: %w", err)
	}

	client, err := newsapi.NewWithConfig(newsapi.ClientConfig{
		BaseURL:       cfg.News.BaseURL,
		APIKey:        cfg.News.APIKey,
		Language:      cfg.News.Language,
		MaxCandidates: cfg.News.MaxCandidates,
		RateLimit:     cfg.News.RateLimit,
		Timeout:       time.Duration(cfg.News.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize news client: %w", err)
	}

	a := &app{cfg: cfg, client: client, filter: filter}

	fallback := topics.State{Topics: cfg.Topics.Defaults, Selected: cfg.Topics.Selected}
	if cfg.Database.URL != "" {
		if err := a.openStore(ctx); err != nil {
			return nil, err
		}
		a.topics, err = topics.Open(ctx, a.store, fallback)
		if err != nil {
			a.Close()
			return nil, err
		}
	} else {
		logging.Debug("no database configured, topics are not persisted")
		a.topics = topics.NewManager(fallback, nil)
	}

	svc := news.ServiceConfig{Fetcher: client, Filter: filter, Logger: logging.WithPrefix("news")}
	if a.store != nil && cfg.Database.Archive {
		svc.Archiver = a.store
	}
	a.news, err = news.NewWithConfig(svc)
	if err != nil {
		a.Close()
		return nil, err
	}

	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   a.cfg.LLM.EmbeddingModel,
		BaseURL: a.cfg.LLM.BaseURL,
	})
	if err != nil {
		return err
	}

	a.store, err = store.NewWithConfig(ctx, store.StoreConfig{
		ConnString:  a.cfg.Database.URL,
		TablePrefix: a.cfg.Database.TablePrefix,
		VectorDim:   a.cfg.Database.VectorDim,
		Embedder:    embedder,
		Processor: processor.ProcessorConfig{
			ChunkSize:    a.cfg.Processor.ChunkSize,
			ChunkOverlap: a.cfg.Processor.ChunkOverlap,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	return nil
}

func (a *app) reader() (*reader.Reader, error) {
	return reader.NewWithConfig(reader.ReaderConfig{
		RateLimit:     a.cfg.Reader.RateLimit,
		Timeout:       time.Duration(a.cfg.Reader.TimeoutSeconds) * time.Second,
		UserAgent:     a.cfg.Reader.UserAgent,
		NoisePatterns: a.cfg.Reader.NoisePatterns,
	})
}

func (a *app) summarizer() (*llm.Summarizer, error) {
	return llm.NewSummarizerWithConfig(llm.SummarizerConfig{
		Model:       a.cfg.LLM.Model,
		Temperature: a.cfg.LLM.Temperature,
		MaxTokens:   a.cfg.LLM.MaxTokens,
		BaseURL:     a.cfg.LLM.BaseURL,
	})
}

func (a *app) Close() {
	if a.news != nil {
		a.news.Wait()
	}
	if a.store != nil {
		a.store.Close()
	}
	logging.Close()
}
