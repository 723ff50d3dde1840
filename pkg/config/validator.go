package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate News config
	if !isHTTPURL(c.News.BaseURL) {
		errors = append(errors, ValidationError{
			Field:   "news.base_url",
			Message: "invalid news API base URL",
		})
	}

	if t := c.News.RelevanceThreshold; t == nil || *t < 0 || *t > 1 {
		errors = append(errors, ValidationError{
			Field:   "news.relevance_threshold",
			Message: "relevance_threshold must be between 0 and 1",
		})
	}

	if c.News.MaxResults < 1 {
		errors = append(errors, ValidationError{
			Field:   "news.max_results",
			Message: "max_results must be positive",
		})
	}

	// The API caps a page at 100 articles.
	if c.News.MaxCandidates < c.News.MaxResults || c.News.MaxCandidates > 100 {
		errors = append(errors, ValidationError{
			Field:   "news.max_candidates",
			Message: "max_candidates must be between max_results and 100",
		})
	}

	if c.News.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "news.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	if c.News.Timezone != "" {
		if _, err := time.LoadLocation(c.News.Timezone); err != nil {
			errors = append(errors, ValidationError{
				Field:   "news.timezone",
				Message: fmt.Sprintf("unknown timezone: %s", c.News.Timezone),
			})
		}
	}

	// Validate Reader config
	if c.Reader.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "reader.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate LLM config
	if !isHTTPURL(c.LLM.BaseURL) {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid Ollama base URL",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 1 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 1",
		})
	}

	// Validate Database config
	if c.Database.URL != "" {
		if u, err := url.Parse(c.Database.URL); err != nil || !strings.HasPrefix(u.Scheme, "postgres") {
			errors = append(errors, ValidationError{
				Field:   "database.url",
				Message: "invalid database URL",
			})
		}
	}

	if c.Database.VectorDim < 1 {
		errors = append(errors, ValidationError{
			Field:   "database.vector_dim",
			Message: "vector_dim must be positive",
		})
	}

	// Validate Processor config
	if c.Processor.ChunkOverlap < 0 || c.Processor.ChunkOverlap >= c.Processor.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "processor.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("unknown log level: %s", c.Log.Level),
		})
	}

	return errors
}

// Location returns the zone used to render article dates.
func (c *Config) Location() *time.Location {
	if c.News.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.News.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
