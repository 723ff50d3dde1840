// Package relevance decides which raw articles are about a topic and turns
// the survivors into display-ready records. Everything here is pure: no I/O,
// no shared state, safe to call from any number of goroutines.
package relevance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/xhad/topicnews/internal/models"
)

const (
	DefaultThreshold  = 0.7
	DefaultMaxResults = 10

	NoTitle       = "No title available"
	NoDescription = "No description available"
	NoContent     = "No content available"
	UnknownDate   = "Unknown date"

	dateLayout = "1/2/2006"
)

type Config struct {
	Threshold  *float64 // minimum topic word coverage, in [0,1]; nil means DefaultThreshold
	MaxResults int
	Location   *time.Location // zone used to render publication dates
}

type Filter struct {
	config    Config
	threshold float64
}

// Score explains why an article was or was not judged relevant. Matched
// holds distinct topic words; Words counts every topic word, repeats included.
type Score struct {
	PhraseMatch bool
	Matched     []string
	Words       int
	Coverage    float64
}

// topicTerms is a topic prepared for matching.
type topicTerms struct {
	phrase string
	words  []string // distinct, in first-seen order
	total  int
}

func NewWithConfig(config Config) (*Filter, error) {
	threshold := DefaultThreshold
	if config.Threshold != nil {
		threshold = *config.Threshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("threshold must be between 0 and 1, got %v", threshold)
	}
	config.Threshold = &threshold
	if config.MaxResults < 0 {
		return nil, fmt.Errorf("max results cannot be negative")
	} else if config.MaxResults == 0 {
		config.MaxResults = DefaultMaxResults
	}
	if config.Location == nil {
		config.Location = time.Local
	}

	return &Filter{config: config, threshold: threshold}, nil
}

func New() *Filter {
	f, _ := NewWithConfig(Config{})
	return f
}

func (f *Filter) Config() Config {
	return f.config
}

func (f *Filter) Threshold() float64 {
	return f.threshold
}

// Apply keeps the articles relevant to topic, in input order, capped at
// MaxResults, and normalizes them. The result is never nil.
func (f *Filter) Apply(topic string, raw []models.RawArticle) []models.NormalizedArticle {
	result := make([]models.NormalizedArticle, 0, min(len(raw), f.config.MaxResults))

	terms := prepareTopic(topic)
	if terms.total == 0 {
		return result
	}

	for _, article := range raw {
		if len(result) == f.config.MaxResults {
			break
		}
		if f.score(terms, article).relevant(f.threshold) {
			result = append(result, Normalize(len(result), article, f.config.Location))
		}
	}

	return result
}

func (f *Filter) IsRelevant(topic string, article models.RawArticle) bool {
	return f.Score(topic, article).relevant(f.threshold)
}

func (f *Filter) Score(topic string, article models.RawArticle) Score {
	terms := prepareTopic(topic)
	if terms.total == 0 {
		return Score{}
	}
	return f.score(terms, article)
}

func (f *Filter) score(terms topicTerms, article models.RawArticle) Score {
	text := normalizeText(comparisonText(article))

	if strings.Contains(text, terms.phrase) {
		return Score{PhraseMatch: true, Matched: terms.words, Words: terms.total, Coverage: 1}
	}

	var matched []string
	for _, word := range terms.words {
		if strings.Contains(text, word) {
			matched = append(matched, word)
		}
	}

	return Score{
		Matched:  matched,
		Words:    terms.total,
		Coverage: float64(len(matched)) / float64(terms.total),
	}
}

func (s Score) relevant(threshold float64) bool {
	if s.Words == 0 {
		return false
	}
	return s.PhraseMatch || s.Coverage >= threshold
}

// prepareTopic normalizes topic. A repeated word is matched once but still
// counts toward the total.
func prepareTopic(topic string) topicTerms {
	terms := topicTerms{phrase: normalizeText(topic)}

	seen := make(map[string]bool)
	for _, word := range strings.Fields(terms.phrase) {
		terms.total++
		if !seen[word] {
			seen[word] = true
			terms.words = append(terms.words, word)
		}
	}

	return terms
}

func comparisonText(article models.RawArticle) string {
	var parts []string
	for _, field := range []*string{article.Title, article.Description, article.Content} {
		if field != nil && *field != "" {
			parts = append(parts, *field)
		}
	}
	return strings.Join(parts, " ")
}

// normalizeText lowercases s and keeps only ASCII letters, digits and
// whitespace. Non-ASCII runes are dropped, not folded.
func normalizeText(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n', r == '\r', r == '\v', r == '\f':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Normalize builds the display record for an article at position idx of an
// output list.
func Normalize(idx int, article models.RawArticle, loc *time.Location) models.NormalizedArticle {
	return models.NormalizedArticle{
		ID:          strconv.Itoa(idx),
		Title:       valueOr(article.Title, NoTitle),
		Description: valueOr(article.Description, NoDescription),
		Content:     valueOr(article.Content, valueOr(article.Description, NoContent)),
		Source:      article.SourceName,
		PublishedAt: FormatDate(article.PublishedAt, loc),
		URL:         article.URL,
		ImageURL:    valueOr(article.ImageURL, ""),
	}
}

// FormatDate renders a source timestamp as a short date in loc. Anything
// that does not parse, or parses without a year, becomes UnknownDate.
func FormatDate(raw string, loc *time.Location) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return UnknownDate
	}
	if loc == nil {
		loc = time.Local
	}

	t, err := dateparse.ParseIn(raw, loc)
	if err != nil || t.Year() == 0 {
		return UnknownDate
	}
	return t.In(loc).Format(dateLayout)
}

func valueOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
