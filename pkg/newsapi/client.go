// Package newsapi fetches candidate articles for a topic from NewsAPI.
package newsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xhad/topicnews/internal/models"
	"golang.org/x/time/rate"
)

type ClientConfig struct {
	BaseURL       string
	APIKey        string
	Language      string
	MaxCandidates int     // page size requested per fetch
	RateLimit     float64 // requests per second
	Timeout       time.Duration
	HTTPClient    *http.Client
}

type Client struct {
	config  ClientConfig
	client  *http.Client
	limiter *rate.Limiter
}

// APIError is returned when NewsAPI answers with a non-2xx status or an
// "error" status body.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("news API error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("news API error: status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

type response struct {
	Status       string       `json:"status"`
	Code         string       `json:"code"`
	Message      string       `json:"message"`
	TotalResults int          `json:"totalResults"`
	Articles     []apiArticle `json:"articles"`
}

type apiArticle struct {
	Source struct {
		ID   *string `json:"id"`
		Name string  `json:"name"`
	} `json:"source"`
	Author      *string `json:"author"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	URL         string  `json:"url"`
	URLToImage  *string `json:"urlToImage"`
	PublishedAt string  `json:"publishedAt"`
	Content     *string `json:"content"`
}

func NewWithConfig(config ClientConfig) (*Client, error) {
	if config.BaseURL == "" {
		config.BaseURL = "https://newsapi.org/v2"
	}
	if config.Language == "" {
		config.Language = "en"
	}
	if config.MaxCandidates == 0 {
		config.MaxCandidates = 50
	}
	if config.MaxCandidates < 0 || config.MaxCandidates > 100 {
		return nil, fmt.Errorf("max candidates must be between 1 and 100")
	}
	if config.RateLimit == 0 {
		config.RateLimit = 1
	}
	if config.Timeout == 0 {
		config.Timeout = 15 * time.Second
	}

	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}, nil
}

// Fetch retrieves one page of candidate articles for topic, newest first.
// Errors are returned as-is to the caller; there are no retries.
func (c *Client) Fetch(ctx context.Context, topic string) ([]models.RawArticle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(topic), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var payload response
	if err := json.Unmarshal(body, &payload); err != nil {
		if resp.StatusCode/100 != 2 {
			return nil, &APIError{StatusCode: resp.StatusCode}
		}
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode/100 != 2 || payload.Status != "ok" {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Code:       payload.Code,
			Message:    payload.Message,
		}
	}

	articles := make([]models.RawArticle, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		articles = append(articles, a.toRaw())
	}

	return articles, nil
}

// requestURL picks the endpoint for topic. "tech" maps to the technology
// headlines category; everything else is a keyword search.
func (c *Client) requestURL(topic string) string {
	params := url.Values{}
	params.Set("language", c.config.Language)
	params.Set("pageSize", strconv.Itoa(c.config.MaxCandidates))
	params.Set("apiKey", c.config.APIKey)

	endpoint := "/everything"
	if strings.EqualFold(strings.TrimSpace(topic), "tech") {
		endpoint = "/top-headlines"
		params.Set("category", "technology")
	} else {
		params.Set("q", topic)
		params.Set("sortBy", "publishedAt")
	}

	return c.config.BaseURL + endpoint + "?" + params.Encode()
}

func (a apiArticle) toRaw() models.RawArticle {
	return models.RawArticle{
		Title:       a.Title,
		Description: a.Description,
		Content:     a.Content,
		Author:      a.Author,
		PublishedAt: a.PublishedAt,
		SourceName:  a.Source.Name,
		URL:         a.URL,
		ImageURL:    a.URLToImage,
	}
}
