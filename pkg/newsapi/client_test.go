package newsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{
  "status": "ok",
  "totalResults": 2,
  "articles": [
    {
      "source": {"id": null, "name": "The Verge"},
      "author": "Jane Doe",
      "title": "AI breakthrough announced",
      "description": null,
      "url": "https://example.com/ai",
      "urlToImage": "https://example.com/ai.jpg",
      "publishedAt": "2024-01-15T10:30:00Z",
      "content": "Full text [+1200 chars]"
    },
    {
      "source": {"id": "bbc", "name": "BBC"},
      "title": "Second story",
      "url": "https://example.com/second",
      "publishedAt": "2024-01-15T09:00:00Z"
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewWithConfig(ClientConfig{
		BaseURL:   server.URL + "/v2/",
		APIKey:    "secret",
		RateLimit: 100,
	})
	require.NoError(t, err)
	return c
}

func TestFetchEverything(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	var gotKey string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(okBody))
	})

	articles, err := c.Fetch(context.Background(), "machine learning")
	require.NoError(t, err)

	assert.Equal(t, "/v2/everything", gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "machine learning", gotQuery["q"])
	assert.Equal(t, "publishedAt", gotQuery["sortBy"])
	assert.Equal(t, "en", gotQuery["language"])
	assert.Equal(t, "50", gotQuery["pageSize"])
	assert.Equal(t, "secret", gotQuery["apiKey"])

	require.Len(t, articles, 2)
	first := articles[0]
	require.NotNil(t, first.Title)
	assert.Equal(t, "AI breakthrough announced", *first.Title)
	assert.Nil(t, first.Description)
	require.NotNil(t, first.Content)
	assert.Equal(t, "The Verge", first.SourceName)
	require.NotNil(t, first.ImageURL)
	assert.Equal(t, "https://example.com/ai.jpg", *first.ImageURL)
	assert.Equal(t, "2024-01-15T10:30:00Z", first.PublishedAt)

	second := articles[1]
	assert.Nil(t, second.Content)
	assert.Nil(t, second.ImageURL)
	assert.Nil(t, second.Author)
}

func TestFetchTechUsesHeadlines(t *testing.T) {
	var gotPath, gotCategory, gotQ string

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCategory = r.URL.Query().Get("category")
		gotQ = r.URL.Query().Get("q")
		w.Write([]byte(`{"status":"ok","articles":[]}`))
	})

	articles, err := c.Fetch(context.Background(), " TeCh ")
	require.NoError(t, err)
	assert.Empty(t, articles)
	assert.NotNil(t, articles)
	assert.Equal(t, "/v2/top-headlines", gotPath)
	assert.Equal(t, "technology", gotCategory)
	assert.Empty(t, gotQ)
}

func TestFetchAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid."}`))
	})

	_, err := c.Fetch(context.Background(), "AI")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "apiKeyInvalid", apiErr.Code)
	assert.Contains(t, err.Error(), "Your API key is invalid.")
}

func TestFetchErrorStatusInOKResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","code":"rateLimited","message":"slow down"}`))
	})

	_, err := c.Fetch(context.Background(), "AI")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "rateLimited", apiErr.Code)
}

func TestFetchNonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := c.Fetch(context.Background(), "AI")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestFetchCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","articles":[]}`))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, "AI")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewWithConfig(t *testing.T) {
	c, err := NewWithConfig(ClientConfig{MaxCandidates: 20})
	require.NoError(t, err)
	assert.Equal(t, "https://newsapi.org/v2", c.config.BaseURL)
	assert.Equal(t, 20, c.config.MaxCandidates)

	_, err = NewWithConfig(ClientConfig{MaxCandidates: 500})
	assert.Error(t, err)
}
