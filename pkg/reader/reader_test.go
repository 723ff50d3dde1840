package reader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveHTML(t *testing.T, status int, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(status)
		w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestReaderConfig(t *testing.T) {
	config := ReaderConfig{
		RateLimit: 1.0,
		Timeout:   10 * time.Second,
		UserAgent: "test-agent",
	}

	r, err := NewWithConfig(config)
	require.NoError(t, err)
	assert.Equal(t, "test-agent", r.config.UserAgent)
	assert.Equal(t, defaultNoise, r.config.NoisePatterns)

	_, err = NewWithConfig(ReaderConfig{RateLimit: -1})
	assert.Error(t, err)
}

func TestReadArticle(t *testing.T) {
	server := serveHTML(t, http.StatusOK, `
		<html>
			<head>
				<title>Fallback Title</title>
				<meta property="og:title" content="AI Breakthrough Announced">
				<meta property="og:image" content="/img/lead.jpg">
			</head>
			<body>
				<nav><p>Home | World | Tech</p></nav>
				<article>
					<h1>AI Breakthrough Announced</h1>
					<p>Researchers   unveiled a new model.</p>
					<p>Advertisement</p>
					<p>It runs on a laptop.</p>
				</article>
				<footer><p>Privacy Policy</p></footer>
				<script>var tracking = true;</script>
			</body>
		</html>
	`)

	page, err := New().Read(context.Background(), server.URL+"/story")
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/story", page.URL)
	assert.Equal(t, "AI Breakthrough Announced", page.Title)
	assert.Equal(t, server.URL+"/img/lead.jpg", page.ImageURL)
	assert.Equal(t, "Researchers unveiled a new model.\n\nIt runs on a laptop.", page.Body)
	assert.Equal(t, "text/html", page.Metadata["contentType"])
	assert.NotContains(t, page.Body, "Home")
	assert.NotContains(t, page.Body, "tracking")
}

func TestReadFallsBackToParagraphs(t *testing.T) {
	server := serveHTML(t, http.StatusOK, `
		<html><head><title> Plain Page </title></head>
		<body><div><p>First paragraph.</p><p>Second paragraph.</p></div></body></html>
	`)

	page, err := New().Read(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "Plain Page", page.Title)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", page.Body)
	assert.Empty(t, page.ImageURL)
}

func TestReadErrors(t *testing.T) {
	server := serveHTML(t, http.StatusNotFound, "<html></html>")

	_, err := New().Read(context.Background(), server.URL)
	assert.Error(t, err)

	_, err = New().Read(context.Background(), "ftp://example.com/file")
	assert.Error(t, err)

	_, err = New().Read(context.Background(), "not a url")
	assert.Error(t, err)
}
