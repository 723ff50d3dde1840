package reader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/xhad/topicnews/internal/models"
	"golang.org/x/time/rate"
)

type ReaderConfig struct {
	RateLimit     float64 // requests per second
	Timeout       time.Duration
	UserAgent     string
	NoisePatterns []string
	HTTPClient    *http.Client
}

type Reader struct {
	config  ReaderConfig
	client  *http.Client
	limiter *rate.Limiter
}

var defaultNoise = []string{
	"Cookie Policy",
	"Accept Cookies",
	"Privacy Policy",
	"Terms of Service",
	"Subscribe to our newsletter",
	"Advertisement",
}

// Selectors tried in order for the article body.
var bodySelectors = []string{
	"[itemprop=articleBody]",
	"article",
	".article-body",
	"main",
	"#content",
	".content",
}

func NewWithConfig(config ReaderConfig) (*Reader, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}
	if config.RateLimit < 0 {
		return nil, fmt.Errorf("rate limit cannot be negative")
	}
	if config.UserAgent == "" {
		config.UserAgent = "topicnews/0.1"
	}
	if len(config.NoisePatterns) == 0 {
		config.NoisePatterns = defaultNoise
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: config.Timeout}
	}

	return &Reader{
		config:  config,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}, nil
}

func New() *Reader {
	r, _ := NewWithConfig(ReaderConfig{})
	return r
}

// Read downloads an article page and extracts its readable text.
func (r *Reader) Read(ctx context.Context, pageURL string) (*models.ArticlePage, error) {
	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("invalid article URL: %q", pageURL)
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", r.config.UserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse article: %w", err)
	}

	title := strings.TrimSpace(doc.Find("meta[property='og:title']").AttrOr("content", ""))
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	image := doc.Find("meta[property='og:image']").AttrOr("content", "")
	if image != "" {
		if ref, err := url.Parse(image); err == nil {
			image = parsed.ResolveReference(ref).String()
		}
	}

	return &models.ArticlePage{
		URL:      pageURL,
		Title:    title,
		Body:     r.extractBody(doc),
		ImageURL: image,
		Metadata: map[string]string{
			"contentType":  resp.Header.Get("Content-Type"),
			"lastModified": resp.Header.Get("Last-Modified"),
			"fetchedAt":    time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}

func (r *Reader) extractBody(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, header, footer, aside, form").Remove()

	var content string
	for _, selector := range bodySelectors {
		if selected := doc.Find(selector).First(); selected.Length() > 0 {
			content = paragraphs(selected)
			if content == "" {
				content = selected.Text()
			}
			if strings.TrimSpace(content) != "" {
				break
			}
		}
	}

	// Fallback to every paragraph on the page
	if strings.TrimSpace(content) == "" {
		content = paragraphs(doc.Selection)
	}
	if strings.TrimSpace(content) == "" {
		content = doc.Find("body").Text()
	}

	return r.cleanContent(content)
}

func paragraphs(sel *goquery.Selection) string {
	var parts []string
	sel.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

func (r *Reader) cleanContent(content string) string {
	for _, pattern := range r.config.NoisePatterns {
		content = strings.ReplaceAll(content, pattern, "")
	}

	// Collapse whitespace inside paragraphs, keep paragraph breaks
	blocks := strings.Split(content, "\n\n")
	cleaned := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if text := strings.Join(strings.Fields(block), " "); text != "" {
			cleaned = append(cleaned, text)
		}
	}

	return strings.Join(cleaned, "\n\n")
}
