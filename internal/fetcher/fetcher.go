// Package fetcher retrieves web pages and extracts their readable text.
package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

const (
	// DefaultTimeout bounds a single fetch, including redirects.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBytes caps how much of a response body is read.
	DefaultMaxBytes = 5 * 1024 * 1024

	defaultUserAgent = "classify/1.0 (+content-classifier)"
)

// Client fetches links for classification. It is safe for concurrent use.
type Client struct {
	http      *http.Client
	userAgent string
	maxBytes  int64
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Client) { f.http = c }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Client) { f.userAgent = ua }
}

// WithMaxBytes caps the number of body bytes read per response.
func WithMaxBytes(n int64) Option {
	return func(f *Client) { f.maxBytes = n }
}

// New creates a fetcher with a DefaultTimeout HTTP client.
func New(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: DefaultTimeout},
		userAgent: defaultUserAgent,
		maxBytes:  DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads rawURL and returns its main text. HTML pages go through
// readability extraction, falling back to a plain walk of the text nodes when
// readability finds no article. text/plain bodies are returned as is.
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme: %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid URL: missing host")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9,*/*;q=0.5")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, u.Redacted())
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	var text string
	switch {
	case mediaType == "text/plain":
		text = strings.TrimSpace(string(body))
	case mediaType == "" || mediaType == "text/html" || mediaType == "application/xhtml+xml":
		text = extractArticle(body, u)
	default:
		return "", fmt.Errorf("unsupported content type: %s", mediaType)
	}

	if text == "" {
		return "", fmt.Errorf("no text content found")
	}
	return text, nil
}

// extractArticle runs readability over the page and falls back to
// extractText when no article is found.
func extractArticle(body []byte, pageURL *url.URL) string {
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err == nil {
		if text := collapseWhitespace(article.TextContent); text != "" {
			return text
		}
	}
	return extractText(body)
}

// skipTags are elements whose text is never content.
var skipTags = map[string]bool{
	"script": true, "style": true, "nav": true,
	"header": true, "footer": true, "aside": true,
	"noscript": true, "iframe": true, "template": true,
}

// extractText parses HTML and returns the concatenated text nodes.
func extractText(body []byte) string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipTags[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return collapseWhitespace(sb.String())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
