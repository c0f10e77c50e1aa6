// Package fetch retrieves online resume pages and reduces them to plain text.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	// DefaultTimeout bounds one resume request, plain or rendered.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is sent with every resume request.
	DefaultUserAgent = "Mozilla/5.0 (compatible; RecruiterAgent/1.0)"
	// DefaultMaxBytes is the largest resume page accepted.
	DefaultMaxBytes = 4 << 20
	// DefaultCacheTTL is how long a fetched resume is served from cache.
	DefaultCacheTTL = 24 * time.Hour
)

var (
	// ErrResumeUnavailable means the resume link is gone or needs a login.
	ErrResumeUnavailable = errors.New("resume link expired or requires a login")
	// ErrResumeTooLarge means the page exceeded the configured size.
	ErrResumeTooLarge = errors.New("resume page too large")
	// ErrNotHTML means the link serves a document that cannot be read as a page, e.g. a PDF.
	ErrNotHTML = errors.New("resume is not an HTML page")
	// ErrEmptyResume means no text survived extraction.
	ErrEmptyResume = errors.New("resume page has no text")
)

// ResumeError reports why the resume at URL could not be read.
type ResumeError struct {
	URL    string
	Status int // HTTP status; 0 when no response arrived
	Cause  error
}

func (e *ResumeError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("resume %s: HTTP %d: %v", e.URL, e.Status, e.Cause)
	}
	return fmt.Sprintf("resume %s: %v", e.URL, e.Cause)
}

func (e *ResumeError) Unwrap() error {
	return e.Cause
}

// Page is a resume page reduced to text.
type Page struct {
	URL       string
	Text      string
	Rendered  bool // Whether the browser produced the HTML
	FetchedAt time.Time
}

// Cache stores fetched resume pages by URL.
// Get returns nil, nil on a miss.
type Cache interface {
	GetPage(ctx context.Context, url string, maxAge time.Duration) (*Page, error)
	PutPage(ctx context.Context, page *Page) error
}

// resumeSelectors locate the resume body, most specific first.
var resumeSelectors = []string{
	".resume",
	"#resume",
	".resume-content",
	".cv",
	"[data-section='resume']",
	"main",
	"article",
}

// resumeNoise is the chrome resume viewers wrap around the document.
const resumeNoise = "nav, footer, header, script, style, noscript, button, form, " +
	".resume-actions, .watermark, .recommend-jobs, .sidebar, .cookie-banner, .popup"

// ResumeFetcher fetches resume pages over HTTP and falls back to a browser
// when the plain response is a script shell.
type ResumeFetcher struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
	maxBytes  int64
	renderer  Renderer // nil disables the browser fallback
	cache     Cache    // nil disables caching
	cacheTTL  time.Duration
	verbose   bool
}

// ResumeFetcherConfig holds configuration for the resume fetcher.
type ResumeFetcherConfig struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string // e.g. the portal bearer token
	MaxBytes  int64             // Larger pages fail with ErrResumeTooLarge
	Renderer  Renderer
	Cache     Cache
	CacheTTL  time.Duration
	Verbose   bool
}

// NewResumeFetcher creates a new resume fetcher.
func NewResumeFetcher(config *ResumeFetcherConfig) *ResumeFetcher {
	if config == nil {
		config = &ResumeFetcherConfig{}
	}
	f := &ResumeFetcher{
		client:    &http.Client{Timeout: config.Timeout},
		userAgent: config.UserAgent,
		headers:   config.Headers,
		maxBytes:  config.MaxBytes,
		renderer:  config.Renderer,
		cache:     config.Cache,
		cacheTTL:  config.CacheTTL,
		verbose:   config.Verbose,
	}
	if f.client.Timeout <= 0 {
		f.client.Timeout = DefaultTimeout
	}
	if f.userAgent == "" {
		f.userAgent = DefaultUserAgent
	}
	if f.maxBytes <= 0 {
		f.maxBytes = DefaultMaxBytes
	}
	if f.cacheTTL <= 0 {
		f.cacheTTL = DefaultCacheTTL
	}
	return f
}

// Fetch returns the text of the resume at rawURL.
func (f *ResumeFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if f.cache != nil {
		cached, err := f.cache.GetPage(ctx, rawURL, f.cacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to check cache: %w", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	html, err := f.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	text, err := resumeText(html)
	if err != nil {
		return nil, &ResumeError{URL: rawURL, Cause: err}
	}
	page := &Page{URL: rawURL, Text: text, FetchedAt: time.Now()}

	if f.renderer != nil && ShouldUseBrowser(text) {
		if f.verbose {
			log.Printf("[BROWSER] Plain fetch returned %d chars, rendering %s", len(text), rawURL)
		}
		rendered, err := f.renderer.Render(ctx, rawURL)
		if err != nil {
			// The plain text is still usable.
			log.Printf("[BROWSER] Warning: render failed for %s: %v", rawURL, err)
		} else if renderedText, err := resumeText(rendered); err == nil && len(renderedText) > len(text) {
			page.Text = renderedText
			page.Rendered = true
		}
	}

	if page.Text == "" {
		return nil, &ResumeError{URL: rawURL, Cause: ErrEmptyResume}
	}

	if f.cache != nil {
		if err := f.cache.PutPage(ctx, page); err != nil {
			log.Printf("[FETCH] Warning: failed to cache %s: %v", rawURL, err)
		}
	}
	return page, nil
}

// get downloads the resume HTML.
func (f *ResumeFetcher) get(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", &ResumeError{URL: rawURL, Cause: fmt.Errorf("invalid resume link %q", rawURL)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &ResumeError{URL: rawURL, Cause: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html")
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &ResumeError{URL: rawURL, Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		return "", &ResumeError{URL: rawURL, Status: resp.StatusCode, Cause: ErrResumeUnavailable}
	case resp.StatusCode != http.StatusOK:
		return "", &ResumeError{URL: rawURL, Status: resp.StatusCode, Cause: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil &&
			mediaType != "text/html" && mediaType != "application/xhtml+xml" {
			return "", &ResumeError{URL: rawURL, Status: resp.StatusCode, Cause: fmt.Errorf("%w: %s", ErrNotHTML, mediaType)}
		}
	}
	if resp.ContentLength > f.maxBytes {
		return "", &ResumeError{URL: rawURL, Status: resp.StatusCode, Cause: ErrResumeTooLarge}
	}

	// One byte past the limit tells a full page from an oversized one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return "", &ResumeError{URL: rawURL, Status: resp.StatusCode, Cause: err}
	}
	if int64(len(body)) > f.maxBytes {
		return "", &ResumeError{URL: rawURL, Status: resp.StatusCode, Cause: ErrResumeTooLarge}
	}
	return string(body), nil
}

// resumeText strips viewer chrome and returns the resume body as
// non-empty trimmed lines. The whole body is used when no resume
// container is found.
func resumeText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse resume HTML: %w", err)
	}
	doc.Find(resumeNoise).Remove()

	content := doc.Find("body")
	for _, selector := range resumeSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			content = selection.First()
			break
		}
	}

	var lines []string
	for _, line := range strings.Split(content.Text(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// MemoryCache is an in-process Cache.
type MemoryCache struct {
	mu    sync.RWMutex
	pages map[string]Page
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{pages: make(map[string]Page)}
}

// GetPage implements Cache.
func (c *MemoryCache) GetPage(_ context.Context, url string, maxAge time.Duration) (*Page, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	page, ok := c.pages[url]
	if !ok || time.Since(page.FetchedAt) > maxAge {
		return nil, nil
	}
	return &page, nil
}

// PutPage implements Cache.
func (c *MemoryCache) PutPage(_ context.Context, page *Page) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[page.URL] = *page
	return nil
}
