package fetch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// MinContentLength is the minimum extracted text length to consider HTTP fetch successful.
// Resume viewers that build the page client-side return little more than a shell.
const MinContentLength = 200

// ShouldUseBrowser returns true if the extracted text is too short to be a resume.
func ShouldUseBrowser(extractedText string) bool {
	return len(strings.TrimSpace(extractedText)) < MinContentLength
}

// Renderer turns a URL into fully rendered HTML.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, url string) (string, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// Browser renders pages with chromedp. Requires Chrome/Chromium on the host.
type Browser struct {
	Timeout time.Duration
	// Settle is how long to wait after body is ready for scripts to fill the page.
	Settle  time.Duration
	Headers map[string]string
	Verbose bool
}

// NewBrowser returns a Browser with the default timeout.
func NewBrowser(verbose bool) *Browser {
	return &Browser{
		Timeout: DefaultTimeout,
		Settle:  2 * time.Second,
		Verbose: verbose,
	}
}

// Render navigates to url and returns the document's outer HTML.
func (b *Browser) Render(ctx context.Context, url string) (string, error) {
	if b.Verbose {
		log.Printf("[BROWSER] Rendering resume page: %s", url)
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	actions := []chromedp.Action{}
	if len(b.Headers) > 0 {
		actions = append(actions, setHeaders(b.Headers))
	}
	actions = append(actions,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(b.Settle),
		chromedp.OuterHTML("html", &html),
	)

	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return "", &ResumeError{URL: url, Cause: fmt.Errorf("browser rendering failed: %w", err)}
	}

	if b.Verbose {
		log.Printf("[BROWSER] Rendered HTML: %d bytes", len(html))
	}

	return html, nil
}

// setHeaders installs extra request headers, e.g. the portal bearer token.
func setHeaders(headers map[string]string) chromedp.Action {
	h := network.Headers{}
	for k, v := range headers {
		h[k] = v
	}
	return chromedp.Tasks{
		network.Enable(),
		network.SetExtraHTTPHeaders(h),
	}
}
