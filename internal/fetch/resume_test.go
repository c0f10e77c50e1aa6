package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resumeServer(t *testing.T, contentType, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Header.Get("Authorization") == "Bearer expired" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func longResume() string {
	return `<html><body><div class="resume"><h1>Jane Doe</h1><p>` +
		strings.Repeat("Built distributed systems in Go. ", 10) +
		`</p></div></body></html>`
}

func TestResumeFetcher_PlainFetch(t *testing.T) {
	server, _ := resumeServer(t, "text/html; charset=utf-8", longResume())
	rendered := false
	f := NewResumeFetcher(&ResumeFetcherConfig{
		Renderer: RendererFunc(func(context.Context, string) (string, error) {
			rendered = true
			return "", nil
		}),
	})

	page, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, page.Text, "Jane Doe")
	assert.False(t, page.Rendered)
	assert.False(t, rendered, "long pages must not hit the browser")
}

func TestResumeFetcher_StripsViewerChrome(t *testing.T) {
	server, _ := resumeServer(t, "text/html", `
	<html>
		<body>
			<nav>Jobs | Messages</nav>
			<div class="sidebar">Similar candidates</div>
			<div class="resume">
				<div class="resume-actions"><button>Download</button></div>
				<h2>Experience</h2>
				<p>5 years experience in Go</p>
				<div class="watermark">Confidential</div>
			</div>
			<div class="recommend-jobs">Other openings</div>
		</body>
	</html>`)

	page, err := NewResumeFetcher(nil).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Experience\n5 years experience in Go", page.Text)
}

func TestResumeText_FallsBackToBody(t *testing.T) {
	text, err := resumeText(`<html><body><div>  Ann Lee  </div>

	<div>Backend developer</div></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee\nBackend developer", text)
}

func TestResumeFetcher_Headers(t *testing.T) {
	server, _ := resumeServer(t, "text/html", longResume())
	f := NewResumeFetcher(&ResumeFetcherConfig{Headers: map[string]string{"Authorization": "Bearer expired"}})

	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResumeUnavailable)

	var resumeErr *ResumeError
	require.ErrorAs(t, err, &resumeErr)
	assert.Equal(t, http.StatusForbidden, resumeErr.Status)
	assert.Equal(t, server.URL, resumeErr.URL)
}

func TestResumeFetcher_Errors(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		maxBytes    int64
		want        error
	}{
		{"pdf resume", "application/pdf", "%PDF-1.7", 0, ErrNotHTML},
		{"oversized page", "text/html", longResume(), 64, ErrResumeTooLarge},
		{"empty page", "text/html", `<html><body><nav>menu</nav></body></html>`, 0, ErrEmptyResume},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := resumeServer(t, tt.contentType, tt.body)
			f := NewResumeFetcher(&ResumeFetcherConfig{MaxBytes: tt.maxBytes})

			_, err := f.Fetch(context.Background(), server.URL)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestResumeFetcher_InvalidLink(t *testing.T) {
	for _, link := range []string{"not-a-url", "ftp://files.local/cv.html", "javascript:alert(1)"} {
		_, err := NewResumeFetcher(nil).Fetch(context.Background(), link)
		var resumeErr *ResumeError
		require.ErrorAs(t, err, &resumeErr, link)
		assert.Contains(t, err.Error(), "invalid resume link")
	}
}

func TestResumeFetcher_UnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewResumeFetcher(nil).Fetch(context.Background(), server.URL)
	var resumeErr *ResumeError
	require.ErrorAs(t, err, &resumeErr)
	assert.Equal(t, http.StatusBadGateway, resumeErr.Status)
	assert.NotErrorIs(t, err, ErrResumeUnavailable)
}

func TestResumeFetcher_BrowserFallback(t *testing.T) {
	server, _ := resumeServer(t, "text/html", `<html><body><div id="app"></div></body></html>`)
	f := NewResumeFetcher(&ResumeFetcherConfig{
		Renderer: RendererFunc(func(_ context.Context, url string) (string, error) {
			assert.Equal(t, server.URL, url)
			return longResume(), nil
		}),
	})

	page, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.True(t, page.Rendered)
	assert.Contains(t, page.Text, "distributed systems")
}

func TestResumeFetcher_BrowserFailureKeepsPlainText(t *testing.T) {
	server, _ := resumeServer(t, "text/html", `<html><body><main>Short summary</main></body></html>`)
	f := NewResumeFetcher(&ResumeFetcherConfig{
		Renderer: RendererFunc(func(context.Context, string) (string, error) {
			return "", errors.New("no chrome")
		}),
	})

	page, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Short summary", page.Text)
	assert.False(t, page.Rendered)
}

func TestResumeFetcher_Cache(t *testing.T) {
	server, hits := resumeServer(t, "text/html", longResume())
	cache := NewMemoryCache()
	f := NewResumeFetcher(&ResumeFetcherConfig{Cache: cache})

	first, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	second, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
}

func TestMemoryCache_Expiry(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()
	require.NoError(t, cache.PutPage(ctx, &Page{URL: "u", Text: "t", FetchedAt: time.Now().Add(-2 * time.Hour)}))

	got, err := cache.GetPage(ctx, "u", time.Hour)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = cache.GetPage(ctx, "u", 3*time.Hour)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "t", got.Text)
}

func TestShouldUseBrowser(t *testing.T) {
	assert.True(t, ShouldUseBrowser("   "))
	assert.False(t, ShouldUseBrowser(strings.Repeat("x", MinContentLength)))
}
