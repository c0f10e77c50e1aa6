// Package platform is the HTTP client for the hiring platform web portal.
//
// The portal drives the browser session on the hiring site; this package only
// speaks its JSON API.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/recruiter-agent/internal/types"
)

// Client is the set of portal operations the workflows consume.
type Client interface {
	Status(ctx context.Context) (*types.PlatformStatus, error)
	Jobs(ctx context.Context) ([]types.Job, error)
	Assistants(ctx context.Context) ([]types.Assistant, error)

	RecommendCandidates(ctx context.Context, job string, limit int) ([]types.Candidate, error)
	ChatList(ctx context.Context, tab types.Mode, limit int) ([]types.Candidate, error)

	ReadMessages(ctx context.Context, chatID string) ([]types.ChatMessage, error)
	SendMessage(ctx context.Context, chatID, text string) error
	Greet(ctx context.Context, index int, text string) error
	RequestResume(ctx context.Context, chatID string) error
	Resume(ctx context.Context, c types.Candidate) (*Resume, error)
	RequestContact(ctx context.Context, chatID, kind string) error
}

// Resume is what the portal knows about a candidate's online resume.
// Text may be empty when only a viewer URL is available.
type Resume struct {
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// TokenSource mints bearer tokens for portal requests.
type TokenSource interface {
	GenerateToken(owner string) (string, error)
}

// Options configures an HTTPClient.
type Options struct {
	Timeout time.Duration
	Owner   string
	Tokens  TokenSource // nil sends unauthenticated requests
	HTTP    *http.Client
}

// HTTPClient talks to the web portal over HTTP.
type HTTPClient struct {
	base   *url.URL
	http   *http.Client
	owner  string
	tokens TokenSource
}

// New creates a portal client for baseURL.
func New(baseURL string, opts Options) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &Error{Op: "connect", Message: fmt.Sprintf("invalid web portal address %q", baseURL), Cause: err}
	}
	hc := opts.HTTP
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{base: u, http: hc, owner: opts.Owner, tokens: opts.Tokens}, nil
}

// Status reports whether the portal is logged in to the hiring site.
func (c *HTTPClient) Status(ctx context.Context) (*types.PlatformStatus, error) {
	var resp types.PlatformStatus
	if err := c.do(ctx, "status", http.MethodGet, "/status", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Jobs lists the open positions.
func (c *HTTPClient) Jobs(ctx context.Context) ([]types.Job, error) {
	var resp struct {
		Count int         `json:"count"`
		Jobs  []types.Job `json:"jobs"`
	}
	if err := c.do(ctx, "jobs", http.MethodGet, "/jobs", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// Assistants lists the persona catalog.
func (c *HTTPClient) Assistants(ctx context.Context) ([]types.Assistant, error) {
	var resp struct {
		Count      int               `json:"count"`
		Assistants []types.Assistant `json:"assistants"`
	}
	if err := c.do(ctx, "assistants", http.MethodGet, "/assistants", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Assistants, nil
}

type candidateList struct {
	Candidates []types.CandidateFields `json:"candidates"`
}

// RecommendCandidates lists the platform's recommendations for job. Entries
// without an explicit index get their list position.
func (c *HTTPClient) RecommendCandidates(ctx context.Context, job string, limit int) ([]types.Candidate, error) {
	q := url.Values{"job": {job}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp candidateList
	if err := c.do(ctx, "recommend", http.MethodGet, "/recommend/candidates", q, nil, &resp); err != nil {
		return nil, err
	}
	return buildCandidates(resp.Candidates, types.ModeRecommend, job)
}

// ChatList lists candidates under a chat tab.
func (c *HTTPClient) ChatList(ctx context.Context, tab types.Mode, limit int) ([]types.Candidate, error) {
	q := url.Values{"tab": {string(tab)}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var resp candidateList
	if err := c.do(ctx, "chat list", http.MethodGet, "/chat/list", q, nil, &resp); err != nil {
		return nil, err
	}
	return buildCandidates(resp.Candidates, tab, "")
}

func buildCandidates(fields []types.CandidateFields, mode types.Mode, job string) ([]types.Candidate, error) {
	out := make([]types.Candidate, 0, len(fields))
	for i, f := range fields {
		f.Mode = mode
		if mode == types.ModeRecommend && f.Index == nil {
			idx := i
			f.Index = &idx
		}
		if f.JobApplied == "" {
			f.JobApplied = job
		}
		cand, err := types.NewCandidate(f)
		if err != nil {
			return nil, &Error{Op: "decode candidates", Message: fmt.Sprintf("entry %d", i), Cause: err}
		}
		out = append(out, cand)
	}
	return out, nil
}

// ReadMessages returns the chat thread with a candidate.
func (c *HTTPClient) ReadMessages(ctx context.Context, chatID string) ([]types.ChatMessage, error) {
	var resp struct {
		Messages []types.ChatMessage `json:"messages"`
	}
	if err := c.do(ctx, "read messages", http.MethodGet, chatPath(chatID, "messages"), nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendMessage posts a chat message.
func (c *HTTPClient) SendMessage(ctx context.Context, chatID, text string) error {
	return c.do(ctx, "send message", http.MethodPost, chatPath(chatID, "messages"), nil, map[string]string{"text": text}, nil)
}

// Greet sends the opening message to a recommended candidate.
func (c *HTTPClient) Greet(ctx context.Context, index int, text string) error {
	path := "/recommend/" + strconv.Itoa(index) + "/greet"
	return c.do(ctx, "greet", http.MethodPost, path, nil, map[string]string{"text": text}, nil)
}

// RequestResume asks the candidate for a resume attachment.
func (c *HTTPClient) RequestResume(ctx context.Context, chatID string) error {
	return c.do(ctx, "request resume", http.MethodPost, chatPath(chatID, "resume/request"), nil, struct{}{}, nil)
}

// Resume returns the candidate's online resume.
func (c *HTTPClient) Resume(ctx context.Context, cand types.Candidate) (*Resume, error) {
	path := ""
	if chatID, ok := cand.ChatID(); ok {
		path = chatPath(chatID, "resume")
	} else if idx, ok := cand.Index(); ok {
		path = "/recommend/" + strconv.Itoa(idx) + "/resume"
	}
	var resp Resume
	if err := c.do(ctx, "view resume", http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestContact asks the candidate to exchange contact details.
func (c *HTTPClient) RequestContact(ctx context.Context, chatID, kind string) error {
	if kind == "" {
		kind = "phone"
	}
	return c.do(ctx, "request contact", http.MethodPost, chatPath(chatID, "contact/request"), nil, map[string]string{"kind": kind}, nil)
}

// chatPath builds an unescaped path; url.URL escapes it on output.
func chatPath(chatID, suffix string) string {
	return "/chat/" + chatID + "/" + suffix
}

// do sends one request and decodes a JSON response into out (if non-nil).
func (c *HTTPClient) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Message: "failed to encode request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return &Error{Op: op, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		token, err := c.tokens.GenerateToken(c.owner)
		if err != nil {
			return &Error{Op: op, Message: "failed to sign request", Cause: err}
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: op, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: errorMessage(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: "failed to parse response", Cause: err}
	}
	return nil
}

// errorMessage pulls {"error": "..."} out of a portal error body.
func errorMessage(data []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	text := strings.TrimSpace(string(data))
	if len(text) > 200 {
		text = text[:200]
	}
	if text == "" {
		return "empty response"
	}
	return text
}
