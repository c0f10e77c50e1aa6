// Package notify escalates promising candidates to a chat webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jonathan/recruiter-agent/internal/types"
)

// DefaultTimeout bounds one webhook delivery.
const DefaultTimeout = 10 * time.Second

// Webhook posts a text message to an incoming-webhook URL (Slack, Mattermost
// and compatible chat tools accept the {"text": ...} body).
type Webhook struct {
	url    string
	owner  string
	client *http.Client
}

// NewWebhook creates a Webhook. A nil client uses one with DefaultTimeout.
func NewWebhook(url, owner string, client *http.Client) *Webhook {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Webhook{url: url, owner: owner, client: client}
}

// Error is a failed delivery.
type Error struct {
	StatusCode int
	Body       string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("webhook delivery failed: %v", e.Cause)
	}
	return fmt.Sprintf("webhook delivery failed: HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

type message struct {
	Text string `json:"text"`
}

// NotifyContact posts a message about a candidate that reached CONTACT.
func (w *Webhook) NotifyContact(ctx context.Context, runID string, p types.ProcessedCandidate) error {
	body, err := json.Marshal(message{Text: FormatContact(w.owner, runID, p)})
	if err != nil {
		return fmt.Errorf("failed to encode webhook message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return &Error{Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return &Error{Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &Error{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}
	return nil
}

// FormatContact renders the escalation text.
func FormatContact(owner, runID string, p types.ProcessedCandidate) string {
	var sb strings.Builder
	name := p.Candidate.Name
	if name == "" {
		name = p.Candidate.ThreadKey()
	}
	fmt.Fprintf(&sb, "Candidate ready for contact: %s", name)
	if p.Candidate.JobApplied != "" {
		fmt.Fprintf(&sb, " (%s)", p.Candidate.JobApplied)
	}
	if p.Analysis != nil {
		fmt.Fprintf(&sb, "\nOverall score: %.1f", p.Analysis.Overall)
		if p.Analysis.Summary != "" {
			fmt.Fprintf(&sb, "\n%s", p.Analysis.Summary)
		}
	}
	if chatID, ok := p.Candidate.ChatID(); ok {
		fmt.Fprintf(&sb, "\nChat: %s", chatID)
	}
	if owner != "" || runID != "" {
		fmt.Fprintf(&sb, "\nOwner: %s, run: %s", owner, runID)
	}
	return sb.String()
}
