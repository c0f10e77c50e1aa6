// Package platformtest provides an in-memory platform.Client for tests.
package platformtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/recruiter-agent/internal/platform"
	"github.com/jonathan/recruiter-agent/internal/types"
)

// Action is one recorded side-effecting call.
type Action struct {
	Op     string
	Target string
	Text   string
}

// Fake is a scriptable platform.Client. Zero values are usable; set the
// exported fields before use.
type Fake struct {
	mu sync.Mutex

	StatusValue   types.PlatformStatus
	JobList       []types.Job
	AssistantList []types.Assistant
	Recommended   map[string][]types.Candidate
	Chats         map[types.Mode][]types.Candidate
	Threads       map[string][]types.ChatMessage
	Resumes       map[string]platform.Resume

	// CatalogErr fails Status, Jobs and Assistants while set.
	CatalogErr error
	// ActionErr fails every side-effecting call while set.
	ActionErr error

	Actions      []Action
	CatalogCalls int
}

var _ platform.Client = (*Fake)(nil)

// SetCatalogErr replaces CatalogErr under the lock.
func (f *Fake) SetCatalogErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CatalogErr = err
}

// Recorded returns a copy of the recorded actions.
func (f *Fake) Recorded() []Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Action(nil), f.Actions...)
}

func (f *Fake) catalog() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CatalogCalls++
	return f.CatalogErr
}

// Status implements platform.Client.
func (f *Fake) Status(context.Context) (*types.PlatformStatus, error) {
	if err := f.catalog(); err != nil {
		return nil, err
	}
	s := f.StatusValue
	return &s, nil
}

// Jobs implements platform.Client.
func (f *Fake) Jobs(context.Context) ([]types.Job, error) {
	if err := f.catalog(); err != nil {
		return nil, err
	}
	return f.JobList, nil
}

// Assistants implements platform.Client.
func (f *Fake) Assistants(context.Context) ([]types.Assistant, error) {
	if err := f.catalog(); err != nil {
		return nil, err
	}
	return f.AssistantList, nil
}

// RecommendCandidates implements platform.Client.
func (f *Fake) RecommendCandidates(_ context.Context, job string, limit int) ([]types.Candidate, error) {
	list := f.Recommended[job]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// ChatList implements platform.Client.
func (f *Fake) ChatList(_ context.Context, tab types.Mode, limit int) ([]types.Candidate, error) {
	list := f.Chats[tab]
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// ReadMessages implements platform.Client.
func (f *Fake) ReadMessages(_ context.Context, chatID string) ([]types.ChatMessage, error) {
	msgs, ok := f.Threads[chatID]
	if !ok {
		return nil, &platform.Error{Op: "read messages", StatusCode: 404, Message: "chat not found"}
	}
	return msgs, nil
}

func (f *Fake) act(op, target, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ActionErr != nil {
		return f.ActionErr
	}
	f.Actions = append(f.Actions, Action{Op: op, Target: target, Text: text})
	return nil
}

// SendMessage implements platform.Client.
func (f *Fake) SendMessage(_ context.Context, chatID, text string) error {
	return f.act("send", chatID, text)
}

// Greet implements platform.Client.
func (f *Fake) Greet(_ context.Context, index int, text string) error {
	return f.act("greet", fmt.Sprint(index), text)
}

// RequestResume implements platform.Client.
func (f *Fake) RequestResume(_ context.Context, chatID string) error {
	return f.act("request_resume", chatID, "")
}

// Resume implements platform.Client.
func (f *Fake) Resume(_ context.Context, c types.Candidate) (*platform.Resume, error) {
	r, ok := f.Resumes[c.ThreadKey()]
	if !ok {
		return &platform.Resume{}, nil
	}
	return &r, nil
}

// RequestContact implements platform.Client.
func (f *Fake) RequestContact(_ context.Context, chatID, kind string) error {
	return f.act("request_contact", chatID, kind)
}
