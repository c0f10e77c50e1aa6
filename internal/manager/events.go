package manager

import (
	"github.com/jonathan/recruiter-agent/internal/types"
)

// EventType classifies run progress events.
type EventType string

// Event types
const (
	EventState     EventType = "state"
	EventMessage   EventType = "message"
	EventInterrupt EventType = "interrupt"
	EventResumed   EventType = "resumed"
	EventProcessed EventType = "processed"
)

// Event is a progress update emitted while a run executes.
type Event struct {
	Type      EventType                 `json:"type"`
	RunID     string                    `json:"run_id,omitempty"`
	State     State                     `json:"state,omitempty"`
	Message   *types.Message            `json:"message,omitempty"`
	Processed *types.ProcessedCandidate `json:"processed,omitempty"`
	Detail    string                    `json:"detail,omitempty"`
}

// EventCallback receives progress events. It runs on the run's goroutine
// and must not block.
type EventCallback func(Event)

func (m *Manager) emit(r *run, e Event) {
	if r.onEvent == nil {
		return
	}
	e.RunID = r.id
	r.onEvent(e)
}
