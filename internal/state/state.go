// Package state holds the records threaded through the manager and recruiter workflows.
package state

import (
	"github.com/jonathan/recruiter-agent/internal/candidates"
	"github.com/jonathan/recruiter-agent/internal/types"
)

// RunState is the context of one manager run. It is owned by a single run
// and is not safe for concurrent use.
type RunState struct {
	Messages            []types.Message            `json:"messages"`
	Candidates          []types.Candidate          `json:"candidates"`
	ProcessedCandidates []types.ProcessedCandidate `json:"processed_candidates"`
	Jobs                []types.Job                `json:"jobs"`
	Assistants          []types.Assistant          `json:"assistants"`
}

// AddMessages appends to the transcript. Every message is kept.
func (s *RunState) AddMessages(msgs ...types.Message) {
	s.Messages = append(s.Messages, msgs...)
}

// AddCandidates merges incoming into the candidate set, dropping exact duplicates.
func (s *RunState) AddCandidates(incoming ...types.Candidate) {
	s.Candidates = candidates.Merge(s.Candidates, incoming...)
}

// AddProcessed appends an outcome record.
func (s *RunState) AddProcessed(p types.ProcessedCandidate) {
	s.ProcessedCandidates = append(s.ProcessedCandidates, p)
}

// SetCatalogs replaces the job and persona catalogs wholesale.
func (s *RunState) SetCatalogs(jobs []types.Job, assistants []types.Assistant) {
	s.Jobs = append([]types.Job(nil), jobs...)
	s.Assistants = append([]types.Assistant(nil), assistants...)
}

// IsProcessed reports whether c already has an outcome record in this run.
func (s *RunState) IsProcessed(c types.Candidate) bool {
	for _, p := range s.ProcessedCandidates {
		if p.Matches(c) {
			return true
		}
	}
	return false
}

// LastMessage returns the most recent transcript entry.
func (s *RunState) LastMessage() (types.Message, bool) {
	if len(s.Messages) == 0 {
		return types.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// SessionState is the per-candidate context of one recruiter session.
type SessionState struct {
	Mode      types.Mode      `json:"mode"`
	Stage     types.Stage     `json:"stage,omitempty"`
	Candidate types.Candidate `json:"candidate"`
	Job       types.Job       `json:"job_info"`
	Assistant types.Assistant `json:"assistant_info"`
	Analysis  *types.Analysis `json:"analysis,omitempty"`
	Messages  []types.Message `json:"messages"`
	Version   int64           `json:"version"`
}

// NewSessionState builds a fresh session. The candidate is copied so the
// session never aliases the manager's record.
func NewSessionState(c types.Candidate, job types.Job, assistant types.Assistant, seed ...types.Message) *SessionState {
	return &SessionState{
		Mode:      c.Mode,
		Candidate: c,
		Job:       job,
		Assistant: assistant,
		Messages:  append([]types.Message(nil), seed...),
	}
}

// AddMessages appends to the private transcript.
func (s *SessionState) AddMessages(msgs ...types.Message) {
	s.Messages = append(s.Messages, msgs...)
}

// Clone returns a deep-enough copy for checkpointing.
func (s *SessionState) Clone() *SessionState {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = append([]types.Message(nil), s.Messages...)
	if s.Analysis != nil {
		a := *s.Analysis
		out.Analysis = &a
	}
	return &out
}
