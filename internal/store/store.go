// Package store defines the execution store shared across runs: recruiter
// session checkpoints and the history of processed candidates.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jonathan/recruiter-agent/internal/state"
	"github.com/jonathan/recruiter-agent/internal/types"
)

// RecruiterAgent is the agent half of the recruiter session namespace.
const RecruiterAgent = "RECRUITER_AGENT"

// ErrVersionConflict is returned by SessionStore.Put when the stored session
// changed since it was read.
var ErrVersionConflict = errors.New("session version conflict")

// Namespace is the fixed two-part prefix under which sessions are keyed.
type Namespace struct {
	Agent string `json:"agent"`
	Owner string `json:"owner"`
}

// RecruiterNamespace returns the session namespace for owner.
func RecruiterNamespace(owner string) Namespace {
	return Namespace{Agent: RecruiterAgent, Owner: owner}
}

func (n Namespace) String() string {
	return n.Agent + "/" + n.Owner
}

// SessionSummary is a listing entry for a stored session.
type SessionSummary struct {
	Key       string      `json:"key"`
	Name      string      `json:"name"`
	Mode      types.Mode  `json:"mode"`
	Stage     types.Stage `json:"stage,omitempty"`
	Messages  int         `json:"messages"`
	Version   int64       `json:"version"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// SessionStore keeps recruiter sessions keyed by namespace and thread key.
//
// Put is a compare-and-swap on SessionState.Version: the caller passes the
// version it read (0 for a new session). On success the stored copy and
// s.Version both advance by one; otherwise ErrVersionConflict is returned
// and nothing is written.
type SessionStore interface {
	Get(ctx context.Context, ns Namespace, key string) (*state.SessionState, error)
	Put(ctx context.Context, ns Namespace, key string, s *state.SessionState) error
	List(ctx context.Context, ns Namespace) ([]SessionSummary, error)
}

// CandidateStore records processed candidates across runs.
//
// Implementations report whether they are backed by a live connection;
// callers skip writes to a store that is not Connected.
type CandidateStore interface {
	Connected() bool
	RecordProcessed(ctx context.Context, owner string, runID string, p types.ProcessedCandidate) error
	ListProcessed(ctx context.Context, owner string, limit int) ([]types.ProcessedCandidate, error)
}

// Summarize builds the listing entry for a session.
func Summarize(key string, s *state.SessionState, updatedAt time.Time) SessionSummary {
	return SessionSummary{
		Key:       key,
		Name:      s.Candidate.Name,
		Mode:      s.Mode,
		Stage:     s.Stage,
		Messages:  len(s.Messages),
		Version:   s.Version,
		UpdatedAt: updatedAt,
	}
}
