package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Mode describes how a candidate entered the recruiter's queue.
type Mode string

// Candidate modes
const (
	// ModeRecommend is a platform recommendation that has never been contacted
	ModeRecommend Mode = "recommend"
	// ModeGreet is a candidate who answered a greeting
	ModeGreet Mode = "greet"
	// ModeChat is an ongoing conversation
	ModeChat Mode = "chat"
	// ModeFollowup is a conversation that needs a nudge
	ModeFollowup Mode = "followup"
)

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeRecommend:
		return ModeRecommend, true
	case ModeGreet:
		return ModeGreet, true
	case ModeChat:
		return ModeChat, true
	case ModeFollowup:
		return ModeFollowup, true
	}
	return "", false
}

// Returning reports whether the mode refers to an existing chat thread.
func (m Mode) Returning() bool {
	return m == ModeGreet || m == ModeChat || m == ModeFollowup
}

// Identity locates a candidate on the hiring platform. It is either a
// RecommendIdentity (position in the recommendation list) or a
// ReturningIdentity (an existing chat thread).
type Identity interface {
	// Key is a stable string form, unique within the identity's variant.
	Key() string
	isIdentity()
}

// RecommendIdentity identifies a recommended candidate by list position.
type RecommendIdentity struct {
	Index int
}

// Key implements Identity.
func (r RecommendIdentity) Key() string { return "index:" + strconv.Itoa(r.Index) }

func (RecommendIdentity) isIdentity() {}

// ReturningIdentity identifies a candidate by chat thread.
type ReturningIdentity struct {
	ChatID string
}

// Key implements Identity.
func (r ReturningIdentity) Key() string { return "chat:" + r.ChatID }

func (ReturningIdentity) isIdentity() {}

// Candidate is one hiring-platform contact to process. Construct it with
// NewCandidate or by unmarshaling JSON; both enforce that the identity
// variant matches the mode.
type Candidate struct {
	Name        string
	Mode        Mode
	Identity    Identity
	JobApplied  string
	Description string
	LastMessage string
}

// CandidateFields is the flat wire form of a Candidate.
type CandidateFields struct {
	Name        string  `json:"name"`
	Mode        Mode    `json:"mode" validate:"required,oneof=recommend greet chat followup"`
	ChatID      *string `json:"chat_id,omitempty"`
	Index       *int    `json:"index,omitempty" validate:"omitempty,min=0"`
	JobApplied  string  `json:"job_applied"`
	Description string  `json:"description,omitempty"`
	LastMessage string  `json:"last_message,omitempty"`
}

var validate = validator.New()

// NewCandidate builds a Candidate, failing with *ValidationError when the
// mode and identifier combination is invalid.
func NewCandidate(f CandidateFields) (Candidate, error) {
	if m, ok := ParseMode(string(f.Mode)); ok {
		f.Mode = m
	}
	if err := validate.Struct(f); err != nil {
		return Candidate{}, &ValidationError{Field: "candidate", Message: "invalid fields", Cause: err}
	}

	c := Candidate{
		Name:        f.Name,
		Mode:        f.Mode,
		JobApplied:  f.JobApplied,
		Description: f.Description,
		LastMessage: f.LastMessage,
	}

	switch {
	case f.Mode == ModeRecommend:
		if f.Index == nil {
			return Candidate{}, &ValidationError{Field: "index", Message: "required when mode is recommend"}
		}
		if f.ChatID != nil && *f.ChatID != "" {
			return Candidate{}, &ValidationError{Field: "chat_id", Message: "must be empty when mode is recommend"}
		}
		c.Identity = RecommendIdentity{Index: *f.Index}
	default:
		if f.ChatID == nil || strings.TrimSpace(*f.ChatID) == "" {
			return Candidate{}, &ValidationError{Field: "chat_id", Message: fmt.Sprintf("required when mode is %s", f.Mode)}
		}
		if f.Index != nil {
			return Candidate{}, &ValidationError{Field: "index", Message: fmt.Sprintf("must be empty when mode is %s", f.Mode)}
		}
		c.Identity = ReturningIdentity{ChatID: *f.ChatID}
	}

	return c, nil
}

// Fields returns the flat wire form of c.
func (c Candidate) Fields() CandidateFields {
	f := CandidateFields{
		Name:        c.Name,
		Mode:        c.Mode,
		JobApplied:  c.JobApplied,
		Description: c.Description,
		LastMessage: c.LastMessage,
	}
	switch id := c.Identity.(type) {
	case RecommendIdentity:
		idx := id.Index
		f.Index = &idx
	case ReturningIdentity:
		chatID := id.ChatID
		f.ChatID = &chatID
	}
	return f
}

// ChatID returns the chat thread id for returning candidates.
func (c Candidate) ChatID() (string, bool) {
	if id, ok := c.Identity.(ReturningIdentity); ok {
		return id.ChatID, true
	}
	return "", false
}

// Index returns the recommendation list position for recommended candidates.
func (c Candidate) Index() (int, bool) {
	if id, ok := c.Identity.(RecommendIdentity); ok {
		return id.Index, true
	}
	return 0, false
}

// SameIdentity reports whether c and other refer to the same platform contact.
func (c Candidate) SameIdentity(other Candidate) bool {
	if c.Identity == nil || other.Identity == nil {
		return false
	}
	return c.Identity == other.Identity
}

// ThreadKey is the key used for the candidate's session checkpoints.
// Recommended candidates have no chat thread yet and use their identity key.
func (c Candidate) ThreadKey() string {
	if chatID, ok := c.ChatID(); ok {
		return chatID
	}
	if c.Identity != nil {
		return c.Identity.Key()
	}
	return ""
}

// CanonicalKey is the sorted-key JSON serialization of every field.
// Two candidates are duplicates iff their canonical keys are equal.
func (c Candidate) CanonicalKey() string {
	raw, err := json.Marshal(c.Fields())
	if err != nil {
		return ""
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return string(raw)
	}
	// encoding/json writes map keys in sorted order
	sorted, err := json.Marshal(m)
	if err != nil {
		return string(raw)
	}
	return string(sorted)
}

// MarshalJSON writes the flat wire form.
func (c Candidate) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Fields())
}

// UnmarshalJSON reads the flat wire form and validates it.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var f CandidateFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	built, err := NewCandidate(f)
	if err != nil {
		return err
	}
	*c = built
	return nil
}

// Analysis is the structured evaluation the recruiter produces for a candidate.
type Analysis struct {
	Overall    float64            `json:"overall"`
	Summary    string             `json:"summary,omitempty"`
	Dimensions map[string]float64 `json:"dimensions,omitempty"`
}

// ProcessedCandidate records the outcome of one dispatch.
type ProcessedCandidate struct {
	Candidate   Candidate `json:"candidate"`
	Stage       Stage     `json:"stage,omitempty"`
	Analysis    *Analysis `json:"analysis,omitempty"`
	Exhausted   bool      `json:"exhausted,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Matches reports whether p was produced for the candidate c, compared by
// chat_id or index, whichever the candidate carries.
func (p ProcessedCandidate) Matches(c Candidate) bool {
	return p.Candidate.SameIdentity(c)
}

// Validate re-checks c's mode and identity pairing. Candidates built by
// NewCandidate always pass; zero values and hand-assembled ones may not.
func (c Candidate) Validate() error {
	if c.Identity == nil {
		return &ValidationError{Field: "candidate", Message: "missing identity"}
	}
	_, err := NewCandidate(c.Fields())
	return err
}
