package tools

import (
	"encoding/json"
	"fmt"

	"github.com/jonathan/recruiter-agent/internal/schemas"
	"github.com/jonathan/recruiter-agent/internal/types"
)

// ArgumentError is returned when a tool call's arguments do not fit its spec.
type ArgumentError struct {
	Tool  types.ToolKind
	Cause error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Tool, e.Cause)
}

func (e *ArgumentError) Unwrap() error {
	return e.Cause
}

// UnknownToolError is returned for a call to a tool outside the bound set.
type UnknownToolError struct {
	Tool types.ToolKind
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Tool)
}

// Decoder validates tool arguments against the bound specs and decodes them.
type Decoder struct {
	specs     []Spec
	validator *schemas.Validator
}

// NewDecoder creates a Decoder for a tool set.
func NewDecoder(specs []Spec) *Decoder {
	return &Decoder{specs: specs, validator: schemas.NewValidator()}
}

// Specs returns the tool set this decoder accepts.
func (d *Decoder) Specs() []Spec {
	return d.specs
}

// Decode checks call against its spec's schema and unmarshals the arguments into dst.
func (d *Decoder) Decode(call types.ToolCall, dst any) error {
	spec, ok := Lookup(d.specs, call.Kind)
	if !ok {
		return &UnknownToolError{Tool: call.Kind}
	}
	if err := d.validator.Validate(spec.Name(), spec.JSONSchema(), call.Args); err != nil {
		return &ArgumentError{Tool: call.Kind, Cause: err}
	}
	if dst == nil || len(call.Args) == 0 {
		return nil
	}
	if err := json.Unmarshal(call.Args, dst); err != nil {
		return &ArgumentError{Tool: call.Kind, Cause: err}
	}
	return nil
}

// RecommendArgs are the get_recommend_candidates arguments.
type RecommendArgs struct {
	Job   string `json:"job"`
	Limit int    `json:"limit,omitempty"`
}

// ChatListArgs are the get_chat_list arguments.
type ChatListArgs struct {
	Tab   types.Mode `json:"tab"`
	Limit int        `json:"limit,omitempty"`
}

// DispatchArgs are the dispatch_candidate arguments.
type DispatchArgs struct {
	Name       string     `json:"name,omitempty"`
	Mode       types.Mode `json:"mode"`
	ChatID     *string    `json:"chat_id,omitempty"`
	Index      *int       `json:"index,omitempty"`
	JobApplied string     `json:"job_applied,omitempty"`
	Assistant  string     `json:"assistant,omitempty"`
}

// Candidate builds the referenced candidate, validating the mode/identity pair.
func (a DispatchArgs) Candidate() (types.Candidate, error) {
	return types.NewCandidate(types.CandidateFields{
		Name:       a.Name,
		Mode:       a.Mode,
		ChatID:     a.ChatID,
		Index:      a.Index,
		JobApplied: a.JobApplied,
	})
}

// FinishArgs are the finish arguments at both levels. Analysis is required
// by the recruiter spec only.
type FinishArgs struct {
	Summary  string          `json:"summary,omitempty"`
	Analysis *types.Analysis `json:"analysis,omitempty"`
}

// TextArgs carries a single text argument.
type TextArgs struct {
	Text string `json:"text,omitempty"`
}

// ContactArgs are the request_contact arguments.
type ContactArgs struct {
	Kind string `json:"kind,omitempty"`
}
