// Package tools declares the fixed tool sets bound to the manager and
// recruiter models, and decodes their arguments.
package tools

import (
	"github.com/jonathan/recruiter-agent/internal/types"
)

// Param describes one tool argument.
type Param struct {
	Name        string
	Type        string // string, integer, number, boolean, object, array
	Description string
	Required    bool
	Enum        []string
	Minimum     *float64
	Items       *Param
	Properties  []Param
	// Values describes the value type of a free-form object (map) parameter.
	Values *Param
}

// Spec declares one tool.
type Spec struct {
	Kind        types.ToolKind
	Description string
	Params      []Param
}

// Name returns the tool name as seen by the model.
func (s Spec) Name() string {
	return string(s.Kind)
}

// JSONSchema returns the argument object schema.
func (s Spec) JSONSchema() map[string]any {
	return objectSchema(s.Params)
}

func objectSchema(params []Param) map[string]any {
	props := make(map[string]any, len(params))
	required := []any{}
	for _, p := range params {
		props[p.Name] = p.schema()
		if p.Required {
			required = append(required, p.Name)
		}
	}
	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func (p Param) schema() map[string]any {
	if p.Type == "object" && len(p.Properties) > 0 {
		out := objectSchema(p.Properties)
		if p.Description != "" {
			out["description"] = p.Description
		}
		return out
	}

	out := map[string]any{"type": p.Type}
	if p.Description != "" {
		out["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		enum := make([]any, len(p.Enum))
		for i, e := range p.Enum {
			enum[i] = e
		}
		out["enum"] = enum
	}
	if p.Minimum != nil {
		out["minimum"] = *p.Minimum
	}
	if p.Items != nil {
		out["items"] = p.Items.schema()
	}
	if p.Values != nil {
		out["additionalProperties"] = p.Values.schema()
	}
	if p.Type == "string" && p.Required {
		out["minLength"] = 1
	}
	return out
}

// Lookup finds the spec for kind.
func Lookup(specs []Spec, kind types.ToolKind) (Spec, bool) {
	for _, s := range specs {
		if s.Kind == kind {
			return s, true
		}
	}
	return Spec{}, false
}

func minimum(v float64) *float64 { return &v }

var candidateModes = []string{
	string(types.ModeRecommend), string(types.ModeGreet), string(types.ModeChat), string(types.ModeFollowup),
}

// ManagerSpecs returns the tool set bound to the manager model.
func ManagerSpecs() []Spec {
	return []Spec{
		{
			Kind:        types.ToolGetRecommendCandidates,
			Description: "List candidates the platform recommends for an open job.",
			Params: []Param{
				{Name: "job", Type: "string", Description: "Title of the open job", Required: true},
				{Name: "limit", Type: "integer", Description: "Maximum number of candidates", Minimum: minimum(1)},
			},
		},
		{
			Kind:        types.ToolGetChatList,
			Description: "List candidates with existing chat threads.",
			Params: []Param{
				{Name: "tab", Type: "string", Description: "Which chat list to read", Required: true,
					Enum: []string{string(types.ModeGreet), string(types.ModeChat), string(types.ModeFollowup)}},
				{Name: "limit", Type: "integer", Description: "Maximum number of candidates", Minimum: minimum(1)},
			},
		},
		{
			Kind:        types.ToolDispatchCandidate,
			Description: "Hand one candidate to a recruiter session. Each candidate may be dispatched once per run.",
			Params: []Param{
				{Name: "name", Type: "string", Description: "Candidate name"},
				{Name: "mode", Type: "string", Description: "How the candidate was found", Required: true, Enum: candidateModes},
				{Name: "chat_id", Type: "string", Description: "Chat thread id, required unless mode is recommend"},
				{Name: "index", Type: "integer", Description: "Recommendation list position, required when mode is recommend", Minimum: minimum(0)},
				{Name: "job_applied", Type: "string", Description: "Job the candidate is considered for"},
				{Name: "assistant", Type: "string", Description: "Persona name to use for the conversation"},
			},
		},
		{
			Kind:        types.ToolFinish,
			Description: "End the recruiting run.",
			Params: []Param{
				{Name: "summary", Type: "string", Description: "Summary of the run"},
			},
		},
	}
}

// RecruiterSpecs returns the chat, resume and action tools bound to the
// recruiter model for a candidate in mode.
func RecruiterSpecs(mode types.Mode) []Spec {
	finish := Spec{
		Kind:        types.ToolFinish,
		Description: "End the session with a structured evaluation of the candidate.",
		Params: []Param{
			{Name: "analysis", Type: "object", Description: "Candidate evaluation", Required: true, Properties: []Param{
				{Name: "overall", Type: "number", Description: "Overall fit score from 1 to 10", Required: true},
				{Name: "summary", Type: "string", Description: "Short justification"},
				{Name: "dimensions", Type: "object", Description: "Per-dimension scores", Values: &Param{Type: "number"}},
			}},
			{Name: "summary", Type: "string", Description: "Report for the manager"},
		},
	}
	viewResume := Spec{
		Kind:        types.ToolViewResume,
		Description: "Read the candidate's online resume.",
	}

	if mode == types.ModeRecommend {
		return []Spec{
			viewResume,
			{
				Kind:        types.ToolGreet,
				Description: "Send the first greeting to a recommended candidate.",
				Params: []Param{
					{Name: "text", Type: "string", Description: "Greeting text"},
				},
			},
			finish,
		}
	}

	return []Spec{
		{
			Kind:        types.ToolReadMessages,
			Description: "Read the chat thread with the candidate.",
		},
		{
			Kind:        types.ToolSendMessage,
			Description: "Send a chat message to the candidate.",
			Params: []Param{
				{Name: "text", Type: "string", Description: "Message text", Required: true},
			},
		},
		{
			Kind:        types.ToolRequestResume,
			Description: "Ask the candidate for a full resume attachment.",
		},
		viewResume,
		{
			Kind:        types.ToolRequestContact,
			Description: "Ask the candidate to exchange contact information.",
			Params: []Param{
				{Name: "kind", Type: "string", Description: "Contact channel", Enum: []string{"phone", "wechat"}},
			},
		},
		finish,
	}
}
