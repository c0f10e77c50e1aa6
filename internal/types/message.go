package types

import (
	"encoding/json"
	"time"
)

// Role is the author of a transcript message.
type Role string

// Message roles
const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolKind is the closed set of tools either workflow level can call.
type ToolKind string

// Manager tools
const (
	ToolGetRecommendCandidates ToolKind = "get_recommend_candidates"
	ToolGetChatList            ToolKind = "get_chat_list"
	ToolDispatchCandidate      ToolKind = "dispatch_candidate"
)

// Recruiter tools
const (
	ToolReadMessages   ToolKind = "read_messages"
	ToolSendMessage    ToolKind = "send_message"
	ToolGreet          ToolKind = "greet_candidate"
	ToolRequestResume  ToolKind = "request_resume"
	ToolViewResume     ToolKind = "view_resume"
	ToolRequestContact ToolKind = "request_contact"
)

// ToolFinish is the terminal tool shared by both levels.
const ToolFinish ToolKind = "finish"

var toolKinds = []ToolKind{
	ToolGetRecommendCandidates, ToolGetChatList, ToolDispatchCandidate,
	ToolReadMessages, ToolSendMessage, ToolGreet, ToolRequestResume, ToolViewResume, ToolRequestContact,
	ToolFinish,
}

// ParseToolKind maps a tool name to its kind.
func ParseToolKind(name string) (ToolKind, bool) {
	for _, k := range toolKinds {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}

// ToolStatus is the outcome of one tool call.
type ToolStatus string

// Tool statuses
const (
	StatusSuccess ToolStatus = "success"
	StatusError   ToolStatus = "error"
)

// ToolCall is a request from the model to run one tool.
type ToolCall struct {
	ID   string          `json:"id"`
	Kind ToolKind        `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// ToolPayload is the typed result body of a tool. The concrete type is fixed
// per tool kind.
type ToolPayload interface {
	toolPayload()
}

// CandidatesPayload carries candidates discovered on the platform.
type CandidatesPayload struct {
	Candidates []Candidate
}

// DispatchPayload carries the candidate selected for dispatch.
type DispatchPayload struct {
	Candidate Candidate
	Assistant string
}

// FinishPayload carries the terminal summary and, at recruiter level, the analysis.
type FinishPayload struct {
	Summary  string
	Analysis *Analysis
	Stage    Stage
}

// ChatPayload carries a chat thread read from the platform.
type ChatPayload struct {
	Messages []ChatMessage
}

// ResumePayload carries resume text.
type ResumePayload struct {
	Text string
	URL  string
}

func (CandidatesPayload) toolPayload() {}
func (DispatchPayload) toolPayload()   {}
func (FinishPayload) toolPayload()     {}
func (ChatPayload) toolPayload()       {}
func (ResumePayload) toolPayload()     {}

// ToolResult is the tagged outcome of a tool call. Payload is in-process only.
type ToolResult struct {
	CallID  string      `json:"call_id"`
	Kind    ToolKind    `json:"name"`
	Status  ToolStatus  `json:"status"`
	Content string      `json:"content"`
	Payload ToolPayload `json:"-"`
}

// Succeeded reports whether the result has success status.
func (r *ToolResult) Succeeded() bool {
	return r != nil && r.Status == StatusSuccess
}

// Message is one transcript entry.
type Message struct {
	Role       Role        `json:"role"`
	Content    string      `json:"content,omitempty"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// SystemMessage builds a system message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content, CreatedAt: time.Now()}
}

// HumanMessage builds a human message.
func HumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content, CreatedAt: time.Now()}
}

// AssistantMessage builds an assistant message.
func AssistantMessage(content string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls, CreatedAt: time.Now()}
}

// ToolMessage wraps a tool result in a message.
func ToolMessage(result ToolResult) Message {
	return Message{Role: RoleTool, Content: result.Content, ToolResult: &result, CreatedAt: time.Now()}
}

// HasToolCalls reports whether m is an assistant message requesting tools.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// IsToolResult reports whether m carries a tool result.
func (m Message) IsToolResult() bool {
	return m.Role == RoleTool && m.ToolResult != nil
}
