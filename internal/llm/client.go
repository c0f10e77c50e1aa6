package llm

import (
	"context"
	"fmt"

	"github.com/jonathan/recruiter-agent/internal/tools"
	"github.com/jonathan/recruiter-agent/internal/types"
)

// Request is one model turn: a system prompt, the transcript so far, and the
// tools the model may call. Parallel tool calls are always disabled; at most
// one tool call is returned per turn.
type Request struct {
	SystemPrompt string
	Messages     []types.Message
	Tools        []tools.Spec
	Tier         ModelTier
}

// Client is an abstraction over LLM providers
type Client interface {
	// Invoke runs one model turn and returns the assistant message
	Invoke(ctx context.Context, req Request) (types.Message, error)
	// GetModel returns the provider model for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// Error wraps a provider failure.
type Error struct {
	Provider Provider
	Message  string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(config, apiKey)
	default:
		return NewGeminiClient(ctx, config, apiKey)
	}
}

// firstCallOnly drops every tool call after the first.
func firstCallOnly(calls []types.ToolCall) []types.ToolCall {
	if len(calls) <= 1 {
		return calls
	}
	return calls[:1]
}

func toolKind(name string) types.ToolKind {
	if k, ok := types.ParseToolKind(name); ok {
		return k
	}
	// Unknown names are kept so the executor can report them back to the model.
	return types.ToolKind(name)
}

func toolResultBody(r *types.ToolResult) map[string]any {
	return map[string]any{
		"status":  string(r.Status),
		"content": r.Content,
	}
}
