package tools

import (
	"context"

	"github.com/jonathan/recruiter-agent/internal/types"
)

// Executor runs one tool call. Every call resolves to exactly one result;
// failures are reported through the result status, never as a Go error.
type Executor interface {
	Execute(ctx context.Context, call types.ToolCall) types.ToolResult
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, call types.ToolCall) types.ToolResult

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, call types.ToolCall) types.ToolResult {
	return f(ctx, call)
}

// Run executes every call in order and returns one tool message per call.
func Run(ctx context.Context, ex Executor, calls []types.ToolCall) []types.Message {
	msgs := make([]types.Message, 0, len(calls))
	for _, call := range calls {
		msgs = append(msgs, types.ToolMessage(ex.Execute(ctx, call)))
	}
	return msgs
}

// Success builds a success result for call.
func Success(call types.ToolCall, content string, payload types.ToolPayload) types.ToolResult {
	return types.ToolResult{
		CallID:  call.ID,
		Kind:    call.Kind,
		Status:  types.StatusSuccess,
		Content: content,
		Payload: payload,
	}
}

// Failure builds an error result for call. The error text becomes the
// content the model sees on its next turn.
func Failure(call types.ToolCall, err error) types.ToolResult {
	return types.ToolResult{
		CallID:  call.ID,
		Kind:    call.Kind,
		Status:  types.StatusError,
		Content: err.Error(),
	}
}
