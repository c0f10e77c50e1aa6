// Package workflow holds the routing helpers shared by the manager and
// recruiter state machines.
//
// Routing only looks at (role, tool kind, status) of the newest message;
// message bodies are never inspected.
package workflow

import (
	"errors"
	"fmt"

	"github.com/jonathan/recruiter-agent/internal/types"
)

// ErrToolFailureLimit is returned when consecutive tool failures exceed the configured bound.
var ErrToolFailureLimit = errors.New("consecutive tool failure limit reached")

// ErrStepLimit is returned when a workflow exceeds its configured step bound.
var ErrStepLimit = errors.New("workflow step limit reached")

// LastToolResult returns the tool result carried by the newest message.
// A transcript that does not end in a tool result is an orchestration bug,
// so this panics instead of returning an error.
func LastToolResult(msgs []types.Message) *types.ToolResult {
	if len(msgs) == 0 {
		panic("workflow: routing on empty transcript")
	}
	last := msgs[len(msgs)-1]
	if !last.IsToolResult() {
		panic(fmt.Sprintf("workflow: expected tool result as last message, got %s", last.Role))
	}
	return last.ToolResult
}

// IsTerminal reports whether r is a successful finish result.
func IsTerminal(r *types.ToolResult) bool {
	return r.Succeeded() && r.Kind == types.ToolFinish
}

// EndsWithSuccess reports whether the newest message is a successful tool
// result of one of the given kinds.
func EndsWithSuccess(msgs []types.Message, kinds ...types.ToolKind) bool {
	if len(msgs) == 0 {
		return false
	}
	last := msgs[len(msgs)-1]
	if !last.IsToolResult() || !last.ToolResult.Succeeded() {
		return false
	}
	for _, k := range kinds {
		if last.ToolResult.Kind == k {
			return true
		}
	}
	return false
}

// FailureBudget counts consecutive tool failures. A zero limit is unbounded.
type FailureBudget struct {
	Limit       int
	consecutive int
}

// Observe records a tool result and returns ErrToolFailureLimit once the
// number of consecutive failures exceeds the limit.
func (b *FailureBudget) Observe(r *types.ToolResult) error {
	if r.Succeeded() {
		b.consecutive = 0
		return nil
	}
	b.consecutive++
	if b.Limit > 0 && b.consecutive > b.Limit {
		return fmt.Errorf("%w: %d failures in a row, last from %s", ErrToolFailureLimit, b.consecutive, r.Kind)
	}
	return nil
}

// Consecutive returns the current run of failures.
func (b *FailureBudget) Consecutive() int {
	return b.consecutive
}

// StepBudget bounds the number of loop iterations. A zero limit is unbounded.
type StepBudget struct {
	Limit int
	steps int
}

// Next counts one step and returns ErrStepLimit when the bound is exceeded.
func (b *StepBudget) Next() error {
	b.steps++
	if b.Limit > 0 && b.steps > b.Limit {
		return fmt.Errorf("%w: %d steps", ErrStepLimit, b.Limit)
	}
	return nil
}
