package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonathan/recruiter-agent/internal/candidates"
	"github.com/jonathan/recruiter-agent/internal/platform"
	"github.com/jonathan/recruiter-agent/internal/state"
	"github.com/jonathan/recruiter-agent/internal/tools"
	"github.com/jonathan/recruiter-agent/internal/types"
)

// DefaultDiscoveryLimit caps candidate lists when the model gives no limit.
const DefaultDiscoveryLimit = 20

// runTools executes the manager tool set against one run's state.
type runTools struct {
	platform platform.Client
	run      *state.RunState
	decoder  *tools.Decoder
}

func newRunTools(client platform.Client, run *state.RunState) *runTools {
	return &runTools{
		platform: client,
		run:      run,
		decoder:  tools.NewDecoder(tools.ManagerSpecs()),
	}
}

// Execute implements tools.Executor.
func (t *runTools) Execute(ctx context.Context, call types.ToolCall) types.ToolResult {
	switch call.Kind {
	case types.ToolGetRecommendCandidates:
		var args tools.RecommendArgs
		if err := t.decoder.Decode(call, &args); err != nil {
			return tools.Failure(call, err)
		}
		list, err := t.platform.RecommendCandidates(ctx, args.Job, discoveryLimit(args.Limit))
		if err != nil {
			return tools.Failure(call, err)
		}
		return t.discovered(call, list)

	case types.ToolGetChatList:
		var args tools.ChatListArgs
		if err := t.decoder.Decode(call, &args); err != nil {
			return tools.Failure(call, err)
		}
		list, err := t.platform.ChatList(ctx, args.Tab, discoveryLimit(args.Limit))
		if err != nil {
			return tools.Failure(call, err)
		}
		return t.discovered(call, list)

	case types.ToolDispatchCandidate:
		return t.dispatch(call)

	case types.ToolFinish:
		var args tools.FinishArgs
		if err := t.decoder.Decode(call, &args); err != nil {
			return tools.Failure(call, err)
		}
		return tools.Success(call, "Run finished. "+args.Summary, types.FinishPayload{Summary: args.Summary})

	default:
		return tools.Failure(call, &tools.UnknownToolError{Tool: call.Kind})
	}
}

func discoveryLimit(n int) int {
	if n <= 0 {
		return DefaultDiscoveryLimit
	}
	return n
}

// discovered merges list into the run and reports it back to the model.
func (t *runTools) discovered(call types.ToolCall, list []types.Candidate) types.ToolResult {
	t.run.AddCandidates(list...)
	if len(list) == 0 {
		return tools.Success(call, "No candidates found.", types.CandidatesPayload{})
	}
	data, err := json.Marshal(list)
	if err != nil {
		return tools.Failure(call, fmt.Errorf("encode candidates: %w", err))
	}
	content := fmt.Sprintf("Found %d candidates:\n%s", len(list), data)
	return tools.Success(call, content, types.CandidatesPayload{Candidates: list})
}

var errNotDiscovered = errors.New("candidate is not in the discovered list; fetch candidates first and use their chat_id or index")

// dispatch resolves the referenced candidate against the discovered set.
// The actual session runs in the DISPATCH state.
func (t *runTools) dispatch(call types.ToolCall) types.ToolResult {
	var args tools.DispatchArgs
	if err := t.decoder.Decode(call, &args); err != nil {
		return tools.Failure(call, err)
	}
	ref, err := args.Candidate()
	if err != nil {
		return tools.Failure(call, &tools.ArgumentError{Tool: call.Kind, Cause: err})
	}
	c, ok := candidates.Find(t.run.Candidates, ref)
	if !ok {
		return tools.Failure(call, errNotDiscovered)
	}
	name := c.Name
	if name == "" {
		name = c.ThreadKey()
	}
	return tools.Success(call, fmt.Sprintf("Dispatching %s to a recruiter.", name),
		types.DispatchPayload{Candidate: c, Assistant: args.Assistant})
}
