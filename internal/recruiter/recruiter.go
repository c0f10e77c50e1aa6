// Package recruiter runs the per-candidate think/act loop.
//
// A session alternates a model turn (THINK) with tool execution
// (EXECUTE_TOOLS) until a successful finish result is observed (END).
// The session is checkpointed to the store after every step so a later
// dispatch of the same thread key resumes it.
package recruiter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/jonathan/recruiter-agent/internal/llm"
	"github.com/jonathan/recruiter-agent/internal/prompts"
	"github.com/jonathan/recruiter-agent/internal/state"
	"github.com/jonathan/recruiter-agent/internal/store"
	"github.com/jonathan/recruiter-agent/internal/tools"
	"github.com/jonathan/recruiter-agent/internal/types"
	"github.com/jonathan/recruiter-agent/internal/workflow"
)

// State is a recruiter workflow state.
type State string

// Recruiter states
const (
	StateThink        State = "THINK"
	StateExecuteTools State = "EXECUTE_TOOLS"
	StateEnd          State = "END"
)

// Config bounds and parameterizes sessions.
type Config struct {
	Owner      string
	Thresholds types.Thresholds
	// MaxToolFailures is the number of consecutive failing tool calls
	// tolerated before the session is abandoned (0 = unbounded).
	MaxToolFailures int
	// MaxSteps bounds model turns per Run (0 = unbounded).
	MaxSteps int
	Tier     llm.ModelTier
	Verbose  bool
}

// SessionInput is what the manager hands to a session.
type SessionInput struct {
	Candidate types.Candidate
	Job       types.Job
	Assistant types.Assistant
	// Seed is appended to the transcript before the first THINK.
	Seed []types.Message
	// Existing is the stored session when resuming, nil for a fresh one.
	Existing *state.SessionState
}

// Report is the outcome of one Run.
type Report struct {
	Processed types.ProcessedCandidate
	Messages  []types.Message
	Exhausted bool
	Reason    string
}

// Final returns the last transcript message.
func (r *Report) Final() types.Message {
	if len(r.Messages) == 0 {
		return types.Message{}
	}
	return r.Messages[len(r.Messages)-1]
}

// Recruiter runs sessions.
type Recruiter struct {
	llm      llm.Client
	sessions store.SessionStore
	toolbox  Toolbox
	config   Config
	now      func() time.Time
}

// New creates a Recruiter.
func New(client llm.Client, sessions store.SessionStore, toolbox Toolbox, config Config) *Recruiter {
	if config.Thresholds == (types.Thresholds{}) {
		config.Thresholds = types.DefaultThresholds()
	}
	if config.Tier == "" {
		config.Tier = llm.TierStandard
	}
	return &Recruiter{
		llm:      client,
		sessions: sessions,
		toolbox:  toolbox,
		config:   config,
		now:      time.Now,
	}
}

// Run executes the session for threadKey to completion. It returns an error
// only for model failures, store failures (including store.ErrVersionConflict
// when another run owns the session) and context cancellation; tool failures
// are fed back to the model.
func (r *Recruiter) Run(ctx context.Context, threadKey string, in SessionInput) (*Report, error) {
	sess := r.open(in)
	ns := store.RecruiterNamespace(r.config.Owner)

	if err := r.checkpoint(ctx, ns, threadKey, sess); err != nil {
		return nil, err
	}

	systemPrompt, err := prompts.Render(prompts.RecruiterFile, "system", map[string]string{
		"ChatThreshold": strconv.FormatFloat(r.config.Thresholds.Chat, 'f', -1, 64),
		"SeekThreshold": strconv.FormatFloat(r.config.Thresholds.Seek, 'f', -1, 64),
		"Mode":          string(sess.Mode),
	})
	if err != nil {
		return nil, err
	}

	executor := r.toolbox.For(sess)
	specs := tools.RecruiterSpecs(sess.Mode)
	failures := workflow.FailureBudget{Limit: r.config.MaxToolFailures}
	steps := workflow.StepBudget{Limit: r.config.MaxSteps}

	current := StateThink
	for current != StateEnd {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch current {
		case StateThink:
			if err := steps.Next(); err != nil {
				return r.exhaust(ctx, ns, threadKey, sess, err)
			}
			msg, err := r.llm.Invoke(ctx, llm.Request{
				SystemPrompt: systemPrompt,
				Messages:     sess.Messages,
				Tools:        specs,
				Tier:         r.config.Tier,
			})
			if err != nil {
				return nil, fmt.Errorf("recruiter think for %s: %w", threadKey, err)
			}
			if msg.CreatedAt.IsZero() {
				msg.CreatedAt = r.now()
			}
			sess.AddMessages(msg)
			current = RouteThink(sess.Messages)

		case StateExecuteTools:
			last := sess.Messages[len(sess.Messages)-1]
			results := tools.Run(ctx, executor, last.ToolCalls)
			for _, m := range results {
				apply(sess, m.ToolResult)
				if r.config.Verbose {
					log.Printf("[RECRUITER] %s: %s [%s]", threadKey, m.ToolResult.Kind, m.ToolResult.Status)
				}
			}
			sess.AddMessages(results...)
			current = RouteTools(sess.Messages)
			if current != StateEnd {
				if err := failures.Observe(workflow.LastToolResult(sess.Messages)); err != nil {
					return r.exhaust(ctx, ns, threadKey, sess, err)
				}
			}
		}

		if err := r.checkpoint(ctx, ns, threadKey, sess); err != nil {
			return nil, err
		}
	}

	return r.report(sess, false, ""), nil
}

var errInterrupted = errors.New("the previous session stopped before this tool ran")

// open resumes in.Existing or builds a fresh session. Tool calls left
// unanswered by an interrupted session are closed with error results so the
// transcript stays well formed for the provider.
func (r *Recruiter) open(in SessionInput) *state.SessionState {
	if in.Existing != nil {
		sess := in.Existing.Clone()
		if in.Candidate.Identity != nil {
			sess.Candidate = in.Candidate
		}
		if n := len(sess.Messages); n > 0 && sess.Messages[n-1].HasToolCalls() {
			for _, call := range sess.Messages[n-1].ToolCalls {
				sess.AddMessages(types.ToolMessage(tools.Failure(call, errInterrupted)))
			}
		}
		sess.AddMessages(in.Seed...)
		return sess
	}
	return state.NewSessionState(in.Candidate, in.Job, in.Assistant, in.Seed...)
}

// apply copies a successful finish payload onto the session.
func apply(sess *state.SessionState, result *types.ToolResult) {
	if result == nil || !result.Succeeded() {
		return
	}
	if p, ok := result.Payload.(types.FinishPayload); ok {
		sess.Stage = p.Stage
		sess.Analysis = p.Analysis
	}
}

func (r *Recruiter) checkpoint(ctx context.Context, ns store.Namespace, key string, sess *state.SessionState) error {
	if err := r.sessions.Put(ctx, ns, key, sess); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			log.Printf("[STORE] Session %s was written by another run", key)
		}
		return fmt.Errorf("checkpoint session %s: %w", key, err)
	}
	return nil
}

// exhaust ends a session that hit a loop bound without finishing.
func (r *Recruiter) exhaust(ctx context.Context, ns store.Namespace, key string, sess *state.SessionState, cause error) (*Report, error) {
	log.Printf("[RECRUITER] Abandoning session %s: %v", key, cause)
	note := prompts.Format(prompts.MustGet(prompts.RecruiterFile, "exhausted"), map[string]string{"Reason": cause.Error()})
	sess.AddMessages(types.SystemMessage(note))
	if err := r.checkpoint(ctx, ns, key, sess); err != nil {
		return nil, err
	}
	return r.report(sess, true, cause.Error()), nil
}

func (r *Recruiter) report(sess *state.SessionState, exhausted bool, reason string) *Report {
	return &Report{
		Processed: types.ProcessedCandidate{
			Candidate:   sess.Candidate,
			Stage:       sess.Stage,
			Analysis:    sess.Analysis,
			Exhausted:   exhausted,
			ProcessedAt: r.now(),
		},
		Messages:  append([]types.Message(nil), sess.Messages...),
		Exhausted: exhausted,
		Reason:    reason,
	}
}

// RouteThink picks the state after a THINK step.
func RouteThink(msgs []types.Message) State {
	if len(msgs) == 0 {
		return StateThink
	}
	last := msgs[len(msgs)-1]
	switch {
	case last.Role == types.RoleAssistant && last.HasToolCalls():
		return StateExecuteTools
	case last.IsToolResult() && workflow.IsTerminal(last.ToolResult):
		return StateEnd
	default:
		return StateThink
	}
}

// RouteTools picks the state after EXECUTE_TOOLS. It panics if the
// transcript does not end in a tool result.
func RouteTools(msgs []types.Message) State {
	if workflow.IsTerminal(workflow.LastToolResult(msgs)) {
		return StateEnd
	}
	return StateThink
}
