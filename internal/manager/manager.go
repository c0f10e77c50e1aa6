// Package manager runs the supervising workflow of a recruiting run.
//
// The manager checks the platform environment, plans with the manager tool
// set, discovers candidates and hands them one at a time to a recruiter
// session. It blocks on every session and folds the session's report back
// into its own transcript before planning again.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/recruiter-agent/internal/llm"
	"github.com/jonathan/recruiter-agent/internal/observability"
	"github.com/jonathan/recruiter-agent/internal/platform"
	"github.com/jonathan/recruiter-agent/internal/prompts"
	"github.com/jonathan/recruiter-agent/internal/recruiter"
	"github.com/jonathan/recruiter-agent/internal/state"
	"github.com/jonathan/recruiter-agent/internal/store"
	"github.com/jonathan/recruiter-agent/internal/tools"
	"github.com/jonathan/recruiter-agent/internal/types"
	"github.com/jonathan/recruiter-agent/internal/workflow"
)

// State is a manager workflow state.
type State string

// Manager states
const (
	StateCheckEnv  State = "CHECK_ENV"
	StatePlan      State = "PLAN"
	StateExecTools State = "EXEC_TOOLS"
	StateDispatch  State = "DISPATCH"
	StateEnd       State = "END"
)

// Config parameterizes a run.
type Config struct {
	Owner string
	// Limit stops dispatching after this many processed candidates (0 = unlimited).
	Limit int
	// MaxToolFailures bounds consecutive failing manager tool calls (0 = unbounded).
	MaxToolFailures int
	// MaxPlanSteps bounds planning turns over the whole run (0 = unbounded).
	MaxPlanSteps int
	Tier         llm.ModelTier
	Verbose      bool
}

// SessionRunner runs one recruiter session to completion.
type SessionRunner interface {
	Run(ctx context.Context, threadKey string, in recruiter.SessionInput) (*recruiter.Report, error)
}

// Notifier is told about candidates that reached CONTACT.
type Notifier interface {
	NotifyContact(ctx context.Context, runID string, p types.ProcessedCandidate) error
}

// Deps are the collaborators of a Manager. LLM, Platform, Recruiter,
// Sessions and Interrupter are required.
type Deps struct {
	LLM         llm.Client
	Platform    platform.Client
	Recruiter   SessionRunner
	Sessions    store.SessionStore
	Candidates  store.CandidateStore
	Interrupter Interrupter
	Notifier    Notifier
	Printer     *observability.Printer
}

// RunInput starts a run.
type RunInput struct {
	RunID string
	// Instruction is the operator's opening message. The kickoff prompt is used when empty.
	Instruction string
	OnEvent     EventCallback
}

// Manager runs recruiting runs.
type Manager struct {
	deps   Deps
	config Config
	now    func() time.Time
}

// New creates a Manager.
func New(deps Deps, config Config) (*Manager, error) {
	switch {
	case deps.LLM == nil:
		return nil, errors.New("manager: llm client is required")
	case deps.Platform == nil:
		return nil, errors.New("manager: platform client is required")
	case deps.Recruiter == nil:
		return nil, errors.New("manager: recruiter is required")
	case deps.Sessions == nil:
		return nil, errors.New("manager: session store is required")
	case deps.Interrupter == nil:
		return nil, errors.New("manager: interrupter is required")
	}
	if deps.Candidates == nil {
		deps.Candidates = store.Disconnected{}
	}
	if config.Tier == "" {
		config.Tier = llm.TierAdvanced
	}
	return &Manager{deps: deps, config: config, now: time.Now}, nil
}

// run is the per-run context threaded through the state handlers.
type run struct {
	id         string
	state      *state.RunState
	onEvent    EventCallback
	dispatches int
}

// Run executes a recruiting run until the finish tool succeeds or the model
// stops calling tools. The returned state is non-nil even on error.
func (m *Manager) Run(ctx context.Context, in RunInput) (*state.RunState, error) {
	runID := in.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	r := &run{id: runID, state: &state.RunState{}, onEvent: in.OnEvent}

	systemPrompt, err := prompts.Render(prompts.ManagerFile, "system", map[string]string{"Owner": m.config.Owner})
	if err != nil {
		return r.state, err
	}
	instruction := in.Instruction
	if instruction == "" {
		instruction = prompts.MustGet(prompts.ManagerFile, "kickoff")
	}
	m.append(r, types.HumanMessage(instruction))

	executor := newRunTools(m.deps.Platform, r.state)
	specs := tools.ManagerSpecs()
	failures := workflow.FailureBudget{Limit: m.config.MaxToolFailures}
	steps := workflow.StepBudget{Limit: m.config.MaxPlanSteps}

	current := StateCheckEnv
	for current != StateEnd {
		if err := ctx.Err(); err != nil {
			return r.state, err
		}
		m.emit(r, Event{Type: EventState, State: current})

		switch current {
		case StateCheckEnv:
			if err := m.checkEnv(ctx, r); err != nil {
				return r.state, err
			}
			current = StatePlan

		case StatePlan:
			if workflow.EndsWithSuccess(r.state.Messages, types.ToolDispatchCandidate, types.ToolFinish) {
				current = RouteTools(r.state.Messages)
				continue
			}
			if err := steps.Next(); err != nil {
				return r.state, err
			}
			msg, err := m.deps.LLM.Invoke(ctx, llm.Request{
				SystemPrompt: systemPrompt,
				Messages:     r.state.Messages,
				Tools:        specs,
				Tier:         m.config.Tier,
			})
			if err != nil {
				return r.state, fmt.Errorf("manager plan: %w", err)
			}
			if msg.CreatedAt.IsZero() {
				msg.CreatedAt = m.now()
			}
			m.append(r, msg)
			current = RoutePlan(msg)

		case StateExecTools:
			last := r.state.Messages[len(r.state.Messages)-1]
			m.append(r, tools.Run(ctx, executor, last.ToolCalls)...)
			result := workflow.LastToolResult(r.state.Messages)
			if err := failures.Observe(result); err != nil {
				return r.state, err
			}
			current = RouteTools(r.state.Messages)

		case StateDispatch:
			if err := m.dispatch(ctx, r); err != nil {
				return r.state, err
			}
			current = StatePlan
		}
	}

	m.emit(r, Event{Type: EventState, State: StateEnd})
	if m.config.Verbose && m.deps.Printer != nil {
		m.deps.Printer.PrintRunSummary(r.state.ProcessedCandidates)
	}
	log.Printf("[MANAGER] Run %s finished: %d candidates processed", r.id, len(r.state.ProcessedCandidates))
	return r.state, nil
}

// RoutePlan picks the state after a planning turn.
func RoutePlan(msg types.Message) State {
	if msg.HasToolCalls() {
		return StateExecTools
	}
	return StateEnd
}

// RouteTools picks the state after EXEC_TOOLS. It panics if the transcript
// does not end in a tool result.
func RouteTools(msgs []types.Message) State {
	result := workflow.LastToolResult(msgs)
	if !result.Succeeded() {
		return StatePlan
	}
	switch result.Kind {
	case types.ToolDispatchCandidate:
		return StateDispatch
	case types.ToolFinish:
		return StateEnd
	default:
		return StatePlan
	}
}

func (m *Manager) append(r *run, msgs ...types.Message) {
	r.state.AddMessages(msgs...)
	for _, msg := range msgs {
		if m.config.Verbose && m.deps.Printer != nil {
			m.deps.Printer.PrintMessage("manager", msg)
		}
		msg := msg
		m.emit(r, Event{Type: EventMessage, Message: &msg})
	}
}

// environment is the result of one successful environment probe.
type environment struct {
	status     *types.PlatformStatus
	jobs       []types.Job
	assistants []types.Assistant
}

// EnvironmentError reports why the platform is not ready.
type EnvironmentError struct {
	Reason string
	Cause  error
}

func (e *EnvironmentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("environment check failed: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("environment check failed: %s", e.Reason)
}

func (e *EnvironmentError) Unwrap() error {
	return e.Cause
}

func (m *Manager) probe(ctx context.Context) (*environment, error) {
	env := &environment{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		status, err := m.deps.Platform.Status(gctx)
		if err != nil {
			return &EnvironmentError{Reason: "platform status unavailable", Cause: err}
		}
		env.status = status
		return nil
	})
	g.Go(func() error {
		jobs, err := m.deps.Platform.Jobs(gctx)
		if err != nil {
			return &EnvironmentError{Reason: "job list unavailable", Cause: err}
		}
		env.jobs = jobs
		return nil
	})
	g.Go(func() error {
		assistants, err := m.deps.Platform.Assistants(gctx)
		if err != nil {
			return &EnvironmentError{Reason: "persona list unavailable", Cause: err}
		}
		env.assistants = assistants
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	switch {
	case env.status == nil || !env.status.LoggedIn:
		return nil, &EnvironmentError{Reason: "the portal is not logged in to the hiring platform"}
	case len(env.jobs) == 0:
		return nil, &EnvironmentError{Reason: "no open jobs"}
	case len(env.assistants) == 0:
		return nil, &EnvironmentError{Reason: "no personas configured"}
	}
	return env, nil
}

// checkEnv retries the environment probe until it passes, suspending the
// run through the Interrupter after every failure.
func (m *Manager) checkEnv(ctx context.Context, r *run) error {
	for attempt := 1; ; attempt++ {
		env, err := m.probe(ctx)
		if err == nil {
			m.installEnvironment(r, env)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		diagnostic := fmt.Sprintf("%v (attempt %d)", err, attempt)
		log.Printf("[MANAGER] %s", diagnostic)
		m.emit(r, Event{Type: EventInterrupt, Detail: diagnostic})
		if err := m.deps.Interrupter.Interrupt(ctx, diagnostic); err != nil {
			return fmt.Errorf("environment check interrupted: %w", err)
		}
		m.emit(r, Event{Type: EventResumed})
	}
}

func (m *Manager) installEnvironment(r *run, env *environment) {
	r.state.SetCatalogs(env.jobs, env.assistants)
	if m.config.Verbose && m.deps.Printer != nil {
		m.deps.Printer.PrintEnvironment(env.status, env.jobs, env.assistants)
	}

	jobTitles := make([]string, len(env.jobs))
	for i, j := range env.jobs {
		jobTitles[i] = j.Title
	}
	names := make([]string, len(env.assistants))
	for i, a := range env.assistants {
		names[i] = a.Name
	}
	account := env.status.Account
	if account == "" {
		account = "(unknown)"
	}
	summary := prompts.Format(prompts.MustGet(prompts.ManagerFile, "environment"), map[string]string{
		"Account":        account,
		"JobCount":       strconv.Itoa(len(env.jobs)),
		"Jobs":           strings.Join(jobTitles, ", "),
		"AssistantCount": strconv.Itoa(len(env.assistants)),
		"Assistants":     strings.Join(names, ", "),
		"ProcessedCount": strconv.Itoa(len(r.state.ProcessedCandidates)),
	})
	m.append(r, types.SystemMessage(summary))
}
