package manager

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/recruiter-agent/internal/llm"
	"github.com/jonathan/recruiter-agent/internal/platform/platformtest"
	"github.com/jonathan/recruiter-agent/internal/recruiter"
	"github.com/jonathan/recruiter-agent/internal/state"
	"github.com/jonathan/recruiter-agent/internal/store"
	"github.com/jonathan/recruiter-agent/internal/types"
	"github.com/jonathan/recruiter-agent/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func turn(id string, kind types.ToolKind, args string) types.Message {
	return types.AssistantMessage("", types.ToolCall{ID: id, Kind: kind, Args: json.RawMessage(args)})
}

func recommended(t *testing.T, name string, index int) types.Candidate {
	t.Helper()
	c, err := types.NewCandidate(types.CandidateFields{Name: name, Mode: types.ModeRecommend, Index: &index, JobApplied: "Backend Engineer"})
	require.NoError(t, err)
	return c
}

func chatting(t *testing.T, name, chatID string) types.Candidate {
	t.Helper()
	c, err := types.NewCandidate(types.CandidateFields{Name: name, Mode: types.ModeChat, ChatID: &chatID, JobApplied: "Backend Engineer"})
	require.NoError(t, err)
	return c
}

func readyPlatform(t *testing.T) *platformtest.Fake {
	return &platformtest.Fake{
		StatusValue:   types.PlatformStatus{LoggedIn: true, Account: "acme-hr"},
		JobList:       []types.Job{{ID: "j1", Title: "Frontend Engineer"}, {ID: "j2", Title: "Backend Engineer", Description: "Go services"}},
		AssistantList: []types.Assistant{{ID: "a1", Name: "Amy", Style: "warm"}, {ID: "a2", Name: "Bob", Style: "direct"}},
		Recommended: map[string][]types.Candidate{
			"Backend Engineer": {recommended(t, "Li", 0)},
		},
		Chats: map[types.Mode][]types.Candidate{
			types.ModeChat: {chatting(t, "Ann", "c-1")},
		},
	}
}

// stubRecruiter records sessions and returns a fixed stage.
type stubRecruiter struct {
	mu     sync.Mutex
	keys   []string
	inputs []recruiter.SessionInput
	stage  types.Stage
	err    error
}

func (s *stubRecruiter) Run(_ context.Context, key string, in recruiter.SessionInput) (*recruiter.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	s.inputs = append(s.inputs, in)
	if s.err != nil {
		return nil, s.err
	}
	return &recruiter.Report{
		Processed: types.ProcessedCandidate{Candidate: in.Candidate, Stage: s.stage, ProcessedAt: time.Now()},
		Messages:  []types.Message{types.AssistantMessage("Talked to " + in.Candidate.Name)},
	}, nil
}

type recordingNotifier struct {
	notified []types.ProcessedCandidate
}

func (n *recordingNotifier) NotifyContact(_ context.Context, _ string, p types.ProcessedCandidate) error {
	n.notified = append(n.notified, p)
	return nil
}

func newManager(t *testing.T, deps Deps, cfg Config) *Manager {
	t.Helper()
	if deps.Sessions == nil {
		deps.Sessions = store.NewMemorySessionStore()
	}
	if deps.Interrupter == nil {
		deps.Interrupter = NewChannelInterrupter()
	}
	if cfg.Owner == "" {
		cfg.Owner = "acme"
	}
	m, err := New(deps, cfg)
	require.NoError(t, err)
	return m
}

// invokeHook calls before ahead of every model turn.
type invokeHook struct {
	*llm.ScriptedClient
	before func()
}

func (h invokeHook) Invoke(ctx context.Context, req llm.Request) (types.Message, error) {
	h.before()
	return h.ScriptedClient.Invoke(ctx, req)
}

func humanMessages(rs *state.RunState, prefix string) []string {
	var out []string
	for _, m := range rs.Messages {
		if m.Role == types.RoleHuman && strings.HasPrefix(m.Content, prefix) {
			out = append(out, m.Content)
		}
	}
	return out
}

func TestRun_EndToEndRecommendedCandidate(t *testing.T) {
	fake := readyPlatform(t)
	sessions := store.NewMemorySessionStore()
	processed := store.NewMemoryCandidateStore()
	notifier := &recordingNotifier{}

	recruiterLLM := llm.NewScriptedClient(
		turn("r1", types.ToolFinish, `{"analysis":{"overall":8,"summary":"strong Go background"},"summary":"Great fit"}`),
	)
	rec := recruiter.New(recruiterLLM, sessions, recruiter.NewPlatformToolbox(fake, nil, types.DefaultThresholds()),
		recruiter.Config{Owner: "acme"})

	managerLLM := llm.NewScriptedClient(
		turn("m1", types.ToolGetRecommendCandidates, `{"job":"Backend Engineer"}`),
		turn("m2", types.ToolDispatchCandidate, `{"mode":"recommend","index":0,"job_applied":"Backend Engineer","assistant":"Bob"}`),
		turn("m3", types.ToolFinish, `{"summary":"processed one candidate"}`),
	)
	m := newManager(t, Deps{
		LLM:        managerLLM,
		Platform:   fake,
		Recruiter:  rec,
		Sessions:   sessions,
		Candidates: processed,
		Notifier:   notifier,
	}, Config{})

	var events []Event
	rs, err := m.Run(context.Background(), RunInput{RunID: "run-1", OnEvent: func(e Event) { events = append(events, e) }})
	require.NoError(t, err)

	require.Len(t, rs.ProcessedCandidates, 1)
	pc := rs.ProcessedCandidates[0]
	assert.Equal(t, types.StageContact, pc.Stage)
	assert.Equal(t, "Li", pc.Candidate.Name)
	index, ok := pc.Candidate.Index()
	require.True(t, ok)
	assert.Equal(t, 0, index)

	assert.Len(t, humanMessages(rs, "Recruiter report"), 1)
	last, ok := rs.LastMessage()
	require.True(t, ok)
	require.True(t, last.IsToolResult())
	assert.True(t, workflow.IsTerminal(last.ToolResult))

	// Catalogs were installed and the environment summary is in the transcript.
	assert.Len(t, rs.Jobs, 2)
	assert.Len(t, rs.Assistants, 2)
	assert.Equal(t, types.RoleSystem, rs.Messages[1].Role)
	assert.Contains(t, rs.Messages[1].Content, "Open jobs: 2 (Frontend Engineer, Backend Engineer)")

	// The session was seeded with the matched job and the requested persona.
	require.Len(t, recruiterLLM.Requests, 1)
	seed := recruiterLLM.Requests[0].Messages
	require.Len(t, seed, 2)
	assert.Contains(t, seed[0].Content, "You are Bob")
	assert.Contains(t, seed[0].Content, "Go services")
	assert.Contains(t, seed[1].Content, "Recommendation index: 0")

	assert.Equal(t, llm.TierAdvanced, managerLLM.Requests[0].Tier)

	stored, err := processed.ListProcessed(context.Background(), "acme", 10)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Len(t, notifier.notified, 1)

	var states []State
	for _, e := range events {
		assert.Equal(t, "run-1", e.RunID)
		if e.Type == EventState {
			states = append(states, e.State)
		}
	}
	assert.Equal(t, []State{
		StateCheckEnv, StatePlan, StateExecTools, StatePlan, StateExecTools, StateDispatch,
		StatePlan, StateExecTools, StateEnd,
	}, states)
}

func TestRun_DuplicateDispatchIsRejected(t *testing.T) {
	rec := &stubRecruiter{stage: types.StageChat}
	m := newManager(t, Deps{
		LLM: llm.NewScriptedClient(
			turn("1", types.ToolGetChatList, `{"tab":"chat"}`),
			turn("2", types.ToolDispatchCandidate, `{"mode":"chat","chat_id":"c-1"}`),
			turn("3", types.ToolDispatchCandidate, `{"mode":"chat","chat_id":"c-1"}`),
			turn("4", types.ToolFinish, `{}`),
		),
		Platform:  readyPlatform(t),
		Recruiter: rec,
	}, Config{})

	rs, err := m.Run(context.Background(), RunInput{})
	require.NoError(t, err)

	assert.Equal(t, []string{"c-1"}, rec.keys)
	assert.Len(t, rs.ProcessedCandidates, 1)
	rejections := humanMessages(rs, "Candidate Ann (c-1) was already processed")
	require.Len(t, rejections, 1)
	assert.Contains(t, rejections[0], "do not resubmit")
}

func TestRun_DuplicateDispatchWithCheckpointedSession(t *testing.T) {
	fake := readyPlatform(t)
	sessions := store.NewMemorySessionStore()
	recruiterLLM := llm.NewScriptedClient(
		turn("r1", types.ToolFinish, `{"analysis":{"overall":6},"summary":"ok"}`),
		turn("r2", types.ToolFinish, `{"analysis":{"overall":9},"summary":"should not run"}`),
	)
	rec := recruiter.New(recruiterLLM, sessions, recruiter.NewPlatformToolbox(fake, nil, types.DefaultThresholds()),
		recruiter.Config{Owner: "acme"})
	m := newManager(t, Deps{
		LLM: llm.NewScriptedClient(
			turn("1", types.ToolGetChatList, `{"tab":"chat"}`),
			turn("2", types.ToolDispatchCandidate, `{"mode":"chat","chat_id":"c-1"}`),
			turn("3", types.ToolDispatchCandidate, `{"mode":"chat","chat_id":"c-1"}`),
			turn("4", types.ToolFinish, `{}`),
		),
		Platform:  fake,
		Recruiter: rec,
		Sessions:  sessions,
	}, Config{})

	rs, err := m.Run(context.Background(), RunInput{})
	require.NoError(t, err)

	stored, err := sessions.Get(context.Background(), store.RecruiterNamespace("acme"), "c-1")
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Len(t, recruiterLLM.Requests, 1)
	assert.Equal(t, 1, recruiterLLM.Remaining())
	assert.Len(t, rs.ProcessedCandidates, 1)
	assert.Len(t, humanMessages(rs, "Candidate Ann (c-1) was already processed"), 1)
}

func TestRun_RecommendedSessionsAreNotResumedAcrossRuns(t *testing.T) {
	sessions := store.NewMemorySessionStore()
	recruiterLLM := llm.NewScriptedClient(
		turn("r1", types.ToolFinish, `{"analysis":{"overall":5},"summary":"talked to Li"}`),
		turn("r2", types.ToolFinish, `{"analysis":{"overall":7},"summary":"talked to Wang"}`),
	)

	runWith := func(name, runID string) *state.RunState {
		fake := readyPlatform(t)
		fake.Recommended["Backend Engineer"] = []types.Candidate{recommended(t, name, 0)}
		rec := recruiter.New(recruiterLLM, sessions, recruiter.NewPlatformToolbox(fake, nil, types.DefaultThresholds()),
			recruiter.Config{Owner: "acme"})
		m := newManager(t, Deps{
			LLM: llm.NewScriptedClient(
				turn("m1", types.ToolGetRecommendCandidates, `{"job":"Backend Engineer"}`),
				turn("m2", types.ToolDispatchCandidate, `{"mode":"recommend","index":0,"job_applied":"Backend Engineer"}`),
				turn("m3", types.ToolFinish, `{}`),
			),
			Platform:  fake,
			Recruiter: rec,
			Sessions:  sessions,
		}, Config{})
		rs, err := m.Run(context.Background(), RunInput{RunID: runID})
		require.NoError(t, err)
		return rs
	}

	first := runWith("Li", "run-1")
	second := runWith("Wang", "run-2")

	require.Len(t, first.ProcessedCandidates, 1)
	require.Len(t, second.ProcessedCandidates, 1)
	assert.Equal(t, "Wang", second.ProcessedCandidates[0].Candidate.Name)

	require.Len(t, recruiterLLM.Requests, 2)
	seed := recruiterLLM.Requests[1].Messages
	require.Len(t, seed, 2)
	assert.Contains(t, seed[1].Content, "Name: Wang")
	for _, msg := range seed {
		assert.NotContains(t, msg.Content, "Name: Li")
	}

	list, err := sessions.List(context.Background(), store.RecruiterNamespace("acme"))
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, summary := range list {
		assert.NotEqual(t, "index:0", summary.Key)
	}
}

func TestRun_RefreshedRecommendationDispatchesLatestCandidate(t *testing.T) {
	fake := readyPlatform(t)
	rec := &stubRecruiter{stage: types.StageChat}
	managerLLM := llm.NewScriptedClient(
		turn("1", types.ToolGetRecommendCandidates, `{"job":"Backend Engineer"}`),
		turn("2", types.ToolGetRecommendCandidates, `{"job":"Backend Engineer"}`),
		turn("3", types.ToolDispatchCandidate, `{"mode":"recommend","index":0}`),
		turn("4", types.ToolFinish, `{}`),
	)
	m := newManager(t, Deps{LLM: managerLLM, Platform: fake, Recruiter: rec}, Config{})

	// The second discovery call sees a refreshed list.
	var calls int
	m.deps.LLM = invokeHook{ScriptedClient: managerLLM, before: func() {
		calls++
		if calls == 2 {
			fake.Recommended["Backend Engineer"] = []types.Candidate{recommended(t, "Wang", 0)}
		}
	}}

	_, err := m.Run(context.Background(), RunInput{RunID: "run-1"})
	require.NoError(t, err)

	require.Len(t, rec.inputs, 1)
	assert.Equal(t, "Wang", rec.inputs[0].Candidate.Name)
	assert.Nil(t, rec.inputs[0].Existing)
	assert.Equal(t, []string{"run:run-1:index:0:1"}, rec.keys)
}

func TestRun_LongRunIsUnboundedByDefault(t *testing.T) {
	replies := make([]types.Message, 0, 61)
	for i := 0; i < 60; i++ {
		replies = append(replies, turn(strconv.Itoa(i), types.ToolGetChatList, `{"tab":"chat"}`))
	}
	replies = append(replies, turn("last", types.ToolFinish, `{}`))
	managerLLM := llm.NewScriptedClient(replies...)

	m := newManager(t, Deps{LLM: managerLLM, Platform: readyPlatform(t), Recruiter: &stubRecruiter{}},
		Config{MaxToolFailures: 3})

	_, err := m.Run(context.Background(), RunInput{})
	require.NoError(t, err)
	assert.Len(t, managerLLM.Requests, 61)
}

func TestRun_ToolFailureReturnsToPlan(t *testing.T) {
	rec := &stubRecruiter{stage: types.StageChat}
	managerLLM := llm.NewScriptedClient(
		turn("1", types.ToolDispatchCandidate, `{"mode":"chat","chat_id":"c-9"}`),
		turn("2", types.ToolDispatchCandidate, `{"mode":"recommend"}`),
		turn("3", types.ToolFinish, `{}`),
	)
	m := newManager(t, Deps{LLM: managerLLM, Platform: readyPlatform(t), Recruiter: rec}, Config{})

	rs, err := m.Run(context.Background(), RunInput{})
	require.NoError(t, err)
	assert.Empty(t, rec.keys)
	assert.Len(t, managerLLM.Requests, 3)

	var failed []types.ToolKind
	for _, msg := range rs.Messages {
		if msg.IsToolResult() && !msg.ToolResult.Succeeded() {
			failed = append(failed, msg.ToolResult.Kind)
		}
	}
	assert.Equal(t, []types.ToolKind{types.ToolDispatchCandidate, types.ToolDispatchCandidate}, failed)
}

func TestRun_ToolFailureLimit(t *testing.T) {
	m := newManager(t, Deps{
		LLM: llm.NewScriptedClient(
			turn("1", types.ToolGetChatList, `{"tab":"nope"}`),
			turn("2", types.ToolGetChatList, `{"tab":"nope"}`),
			turn("3", types.ToolFinish, `{}`),
		),
		Platform:  readyPlatform(t),
		Recruiter: &stubRecruiter{},
	}, Config{MaxToolFailures: 1})

	_, err := m.Run(context.Background(), RunInput{})
	assert.ErrorIs(t, err, workflow.ErrToolFailureLimit)
}

func TestRun_StepLimit(t *testing.T) {
	m := newManager(t, Deps{
		LLM: llm.NewScriptedClient(
			turn("1", types.ToolGetChatList, `{"tab":"chat"}`),
			turn("2", types.ToolGetChatList, `{"tab":"chat"}`),
		),
		Platform:  readyPlatform(t),
		Recruiter: &stubRecruiter{},
	}, Config{MaxPlanSteps: 1})

	rs, err := m.Run(context.Background(), RunInput{})
	assert.ErrorIs(t, err, workflow.ErrStepLimit)
	assert.Len(t, rs.Candidates, 1)
}

func TestRun_NoToolCallEndsRun(t *testing.T) {
	m := newManager(t, Deps{
		LLM:       llm.NewScriptedClient(types.AssistantMessage("Nothing to do today.")),
		Platform:  readyPlatform(t),
		Recruiter: &stubRecruiter{},
	}, Config{})

	rs, err := m.Run(context.Background(), RunInput{Instruction: "Check the inbox"})
	require.NoError(t, err)
	assert.Equal(t, "Check the inbox", rs.Messages[0].Content)
	last, _ := rs.LastMessage()
	assert.Equal(t, "Nothing to do today.", last.Content)
}

func TestRun_LimitReached(t *testing.T) {
	fake := readyPlatform(t)
	fake.Chats[types.ModeChat] = append(fake.Chats[types.ModeChat], chatting(t, "Cy", "c-2"))
	rec := &stubRecruiter{stage: types.StagePass}
	m := newManager(t, Deps{
		LLM: llm.NewScriptedClient(
			turn("1", types.ToolGetChatList, `{"tab":"chat"}`),
			turn("2", types.ToolDispatchCandidate, `{"mode":"chat","chat_id":"c-1"}`),
			turn("3", types.ToolDispatchCandidate, `{"mode":"chat","chat_id":"c-2"}`),
			turn("4", types.ToolFinish, `{}`),
		),
		Platform:  fake,
		Recruiter: rec,
	}, Config{Limit: 1})

	rs, err := m.Run(context.Background(), RunInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c-1"}, rec.keys)
	assert.Len(t, humanMessages(rs, "The processing limit of 1 candidates"), 1)
}

func TestRun_ResumesStoredSession(t *testing.T) {
	sessions := store.NewMemorySessionStore()
	c := chatting(t, "Ann", "c-1")
	prior := state.NewSessionState(c, types.Job{Title: "Backend Engineer"}, types.Assistant{Name: "Amy"}, types.HumanMessage("earlier"))
	require.NoError(t, sessions.Put(context.Background(), store.RecruiterNamespace("acme"), "c-1", prior))

	rec := &stubRecruiter{stage: types.StageSeek}
	m := newManager(t, Deps{
		LLM: llm.NewScriptedClient(
			turn("1", types.ToolGetChatList, `{"tab":"chat"}`),
			turn("2", types.ToolDispatchCandidate, `{"mode":"chat","chat_id":"c-1"}`),
			turn("3", types.ToolFinish, `{}`),
		),
		Platform:  readyPlatform(t),
		Recruiter: rec,
		Sessions:  sessions,
	}, Config{})

	_, err := m.Run(context.Background(), RunInput{})
	require.NoError(t, err)

	require.Len(t, rec.inputs, 1)
	in := rec.inputs[0]
	require.NotNil(t, in.Existing)
	assert.Equal(t, "earlier", in.Existing.Messages[0].Content)
	require.Len(t, in.Seed, 1)
	assert.Equal(t, types.RoleSystem, in.Seed[0].Role)
	assert.Contains(t, in.Seed[0].Content, "Resuming previous conversation")
}

func TestRun_SessionFailuresBecomeMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"version conflict", store.ErrVersionConflict, "is being handled by another run"},
		{"model failure", errors.New("quota exceeded"), "The recruiter session for Ann (c-1) failed: quota exceeded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newManager(t, Deps{
				LLM: llm.NewScriptedClient(
					turn("1", types.ToolGetChatList, `{"tab":"chat"}`),
					turn("2", types.ToolDispatchCandidate, `{"mode":"chat","chat_id":"c-1"}`),
					turn("3", types.ToolFinish, `{}`),
				),
				Platform:  readyPlatform(t),
				Recruiter: &stubRecruiter{err: tt.err},
			}, Config{})

			rs, err := m.Run(context.Background(), RunInput{})
			require.NoError(t, err)
			assert.Empty(t, rs.ProcessedCandidates)

			var found bool
			for _, msg := range rs.Messages {
				if msg.Role == types.RoleHuman && strings.Contains(msg.Content, tt.want) {
					found = true
				}
			}
			assert.True(t, found, "expected a human message containing %q", tt.want)
		})
	}
}

func TestRun_CheckEnvSuspendsUntilResumed(t *testing.T) {
	fake := readyPlatform(t)
	fake.SetCatalogErr(errors.New("portal offline"))
	interrupter := NewChannelInterrupter()
	m := newManager(t, Deps{
		LLM:         llm.NewScriptedClient(turn("1", types.ToolFinish, `{}`)),
		Platform:    fake,
		Recruiter:   &stubRecruiter{},
		Interrupter: interrupter,
	}, Config{})

	done := make(chan error, 1)
	go func() {
		_, err := m.Run(context.Background(), RunInput{})
		done <- err
	}()

	require.Eventually(t, func() bool {
		_, waiting := interrupter.Pending()
		return waiting
	}, 2*time.Second, 5*time.Millisecond)
	diagnostic, _ := interrupter.Pending()
	assert.Contains(t, diagnostic, "portal offline")
	assert.Contains(t, diagnostic, "attempt 1")

	fake.SetCatalogErr(nil)
	require.True(t, interrupter.Resume())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not finish after resume")
	}
}

func TestRun_CheckEnvRejectsEmptyCatalogs(t *testing.T) {
	fake := readyPlatform(t)
	fake.AssistantList = nil
	interrupter := NewChannelInterrupter()
	m := newManager(t, Deps{
		LLM:         llm.NewScriptedClient(),
		Platform:    fake,
		Recruiter:   &stubRecruiter{},
		Interrupter: interrupter,
	}, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := m.Run(ctx, RunInput{})
		done <- err
	}()

	require.Eventually(t, func() bool {
		diagnostic, waiting := interrupter.Pending()
		return waiting && strings.Contains(diagnostic, "no personas configured")
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop after cancel")
	}
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{}, Config{})
	assert.Error(t, err)

	_, err = New(Deps{
		LLM:       llm.NewScriptedClient(),
		Platform:  &platformtest.Fake{},
		Recruiter: &stubRecruiter{},
		Sessions:  store.NewMemorySessionStore(),
	}, Config{})
	assert.EqualError(t, err, "manager: interrupter is required")
}

func TestRoutePlan(t *testing.T) {
	assert.Equal(t, StateExecTools, RoutePlan(turn("1", types.ToolFinish, `{}`)))
	assert.Equal(t, StateEnd, RoutePlan(types.AssistantMessage("done")))
}

func TestRouteTools(t *testing.T) {
	result := func(kind types.ToolKind, status types.ToolStatus) []types.Message {
		return []types.Message{types.ToolMessage(types.ToolResult{CallID: "1", Kind: kind, Status: status})}
	}

	tests := []struct {
		name string
		msgs []types.Message
		want State
	}{
		{"dispatch success", result(types.ToolDispatchCandidate, types.StatusSuccess), StateDispatch},
		{"dispatch failure", result(types.ToolDispatchCandidate, types.StatusError), StatePlan},
		{"finish success", result(types.ToolFinish, types.StatusSuccess), StateEnd},
		{"finish failure", result(types.ToolFinish, types.StatusError), StatePlan},
		{"discovery success", result(types.ToolGetChatList, types.StatusSuccess), StatePlan},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RouteTools(tt.msgs))
		})
	}

	assert.Panics(t, func() { RouteTools([]types.Message{types.HumanMessage("hi")}) })
}

func TestMatchCatalogs(t *testing.T) {
	jobs := []types.Job{{ID: "j1", Title: "Frontend Engineer"}, {ID: "j2", Title: "Backend Engineer"}}
	assert.Equal(t, "j2", matchJob(jobs, "backend engineer").ID)
	assert.Equal(t, "j2", matchJob(jobs, "j2").ID)
	assert.Equal(t, "j1", matchJob(jobs, "Designer").ID)
	assert.Equal(t, "Designer", matchJob(nil, "Designer").Title)

	assistants := []types.Assistant{{ID: "a1", Name: "Amy"}, {ID: "a2", Name: "Bob"}}
	assert.Equal(t, "a2", matchAssistant(assistants, "bob").ID)
	assert.Equal(t, "a1", matchAssistant(assistants, "").ID)
}
