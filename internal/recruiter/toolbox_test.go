package recruiter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jonathan/recruiter-agent/internal/fetch"
	"github.com/jonathan/recruiter-agent/internal/platform"
	"github.com/jonathan/recruiter-agent/internal/platform/platformtest"
	"github.com/jonathan/recruiter-agent/internal/state"
	"github.com/jonathan/recruiter-agent/internal/tools"
	"github.com/jonathan/recruiter-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatCandidate(t *testing.T, chatID string) types.Candidate {
	t.Helper()
	c, err := types.NewCandidate(types.CandidateFields{Name: "Ann", Mode: types.ModeChat, ChatID: &chatID, JobApplied: "Backend Engineer"})
	require.NoError(t, err)
	return c
}

func recommendCandidate(t *testing.T, index int) types.Candidate {
	t.Helper()
	c, err := types.NewCandidate(types.CandidateFields{Name: "Bo", Mode: types.ModeRecommend, Index: &index, JobApplied: "Backend Engineer"})
	require.NoError(t, err)
	return c
}

func call(kind types.ToolKind, args string) types.ToolCall {
	return types.ToolCall{ID: "call-" + string(kind), Kind: kind, Args: json.RawMessage(args)}
}

type pageFetcher map[string]string

func (p pageFetcher) Fetch(_ context.Context, url string) (*fetch.Page, error) {
	text, ok := p[url]
	if !ok {
		return nil, &fetch.ResumeError{URL: url, Status: 404, Cause: fetch.ErrResumeUnavailable}
	}
	return &fetch.Page{URL: url, Text: text}, nil
}

func executorFor(box *PlatformToolbox, c types.Candidate) tools.Executor {
	return box.For(state.NewSessionState(c, types.Job{}, types.Assistant{}))
}

func TestToolbox_ChatTools(t *testing.T) {
	fake := &platformtest.Fake{
		Threads: map[string][]types.ChatMessage{
			"c-1": {{From: "candidate", Text: "Hi, still open?", Time: "09:00"}},
		},
	}
	ex := executorFor(NewPlatformToolbox(fake, nil, types.DefaultThresholds()), chatCandidate(t, "c-1"))
	ctx := context.Background()

	r := ex.Execute(ctx, call(types.ToolReadMessages, `{}`))
	require.True(t, r.Succeeded(), r.Content)
	assert.Equal(t, "[09:00] candidate: Hi, still open?", r.Content)
	assert.IsType(t, types.ChatPayload{}, r.Payload)

	r = ex.Execute(ctx, call(types.ToolSendMessage, `{"text":"Yes it is"}`))
	require.True(t, r.Succeeded(), r.Content)

	r = ex.Execute(ctx, call(types.ToolRequestResume, ``))
	require.True(t, r.Succeeded(), r.Content)

	r = ex.Execute(ctx, call(types.ToolRequestContact, `{"kind":"wechat"}`))
	require.True(t, r.Succeeded(), r.Content)

	assert.Equal(t, []platformtest.Action{
		{Op: "send", Target: "c-1", Text: "Yes it is"},
		{Op: "request_resume", Target: "c-1"},
		{Op: "request_contact", Target: "c-1", Text: "wechat"},
	}, fake.Recorded())
}

func TestToolbox_Failures(t *testing.T) {
	fake := &platformtest.Fake{}
	chat := executorFor(NewPlatformToolbox(fake, nil, types.DefaultThresholds()), chatCandidate(t, "c-1"))
	rec := executorFor(NewPlatformToolbox(fake, nil, types.DefaultThresholds()), recommendCandidate(t, 0))
	ctx := context.Background()

	tests := []struct {
		name string
		ex   tools.Executor
		call types.ToolCall
		want string
	}{
		{"missing text", chat, call(types.ToolSendMessage, `{}`), "invalid arguments"},
		{"bad contact kind", chat, call(types.ToolRequestContact, `{"kind":"fax"}`), "invalid arguments"},
		{"unknown thread", chat, call(types.ToolReadMessages, `{}`), "chat not found"},
		{"greet not bound in chat mode", chat, call(types.ToolGreet, `{"text":"hi"}`), "unknown tool"},
		{"send not bound in recommend mode", rec, call(types.ToolSendMessage, `{"text":"hi"}`), "unknown tool"},
		{"no resume", rec, call(types.ToolViewResume, `{}`), "no online resume"},
		{"finish without analysis", chat, call(types.ToolFinish, `{"summary":"meh"}`), "invalid arguments"},
		{"unexpected tool", chat, call(types.ToolDispatchCandidate, `{}`), "unknown tool"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.ex.Execute(ctx, tt.call)
			assert.Equal(t, types.StatusError, r.Status)
			assert.Equal(t, tt.call.Kind, r.Kind)
			assert.Equal(t, tt.call.ID, r.CallID)
			assert.Contains(t, r.Content, tt.want)
		})
	}

	fake.ActionErr = &platform.Error{Op: "greet", StatusCode: 500, Message: "browser crashed"}
	r := rec.Execute(ctx, call(types.ToolGreet, `{"text":"hi"}`))
	assert.Equal(t, types.StatusError, r.Status)
	assert.Contains(t, r.Content, "browser crashed")
}

func TestToolbox_Greet(t *testing.T) {
	fake := &platformtest.Fake{}
	ex := executorFor(NewPlatformToolbox(fake, nil, types.DefaultThresholds()), recommendCandidate(t, 4))

	r := ex.Execute(context.Background(), call(types.ToolGreet, `{"text":"Hello Bo"}`))
	require.True(t, r.Succeeded(), r.Content)
	assert.Equal(t, []platformtest.Action{{Op: "greet", Target: "4", Text: "Hello Bo"}}, fake.Recorded())
}

func TestToolbox_ViewResume(t *testing.T) {
	c := recommendCandidate(t, 1)
	fake := &platformtest.Fake{Resumes: map[string]platform.Resume{
		c.ThreadKey(): {URL: "http://cv/1"},
	}}
	ctx := context.Background()

	withFetcher := executorFor(NewPlatformToolbox(fake, pageFetcher{"http://cv/1": "Ten years of Go"}, types.DefaultThresholds()), c)
	r := withFetcher.Execute(ctx, call(types.ToolViewResume, `{}`))
	require.True(t, r.Succeeded(), r.Content)
	assert.Equal(t, "Ten years of Go", r.Content)
	assert.Equal(t, types.ResumePayload{Text: "Ten years of Go", URL: "http://cv/1"}, r.Payload)

	failing := executorFor(NewPlatformToolbox(fake, pageFetcher{}, types.DefaultThresholds()), c)
	r = failing.Execute(ctx, call(types.ToolViewResume, `{}`))
	assert.Equal(t, types.StatusError, r.Status)

	fake.Resumes[c.ThreadKey()] = platform.Resume{Text: "Inline resume"}
	r = failing.Execute(ctx, call(types.ToolViewResume, `{}`))
	require.True(t, r.Succeeded())
	assert.Equal(t, "Inline resume", r.Content)
}

func TestToolbox_FinishClassifies(t *testing.T) {
	thresholds := types.Thresholds{Chat: 5, Borderline: 6, Seek: 9}
	ex := executorFor(NewPlatformToolbox(&platformtest.Fake{}, nil, thresholds), chatCandidate(t, "c-1"))

	tests := []struct {
		overall float64
		want    types.Stage
	}{
		{4.9, types.StagePass},
		{5, types.StageChat},
		{8.5, types.StageSeek},
		{9, types.StageContact},
	}
	for _, tt := range tests {
		args := `{"analysis":{"overall":` + jsonNumber(tt.overall) + `,"summary":"ok"},"summary":"done"}`
		r := ex.Execute(context.Background(), call(types.ToolFinish, args))
		require.True(t, r.Succeeded(), r.Content)
		payload, ok := r.Payload.(types.FinishPayload)
		require.True(t, ok)
		assert.Equal(t, tt.want, payload.Stage, "overall %v", tt.overall)
		assert.Equal(t, tt.overall, payload.Analysis.Overall)
		assert.Contains(t, r.Content, string(tt.want))
	}
}

func jsonNumber(f float64) string {
	data, _ := json.Marshal(f)
	return string(data)
}

func TestToolboxFunc(t *testing.T) {
	var got *state.SessionState
	box := ToolboxFunc(func(sess *state.SessionState) tools.Executor {
		got = sess
		return tools.ExecutorFunc(func(_ context.Context, c types.ToolCall) types.ToolResult {
			return tools.Failure(c, errors.New("nope"))
		})
	})
	sess := state.NewSessionState(chatCandidate(t, "c-1"), types.Job{}, types.Assistant{})
	r := box.For(sess).Execute(context.Background(), call(types.ToolFinish, `{}`))
	assert.Same(t, sess, got)
	assert.Equal(t, "nope", r.Content)
}
