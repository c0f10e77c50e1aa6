package recruiter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonathan/recruiter-agent/internal/fetch"
	"github.com/jonathan/recruiter-agent/internal/platform"
	"github.com/jonathan/recruiter-agent/internal/state"
	"github.com/jonathan/recruiter-agent/internal/tools"
	"github.com/jonathan/recruiter-agent/internal/types"
)

// Toolbox builds the tool executor for one session.
type Toolbox interface {
	For(sess *state.SessionState) tools.Executor
}

// ToolboxFunc adapts a function to Toolbox.
type ToolboxFunc func(sess *state.SessionState) tools.Executor

// For implements Toolbox.
func (f ToolboxFunc) For(sess *state.SessionState) tools.Executor {
	return f(sess)
}

// ResumeFetcher loads an online resume page.
type ResumeFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// PlatformToolbox runs the chat, resume and action tools against the web portal.
type PlatformToolbox struct {
	platform   platform.Client
	resumes    ResumeFetcher // nil when only portal-provided resume text is used
	thresholds types.Thresholds
}

// NewPlatformToolbox creates a toolbox. resumes may be nil.
func NewPlatformToolbox(client platform.Client, resumes ResumeFetcher, thresholds types.Thresholds) *PlatformToolbox {
	return &PlatformToolbox{platform: client, resumes: resumes, thresholds: thresholds}
}

// For returns an executor bound to the session's candidate and mode.
func (b *PlatformToolbox) For(sess *state.SessionState) tools.Executor {
	return &sessionTools{
		box:       b,
		candidate: sess.Candidate,
		decoder:   tools.NewDecoder(tools.RecruiterSpecs(sess.Mode)),
	}
}

type sessionTools struct {
	box       *PlatformToolbox
	candidate types.Candidate
	decoder   *tools.Decoder
}

var errNoChat = errors.New("this candidate has no chat thread yet; greet them first")

// Execute implements tools.Executor.
func (t *sessionTools) Execute(ctx context.Context, call types.ToolCall) types.ToolResult {
	switch call.Kind {
	case types.ToolReadMessages:
		return t.readMessages(ctx, call)
	case types.ToolSendMessage:
		return t.sendMessage(ctx, call)
	case types.ToolGreet:
		return t.greet(ctx, call)
	case types.ToolRequestResume:
		return t.requestResume(ctx, call)
	case types.ToolViewResume:
		return t.viewResume(ctx, call)
	case types.ToolRequestContact:
		return t.requestContact(ctx, call)
	case types.ToolFinish:
		return t.finish(call)
	default:
		return tools.Failure(call, &tools.UnknownToolError{Tool: call.Kind})
	}
}

func (t *sessionTools) chatID(call types.ToolCall) (string, error) {
	if err := t.decoder.Decode(call, nil); err != nil {
		return "", err
	}
	chatID, ok := t.candidate.ChatID()
	if !ok {
		return "", errNoChat
	}
	return chatID, nil
}

func (t *sessionTools) readMessages(ctx context.Context, call types.ToolCall) types.ToolResult {
	chatID, err := t.chatID(call)
	if err != nil {
		return tools.Failure(call, err)
	}
	msgs, err := t.box.platform.ReadMessages(ctx, chatID)
	if err != nil {
		return tools.Failure(call, err)
	}
	if len(msgs) == 0 {
		return tools.Success(call, "The conversation is empty.", types.ChatPayload{})
	}
	var sb strings.Builder
	for _, m := range msgs {
		if m.Time != "" {
			sb.WriteString(fmt.Sprintf("[%s] ", m.Time))
		}
		sb.WriteString(fmt.Sprintf("%s: %s\n", m.From, m.Text))
	}
	return tools.Success(call, strings.TrimSuffix(sb.String(), "\n"), types.ChatPayload{Messages: msgs})
}

func (t *sessionTools) sendMessage(ctx context.Context, call types.ToolCall) types.ToolResult {
	var args tools.TextArgs
	if err := t.decoder.Decode(call, &args); err != nil {
		return tools.Failure(call, err)
	}
	chatID, ok := t.candidate.ChatID()
	if !ok {
		return tools.Failure(call, errNoChat)
	}
	if err := t.box.platform.SendMessage(ctx, chatID, args.Text); err != nil {
		return tools.Failure(call, err)
	}
	return tools.Success(call, "Message sent.", nil)
}

func (t *sessionTools) greet(ctx context.Context, call types.ToolCall) types.ToolResult {
	var args tools.TextArgs
	if err := t.decoder.Decode(call, &args); err != nil {
		return tools.Failure(call, err)
	}
	index, ok := t.candidate.Index()
	if !ok {
		return tools.Failure(call, errors.New("only recommended candidates can be greeted"))
	}
	if err := t.box.platform.Greet(ctx, index, args.Text); err != nil {
		return tools.Failure(call, err)
	}
	return tools.Success(call, "Greeting sent.", nil)
}

func (t *sessionTools) requestResume(ctx context.Context, call types.ToolCall) types.ToolResult {
	chatID, err := t.chatID(call)
	if err != nil {
		return tools.Failure(call, err)
	}
	if err := t.box.platform.RequestResume(ctx, chatID); err != nil {
		return tools.Failure(call, err)
	}
	return tools.Success(call, "Resume requested.", nil)
}

func (t *sessionTools) viewResume(ctx context.Context, call types.ToolCall) types.ToolResult {
	if err := t.decoder.Decode(call, nil); err != nil {
		return tools.Failure(call, err)
	}
	resume, err := t.box.platform.Resume(ctx, t.candidate)
	if err != nil {
		return tools.Failure(call, err)
	}

	text := strings.TrimSpace(resume.Text)
	if text == "" && resume.URL != "" && t.box.resumes != nil {
		page, err := t.box.resumes.Fetch(ctx, resume.URL)
		if err != nil {
			return tools.Failure(call, err)
		}
		text = page.Text
	}
	if text == "" {
		return tools.Failure(call, errors.New("no online resume is available for this candidate"))
	}
	return tools.Success(call, text, types.ResumePayload{Text: text, URL: resume.URL})
}

func (t *sessionTools) requestContact(ctx context.Context, call types.ToolCall) types.ToolResult {
	var args tools.ContactArgs
	if err := t.decoder.Decode(call, &args); err != nil {
		return tools.Failure(call, err)
	}
	chatID, ok := t.candidate.ChatID()
	if !ok {
		return tools.Failure(call, errNoChat)
	}
	if err := t.box.platform.RequestContact(ctx, chatID, args.Kind); err != nil {
		return tools.Failure(call, err)
	}
	return tools.Success(call, "Contact exchange requested.", nil)
}

// finish classifies the reported score. The stage always comes from the
// thresholds, never from the model.
func (t *sessionTools) finish(call types.ToolCall) types.ToolResult {
	var args tools.FinishArgs
	if err := t.decoder.Decode(call, &args); err != nil {
		return tools.Failure(call, err)
	}
	if args.Analysis == nil {
		return tools.Failure(call, &tools.ArgumentError{Tool: call.Kind, Cause: errors.New("analysis is required")})
	}
	stage := t.box.thresholds.Classify(args.Analysis.Overall)
	content := fmt.Sprintf("Session finished. Overall %.1f, stage %s.", args.Analysis.Overall, stage)
	if args.Summary != "" {
		content += " " + args.Summary
	}
	return tools.Success(call, content, types.FinishPayload{
		Summary:  args.Summary,
		Analysis: args.Analysis,
		Stage:    stage,
	})
}
