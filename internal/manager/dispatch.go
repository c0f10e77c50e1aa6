package manager

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/recruiter-agent/internal/prompts"
	"github.com/jonathan/recruiter-agent/internal/recruiter"
	"github.com/jonathan/recruiter-agent/internal/state"
	"github.com/jonathan/recruiter-agent/internal/store"
	"github.com/jonathan/recruiter-agent/internal/types"
	"github.com/jonathan/recruiter-agent/internal/workflow"
)

// dispatch runs one recruiter session for the candidate named by the last
// dispatch result. Rejections and recoverable session failures become human
// messages in the manager transcript; only context cancellation is returned.
func (m *Manager) dispatch(ctx context.Context, r *run) error {
	result := workflow.LastToolResult(r.state.Messages)
	payload, ok := result.Payload.(types.DispatchPayload)
	if !ok {
		panic(fmt.Sprintf("manager: dispatch state entered with %T payload", result.Payload))
	}
	c := payload.Candidate
	label := candidateLabel(c)

	// Every session is checkpointed, so a candidate processed earlier in this
	// run always has a stored session. Check the run's records first.
	if r.state.IsProcessed(c) {
		log.Printf("[DISPATCH] Rejected %s: already processed", label)
		m.reply(r, "already_processed", map[string]string{"Candidate": label})
		return nil
	}
	if m.config.Limit > 0 && len(r.state.ProcessedCandidates) >= m.config.Limit {
		log.Printf("[DISPATCH] Rejected %s: limit of %d reached", label, m.config.Limit)
		m.reply(r, "limit_reached", map[string]string{"Limit": strconv.Itoa(m.config.Limit)})
		return nil
	}

	key, resumable := r.sessionKey(c)
	var existing *state.SessionState
	if resumable {
		var err error
		existing, err = m.deps.Sessions.Get(ctx, store.RecruiterNamespace(m.config.Owner), key)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Printf("[STORE] Failed to load session %s: %v", key, err)
			m.append(r, types.HumanMessage(fmt.Sprintf("Could not load the session for %s: %v. Choose another candidate.", label, err)))
			return nil
		}
	}

	job := matchJob(r.state.Jobs, c.JobApplied)
	assistant := matchAssistant(r.state.Assistants, payload.Assistant)
	in := recruiter.SessionInput{
		Candidate: c,
		Job:       job,
		Assistant: assistant,
		Existing:  existing,
	}
	if existing != nil {
		log.Printf("[DISPATCH] Resuming session %s (%d messages)", key, len(existing.Messages))
		note := prompts.Format(prompts.MustGet(prompts.ManagerFile, "resume_session"), map[string]string{
			"Time": m.now().Format(time.RFC3339),
		})
		in.Seed = []types.Message{types.SystemMessage(note)}
	} else {
		log.Printf("[DISPATCH] Starting session %s for %q as %s", key, job.Title, assistant.Name)
		in.Seed = sessionSeed(c, job, assistant)
	}

	report, err := m.deps.Recruiter.Run(ctx, key, in)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, store.ErrVersionConflict) {
			m.reply(r, "session_busy", map[string]string{"Candidate": label})
			return nil
		}
		log.Printf("[DISPATCH] Session %s failed: %v", key, err)
		m.append(r, types.HumanMessage(fmt.Sprintf("The recruiter session for %s failed: %v. Choose another candidate or finish.", label, err)))
		return nil
	}

	m.recordProcessed(ctx, r, report.Processed)

	stage := string(report.Processed.Stage)
	if stage == "" {
		stage = "unset"
	}
	m.reply(r, "report", map[string]string{
		"Candidate": label,
		"Stage":     stage,
		"Report":    reportText(report),
	})
	return nil
}

// sessionKey returns the checkpoint key for c and whether a stored session
// under it may be resumed. Returning candidates are keyed by chat_id across
// runs. A recommendation index is only a position in the list it came from,
// so recommended candidates get a fresh run-scoped key per dispatch.
func (r *run) sessionKey(c types.Candidate) (string, bool) {
	if chatID, ok := c.ChatID(); ok {
		return chatID, true
	}
	r.dispatches++
	return fmt.Sprintf("run:%s:%s:%d", r.id, c.ThreadKey(), r.dispatches), false
}

// recordProcessed appends the outcome to the run and mirrors it to the
// candidate store and the notifier. Store and notifier failures are logged.
func (m *Manager) recordProcessed(ctx context.Context, r *run, pc types.ProcessedCandidate) {
	r.state.AddProcessed(pc)
	m.emit(r, Event{Type: EventProcessed, Processed: &pc})
	if m.config.Verbose && m.deps.Printer != nil {
		m.deps.Printer.PrintProcessed(pc)
	}

	if m.deps.Candidates.Connected() {
		if err := m.deps.Candidates.RecordProcessed(ctx, m.config.Owner, r.id, pc); err != nil {
			log.Printf("[STORE] Failed to record %s: %v", pc.Candidate.ThreadKey(), err)
		}
	}
	if pc.Stage == types.StageContact && m.deps.Notifier != nil {
		if err := m.deps.Notifier.NotifyContact(ctx, r.id, pc); err != nil {
			log.Printf("[DISPATCH] Notification for %s failed: %v", pc.Candidate.ThreadKey(), err)
		}
	}
}

// reply appends a rendered manager prompt as a human message.
func (m *Manager) reply(r *run, key string, data map[string]string) {
	text := prompts.Format(prompts.MustGet(prompts.ManagerFile, key), data)
	m.append(r, types.HumanMessage(text))
}

func sessionSeed(c types.Candidate, job types.Job, assistant types.Assistant) []types.Message {
	description := job.Description
	if len(job.Requirements) > 0 {
		description += "\n\nRequirements:\n- " + strings.Join(job.Requirements, "\n- ")
	}
	session := prompts.Format(prompts.MustGet(prompts.ManagerFile, "dispatch_session"), map[string]string{
		"AssistantName":  assistant.Name,
		"JobTitle":       job.Title,
		"AssistantStyle": assistant.Style,
		"JobDescription": strings.TrimSpace(description),
	})
	candidate := prompts.Format(prompts.MustGet(prompts.ManagerFile, "dispatch_candidate"), map[string]string{
		"Mode":      string(c.Mode),
		"Candidate": describeCandidate(c),
	})
	return []types.Message{types.SystemMessage(session), types.HumanMessage(candidate)}
}

// describeCandidate renders every known field of c for the recruiter.
func describeCandidate(c types.Candidate) string {
	var sb strings.Builder
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&sb, "%s: %s\n", label, value)
		}
	}
	line("Name", c.Name)
	if chatID, ok := c.ChatID(); ok {
		line("Chat ID", chatID)
	}
	if index, ok := c.Index(); ok {
		line("Recommendation index", strconv.Itoa(index))
	}
	line("Applied for", c.JobApplied)
	line("Last message", c.LastMessage)
	line("Description", c.Description)
	return strings.TrimSuffix(sb.String(), "\n")
}

func candidateLabel(c types.Candidate) string {
	if c.Name == "" {
		return c.ThreadKey()
	}
	return fmt.Sprintf("%s (%s)", c.Name, c.ThreadKey())
}

// reportText is the final content of the session transcript, or its exhaustion reason.
func reportText(report *recruiter.Report) string {
	text := strings.TrimSpace(report.Final().Content)
	if report.Exhausted && text == "" {
		text = report.Reason
	}
	if text == "" {
		text = "(no report)"
	}
	return text
}

// matchJob finds the job by title, case-insensitively, falling back to the
// first job in the catalog.
func matchJob(jobs []types.Job, title string) types.Job {
	title = strings.TrimSpace(title)
	for _, j := range jobs {
		if strings.EqualFold(j.Title, title) || (j.ID != "" && j.ID == title) {
			return j
		}
	}
	if len(jobs) > 0 {
		return jobs[0]
	}
	return types.Job{Title: title}
}

// matchAssistant finds the persona by name or ID, falling back to the first.
func matchAssistant(assistants []types.Assistant, name string) types.Assistant {
	name = strings.TrimSpace(name)
	for _, a := range assistants {
		if strings.EqualFold(a.Name, name) || (a.ID != "" && a.ID == name) {
			return a
		}
	}
	if len(assistants) > 0 {
		return assistants[0]
	}
	return types.Assistant{Name: name}
}
