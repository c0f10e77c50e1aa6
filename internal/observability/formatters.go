// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/recruiter-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
	// snippetLength bounds message bodies in transcript lines
	snippetLength = 80
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// PrintEnvironment outputs the result of a successful environment check.
func (p *Printer) PrintEnvironment(status *types.PlatformStatus, jobs []types.Job, assistants []types.Assistant) {
	var sb strings.Builder

	if status != nil {
		account := status.Account
		if account == "" {
			account = "(unknown)"
		}
		sb.WriteString(fmt.Sprintf("Account:  %s\n", account))
		sb.WriteString(fmt.Sprintf("Unread:   %d\n", status.Unread))
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Open jobs (%d):\n", len(jobs)))
	writeList(&sb, len(jobs), func(i int) string {
		j := jobs[i]
		if j.City != "" {
			return fmt.Sprintf("%s (%s)", j.Title, j.City)
		}
		return j.Title
	})

	sb.WriteString(fmt.Sprintf("\nPersonas (%d):\n", len(assistants)))
	writeList(&sb, len(assistants), func(i int) string {
		a := assistants[i]
		if a.Role != "" {
			return fmt.Sprintf("%s, %s", a.Name, a.Role)
		}
		return a.Name
	})

	p.printBox("ENVIRONMENT", strings.TrimSuffix(sb.String(), "\n"))
}

func writeList(sb *strings.Builder, n int, item func(int) string) {
	count := min(n, maxItemsToShow)
	for i := 0; i < count; i++ {
		sb.WriteString(fmt.Sprintf("  • %s\n", item(i)))
	}
	if n > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", n-maxItemsToShow))
	}
}

// PrintMessage outputs one transcript line, prefixed with the speaker.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintMessage(prefix string, msg types.Message) {
	fmt.Fprintf(p.out, "%s %s\n", prefix, FormatMessage(msg))
}

// FormatMessage renders msg as a single line.
func FormatMessage(msg types.Message) string {
	switch {
	case msg.IsToolResult():
		r := msg.ToolResult
		return fmt.Sprintf("tool %s [%s] %s", r.Kind, r.Status, snippet(r.Content))
	case msg.HasToolCalls():
		calls := make([]string, 0, len(msg.ToolCalls))
		for _, c := range msg.ToolCalls {
			calls = append(calls, fmt.Sprintf("%s(%s)", c.Kind, snippet(string(c.Args))))
		}
		line := fmt.Sprintf("%s → %s", msg.Role, strings.Join(calls, ", "))
		if msg.Content != "" {
			line += " " + snippet(msg.Content)
		}
		return line
	default:
		return fmt.Sprintf("%s: %s", msg.Role, snippet(msg.Content))
	}
}

func snippet(s string) string {
	return truncate(strings.Join(strings.Fields(s), " "), snippetLength)
}

// PrintProcessed outputs the outcome of one dispatched candidate.
func (p *Printer) PrintProcessed(pc types.ProcessedCandidate) {
	var sb strings.Builder

	name := pc.Candidate.Name
	if name == "" {
		name = pc.Candidate.ThreadKey()
	}
	sb.WriteString(fmt.Sprintf("Candidate: %s\n", name))
	sb.WriteString(fmt.Sprintf("Mode:      %s\n", pc.Candidate.Mode))
	if pc.Candidate.JobApplied != "" {
		sb.WriteString(fmt.Sprintf("Job:       %s\n", pc.Candidate.JobApplied))
	}

	stage := string(pc.Stage)
	if stage == "" {
		stage = "(unset)"
	}
	sb.WriteString(fmt.Sprintf("Stage:     %s\n", stage))

	if pc.Analysis != nil {
		sb.WriteString(fmt.Sprintf("Score:     %.1f\n", pc.Analysis.Overall))
		if pc.Analysis.Summary != "" {
			sb.WriteString(fmt.Sprintf("\n%s\n", pc.Analysis.Summary))
		}
	}
	if pc.Exhausted {
		sb.WriteString("\n⚠ session ended without a finish call\n")
	}

	p.printBox("CANDIDATE PROCESSED", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRunSummary outputs stage counts for a finished run.
func (p *Printer) PrintRunSummary(processed []types.ProcessedCandidate) {
	counts := make(map[types.Stage]int)
	unset := 0
	for _, pc := range processed {
		if pc.Stage == "" {
			unset++
			continue
		}
		counts[pc.Stage]++
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Processed candidates: %d\n\n", len(processed)))
	for _, stage := range types.Stages() {
		sb.WriteString(fmt.Sprintf("  %-8s %d\n", stage, counts[stage]))
	}
	if unset > 0 {
		sb.WriteString(fmt.Sprintf("  %-8s %d\n", "(none)", unset))
	}

	p.printBox("RUN SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}
