package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/recruiter-agent/internal/db"
	"github.com/jonathan/recruiter-agent/internal/llm"
	"github.com/jonathan/recruiter-agent/internal/manager"
	"github.com/jonathan/recruiter-agent/internal/state"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run one recruiting run against the web portal",
	Long: `Checks the portal environment, lets the manager discover candidates and dispatches each
chosen candidate to a recruiter session until the manager finishes.

If the environment check fails (portal not logged in, empty job or persona catalog) the run
pauses and waits for Enter on stdin before retrying.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runRecruitingCmd,
}

var (
	runOptions     runFlags
	runInstruction string
)

func init() {
	runOptions.register(runCommand)
	runCommand.Flags().StringVarP(&runInstruction, "instruction", "i", "", "Opening instruction for the manager (defaults to the kickoff prompt)")
	rootCmd.AddCommand(runCommand)
}

func runRecruitingCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := runOptions.resolve(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newAgent(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	runID := uuid.New()
	if a.stores.database != nil {
		id, err := a.stores.database.CreateRun(ctx, cfg.Owner, cfg.WebPortal, a.llm.GetModel(llm.TierAdvanced))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to record run: %v\n", err)
		} else {
			runID = id
		}
	}

	m, err := a.newManager(cfg.Owner, cfg.Limit, manager.NewTerminalInterrupter(os.Stdin, os.Stdout))
	if err != nil {
		return err
	}

	if cfg.Verbose {
		_, _ = fmt.Fprintf(os.Stdout, "Starting run %s against %s as %s\n", runID, cfg.WebPortal, cfg.Owner)
	}
	rs, runErr := m.Run(ctx, manager.RunInput{
		RunID:       runID.String(),
		Instruction: runInstruction,
		OnEvent:     verboseEvents(cfg.Verbose),
	})

	if a.stores.database != nil {
		status, processed := runOutcome(rs, runErr)
		if err := a.stores.database.CompleteRun(context.Background(), runID, status, processed, runErr); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to complete run record: %v\n", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("run %s failed: %w", runID, runErr)
	}
	if !cfg.Verbose {
		a.printer.PrintRunSummary(rs.ProcessedCandidates)
	}
	return nil
}

// verboseEvents prints state transitions when verbose is set.
func verboseEvents(verbose bool) manager.EventCallback {
	if !verbose {
		return nil
	}
	return func(e manager.Event) {
		if e.Type == manager.EventState {
			_, _ = fmt.Fprintf(os.Stdout, "-> %s\n", e.State)
		}
	}
}

// runOutcome maps a finished run to its record status and processed count.
func runOutcome(rs *state.RunState, runErr error) (string, int) {
	processed := 0
	if rs != nil {
		processed = len(rs.ProcessedCandidates)
	}
	if runErr != nil {
		return db.RunStatusFailed, processed
	}
	return db.RunStatusCompleted, processed
}
