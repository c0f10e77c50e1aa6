package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruiter-agent/internal/config"
	"github.com/jonathan/recruiter-agent/internal/db"
	"github.com/jonathan/recruiter-agent/internal/store"
)

var (
	sessionsOwner       string
	sessionsDatabaseURL string
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect stored recruiter sessions",
	Long:  `List or show recruiter sessions checkpointed in the database. Requires DATABASE_URL or --db-url.`,
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions for an owner",
	Args:  cobra.NoArgs,
	RunE:  runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <chat_id>",
	Short: "Print one session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

func init() {
	sessionsCmd.PersistentFlags().StringVar(&sessionsOwner, "owner", config.DefaultOwner, "Session namespace owner")
	sessionsCmd.PersistentFlags().StringVar(&sessionsDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func openSessionStore(ctx context.Context) (store.SessionStore, func(), error) {
	databaseURL := sessionsDatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}
	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, nil, err
	}
	return database.Sessions(), database.Close, nil
}

func runSessionsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	sessions, closeFn, err := openSessionStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	summaries, err := sessions.List(ctx, store.RecruiterNamespace(sessionsOwner))
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	return printSessionSummaries(cmd, summaries)
}

func printSessionSummaries(cmd *cobra.Command, summaries []store.SessionSummary) error {
	if len(summaries) == 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "No sessions for %s\n", sessionsOwner)
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "KEY\tNAME\tMODE\tSTAGE\tMESSAGES\tUPDATED")
	for _, s := range summaries {
		stage := string(s.Stage)
		if stage == "" {
			stage = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			s.Key, s.Name, s.Mode, stage, s.Messages, s.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sessions, closeFn, err := openSessionStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	sess, err := sessions.Get(ctx, store.RecruiterNamespace(sessionsOwner), args[0])
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return fmt.Errorf("no session %q for %s", args[0], sessionsOwner)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(sess)
}
