package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruiter-agent/internal/auth"
	"github.com/jonathan/recruiter-agent/internal/config"
	"github.com/jonathan/recruiter-agent/internal/llm"
	"github.com/jonathan/recruiter-agent/internal/server"
)

var (
	servePort       int
	serveMaxRuns    int
	serveRunOptions runFlags
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes REST endpoints for starting recruiting runs, streaming
their progress and resuming runs paused by a failed environment check.

Requests are authenticated with bearer tokens signed with JWT_SECRET (see the token command).`,
	RunE: runServe,
}

func init() {
	serveRunOptions.register(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	serveCmd.Flags().IntVar(&serveMaxRuns, "max-runs", 4, "Maximum concurrent runs (0 = unlimited)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := serveRunOptions.resolve(cmd)
	if err != nil {
		return err
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	a, err := newAgent(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srvCfg := server.Config{
		Port:   servePort,
		Tokens: auth.NewService(jwtConfig).AsTokenValidator(),
		NewRunner: func(spec server.RunSpec) (server.Runner, error) {
			limit := spec.Limit
			if limit == 0 {
				limit = cfg.Limit
			}
			return a.newManager(spec.Owner, limit, spec.Interrupter)
		},
		Sessions:          a.stores.sessions,
		WebPortal:         cfg.WebPortal,
		Model:             a.llm.GetModel(llm.TierAdvanced),
		MaxConcurrentRuns: serveMaxRuns,
	}
	if a.stores.database != nil {
		srvCfg.Recorder = a.stores.database
	}

	srv, err := server.New(srvCfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	if cfg.Verbose {
		_, _ = fmt.Fprintf(os.Stdout, "Serving runs against %s\n", cfg.WebPortal)
	}
	return srv.Start()
}
