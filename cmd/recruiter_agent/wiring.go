package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jonathan/recruiter-agent/internal/auth"
	"github.com/jonathan/recruiter-agent/internal/config"
	"github.com/jonathan/recruiter-agent/internal/db"
	"github.com/jonathan/recruiter-agent/internal/fetch"
	"github.com/jonathan/recruiter-agent/internal/llm"
	"github.com/jonathan/recruiter-agent/internal/manager"
	"github.com/jonathan/recruiter-agent/internal/notify"
	"github.com/jonathan/recruiter-agent/internal/observability"
	"github.com/jonathan/recruiter-agent/internal/platform"
	"github.com/jonathan/recruiter-agent/internal/recruiter"
	"github.com/jonathan/recruiter-agent/internal/store"
)

// stores are the persistence backends for one process. Without a database
// everything is kept in memory.
type stores struct {
	database   *db.DB
	sessions   store.SessionStore
	candidates store.CandidateStore
	pages      fetch.Cache
}

func openStores(ctx context.Context, databaseURL string) (*stores, error) {
	if databaseURL == "" {
		log.Printf("[STORE] No database configured, sessions are kept in memory")
		return &stores{
			sessions:   store.NewMemorySessionStore(),
			candidates: store.NewMemoryCandidateStore(),
			pages:      fetch.NewMemoryCache(),
		}, nil
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return &stores{
		database:   database,
		sessions:   database.Sessions(),
		candidates: database.Candidates(),
		pages:      database.ResumePages(),
	}, nil
}

func (s *stores) Close() {
	if s.database != nil {
		s.database.Close()
	}
}

// newLLMClient builds the provider client; --model overrides every tier.
func newLLMClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	llmConfig := llm.ConfigFor(llm.ParseProvider(cfg.Provider), cfg.Model)
	return llm.NewClient(ctx, llmConfig, cfg.APIKey)
}

// newPlatform builds the portal client. Requests are signed when a portal
// secret is configured.
func newPlatform(cfg *config.Config) (*platform.HTTPClient, error) {
	rc := cfg.RunContext()
	opts := platform.Options{Timeout: rc.Timeout, Owner: cfg.Owner}
	if cfg.PortalSecret != "" {
		jwtConfig, err := config.NewJWTConfigFromSecret(cfg.PortalSecret, rc.Timeout*10)
		if err != nil {
			return nil, fmt.Errorf("invalid portal secret: %w", err)
		}
		opts.Tokens = auth.NewService(jwtConfig)
	}
	return platform.New(rc.WebPortal, opts)
}

func newResumeFetcher(cfg *config.Config, cache fetch.Cache) *fetch.ResumeFetcher {
	fc := &fetch.ResumeFetcherConfig{
		Timeout: cfg.RunContext().Timeout,
		Cache:   cache,
		Verbose: cfg.Verbose,
	}
	if cfg.UseBrowser {
		fc.Renderer = fetch.NewBrowser(cfg.Verbose)
	}
	return fetch.NewResumeFetcher(fc)
}

// agent holds the long-lived collaborators shared by every run of a process.
type agent struct {
	cfg      *config.Config
	llm      llm.Client
	platform platform.Client
	stores   *stores
	toolbox  recruiter.Toolbox
	printer  *observability.Printer
}

func newAgent(ctx context.Context, cfg *config.Config) (*agent, error) {
	st, err := openStores(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	portal, err := newPlatform(cfg)
	if err != nil {
		st.Close()
		return nil, err
	}

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	a := &agent{
		cfg:      cfg,
		llm:      client,
		platform: portal,
		stores:   st,
		toolbox:  recruiter.NewPlatformToolbox(portal, newResumeFetcher(cfg, st.pages), cfg.Thresholds()),
		printer:  observability.NewPrinter(os.Stdout),
	}
	return a, nil
}

// newManager builds a manager for one run of owner.
func (a *agent) newManager(owner string, limit int, interrupter manager.Interrupter) (*manager.Manager, error) {
	rec := recruiter.New(a.llm, a.stores.sessions, a.toolbox, recruiter.Config{
		Owner:           owner,
		Thresholds:      a.cfg.Thresholds(),
		MaxToolFailures: a.cfg.MaxToolFailures,
		MaxSteps:        a.cfg.MaxSteps,
		Verbose:         a.cfg.Verbose,
	})
	var notifier manager.Notifier
	if a.cfg.WebhookURL != "" {
		notifier = notify.NewWebhook(a.cfg.WebhookURL, owner, nil)
	}
	return manager.New(manager.Deps{
		LLM:         a.llm,
		Platform:    a.platform,
		Recruiter:   rec,
		Sessions:    a.stores.sessions,
		Candidates:  a.stores.candidates,
		Interrupter: interrupter,
		Notifier:    notifier,
		Printer:     a.printer,
	}, manager.Config{
		Owner:           owner,
		Limit:           limit,
		MaxToolFailures: a.cfg.MaxToolFailures,
		MaxPlanSteps:    a.cfg.MaxPlanSteps,
		Verbose:         a.cfg.Verbose,
	})
}

func (a *agent) Close() {
	if err := a.llm.Close(); err != nil {
		log.Printf("Warning: failed to close LLM client: %v", err)
	}
	a.stores.Close()
}
