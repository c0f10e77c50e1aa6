package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/recruiter-agent/internal/config"
	"github.com/jonathan/recruiter-agent/internal/llm"
)

// runFlags are the flags shared by run and serve. Flags override config file values.
type runFlags struct {
	configPath      string
	webPortal       string
	timeout         int
	model           string
	provider        string
	limit           int
	owner           string
	maxToolFailures int
	maxSteps        int
	maxPlanSteps    int
	apiKey          string
	databaseURL     string
	webhookURL      string
	useBrowser      bool
	verbose         bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	// Config file flag (processed first)
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	cmd.Flags().StringVar(&f.webPortal, "web-portal", "", "Base address of the hiring platform web portal")
	cmd.Flags().IntVar(&f.timeout, "timeout", 0, "Portal request timeout in seconds")
	cmd.Flags().StringVar(&f.model, "model", "", "Model identifier (overrides every tier)")
	cmd.Flags().StringVar(&f.provider, "provider", "", "LLM provider: gemini or openai")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Maximum candidates processed per run (0 = no limit)")
	cmd.Flags().StringVar(&f.owner, "owner", "", "Session namespace owner")
	cmd.Flags().IntVar(&f.maxToolFailures, "max-tool-failures", 0, "Consecutive failing tool calls tolerated (0 = unbounded)")
	cmd.Flags().IntVar(&f.maxSteps, "max-steps", 0, "Model turns per recruiter session (0 = unbounded)")
	cmd.Flags().IntVar(&f.maxPlanSteps, "max-plan-steps", 0, "Manager planning turns per run (0 = unbounded)")
	cmd.Flags().BoolVar(&f.useBrowser, "use-browser", false, "Render online resumes in a headless browser (requires Chrome)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from GEMINI_API_KEY / OPENAI_API_KEY
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "LLM API key (optional, defaults to the provider's env var)")

	// Database URL for session and run persistence
	cmd.Flags().StringVar(&f.databaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	cmd.Flags().StringVar(&f.webhookURL, "webhook-url", "", "Chat webhook notified when a candidate reaches CONTACT")
}

// resolve loads the config file, applies explicitly set flags, fills defaults
// and secrets from the environment, and validates the result.
func (f *runFlags) resolve(cmd *cobra.Command) (*config.Config, error) {
	// Step 1: Load config file if provided
	var cfg config.Config
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	// Step 2: Apply CLI overrides. Only flags that were explicitly set win.
	flags := cmd.Flags()
	if flags.Changed("web-portal") {
		cfg.WebPortal = f.webPortal
	}
	if flags.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if flags.Changed("model") {
		cfg.Model = f.model
	}
	if flags.Changed("provider") {
		cfg.Provider = f.provider
	}
	if flags.Changed("limit") {
		cfg.Limit = f.limit
	}
	if flags.Changed("owner") {
		cfg.Owner = f.owner
	}
	if flags.Changed("max-tool-failures") {
		cfg.MaxToolFailures = f.maxToolFailures
	}
	if flags.Changed("max-steps") {
		cfg.MaxSteps = f.maxSteps
	}
	if flags.Changed("max-plan-steps") {
		cfg.MaxPlanSteps = f.maxPlanSteps
	}
	if flags.Changed("api-key") {
		cfg.APIKey = f.apiKey
	}
	if flags.Changed("db-url") {
		cfg.DatabaseURL = f.databaseURL
	}
	if flags.Changed("webhook-url") {
		cfg.WebhookURL = f.webhookURL
	}
	if flags.Changed("use-browser") {
		cfg.UseBrowser = f.useBrowser
	}
	if flags.Changed("verbose") {
		cfg.Verbose = f.verbose
	}

	// Step 3: Apply defaults, then environment for anything still unset
	merged := cfg.MergeWithDefaults(config.Config{
		WebPortal:       os.Getenv("WEB_PORTAL"),
		Provider:        string(llm.ProviderGemini),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		WebhookURL:      os.Getenv("WEBHOOK_URL"),
		PortalSecret:    os.Getenv("PORTAL_SECRET"),
		MaxToolFailures: 3,
		MaxSteps:        40,
	})
	if merged.APIKey == "" {
		merged.APIKey = apiKeyFromEnv(llm.ParseProvider(merged.Provider))
	}

	// Step 4: Validate
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	if merged.WebPortal == "" {
		return nil, fmt.Errorf("--web-portal must be provided (via flag, config or WEB_PORTAL)")
	}
	if merged.APIKey == "" {
		return nil, fmt.Errorf("%s environment variable or --api-key flag is required", apiKeyEnv(llm.ParseProvider(merged.Provider)))
	}

	return &merged, nil
}

func apiKeyEnv(provider llm.Provider) string {
	if provider == llm.ProviderOpenAI {
		return "OPENAI_API_KEY"
	}
	return "GEMINI_API_KEY"
}

func apiKeyFromEnv(provider llm.Provider) string {
	return os.Getenv(apiKeyEnv(provider))
}
