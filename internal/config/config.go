// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jonathan/recruiter-agent/internal/types"
)

// DefaultTimeoutSeconds is the default request timeout against the web portal.
const DefaultTimeoutSeconds = 30

// DefaultOwner is the session namespace owner used when none is configured.
const DefaultOwner = "default"

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Run context
	WebPortal string `json:"web_portal,omitempty"` // Base address of the hiring platform web portal
	Timeout   int    `json:"timeout,omitempty"`    // Request timeout in seconds
	Model     string `json:"model,omitempty"`      // Model identifier (overrides every tier)
	Provider  string `json:"provider,omitempty"`   // LLM provider: gemini or openai
	Limit     int    `json:"limit,omitempty"`      // Maximum candidates processed per run (0 = no limit)
	Owner     string `json:"owner,omitempty"`      // Session namespace owner

	// Stage thresholds
	ChatThreshold       float64 `json:"chat_threshold,omitempty"`
	BorderlineThreshold float64 `json:"borderline_threshold,omitempty"`
	SeekThreshold       float64 `json:"seek_threshold,omitempty"`

	// Loop bounds (0 = unbounded)
	MaxToolFailures int `json:"max_tool_failures,omitempty"` // Consecutive failing tool calls tolerated
	MaxSteps        int `json:"max_steps,omitempty"`         // Recruiter think/act iterations per session
	MaxPlanSteps    int `json:"max_plan_steps,omitempty"`    // Manager planning turns per run

	// Behavior
	APIKey       string `json:"api_key,omitempty"`       // LLM API key
	DatabaseURL  string `json:"database_url,omitempty"`  // PostgreSQL connection URL
	WebhookURL   string `json:"webhook_url,omitempty"`   // Chat webhook for CONTACT escalations
	PortalSecret string `json:"portal_secret,omitempty"` // HMAC secret for signing portal requests
	UseBrowser   bool   `json:"use_browser,omitempty"`   // Render online resumes in a headless browser
	Verbose      bool   `json:"verbose,omitempty"`       // Print detailed debug information
}

// RunContext is the configuration consumed by one recruiting run.
type RunContext struct {
	WebPortal string
	Timeout   time.Duration
	Model     string
	Limit     int
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.WebPortal != "" {
		u, err := url.Parse(c.WebPortal)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config error: 'web_portal' must be an absolute URL, got %q", c.WebPortal)
		}
	}

	// Validate numeric ranges
	if c.Timeout < 0 {
		return fmt.Errorf("config error: 'timeout' must be non-negative")
	}
	if c.Limit < 0 {
		return fmt.Errorf("config error: 'limit' must be non-negative")
	}
	if c.MaxToolFailures < 0 {
		return fmt.Errorf("config error: 'max_tool_failures' must be non-negative")
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("config error: 'max_steps' must be non-negative")
	}
	if c.MaxPlanSteps < 0 {
		return fmt.Errorf("config error: 'max_plan_steps' must be non-negative")
	}

	th := c.Thresholds()
	if !(th.Chat < th.Borderline && th.Borderline < th.Seek) {
		return fmt.Errorf("config error: thresholds must satisfy chat < borderline < seek, got %.2f/%.2f/%.2f",
			th.Chat, th.Borderline, th.Seek)
	}

	if c.Provider != "" && c.Provider != "gemini" && c.Provider != "openai" {
		return fmt.Errorf("config error: unknown provider %q", c.Provider)
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.WebPortal == "" {
		result.WebPortal = defaults.WebPortal
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.Owner == "" {
		result.Owner = defaults.Owner
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.WebhookURL == "" {
		result.WebhookURL = defaults.WebhookURL
	}
	if result.PortalSecret == "" {
		result.PortalSecret = defaults.PortalSecret
	}

	// Int fields: use default if zero
	if result.Timeout == 0 {
		if defaults.Timeout > 0 {
			result.Timeout = defaults.Timeout
		} else {
			result.Timeout = DefaultTimeoutSeconds
		}
	}
	if result.Limit == 0 {
		result.Limit = defaults.Limit
	}
	if result.MaxToolFailures == 0 {
		result.MaxToolFailures = defaults.MaxToolFailures
	}
	if result.MaxSteps == 0 {
		result.MaxSteps = defaults.MaxSteps
	}
	if result.MaxPlanSteps == 0 {
		result.MaxPlanSteps = defaults.MaxPlanSteps
	}

	// Float fields
	if result.ChatThreshold == 0 {
		result.ChatThreshold = defaults.ChatThreshold
	}
	if result.BorderlineThreshold == 0 {
		result.BorderlineThreshold = defaults.BorderlineThreshold
	}
	if result.SeekThreshold == 0 {
		result.SeekThreshold = defaults.SeekThreshold
	}

	if result.Owner == "" {
		result.Owner = DefaultOwner
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// Thresholds returns the stage thresholds, substituting defaults for unset values.
func (c *Config) Thresholds() types.Thresholds {
	th := types.DefaultThresholds()
	if c.ChatThreshold != 0 {
		th.Chat = c.ChatThreshold
	}
	if c.BorderlineThreshold != 0 {
		th.Borderline = c.BorderlineThreshold
	}
	if c.SeekThreshold != 0 {
		th.Seek = c.SeekThreshold
	}
	return th
}

// RunContext returns the run-level context object.
func (c *Config) RunContext() RunContext {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeoutSeconds
	}
	return RunContext{
		WebPortal: c.WebPortal,
		Timeout:   time.Duration(timeout) * time.Second,
		Model:     c.Model,
		Limit:     c.Limit,
	}
}
