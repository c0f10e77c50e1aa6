package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/recruiter-agent/internal/config"
	"github.com/jonathan/recruiter-agent/internal/db"
	"github.com/jonathan/recruiter-agent/internal/state"
	"github.com/jonathan/recruiter-agent/internal/types"
)

func resolveArgs(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()
	var f runFlags
	cmd := &cobra.Command{Use: "test"}
	f.register(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return f.resolve(cmd)
}

func clearRunEnv(t *testing.T) {
	for _, key := range []string{"WEB_PORTAL", "DATABASE_URL", "WEBHOOK_URL", "PORTAL_SECRET", "GEMINI_API_KEY", "OPENAI_API_KEY"} {
		t.Setenv(key, "")
	}
}

func TestResolve_FlagsOverrideConfig(t *testing.T) {
	clearRunEnv(t)
	path := writeConfig(t, `{
		"web_portal": "http://portal.local:8000",
		"limit": 5,
		"owner": "acme",
		"api_key": "from-config",
		"max_steps": 12
	}`)

	cfg, err := resolveArgs(t, "--config", path, "--limit", "2", "--web-portal", "http://other.local")
	require.NoError(t, err)

	assert.Equal(t, "http://other.local", cfg.WebPortal)
	assert.Equal(t, 2, cfg.Limit)
	assert.Equal(t, "acme", cfg.Owner)
	assert.Equal(t, "from-config", cfg.APIKey)
	assert.Equal(t, 12, cfg.MaxSteps)
	assert.Equal(t, 0, cfg.MaxPlanSteps)
	assert.Equal(t, 3, cfg.MaxToolFailures)
	assert.Equal(t, config.DefaultTimeoutSeconds, cfg.Timeout)
	assert.Equal(t, "gemini", cfg.Provider)
}

func TestResolve_PlanStepsAreSeparateFromSessionSteps(t *testing.T) {
	clearRunEnv(t)

	cfg, err := resolveArgs(t, "--web-portal", "http://portal.local", "--api-key", "k")
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.MaxSteps)
	assert.Equal(t, 0, cfg.MaxPlanSteps)

	cfg, err = resolveArgs(t, "--web-portal", "http://portal.local", "--api-key", "k", "--max-plan-steps", "200")
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.MaxSteps)
	assert.Equal(t, 200, cfg.MaxPlanSteps)
}

func TestResolve_Environment(t *testing.T) {
	clearRunEnv(t)
	t.Setenv("WEB_PORTAL", "http://portal.local")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DATABASE_URL", "postgres://localhost/recruiter")

	cfg, err := resolveArgs(t, "--provider", "openai")
	require.NoError(t, err)
	assert.Equal(t, "http://portal.local", cfg.WebPortal)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "postgres://localhost/recruiter", cfg.DatabaseURL)
	assert.Equal(t, config.DefaultOwner, cfg.Owner)
}

func TestResolve_Errors(t *testing.T) {
	t.Run("missing portal", func(t *testing.T) {
		clearRunEnv(t)
		_, err := resolveArgs(t, "--api-key", "k")
		assert.ErrorContains(t, err, "--web-portal must be provided")
	})

	t.Run("missing api key", func(t *testing.T) {
		clearRunEnv(t)
		_, err := resolveArgs(t, "--web-portal", "http://portal.local")
		assert.ErrorContains(t, err, "GEMINI_API_KEY")
	})

	t.Run("invalid portal", func(t *testing.T) {
		clearRunEnv(t)
		_, err := resolveArgs(t, "--web-portal", "portal", "--api-key", "k")
		assert.ErrorContains(t, err, "web_portal")
	})

	t.Run("unknown provider", func(t *testing.T) {
		clearRunEnv(t)
		_, err := resolveArgs(t, "--web-portal", "http://portal.local", "--api-key", "k", "--provider", "claude")
		assert.ErrorContains(t, err, "unknown provider")
	})

	t.Run("missing config file", func(t *testing.T) {
		clearRunEnv(t)
		_, err := resolveArgs(t, "--config", "does-not-exist.json")
		assert.ErrorContains(t, err, "failed to load config")
	})
}

func TestRunOutcome(t *testing.T) {
	rs := &state.RunState{}
	rs.AddProcessed(types.ProcessedCandidate{Stage: types.StageChat})

	status, processed := runOutcome(rs, nil)
	assert.Equal(t, db.RunStatusCompleted, status)
	assert.Equal(t, 1, processed)

	status, processed = runOutcome(nil, assert.AnError)
	assert.Equal(t, db.RunStatusFailed, status)
	assert.Zero(t, processed)
}

func TestNewPlatform_SignsWithPortalSecret(t *testing.T) {
	cfg := &config.Config{WebPortal: "http://portal.local", PortalSecret: "s3cret", Owner: "acme"}
	client, err := newPlatform(cfg)
	require.NoError(t, err)
	assert.NotNil(t, client)

	_, err = newPlatform(&config.Config{WebPortal: "::bad"})
	assert.Error(t, err)
}
