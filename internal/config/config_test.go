package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/council/internal/catalog"
)

func chtemp(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
}

func TestLoadDefaults(t *testing.T) {
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434", cfg.Backend.URL)
	assert.Equal(t, "moderate", cfg.Defaults.Complexity)
	assert.Equal(t, "general", cfg.Defaults.Focus)
	assert.InDelta(t, 0.7, cfg.Defaults.Temperature, 0.001)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 15, cfg.Server.ShutdownTimeoutS)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	chtemp(t)

	yaml := `
backend:
  url: http://inference.internal:11434
log:
  level: debug
  format: console
server:
  port: 9090
policies:
  complex:
    base_timeout_secs: 240
    max_parallel: 1
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://inference.internal:11434", cfg.Backend.URL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 240, cfg.Policies.Complex.BaseTimeoutSecs)
	// Defaults still apply for unset values
	assert.Equal(t, "moderate", cfg.Defaults.Complexity)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	chtemp(t)

	yaml := `
backend:
  url: http://from-file:11434
log:
  level: debug
`
	dir, _ := os.Getwd()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("COUNCIL_BACKEND_URL", "http://from-env:11434")
	t.Setenv("COUNCIL_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "http://from-env:11434", cfg.Backend.URL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chtemp(t)

	t.Setenv("COUNCIL_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestExecutionPoliciesDefaults(t *testing.T) {
	chtemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	policies := cfg.ExecutionPolicies()
	assert.Equal(t, 60*time.Second, policies[catalog.ComplexityModerate].BaseTimeout)
	assert.Equal(t, 300*time.Second, policies[catalog.ComplexityComplex].MaxTimeout)
}

func TestExecutionPoliciesOverrides(t *testing.T) {
	cfg := &Config{}
	cfg.Policies.Complex.BaseTimeoutSecs = 240
	cfg.Policies.Complex.MaxParallel = 1
	cfg.Policies.Simple.RetryAttempts = 4

	policies := cfg.ExecutionPolicies()

	assert.Equal(t, 240*time.Second, policies[catalog.ComplexityComplex].BaseTimeout)
	assert.Equal(t, 1, policies[catalog.ComplexityComplex].MaxParallel)
	assert.Equal(t, 4, policies[catalog.ComplexitySimple].Retry.MaxAttempts)
	// Untouched levels keep built-in values.
	assert.Equal(t, 60*time.Second, policies[catalog.ComplexityModerate].BaseTimeout)
}

// validDefaults returns a Config populated like the built-in defaults.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Backend.URL = "http://localhost:11434"
	cfg.Defaults.Complexity = "moderate"
	cfg.Defaults.Focus = "general"
	cfg.Defaults.Temperature = 0.7
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateResearch_OK(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("research"))
}

func TestValidateResearch_MissingBackend(t *testing.T) {
	cfg := validDefaults()
	cfg.Backend.URL = ""

	err := cfg.Validate("research")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "backend.url is required")
}

func TestValidateResearch_BadDefaults(t *testing.T) {
	cfg := validDefaults()
	cfg.Defaults.Complexity = "impossible"
	cfg.Defaults.Temperature = 5

	err := cfg.Validate("research")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "defaults.complexity")
	assert.Contains(t, err.Error(), "defaults.temperature")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
