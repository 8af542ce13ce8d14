package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTimeouts(t *testing.T) {
	cfg := Default()
	assert.Equal(t, time.Minute, cfg.FactCheck.Timeouts["standard"])
	assert.Equal(t, 5*time.Minute, cfg.FactCheck.Timeouts["thorough"])
	assert.Equal(t, 15*time.Minute, cfg.FactCheck.Timeouts["synthesis"])
	assert.Equal(t, 2.0, cfg.Analytics.CredibilityDeadband)
}

func TestLoadMergesFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "factfeed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9090"
fact_check:
  poll_interval: 250ms
  timeouts:
    synthesis: 20m
analytics:
  credibility_deadband: 3.5
`), 0o600))

	t.Setenv(ConfigFileEnv, path)
	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("FACTCHECK_TIMEOUT_STANDARD", "30s")
	t.Setenv("RATE_LIMIT_REQUESTS", "10")

	cfg, err := Load()
	require.NoError(t, err)

	// env wins over file
	assert.Equal(t, ":7070", cfg.HTTP.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.FactCheck.PollInterval)
	assert.Equal(t, 20*time.Minute, cfg.FactCheck.Timeouts["synthesis"])
	assert.Equal(t, 30*time.Second, cfg.FactCheck.Timeouts["standard"])
	// untouched keys keep defaults
	assert.Equal(t, 5*time.Minute, cfg.FactCheck.Timeouts["thorough"])
	assert.Equal(t, 3.5, cfg.Analytics.CredibilityDeadband)
	assert.Equal(t, 0.02, cfg.Analytics.FalseRateDeadband)
	assert.Equal(t, 10, cfg.RateLimit.Requests)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv(ConfigFileEnv, "")
	t.Setenv("FACTCHECK_POLL_INTERVAL", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}
