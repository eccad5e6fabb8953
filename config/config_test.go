package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:8000", cfg.HTTP.Addr)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, "alloy", cfg.OpenAI.Voice)
	assert.InDelta(t, 0.02, cfg.Coach.VolumeThreshold, 1e-9)
	assert.InDelta(t, 160.0, cfg.Coach.WPMFast, 1e-9)
	assert.InDelta(t, 100.0, cfg.Coach.WPMSlow, 1e-9)
	assert.Equal(t, 5, cfg.Coach.FillerWarn)
	assert.Equal(t, 10, cfg.Coach.FillerCritical)
	assert.Equal(t, 2*time.Hour, cfg.Session.IdleTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Session.Retention)
	assert.Equal(t, 10*time.Minute, cfg.Session.SweepInterval)
	assert.Empty(t, cfg.Cache.Addr)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("INTERVUE_OPENAI_API_KEY", "test-key")
	t.Setenv("INTERVUE_HTTP_ADDR", "0.0.0.0:9000")
	t.Setenv("INTERVUE_SESSION_IDLE_TIMEOUT", "30m")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.OpenAI.APIKey)
	assert.Equal(t, "0.0.0.0:9000", cfg.HTTP.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
log_level: debug
http:
  addr: 127.0.0.1:8123
coach:
  filler_warn: 3
session:
  retention: 48h
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:8123", cfg.HTTP.Addr)
	assert.Equal(t, 3, cfg.Coach.FillerWarn)
	assert.Equal(t, 48*time.Hour, cfg.Session.Retention)
	// Unset values keep their defaults.
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
