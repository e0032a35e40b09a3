package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "session-service", cfg.Service.Name)
	assert.Equal(t, "8080", cfg.Service.Port)
	assert.Equal(t, "X-Session-Token", cfg.Session.HeaderName)
	assert.Equal(t, 30, cfg.Session.DefaultTimeoutMinutes)
	assert.Equal(t, 15, cfg.Session.SweepIntervalMinutes)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVICE_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/sessions")
	t.Setenv("SESSION_HEADER", "X-Auth")
	t.Setenv("SESSION_DEFAULT_TIMEOUT_MINUTES", "60")
	t.Setenv("SWEEP_INTERVAL_MINUTES", "5")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TRACING_SAMPLE_RATE", "0.25")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Service.Port)
	assert.Equal(t, "postgres://localhost/sessions", cfg.Database.URL)
	assert.Equal(t, "X-Auth", cfg.Session.HeaderName)
	assert.Equal(t, 60, cfg.Session.DefaultTimeoutMinutes)
	assert.Equal(t, 5*time.Minute, cfg.GetSweepInterval())
	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, 0.25, cfg.Tracing.SampleRate)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("SESSION_DEFAULT_TIMEOUT_MINUTES", "soon")
	t.Setenv("TRACING_ENABLED", "maybe")

	cfg := Load()

	assert.Equal(t, 30, cfg.Session.DefaultTimeoutMinutes)
	assert.False(t, cfg.Tracing.Enabled)
}

func TestValidate(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sessions")
	cfg := Load()
	require.NoError(t, cfg.Validate())

	cfg.Database.URL = ""
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.Session.DefaultTimeoutMinutes = 0
	assert.Error(t, cfg.Validate())

	cfg = Load()
	cfg.Session.SweepIntervalMinutes = -1
	assert.Error(t, cfg.Validate())
}
