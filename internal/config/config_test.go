package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "http://localhost:2024", cfg.LangGraphURL)
	assert.Equal(t, 2*time.Minute, cfg.StreamIdleTimeout)
	assert.Equal(t, 8, cfg.MaxPendingLines)
	assert.True(t, cfg.NATSEnabled)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LANGGRAPH_URL", "https://agents.example.com")
	t.Setenv("LANGGRAPH_API_KEY", "lg-key")
	t.Setenv("STREAM_IDLE_TIMEOUT", "15s")
	t.Setenv("MAX_PENDING_LINES", "3")
	t.Setenv("NATS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://agents.example.com", cfg.LangGraphURL)
	assert.Equal(t, "lg-key", cfg.LangGraphAPIKey)
	assert.Equal(t, 15*time.Second, cfg.StreamIdleTimeout)
	assert.Equal(t, 3, cfg.MaxPendingLines)
	assert.False(t, cfg.NATSEnabled)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("STREAM_IDLE_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}
