package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
}

func TestDefaultServerConfig_StreamingFriendly(t *testing.T) {
	t.Parallel()

	cfg := DefaultServerConfig()
	// A write timeout would sever long-lived SSE streams.
	assert.Equal(t, time.Duration(0), cfg.WriteTimeout)
	assert.Positive(t, cfg.ReadTimeout)
	assert.Positive(t, cfg.ShutdownTimeout)
}

func TestDefaultAuthConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultAuthConfig()
	assert.Equal(t, "atlassian", cfg.Provider)
	assert.Equal(t, "authorization_code", cfg.FlowType)
	assert.NotEmpty(t, cfg.Scopes)
	assert.Positive(t, cfg.PollInterval)
}

func TestDefaultConfluenceConfig_PointsAtAtlassian(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfluenceConfig()
	assert.Contains(t, cfg.DiscoveryURL, "api.atlassian.com")
	assert.Contains(t, cfg.APIBase, "ex/confluence")
}
