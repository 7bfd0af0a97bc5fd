package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, ":8080", cfg.GetHTTPAddr())
	assert.Equal(t, "sqlite", cfg.DBDriver, "auto resolves to sqlite without a postgres DSN")
	assert.False(t, cfg.IsProduction())
}

func TestResolveDefaultsPrefersPostgresWhenDSNSet(t *testing.T) {
	cfg := &Config{DBDriver: "auto", PostgresDSN: "postgres://localhost/copilotx"}
	require.NoError(t, cfg.ResolveDefaults())
	assert.Equal(t, "postgres", cfg.DBDriver)
}

func TestResolveDefaultsRejectsUnknownDriver(t *testing.T) {
	cfg := &Config{DBDriver: "oracle"}
	assert.Error(t, cfg.ResolveDefaults())
}

func TestResolveDefaultsRequiresDSNForPostgres(t *testing.T) {
	cfg := &Config{DBDriver: "postgres"}
	assert.Error(t, cfg.ResolveDefaults())
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("COPILOTX_HTTP_PORT", "9090")
	t.Setenv("COPILOTX_ENVIRONMENT", "testing")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.True(t, cfg.IsTesting())
}
