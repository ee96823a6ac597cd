package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawguard/clawguard/internal/config"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("CLAWGUARD_CONFIG_FILE", "does-not-exist.yaml")

	s, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", s.Host)
	assert.Equal(t, 8642, s.Port)
	assert.True(t, s.AuthDisabled)
	assert.Equal(t, "localhost", s.Database.Host)
	assert.Equal(t, "disable", s.Database.SSLMode)
}

func TestLoadHonorsEnvOverrides(t *testing.T) {
	t.Setenv("CLAWGUARD_CONFIG_FILE", "does-not-exist.yaml")
	t.Setenv("CLAWGUARD_PORT", "9000")
	t.Setenv("CLAWGUARD_AUTH_DISABLED", "false")
	t.Setenv("CLAWGUARD_DB_MAX_CONNECTIONS", "50")

	s, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, s.Port)
	assert.False(t, s.AuthDisabled)
	assert.Equal(t, 50, s.Database.MaxConnections)
}

func TestLoadDerivesPolicyPathFromDataDir(t *testing.T) {
	t.Setenv("CLAWGUARD_CONFIG_FILE", "does-not-exist.yaml")
	t.Setenv("CLAWGUARD_DATA_DIR", "/tmp/clawguard-data")

	s, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/clawguard-data/policy.yaml", s.PolicyPath)
}
