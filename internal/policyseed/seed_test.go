package policyseed_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawguard/clawguard/internal/policyseed"
)

func TestEnsureSeededWritesDefaultPolicyWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "policy.yaml")

	require.NoError(t, policyseed.EnsureSeeded(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "default_action")
}

func TestEnsureSeededLeavesExistingPolicyUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("default_action: ALLOW\n"), 0o644))

	require.NoError(t, policyseed.EnsureSeeded(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "default_action: ALLOW\n", string(data))
}
