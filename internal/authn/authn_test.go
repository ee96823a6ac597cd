package authn_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawguard/clawguard/internal/authn"
)

func TestIssueAndValidateToken(t *testing.T) {
	v := authn.NewValidator("test-secret")

	token, err := v.IssueToken("agent-42", time.Hour)
	require.NoError(t, err)

	id, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "agent-42", id.AgentID)
}

func TestValidateTokenWrongSecretFails(t *testing.T) {
	v := authn.NewValidator("secret-a")
	token, err := v.IssueToken("agent-1", time.Hour)
	require.NoError(t, err)

	other := authn.NewValidator("secret-b")
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, authn.ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	v := authn.NewValidator("test-secret")
	token, err := v.IssueToken("agent-1", -time.Minute)
	require.NoError(t, err)

	_, err = v.ValidateToken(token)
	assert.ErrorIs(t, err, authn.ErrInvalidToken)
}

func TestValidateTokenGarbageFails(t *testing.T) {
	v := authn.NewValidator("test-secret")
	_, err := v.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, authn.ErrInvalidToken)
}

func TestContextRoundTrip(t *testing.T) {
	ctx := authn.WithIdentity(t.Context(), &authn.Identity{AgentID: "agent-7"})
	id := authn.FromContext(ctx)
	require.NotNil(t, id)
	assert.Equal(t, "agent-7", id.AgentID)
}

func TestFromContextMissing(t *testing.T) {
	assert.Nil(t, authn.FromContext(t.Context()))
}
