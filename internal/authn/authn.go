// Package authn implements clawguard's lightweight bearer-token identity
// check: calling agents present a JWT carrying an agent_id claim, which
// flows through to policy evaluation and the audit trail. Authentication
// is disabled by default (CLAWGUARD_AUTH_DISABLED=true) since clawguard
// is typically deployed behind a trusted internal mesh; operators turn it
// on by setting CLAWGUARD_AUTH_SECRET.
package authn

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the calling agent's authenticated identity.
type Identity struct {
	AgentID string
}

type contextKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored in ctx, if any.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(contextKey{}).(*Identity)
	return id
}

// ErrInvalidToken is returned for any malformed, expired, or unparsable token.
var ErrInvalidToken = errors.New("authn: invalid token")

type claims struct {
	AgentID string `json:"agent_id"`
	jwt.RegisteredClaims
}

// Validator verifies a bearer token and returns the identity it carries.
type Validator struct {
	secret []byte
}

// NewValidator returns a Validator that verifies HS256 tokens signed with secret.
func NewValidator(secret string) *Validator {
	return &Validator{secret: []byte(secret)}
}

// ValidateToken parses and verifies tokenString, returning the agent identity.
func (v *Validator) ValidateToken(tokenString string) (*Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method", ErrInvalidToken)
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if c.AgentID == "" {
		return nil, fmt.Errorf("%w: missing agent_id claim", ErrInvalidToken)
	}
	return &Identity{AgentID: c.AgentID}, nil
}

// IssueToken mints a token for agentID, valid for ttl. Used by tests and
// operator tooling rather than any runtime request path.
func (v *Validator) IssueToken(agentID string, ttl time.Duration) (string, error) {
	c := claims{
		AgentID: agentID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(v.secret)
}
