package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/clawguard/clawguard/internal/authn"
)

// TokenValidator validates a bearer token and returns the calling agent's identity.
type TokenValidator interface {
	ValidateToken(tokenString string) (*authn.Identity, error)
}

// AuthMiddleware authenticates requests by bearer JWT, or, when disabled,
// trusts an optional X-Agent-ID header (or "anonymous") for deployments
// behind a trusted internal mesh.
type AuthMiddleware struct {
	validator TokenValidator
	disabled  bool
	logger    *zap.Logger
}

// NewAuthMiddleware creates an AuthMiddleware. When disabled is true,
// validator may be nil and every request is accepted.
func NewAuthMiddleware(validator TokenValidator, disabled bool, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{validator: validator, disabled: disabled, logger: logger}
}

// Middleware returns the HTTP middleware function.
func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled {
			agentID := r.Header.Get("X-Agent-ID")
			if agentID == "" {
				agentID = "anonymous"
			}
			ctx := authn.WithIdentity(r.Context(), &authn.Identity{AgentID: agentID})
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		token := m.extractToken(r)
		if token == "" {
			m.sendUnauthorized(w, "authentication required")
			return
		}

		id, err := m.validator.ValidateToken(token)
		if err != nil {
			m.logger.Debug("token validation failed", zap.Error(err))
			m.sendUnauthorized(w, "invalid or expired token")
			return
		}

		ctx := authn.WithIdentity(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) extractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

func (m *AuthMiddleware) sendUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="clawguard"`)
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

// ServeHTTP lets the middleware be used directly as a terminal handler.
func (m *AuthMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.sendUnauthorized(w, "direct access not allowed")
}
