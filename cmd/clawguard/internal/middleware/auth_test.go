package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/clawguard/clawguard/cmd/clawguard/internal/middleware"
	"github.com/clawguard/clawguard/internal/authn"
)

func TestAuthMiddlewareDisabledTrustsHeader(t *testing.T) {
	am := middleware.NewAuthMiddleware(nil, true, zaptest.NewLogger(t))

	var seen *authn.Identity
	h := am.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = authn.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scan", nil)
	req.Header.Set("X-Agent-ID", "agent-77")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.NotNil(t, seen)
	assert.Equal(t, "agent-77", seen.AgentID)
}

func TestAuthMiddlewareDisabledDefaultsToAnonymous(t *testing.T) {
	am := middleware.NewAuthMiddleware(nil, true, zaptest.NewLogger(t))

	var seen *authn.Identity
	h := am.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = authn.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scan", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.NotNil(t, seen)
	assert.Equal(t, "anonymous", seen.AgentID)
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	validator := authn.NewValidator("test-secret")
	am := middleware.NewAuthMiddleware(validator, false, zaptest.NewLogger(t))

	h := am.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scan", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareAcceptsValidBearerToken(t *testing.T) {
	validator := authn.NewValidator("test-secret")
	token, err := validator.IssueToken("agent-1", time.Hour)
	require.NoError(t, err)

	am := middleware.NewAuthMiddleware(validator, false, zaptest.NewLogger(t))

	var seen *authn.Identity
	h := am.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = authn.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scan", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "agent-1", seen.AgentID)
}

func TestAuthMiddlewareRejectsTokenFromWrongSecret(t *testing.T) {
	other := authn.NewValidator("other-secret")
	token, err := other.IssueToken("agent-1", time.Hour)
	require.NoError(t, err)

	am := middleware.NewAuthMiddleware(authn.NewValidator("test-secret"), false, zaptest.NewLogger(t))
	h := am.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/scan", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
