package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/clawguard/clawguard/cmd/clawguard/internal/middleware"
	"github.com/clawguard/clawguard/internal/authn"
)

func newMiniredisClient(t *testing.T) *redis.Client {
	t.Helper()
	s, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return redis.NewClient(&redis.Options{Addr: s.Addr()})
}

func withAgent(req *http.Request, agentID string) *http.Request {
	ctx := authn.WithIdentity(req.Context(), &authn.Identity{AgentID: agentID})
	return req.WithContext(ctx)
}

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	client := newMiniredisClient(t)
	rl := middleware.NewRateLimiter(client, 2, zaptest.NewLogger(t))

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := withAgent(httptest.NewRequest(http.MethodPost, "/api/v1/scan", nil), "agent-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	client := newMiniredisClient(t)
	rl := middleware.NewRateLimiter(client, 1, zaptest.NewLogger(t))

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := withAgent(httptest.NewRequest(http.MethodPost, "/api/v1/scan", nil), "agent-2")
	h.ServeHTTP(httptest.NewRecorder(), first)

	second := withAgent(httptest.NewRequest(http.MethodPost, "/api/v1/scan", nil), "agent-2")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, second)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRateLimiterSkipsUnauthenticatedRequests(t *testing.T) {
	client := newMiniredisClient(t)
	rl := middleware.NewRateLimiter(client, 1, zaptest.NewLogger(t))

	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
