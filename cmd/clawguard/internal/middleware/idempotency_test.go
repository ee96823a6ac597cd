package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/clawguard/clawguard/cmd/clawguard/internal/middleware"
)

func TestIdempotencyReplaysCachedResponse(t *testing.T) {
	client := newMiniredisClient(t)
	im := middleware.NewIdempotencyMiddleware(client, zaptest.NewLogger(t))

	calls := 0
	h := im.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":` + "1" + `}`))
	}))

	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodPut, "/api/v1/policy", strings.NewReader(`{"default_action":"ALLOW"}`))
		r.Header.Set("Idempotency-Key", "key-1")
		return r
	}

	rec1 := httptest.NewRecorder()
	h.ServeHTTP(rec1, req())
	assert.Equal(t, http.StatusOK, rec1.Code)
	assert.Equal(t, 1, calls)

	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, req())
	assert.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, "true", rec2.Header().Get("X-Idempotency-Cached"))
	assert.Equal(t, 1, calls, "handler should not be invoked again for a replayed key")
	assert.Equal(t, rec1.Body.String(), rec2.Body.String())
}

func TestIdempotencyPassesThroughWithoutKey(t *testing.T) {
	client := newMiniredisClient(t)
	im := middleware.NewIdempotencyMiddleware(client, zaptest.NewLogger(t))

	calls := 0
	h := im.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/api/v1/policy", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/api/v1/policy", nil))

	assert.Equal(t, 2, calls)
}

func TestIdempotencyIgnoresGetRequests(t *testing.T) {
	client := newMiniredisClient(t)
	im := middleware.NewIdempotencyMiddleware(client, zaptest.NewLogger(t))

	calls := 0
	h := im.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil)
	req.Header.Set("Idempotency-Key", "key-get")
	h.ServeHTTP(httptest.NewRecorder(), req)
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 2, calls)
}
