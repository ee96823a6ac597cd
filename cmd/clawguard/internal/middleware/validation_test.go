package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/clawguard/clawguard/cmd/clawguard/internal/middleware"
)

func okHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
}

func TestValidationRejectsLimitOutOfRange(t *testing.T) {
	vm := middleware.NewValidationMiddleware(zaptest.NewLogger(t))
	h := vm.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit?limit=5000", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidationAllowsDefaultPagination(t *testing.T) {
	vm := middleware.NewValidationMiddleware(zaptest.NewLogger(t))
	h := vm.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestValidationRejectsUnknownActionFilter(t *testing.T) {
	vm := middleware.NewValidationMiddleware(zaptest.NewLogger(t))
	h := vm.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit?action=DELETE", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidationRejectsWrongContentTypeOnScan(t *testing.T) {
	vm := middleware.NewValidationMiddleware(zaptest.NewLogger(t))
	h := vm.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scan", nil)
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidationPathIDRejectsBadFormat(t *testing.T) {
	vm := middleware.NewValidationMiddleware(zaptest.NewLogger(t))

	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/audit/{id}", vm.Middleware(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/not valid id!", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidationPathIDAcceptsValidFormat(t *testing.T) {
	vm := middleware.NewValidationMiddleware(zaptest.NewLogger(t))

	mux := http.NewServeMux()
	mux.Handle("GET /api/v1/audit/{id}", vm.Middleware(okHandler()))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/42", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
