package middleware

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ValidationMiddleware performs basic input validation for common query
// parameters, ahead of the handler, so handlers don't repeat bounds checks.
type ValidationMiddleware struct {
	logger *zap.Logger
}

func NewValidationMiddleware(logger *zap.Logger) *ValidationMiddleware {
	return &ValidationMiddleware{logger: logger}
}

func (vm *ValidationMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		method := r.Method

		switch {
		case method == http.MethodGet && path == "/api/v1/audit":
			if !vm.validatePagination(w, r, 1, 500) {
				return
			}
			if !vm.validateOptionalAction(w, r) {
				return
			}

		case method == http.MethodGet && strings.HasPrefix(path, "/api/v1/audit/"):
			if !vm.validatePathID(w, r) {
				return
			}

		case method == http.MethodPost && path == "/api/v1/scan":
			if r.Header.Get("Content-Type") != "" && !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
				vm.sendBadRequest(w, "Content-Type must be application/json")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

var idRe = regexp.MustCompile(`^[A-Za-z0-9:_\-\.]{1,128}$`)

func (vm *ValidationMiddleware) validatePathID(w http.ResponseWriter, r *http.Request) bool {
	id := r.PathValue("id")
	if id == "" || !idRe.MatchString(id) {
		vm.sendBadRequest(w, "invalid id format")
		return false
	}
	return true
}

func (vm *ValidationMiddleware) validatePagination(w http.ResponseWriter, r *http.Request, minLimit, maxLimit int) bool {
	q := r.URL.Query()
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < minLimit || n > maxLimit {
			vm.sendBadRequest(w, "invalid limit parameter")
			return false
		}
	}
	if o := q.Get("offset"); o != "" {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 {
			vm.sendBadRequest(w, "invalid offset parameter")
			return false
		}
	}
	return true
}

var allowedActions = map[string]struct{}{
	"ALLOW":  {},
	"BLOCK":  {},
	"REDACT": {},
	"PROMPT": {},
}

func (vm *ValidationMiddleware) validateOptionalAction(w http.ResponseWriter, r *http.Request) bool {
	a := r.URL.Query().Get("action")
	if a == "" {
		return true
	}
	if _, ok := allowedActions[strings.ToUpper(a)]; !ok {
		vm.sendBadRequest(w, "invalid action value")
		return false
	}
	return true
}

func (vm *ValidationMiddleware) sendBadRequest(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
