package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/clawguard/clawguard/internal/container"
	"github.com/clawguard/clawguard/internal/dlp"
	"github.com/clawguard/clawguard/internal/dlp/policy"
)

// PolicyHandler serves the policy reload and replace endpoints.
type PolicyHandler struct {
	container *container.Container
	logger    *zap.Logger
}

// NewPolicyHandler creates a PolicyHandler.
func NewPolicyHandler(c *container.Container, logger *zap.Logger) *PolicyHandler {
	return &PolicyHandler{container: c, logger: logger}
}

// Reload handles POST /api/v1/policy/reload: re-read the policy file from
// disk and re-sync custom patterns, disabled patterns, and redaction
// config derived from it.
func (h *PolicyHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.container.ReloadPolicy(r.Context()); err != nil {
		h.logger.Warn("policy reload failed", zap.Error(err))
		h.sendError(w, h.statusForError(err), "policy reload failed: "+err.Error())
		return
	}

	p := h.container.Evaluator.Policy()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":               "reloaded",
		"default_action":       p.DefaultAction,
		"custom_patterns_count": len(p.CustomPatterns),
	})
}

// Update handles PUT /api/v1/policy: replace the active policy document,
// persist it to disk, and re-sync every derived piece of scanner/redactor
// state.
func (h *PolicyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var cfg policy.Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid policy document")
		return
	}
	if cfg.PatternSeverityOverrides == nil {
		cfg.PatternSeverityOverrides = map[string]dlp.Severity{}
	}

	if err := h.container.ReplacePolicy(r.Context(), cfg); err != nil {
		h.logger.Warn("policy update failed", zap.Error(err))
		h.sendError(w, h.statusForError(err), "policy update failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(h.container.Evaluator.Policy())
}

// statusForError maps a policy error to its HTTP status: a document or
// custom-pattern regex that fails validation is unprocessable (422), an
// I/O failure writing the policy file is an internal error (500), and
// anything else (a malformed request) is a bad request (400).
func (h *PolicyHandler) statusForError(err error) int {
	switch {
	case errors.Is(err, policy.ErrPolicyValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, policy.ErrPolicyIO):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func (h *PolicyHandler) sendError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
