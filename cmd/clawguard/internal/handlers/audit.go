package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/clawguard/clawguard/internal/audit"
)

// AuditHandler serves the audit trail query endpoint.
type AuditHandler struct {
	repo   audit.Repository
	logger *zap.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(repo audit.Repository, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{repo: repo, logger: logger}
}

// QueryAudit handles GET /api/v1/audit, returning matching scan events
// newest first.
func (h *AuditHandler) QueryAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := audit.Query{
		AgentID:     q.Get("agent_id"),
		Destination: q.Get("destination"),
		Action:      q.Get("action"),
		Limit:       50,
		Offset:      0,
	}
	if l := q.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil {
			query.Limit = n
		}
	}
	if o := q.Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil {
			query.Offset = n
		}
	}

	entries, err := h.repo.QueryEvents(r.Context(), query)
	if err != nil {
		h.logger.Error("audit query failed", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "audit query failed"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(entries)
}
