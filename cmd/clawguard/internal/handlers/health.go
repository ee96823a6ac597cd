package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/clawguard/clawguard/internal/container"
	"github.com/clawguard/clawguard/internal/health"
)

const serviceVersion = "0.1.0"

// HealthHandler handles liveness and readiness checks.
type HealthHandler struct {
	container *container.Container
	health    health.Reporter
	logger    *zap.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(c *container.Container, reporter health.Reporter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{container: c, health: reporter, logger: logger}
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status        string   `json:"status"`
	Version       string   `json:"version"`
	Scanners      []string `json:"scanners,omitempty"`
	PolicyLoaded  bool     `json:"policy_loaded"`
	DefaultAction string   `json:"default_action,omitempty"`
}

// Health handles GET /health: a cheap liveness check with no external
// dependency probes.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	p := h.container.Evaluator.Policy()

	scanners := make([]string, 0)
	for _, t := range h.container.Registry.ScannerTypes() {
		scanners = append(scanners, string(t))
	}

	response := HealthResponse{
		Status:        "ok",
		Version:       serviceVersion,
		Scanners:      scanners,
		PolicyLoaded:  true,
		DefaultAction: string(p.DefaultAction),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// Readiness handles GET /readiness: reports the status of every
// registered dependency check (audit database, policy load state).
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	detail := h.health.GetDetailedHealth(r.Context())

	status := http.StatusOK
	if !detail.Overall.Ready {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(detail)
}
