package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/clawguard/clawguard/internal/container"
	"github.com/clawguard/clawguard/internal/dlp"
	"github.com/clawguard/clawguard/internal/dlp/patterns"
	"github.com/clawguard/clawguard/internal/dlp/scan"
)

// DashboardHandler serves the operator-facing summary endpoints: scan
// stats, the active policy document, and the pattern catalog.
type DashboardHandler struct {
	container *container.Container
	logger    *zap.Logger
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(c *container.Container, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{container: c, logger: logger}
}

// Stats handles GET /api/v1/dashboard/stats.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.container.AuditRepo.GetStats(r.Context())
	if err != nil {
		h.logger.Error("dashboard stats failed", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "stats query failed"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Policy handles GET /api/v1/dashboard/policy.
func (h *DashboardHandler) Policy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.container.Evaluator.Policy())
}

type patternCatalogEntry struct {
	Name            string       `json:"name"`
	Severity        dlp.Severity `json:"severity"`
	DefaultSeverity dlp.Severity `json:"default_severity,omitempty"`
	Category        string       `json:"category"`
	Description     string       `json:"description"`
	Regex           string       `json:"regex,omitempty"`
}

type patternCatalog struct {
	Secrets []patternCatalogEntry `json:"secrets"`
	PII     []patternCatalogEntry `json:"pii"`
	Custom  []patternCatalogEntry `json:"custom"`
}

// Patterns handles GET /api/v1/dashboard/patterns: the full built-in and
// custom pattern catalog, reflecting any active per-pattern severity
// overrides.
func (h *DashboardHandler) Patterns(w http.ResponseWriter, r *http.Request) {
	overrides := h.container.Evaluator.Policy().PatternSeverityOverrides

	secrets := make([]patternCatalogEntry, 0, len(patterns.SecretPatterns))
	for _, sp := range patterns.SecretPatterns {
		severity := sp.Severity
		if ov, ok := overrides[sp.Name]; ok {
			severity = ov
		}
		secrets = append(secrets, patternCatalogEntry{
			Name:            sp.Name,
			Severity:        severity,
			DefaultSeverity: sp.Severity,
			Category:        patterns.CategoryLabels[sp.Category],
			Description:     descriptionOr(patterns.SecretDescriptions, sp.Name),
			Regex:           sp.Pattern.String(),
		})
	}

	pii := make([]patternCatalogEntry, 0, len(patterns.PIIPatterns))
	for _, pp := range patterns.PIIPatterns {
		severity := pp.Severity
		if ov, ok := overrides[pp.Name]; ok {
			severity = ov
		}
		category := patterns.PIICategoryLabels[pp.Name]
		if category == "" {
			category = "PII"
		}
		pii = append(pii, patternCatalogEntry{
			Name:            pp.Name,
			Severity:        severity,
			DefaultSeverity: pp.Severity,
			Category:        category,
			Description:     descriptionOr(patterns.PIIDescriptions, pp.Name),
			Regex:           pp.Pattern.String(),
		})
	}

	var custom []patternCatalogEntry
	if cs, ok := h.container.Registry.Get(dlp.ScannerCustom).(*scan.CustomScanner); ok {
		for _, cp := range cs.Patterns() {
			custom = append(custom, patternCatalogEntry{
				Name:        cp.Name,
				Severity:    dlp.Severity(cp.Severity),
				Category:    "Custom",
				Description: fmt.Sprintf("Custom pattern: %s", cp.Name),
				Regex:       cp.Regex,
			})
		}
	}

	writeJSON(w, http.StatusOK, patternCatalog{Secrets: secrets, PII: pii, Custom: custom})
}

func descriptionOr(m map[string]string, name string) string {
	if d, ok := m[name]; ok {
		return d
	}
	return name
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
