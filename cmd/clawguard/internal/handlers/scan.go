package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/clawguard/clawguard/internal/audit"
	"github.com/clawguard/clawguard/internal/authn"
	"github.com/clawguard/clawguard/internal/container"
	"github.com/clawguard/clawguard/internal/dlp"
	"github.com/clawguard/clawguard/internal/metrics"
)

// ScanHandler handles the content inspection endpoint.
type ScanHandler struct {
	container *container.Container
	logger    *zap.Logger
}

// NewScanHandler creates a ScanHandler.
func NewScanHandler(c *container.Container, logger *zap.Logger) *ScanHandler {
	return &ScanHandler{container: c, logger: logger}
}

type scanRequest struct {
	Content     string  `json:"content"`
	Destination *string `json:"destination,omitempty"`
	AgentID     *string `json:"agent_id,omitempty"`
	ToolName    *string `json:"tool_name,omitempty"`
}

type findingResponse struct {
	ScannerType     dlp.ScannerType `json:"scanner_type"`
	FindingType     string          `json:"finding_type"`
	Severity        dlp.Severity    `json:"severity"`
	Start           int             `json:"start"`
	End             int             `json:"end"`
	RedactedSnippet string          `json:"redacted_snippet,omitempty"`
}

type scanResponse struct {
	Action          dlp.Action        `json:"action"`
	SuggestedAction *dlp.Action       `json:"suggested_action,omitempty"`
	Content         *string           `json:"content,omitempty"`
	Findings        []findingResponse `json:"findings"`
	FindingsCount   int               `json:"findings_count"`
	ScanID          *int64            `json:"scan_id,omitempty"`
	DurationMs      float64           `json:"duration_ms"`
}

// Scan handles POST /api/v1/scan: run the scanners selected for the
// request's destination, evaluate policy, apply the resulting action,
// and persist an audit record of the decision.
func (h *ScanHandler) Scan(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	destination := ""
	if req.Destination != nil {
		destination = *req.Destination
	}
	agentID := ""
	if req.AgentID != nil {
		agentID = *req.AgentID
	} else if id := authn.FromContext(r.Context()); id != nil {
		agentID = id.AgentID
	}

	findings := h.container.ScanAll(req.Content, destination)
	act, suggested := h.container.Evaluator.Decide(findings, destination, agentID)
	result := h.container.Action.Handle(act, req.Content, findings)

	durationMs := float64(time.Since(start)) / float64(time.Millisecond)

	findingResponses := make([]findingResponse, 0, len(findings))
	findingRecords := make([]audit.FindingRecord, 0, len(findings))
	for _, f := range findings {
		redacted := h.container.Redactor.RedactValue(f.MatchedText)
		findingResponses = append(findingResponses, findingResponse{
			ScannerType:     f.ScannerType,
			FindingType:     f.FindingType,
			Severity:        f.Severity,
			Start:           f.Start,
			End:             f.End,
			RedactedSnippet: redacted,
		})
		findingRecords = append(findingRecords, audit.FindingRecord{
			ScannerType:     string(f.ScannerType),
			FindingType:     f.FindingType,
			Severity:        string(f.Severity),
			StartOffset:     f.Start,
			EndOffset:       f.End,
			RedactedSnippet: &redacted,
		})
	}

	contentHash := sha256Hex(req.Content)

	logReq := audit.LogRequest{
		ContentHash:   contentHash,
		Action:        string(act),
		FindingsCount: len(findings),
		DurationMs:    durationMs,
		Findings:      findingRecords,
	}
	if req.Destination != nil {
		logReq.Destination = req.Destination
	}
	if agentID != "" {
		logReq.AgentID = &agentID
	}

	id, err := h.container.AuditRepo.LogScan(r.Context(), logReq)
	if err != nil {
		metrics.AuditWriteFailuresTotal.Inc()
		h.logger.Error("audit log write failed", zap.Error(err))
		// No scan_id can be returned without an audit record, so the
		// whole call is a failure rather than a 200 with a null scan_id.
		h.sendError(w, http.StatusInternalServerError, "scan completed but audit logging failed")
		return
	}
	scanID := &id

	metrics.ScanRequestsTotal.WithLabelValues(string(act)).Inc()
	metrics.ScanDuration.WithLabelValues(string(act)).Observe(time.Since(start).Seconds())
	for _, f := range findings {
		metrics.FindingsTotal.WithLabelValues(string(f.ScannerType), string(f.Severity)).Inc()
	}

	resp := scanResponse{
		Action:          result.Action,
		SuggestedAction: suggested,
		Content:         result.Content,
		Findings:        findingResponses,
		FindingsCount:   result.FindingsCount,
		ScanID:          scanID,
		DurationMs:      roundMs(durationMs),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func (h *ScanHandler) sendError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func sha256Hex(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func roundMs(ms float64) float64 {
	return float64(int64(ms*100)) / 100
}
