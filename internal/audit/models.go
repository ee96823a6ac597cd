// Package audit provides persistent ScanEvent/FindingRecord storage,
// never the raw scanned content — only its digest and the already-redacted
// finding snippets.
package audit

import "time"

// ScanEvent is one persisted scan, cascade-owning its FindingRecords.
type ScanEvent struct {
	ID            int64     `db:"id" json:"id"`
	Timestamp     time.Time `db:"timestamp" json:"timestamp"`
	AgentID       *string   `db:"agent_id" json:"agent_id,omitempty"`
	Destination   *string   `db:"destination" json:"destination,omitempty"`
	ContentHash   string    `db:"content_hash" json:"content_hash"`
	Action        string    `db:"action" json:"action"`
	FindingsCount int       `db:"findings_count" json:"findings_count"`
	DurationMs    float64   `db:"duration_ms" json:"duration_ms"`
}

// FindingRecord is one finding belonging to a ScanEvent. Only the
// redacted snippet is stored, never the raw matched text.
type FindingRecord struct {
	ID              int64   `db:"id" json:"id"`
	ScanEventID     int64   `db:"scan_event_id" json:"scan_event_id"`
	ScannerType     string  `db:"scanner_type" json:"scanner_type"`
	FindingType     string  `db:"finding_type" json:"finding_type"`
	Severity        string  `db:"severity" json:"severity"`
	StartOffset     int     `db:"start_offset" json:"start_offset"`
	EndOffset       int     `db:"end_offset" json:"end_offset"`
	RedactedSnippet *string `db:"redacted_snippet" json:"redacted_snippet,omitempty"`
}

// Entry is a ScanEvent joined with its findings, the shape returned by
// the query/get/stats operations.
type Entry struct {
	ID            int64           `json:"id"`
	Timestamp     *string         `json:"timestamp,omitempty"`
	AgentID       *string         `json:"agent_id,omitempty"`
	Destination   *string         `json:"destination,omitempty"`
	ContentHash   string          `json:"content_hash"`
	Action        string          `json:"action"`
	FindingsCount int             `json:"findings_count"`
	DurationMs    float64         `json:"duration_ms"`
	Findings      []FindingRecord `json:"findings"`
}

// Query narrows query_events to a subset of stored scan events.
type Query struct {
	AgentID     string
	Destination string
	Action      string
	Limit       int
	Offset      int
}

// LogRequest is what ScanHandler hands to log_scan: the event plus its
// findings, inserted inside one transaction so scan_id is available for
// the HTTP response the moment the write commits.
type LogRequest struct {
	AgentID       *string
	Destination   *string
	ContentHash   string
	Action        string
	FindingsCount int
	DurationMs    float64
	Findings      []FindingRecord
}

// ActionCount is one row of the stats action breakdown.
type ActionCount struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// SeverityCount is one row of the stats severity breakdown.
type SeverityCount struct {
	Severity string `json:"severity"`
	Count    int    `json:"count"`
}

// TopFindingType is one row of the stats top-finding-types breakdown.
type TopFindingType struct {
	FindingType string `json:"finding_type"`
	Count       int    `json:"count"`
}

// Stats is the aggregate dashboard summary (spec's get_stats operation).
type Stats struct {
	TotalScans       int              `json:"total_scans"`
	ActionCounts     []ActionCount    `json:"action_counts"`
	SeverityCounts   []SeverityCount  `json:"severity_counts"`
	TopFindingTypes  []TopFindingType `json:"top_finding_types"`
	RecentScans      []Entry          `json:"recent_scans"`
}
