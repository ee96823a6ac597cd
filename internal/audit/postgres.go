package audit

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/clawguard/clawguard/internal/circuitbreaker"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS scan_events (
	id SERIAL PRIMARY KEY,
	timestamp TIMESTAMPTZ NOT NULL DEFAULT now(),
	agent_id VARCHAR(255),
	destination VARCHAR(1024),
	content_hash VARCHAR(64) NOT NULL,
	action VARCHAR(10) NOT NULL,
	findings_count INTEGER NOT NULL DEFAULT 0,
	duration_ms DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS findings (
	id SERIAL PRIMARY KEY,
	scan_event_id INTEGER NOT NULL REFERENCES scan_events(id) ON DELETE CASCADE,
	scanner_type VARCHAR(20) NOT NULL,
	finding_type VARCHAR(100) NOT NULL,
	severity VARCHAR(10) NOT NULL,
	start_offset INTEGER NOT NULL,
	end_offset INTEGER NOT NULL,
	redacted_snippet TEXT
);

CREATE INDEX IF NOT EXISTS idx_scan_events_timestamp ON scan_events (timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_scan_events_agent_id ON scan_events (agent_id);
CREATE INDEX IF NOT EXISTS idx_scan_events_destination ON scan_events (destination);
CREATE INDEX IF NOT EXISTS idx_findings_scan_event_id ON findings (scan_event_id);
`

// PostgresRepository is the sqlx/circuit-breaker backed Repository
// implementation.
type PostgresRepository struct {
	client *Client
}

// NewPostgresRepository returns a Repository backed by client.
func NewPostgresRepository(client *Client) *PostgresRepository {
	return &PostgresRepository{client: client}
}

// EnsureSchema creates the audit tables if they do not already exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.client.sqlxDB.ExecContext(ctx, schemaSQL)
	if err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

func (r *PostgresRepository) LogScan(ctx context.Context, req LogRequest) (int64, error) {
	var id int64
	err := r.client.WithTransaction(ctx, func(tx *circuitbreaker.TxWrapper) error {
		row, err := tx.QueryRowContext(ctx, `
			INSERT INTO scan_events (agent_id, destination, content_hash, action, findings_count, duration_ms)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			req.AgentID, req.Destination, req.ContentHash, req.Action, req.FindingsCount, req.DurationMs)
		if err != nil {
			return fmt.Errorf("insert scan event: %w", err)
		}
		if err := row.Scan(&id); err != nil {
			return fmt.Errorf("scan event id: %w", err)
		}

		for _, f := range req.Findings {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO findings (scan_event_id, scanner_type, finding_type, severity, start_offset, end_offset, redacted_snippet)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				id, f.ScannerType, f.FindingType, f.Severity, f.StartOffset, f.EndOffset, f.RedactedSnippet,
			); err != nil {
				return fmt.Errorf("insert finding: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PostgresRepository) QueryEvents(ctx context.Context, q Query) ([]Entry, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}

	var clauses []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.AgentID != "" {
		clauses = append(clauses, "agent_id = "+arg(q.AgentID))
	}
	if q.Destination != "" {
		clauses = append(clauses, "destination = "+arg(q.Destination))
	}
	if q.Action != "" {
		clauses = append(clauses, "action = "+arg(q.Action))
	}

	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT id, timestamp, agent_id, destination, content_hash, action, findings_count, duration_ms
		FROM scan_events
		%s
		ORDER BY timestamp DESC, id DESC
		OFFSET %s LIMIT %s`, where, arg(q.Offset), arg(q.Limit))

	var events []ScanEvent
	if err := r.client.sqlxDB.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("query scan events: %w", err)
	}

	return r.hydrate(ctx, events)
}

func (r *PostgresRepository) GetEvent(ctx context.Context, id int64) (*Entry, error) {
	var event ScanEvent
	err := r.client.sqlxDB.GetContext(ctx, &event,
		`SELECT id, timestamp, agent_id, destination, content_hash, action, findings_count, duration_ms
		 FROM scan_events WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get scan event: %w", err)
	}

	entries, err := r.hydrate(ctx, []ScanEvent{event})
	if err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// hydrate attaches each event's findings and converts to the Entry shape
// returned to callers.
func (r *PostgresRepository) hydrate(ctx context.Context, events []ScanEvent) ([]Entry, error) {
	entries := make([]Entry, 0, len(events))
	for _, e := range events {
		var findings []FindingRecord
		if err := r.client.sqlxDB.SelectContext(ctx, &findings,
			`SELECT id, scan_event_id, scanner_type, finding_type, severity, start_offset, end_offset, redacted_snippet
			 FROM findings WHERE scan_event_id = $1 ORDER BY id`, e.ID); err != nil {
			return nil, fmt.Errorf("query findings: %w", err)
		}
		if findings == nil {
			findings = []FindingRecord{}
		}

		ts := e.Timestamp.UTC().Format(time.RFC3339)
		entries = append(entries, Entry{
			ID:            e.ID,
			Timestamp:     &ts,
			AgentID:       e.AgentID,
			Destination:   e.Destination,
			ContentHash:   e.ContentHash,
			Action:        e.Action,
			FindingsCount: e.FindingsCount,
			DurationMs:    e.DurationMs,
			Findings:      findings,
		})
	}
	return entries, nil
}

func (r *PostgresRepository) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats

	if err := r.client.sqlxDB.GetContext(ctx, &stats.TotalScans, `SELECT count(*) FROM scan_events`); err != nil {
		return stats, fmt.Errorf("count scan events: %w", err)
	}

	if err := r.client.sqlxDB.SelectContext(ctx, &stats.ActionCounts,
		`SELECT action, count(*) AS count FROM scan_events GROUP BY action`); err != nil {
		return stats, fmt.Errorf("action counts: %w", err)
	}

	if err := r.client.sqlxDB.SelectContext(ctx, &stats.SeverityCounts,
		`SELECT severity, count(*) AS count FROM findings GROUP BY severity`); err != nil {
		return stats, fmt.Errorf("severity counts: %w", err)
	}

	if err := r.client.sqlxDB.SelectContext(ctx, &stats.TopFindingTypes,
		`SELECT finding_type, count(*) AS count FROM findings
		 GROUP BY finding_type ORDER BY count DESC LIMIT 10`); err != nil {
		return stats, fmt.Errorf("top finding types: %w", err)
	}

	var recent []ScanEvent
	if err := r.client.sqlxDB.SelectContext(ctx, &recent,
		`SELECT id, timestamp, agent_id, destination, content_hash, action, findings_count, duration_ms
		 FROM scan_events ORDER BY timestamp DESC LIMIT 5`); err != nil {
		return stats, fmt.Errorf("recent scans: %w", err)
	}
	entries, err := r.hydrate(ctx, recent)
	if err != nil {
		return stats, err
	}
	stats.RecentScans = entries

	if stats.ActionCounts == nil {
		stats.ActionCounts = []ActionCount{}
	}
	if stats.SeverityCounts == nil {
		stats.SeverityCounts = []SeverityCount{}
	}
	if stats.TopFindingTypes == nil {
		stats.TopFindingTypes = []TopFindingType{}
	}

	return stats, nil
}

var _ Repository = (*PostgresRepository)(nil)
