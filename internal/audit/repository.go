package audit

import "context"

// Repository persists scan events and answers the audit/dashboard
// queries over them.
type Repository interface {
	// LogScan inserts a scan event and its findings in one transaction
	// and returns the new event's id.
	LogScan(ctx context.Context, req LogRequest) (int64, error)
	QueryEvents(ctx context.Context, q Query) ([]Entry, error)
	GetEvent(ctx context.Context, id int64) (*Entry, error)
	GetStats(ctx context.Context) (Stats, error)
}
