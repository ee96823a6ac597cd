package audit

import "errors"

// ErrAuditFailure wraps any failure writing or reading audit records.
var ErrAuditFailure = errors.New("audit store failure")
