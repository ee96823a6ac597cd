// Package scan provides individual Scanner implementations for secrets,
// PII, and operator-defined custom patterns, plus the Registry that runs
// a selected subset of them against a piece of content.
package scan

import "github.com/clawguard/clawguard/internal/dlp"

// Scanner inspects content and returns every match it finds.
type Scanner interface {
	Type() dlp.ScannerType
	Scan(content string) []dlp.Finding
}
