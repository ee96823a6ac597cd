// Package redact replaces matched spans in scanned content according to
// a RedactionConfig's strategy (mask, hash, or remove).
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/clawguard/clawguard/internal/dlp"
	"github.com/clawguard/clawguard/internal/dlp/policy"
)

// Redactor applies a RedactionConfig's strategy to matched spans.
type Redactor struct {
	mu     sync.RWMutex
	config policy.RedactionConfig
}

// New returns a Redactor using cfg.
func New(cfg policy.RedactionConfig) *Redactor {
	return &Redactor{config: cfg}
}

// Config returns the redactor's current configuration.
func (r *Redactor) Config() policy.RedactionConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// SetConfig replaces the active redaction configuration, used when a
// policy reload changes the redaction strategy.
func (r *Redactor) SetConfig(cfg policy.RedactionConfig) {
	r.mu.Lock()
	r.config = cfg
	r.mu.Unlock()
}

// Redact replaces every finding's matched span in content, processing
// findings from the highest start offset down so earlier replacements
// never shift the offsets of spans still to be applied.
func (r *Redactor) Redact(content string, findings []dlp.Finding) string {
	if len(findings) == 0 {
		return content
	}

	sorted := make([]dlp.Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start > sorted[j].Start })

	result := content
	for _, f := range sorted {
		replacement := r.RedactValue(f.MatchedText)
		result = result[:f.Start] + replacement + result[f.End:]
	}
	return result
}

// RedactValue returns the replacement for a single matched value under
// the active strategy; used both by Redact and to build the redacted
// snippets shown in API responses and audit records.
func (r *Redactor) RedactValue(text string) string {
	r.mu.RLock()
	cfg := r.config
	r.mu.RUnlock()

	switch cfg.Strategy {
	case dlp.RedactRemove:
		return "[REDACTED]"
	case dlp.RedactHash:
		return fmt.Sprintf("[REDACTED:sha256:%s]", sha256Short(text, 8))
	default:
		return mask(text, cfg.MaskChar, cfg.MaskPreserveEdges)
	}
}

func mask(text, maskChar string, preserveEdges int) string {
	if maskChar == "" {
		maskChar = "*"
	}
	runes := []rune(text)
	if len(runes) <= preserveEdges*2 {
		return strings.Repeat(maskChar, len(runes))
	}
	maskedLen := len(runes) - preserveEdges*2
	var b strings.Builder
	b.WriteString(string(runes[:preserveEdges]))
	b.WriteString(strings.Repeat(maskChar, maskedLen))
	b.WriteString(string(runes[len(runes)-preserveEdges:]))
	return b.String()
}

func sha256Short(content string, length int) string {
	sum := sha256.Sum256([]byte(content))
	hexed := hex.EncodeToString(sum[:])
	if length >= len(hexed) {
		return hexed
	}
	return hexed[:length]
}
