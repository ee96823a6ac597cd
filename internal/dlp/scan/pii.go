package scan

import (
	"sync"

	"github.com/clawguard/clawguard/internal/dlp"
	"github.com/clawguard/clawguard/internal/dlp/patterns"
)

// PIIScanner runs the built-in PII pattern table, applying each pattern's
// validator (Luhn, SSN area-code rules) to filter out implausible matches.
type PIIScanner struct {
	mu               sync.RWMutex
	disabledPattern  map[string]bool
	severityOverride map[string]dlp.Severity
}

func NewPIIScanner() *PIIScanner {
	return &PIIScanner{
		disabledPattern:  make(map[string]bool),
		severityOverride: make(map[string]dlp.Severity),
	}
}

func (s *PIIScanner) Type() dlp.ScannerType { return dlp.ScannerPII }

func (s *PIIScanner) SetDisabledPatterns(names map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabledPattern = names
}

// SetSeverityOverrides replaces the per-pattern severity overrides pushed
// down from the active policy's pattern_severity_overrides map.
func (s *PIIScanner) SetSeverityOverrides(overrides map[string]dlp.Severity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.severityOverride = overrides
}

func (s *PIIScanner) Scan(content string) []dlp.Finding {
	s.mu.RLock()
	disabled := s.disabledPattern
	overrides := s.severityOverride
	s.mu.RUnlock()

	var findings []dlp.Finding
	for _, pp := range patterns.PIIPatterns {
		if disabled[pp.Name] {
			continue
		}
		for _, loc := range pp.Pattern.FindAllStringIndex(content, -1) {
			matched := content[loc[0]:loc[1]]
			if pp.Validator != nil && !pp.Validator(matched) {
				continue
			}
			severity := pp.Severity
			if override, ok := overrides[pp.Name]; ok {
				severity = override
			}
			findings = append(findings, dlp.Finding{
				ScannerType: dlp.ScannerPII,
				FindingType: pp.Name,
				Severity:    severity,
				MatchedText: matched,
				Start:       loc[0],
				End:         loc[1],
				Context:     dlp.ExtractContext(content, loc[0], loc[1], 30),
			})
		}
	}
	return findings
}
