package scan

import (
	"regexp"
	"sync"

	"github.com/clawguard/clawguard/internal/dlp"
	"github.com/clawguard/clawguard/internal/dlp/patterns"
)

// highEntropyToken matches candidate secret-shaped tokens that the
// pattern table didn't already catch, so the entropy heuristic can judge
// them on their own.
var highEntropyToken = regexp.MustCompile(`[A-Za-z0-9+/=_\-]{20,}`)

// SecretScanner runs the built-in secret pattern table plus a Shannon
// entropy fallback over any high-entropy token the patterns missed.
type SecretScanner struct {
	EntropyThreshold float64
	EntropyMinLength int

	mu              sync.RWMutex
	disabledPattern map[string]bool
}

// NewSecretScanner builds a SecretScanner with the reference entropy
// threshold (4.5 bits/char) and minimum token length (20).
func NewSecretScanner() *SecretScanner {
	return &SecretScanner{
		EntropyThreshold: 4.5,
		EntropyMinLength: 20,
		disabledPattern:  make(map[string]bool),
	}
}

func (s *SecretScanner) Type() dlp.ScannerType { return dlp.ScannerSecret }

// SetDisabledPatterns replaces the set of pattern names this scanner
// skips, as pushed down from the active policy's disabled_patterns list.
func (s *SecretScanner) SetDisabledPatterns(names map[string]bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabledPattern = names
}

func (s *SecretScanner) isDisabled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disabledPattern[name]
}

type span struct{ start, end int }

func (s *SecretScanner) Scan(content string) []dlp.Finding {
	var findings []dlp.Finding
	seen := make(map[span]bool)

	for _, sp := range patterns.SecretPatterns {
		if s.isDisabled(sp.Name) {
			continue
		}
		for _, loc := range sp.Pattern.FindAllStringIndex(content, -1) {
			sp2 := span{loc[0], loc[1]}
			if seen[sp2] {
				continue
			}
			seen[sp2] = true
			findings = append(findings, dlp.Finding{
				ScannerType: dlp.ScannerSecret,
				FindingType: sp.Name,
				Severity:    sp.Severity,
				MatchedText: content[loc[0]:loc[1]],
				Start:       loc[0],
				End:         loc[1],
				Context:     dlp.ExtractContext(content, loc[0], loc[1], 30),
				Metadata:    map[string]string{"category": sp.Category},
			})
		}
	}

	for _, loc := range highEntropyToken.FindAllStringIndex(content, -1) {
		covered := false
		for sp2 := range seen {
			if sp2.start <= loc[0] && sp2.end >= loc[1] {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		token := content[loc[0]:loc[1]]
		if IsHighEntropy(token, s.EntropyThreshold, s.EntropyMinLength) {
			findings = append(findings, dlp.Finding{
				ScannerType: dlp.ScannerSecret,
				FindingType: "high_entropy_string",
				Severity:    dlp.SeverityMedium,
				MatchedText: token,
				Start:       loc[0],
				End:         loc[1],
				Context:     dlp.ExtractContext(content, loc[0], loc[1], 30),
				Metadata:    map[string]string{"category": "entropy"},
			})
		}
	}

	return findings
}
