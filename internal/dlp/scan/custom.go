package scan

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/clawguard/clawguard/internal/dlp"
)

// CustomPatternSpec is the raw, YAML-sourced shape of an operator-defined
// pattern before compilation.
type CustomPatternSpec struct {
	Name     string `yaml:"name"`
	Regex    string `yaml:"regex"`
	Severity string `yaml:"severity"`
}

type compiledCustomPattern struct {
	name     string
	regex    *regexp.Regexp
	severity dlp.Severity
}

// CustomScanner runs operator-supplied regex patterns loaded from the
// active policy's custom_patterns list.
type CustomScanner struct {
	mu       sync.RWMutex
	patterns []compiledCustomPattern
}

func NewCustomScanner() *CustomScanner {
	return &CustomScanner{}
}

func (s *CustomScanner) Type() dlp.ScannerType { return dlp.ScannerCustom }

// ValidateCustomPatterns compiles every spec strictly and returns the
// first compilation error without mutating any scanner state. Callers
// that must reject a policy update outright on a bad regex (rather than
// silently dropping the offending pattern) validate with this before
// persisting or swapping anything in.
func ValidateCustomPatterns(specs []CustomPatternSpec) error {
	for _, spec := range specs {
		if _, err := regexp.Compile(spec.Regex); err != nil {
			return fmt.Errorf("custom pattern %q: %w", spec.Name, err)
		}
	}
	return nil
}

// LoadPatterns compiles raw specs into the active pattern set, replacing
// whatever was loaded before. A spec whose regex fails to compile is
// skipped rather than aborting the whole load. Callers that need to
// reject the whole set on any invalid regex should call
// ValidateCustomPatterns first.
func (s *CustomScanner) LoadPatterns(specs []CustomPatternSpec) error {
	compiled := make([]compiledCustomPattern, 0, len(specs))
	var firstErr error
	for _, spec := range specs {
		re, err := regexp.Compile(spec.Regex)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("custom pattern %q: %w", spec.Name, err)
			}
			continue
		}
		severity := dlp.Severity(strings.ToUpper(spec.Severity))
		if severity == "" {
			severity = dlp.SeverityMedium
		}
		compiled = append(compiled, compiledCustomPattern{
			name:     spec.Name,
			regex:    re,
			severity: severity,
		})
	}

	s.mu.Lock()
	s.patterns = compiled
	s.mu.Unlock()
	return firstErr
}

// Patterns returns the currently loaded custom pattern specs, used by the
// dashboard pattern catalog.
func (s *CustomScanner) Patterns() []CustomPatternSpec {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CustomPatternSpec, 0, len(s.patterns))
	for _, cp := range s.patterns {
		out = append(out, CustomPatternSpec{
			Name:     cp.name,
			Regex:    cp.regex.String(),
			Severity: string(cp.severity),
		})
	}
	return out
}

func (s *CustomScanner) Scan(content string) []dlp.Finding {
	s.mu.RLock()
	patterns := s.patterns
	s.mu.RUnlock()

	var findings []dlp.Finding
	for _, cp := range patterns {
		for _, loc := range cp.regex.FindAllStringIndex(content, -1) {
			findings = append(findings, dlp.Finding{
				ScannerType: dlp.ScannerCustom,
				FindingType: cp.name,
				Severity:    cp.severity,
				MatchedText: content[loc[0]:loc[1]],
				Start:       loc[0],
				End:         loc[1],
				Context:     dlp.ExtractContext(content, loc[0], loc[1], 30),
			})
		}
	}
	return findings
}
