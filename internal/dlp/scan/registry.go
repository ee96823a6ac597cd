package scan

import (
	"sync"

	"github.com/clawguard/clawguard/internal/dlp"
)

// Registry discovers, holds, and runs all registered scanners.
type Registry struct {
	mu       sync.RWMutex
	scanners map[dlp.ScannerType]Scanner
	order    []dlp.ScannerType
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: make(map[dlp.ScannerType]Scanner)}
}

// NewDefaultRegistry returns a registry pre-loaded with the built-in
// secret, PII, and custom scanners.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewSecretScanner())
	r.Register(NewPIIScanner())
	r.Register(NewCustomScanner())
	return r
}

// Register adds or replaces the scanner for its type.
func (r *Registry) Register(s Scanner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.scanners[s.Type()]; !exists {
		r.order = append(r.order, s.Type())
	}
	r.scanners[s.Type()] = s
}

// Get returns the scanner registered for t, or nil if none is registered.
func (r *Registry) Get(t dlp.ScannerType) Scanner {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.scanners[t]
}

// ScannerTypes returns every registered scanner type, in registration order.
func (r *Registry) ScannerTypes() []dlp.ScannerType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]dlp.ScannerType, len(r.order))
	copy(out, r.order)
	return out
}

// ScanAll runs every registered scanner (or only the types in "only" when
// non-nil) and returns the aggregated findings.
func (r *Registry) ScanAll(content string, only []dlp.ScannerType) []dlp.Finding {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var allowed map[dlp.ScannerType]bool
	if only != nil {
		allowed = make(map[dlp.ScannerType]bool, len(only))
		for _, t := range only {
			allowed[t] = true
		}
	}

	var findings []dlp.Finding
	for _, t := range r.order {
		if allowed != nil && !allowed[t] {
			continue
		}
		findings = append(findings, r.scanners[t].Scan(content)...)
	}
	return findings
}
