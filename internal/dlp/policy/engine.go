package policy

import (
	"fmt"
	"os"
	"sync"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"

	"github.com/clawguard/clawguard/internal/dlp"
	"github.com/clawguard/clawguard/internal/dlp/scan"
)

// compiledGlob pairs a raw glob pattern with its compiled matcher so
// destination matching never re-parses a pattern per request.
type compiledGlob struct {
	pattern string
	g       glob.Glob
}

func compileGlobs(patterns []string) []compiledGlob {
	out := make([]compiledGlob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			// An unparsable glob never matches, rather than aborting policy load.
			continue
		}
		out = append(out, compiledGlob{pattern: p, g: g})
	}
	return out
}

func anyGlobMatches(globs []compiledGlob, destination string) bool {
	for _, cg := range globs {
		if cg.g.Match(destination) {
			return true
		}
	}
	return false
}

// compiledDestinationRule is a DestinationRule with its glob pre-compiled.
type compiledDestinationRule struct {
	DestinationRule
	g glob.Glob
}

// compiledAgentRule is an AgentRule with its allow/block globs pre-compiled.
type compiledAgentRule struct {
	AgentRule
	allowed []compiledGlob
	blocked []compiledGlob
}

// Evaluator loads a policy document and evaluates findings against it to
// produce an Action. It is safe for concurrent use:
// Reload atomically swaps the compiled policy so in-flight scans always
// see one consistent version.
type Evaluator struct {
	mu       sync.RWMutex
	policy   Config
	allow    []compiledGlob
	block    []compiledGlob
	destRule []compiledDestinationRule
	agentRule []compiledAgentRule
}

// NewEvaluator returns an Evaluator holding the default (deny-by-default)
// policy.
func NewEvaluator() *Evaluator {
	e := &Evaluator{}
	e.setPolicy(DefaultConfig())
	return e
}

// Policy returns the currently active policy document.
func (e *Evaluator) Policy() Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.policy
}

func (e *Evaluator) setPolicy(cfg Config) {
	allow := compileGlobs(cfg.DestinationAllowlist)
	block := compileGlobs(cfg.DestinationBlocklist)

	var destRules []compiledDestinationRule
	for _, r := range cfg.DestinationRules {
		g, err := glob.Compile(r.Pattern)
		if err != nil {
			continue
		}
		destRules = append(destRules, compiledDestinationRule{DestinationRule: r, g: g})
	}

	var agentRules []compiledAgentRule
	for _, r := range cfg.AgentRules {
		agentRules = append(agentRules, compiledAgentRule{
			AgentRule: r,
			allowed:   compileGlobs(r.AllowedDestinations),
			blocked:   compileGlobs(r.BlockedDestinations),
		})
	}

	e.mu.Lock()
	e.policy = cfg
	e.allow = allow
	e.block = block
	e.destRule = destRules
	e.agentRule = agentRules
	e.mu.Unlock()
}

// LoadFromFile reads and compiles the policy at path. A missing file
// resets the evaluator to the default policy. An invalid custom pattern
// regex rejects the load and leaves the active policy untouched.
func (e *Evaluator) LoadFromFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			e.setPolicy(DefaultConfig())
			return nil
		}
		return fmt.Errorf("%w: %v", ErrPolicyIO, err)
	}
	if len(raw) == 0 {
		e.setPolicy(DefaultConfig())
		return nil
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrPolicyValidation, err)
	}
	if cfg.PatternSeverityOverrides == nil {
		cfg.PatternSeverityOverrides = map[string]dlp.Severity{}
	}
	if err := scan.ValidateCustomPatterns(cfg.CustomPatterns); err != nil {
		return fmt.Errorf("%w: %v", ErrPolicyValidation, err)
	}
	e.setPolicy(cfg)
	return nil
}

// SaveToFile writes cfg to path as YAML and makes it the active policy.
// cfg's custom_patterns are compiled and validated before anything is
// written or swapped in: an invalid regex rejects the whole update and
// leaves the file and the active policy untouched.
func (e *Evaluator) SaveToFile(path string, cfg Config) error {
	if err := scan.ValidateCustomPatterns(cfg.CustomPatterns); err != nil {
		return fmt.Errorf("%w: %v", ErrPolicyValidation, err)
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPolicyValidation, err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrPolicyIO, err)
	}
	e.setPolicy(cfg)
	return nil
}

// Reload re-reads the policy from path, exactly as LoadFromFile.
func (e *Evaluator) Reload(path string) error {
	return e.LoadFromFile(path)
}

// Decide evaluates findings against the active policy and returns the
// resulting action, following the priority ladder:
//
//  1. Severity overrides (any finding at that severity forces the action)
//  2. Destination allowlist (bypasses everything below)
//  3. Destination blocklist
//  4. Destination-specific rules
//  5. Agent-specific rules
//  6. Global default
//
// When the policy sets PromptThreshold and the highest finding severity
// meets it, the decision is instead ActionPrompt, with suggestedAction
// carrying what step 1-6 would otherwise have returned.
func (e *Evaluator) Decide(findings []dlp.Finding, destination, agentID string) (action dlp.Action, suggested *dlp.Action) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(findings) == 0 {
		return dlp.ActionAllow, nil
	}

	decided := e.decideLocked(findings, destination, agentID)

	if e.policy.PromptThreshold != nil {
		maxSeverity := findings[0].Severity
		for _, f := range findings[1:] {
			if f.Severity.Rank() > maxSeverity.Rank() {
				maxSeverity = f.Severity
			}
		}
		if maxSeverity.Rank() >= e.policy.PromptThreshold.Rank() {
			prior := decided
			return dlp.ActionPrompt, &prior
		}
	}

	return decided, nil
}

func (e *Evaluator) decideLocked(findings []dlp.Finding, destination, agentID string) dlp.Action {
	// 1. Severity overrides.
	for _, override := range e.policy.SeverityOverrides {
		for _, f := range findings {
			if f.Severity == override.Severity {
				return override.Action
			}
		}
	}

	// 2. Destination allowlist — trusted destinations bypass everything else.
	if destination != "" && anyGlobMatches(e.allow, destination) {
		return dlp.ActionAllow
	}

	// 2b. Destination blocklist.
	if destination != "" && anyGlobMatches(e.block, destination) {
		return dlp.ActionBlock
	}

	// 3. Destination-specific rules.
	if destination != "" {
		for _, rule := range e.destRule {
			if rule.g.Match(destination) {
				return rule.Action
			}
		}
	}

	// 4. Agent-specific rules.
	if agentID != "" {
		for _, rule := range e.agentRule {
			if rule.AgentID != agentID {
				continue
			}
			if destination != "" && len(rule.allowed) > 0 {
				if anyGlobMatches(rule.allowed, destination) {
					if rule.Action != "" {
						return rule.Action
					}
					return dlp.ActionAllow
				}
			}
			if destination != "" && len(rule.blocked) > 0 {
				if anyGlobMatches(rule.blocked, destination) {
					return dlp.ActionBlock
				}
			}
			if rule.Action != "" {
				return rule.Action
			}
		}
	}

	// 5. Global default.
	return e.policy.DefaultAction
}

// ScannersForDestination returns the scanner types to run for a
// destination, or nil to mean "run all registered scanners".
func (e *Evaluator) ScannersForDestination(destination string) []dlp.ScannerType {
	if destination == "" {
		return nil
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, rule := range e.destRule {
		if rule.g.Match(destination) && len(rule.Scanners) > 0 {
			out := make([]dlp.ScannerType, 0, len(rule.Scanners))
			for _, s := range rule.Scanners {
				out = append(out, dlp.ScannerType(s))
			}
			return out
		}
	}
	return nil
}
