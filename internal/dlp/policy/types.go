// Package policy holds the policy document model and the priority-ladder
// evaluator that turns a set of findings into an Action.
package policy

import (
	"github.com/clawguard/clawguard/internal/dlp"
	"github.com/clawguard/clawguard/internal/dlp/scan"
)

// SeverityOverride forces an action whenever any finding in a scan carries
// the given severity, regardless of destination or agent.
type SeverityOverride struct {
	Severity dlp.Severity `yaml:"severity" json:"severity"`
	Action   dlp.Action   `yaml:"action" json:"action"`
}

// DestinationRule matches a destination glob and optionally restricts
// which scanners run against content bound for it.
type DestinationRule struct {
	Pattern  string   `yaml:"pattern" json:"pattern"`
	Action   dlp.Action `yaml:"action" json:"action"`
	Scanners []string `yaml:"scanners,omitempty" json:"scanners,omitempty"`
}

// AgentRule scopes an action and/or destination allow/block lists to a
// specific agent_id.
type AgentRule struct {
	AgentID             string     `yaml:"agent_id" json:"agent_id"`
	Action              dlp.Action `yaml:"action,omitempty" json:"action,omitempty"`
	AllowedDestinations []string   `yaml:"allowed_destinations,omitempty" json:"allowed_destinations,omitempty"`
	BlockedDestinations []string   `yaml:"blocked_destinations,omitempty" json:"blocked_destinations,omitempty"`
}

// RedactionConfig configures how the Redactor replaces matched spans.
type RedactionConfig struct {
	Strategy           dlp.RedactStrategy `yaml:"strategy" json:"strategy"`
	MaskChar           string             `yaml:"mask_char" json:"mask_char"`
	MaskPreserveEdges  int                `yaml:"mask_preserve_edges" json:"mask_preserve_edges"`
}

// DefaultRedactionConfig returns the baseline redaction behavior: mask
// with '*', keeping 4 characters visible on each edge.
func DefaultRedactionConfig() RedactionConfig {
	return RedactionConfig{
		Strategy:          dlp.RedactMask,
		MaskChar:          "*",
		MaskPreserveEdges: 4,
	}
}

// Config is the full policy document, loaded from and saved to YAML.
type Config struct {
	DefaultAction             dlp.Action                  `yaml:"default_action" json:"default_action"`
	Redaction                 RedactionConfig             `yaml:"redaction" json:"redaction"`
	SeverityOverrides         []SeverityOverride          `yaml:"severity_overrides" json:"severity_overrides"`
	DestinationAllowlist      []string                    `yaml:"destination_allowlist" json:"destination_allowlist"`
	DestinationBlocklist      []string                    `yaml:"destination_blocklist" json:"destination_blocklist"`
	DestinationRules          []DestinationRule           `yaml:"destination_rules" json:"destination_rules"`
	AgentRules                []AgentRule                 `yaml:"agent_rules" json:"agent_rules"`
	CustomPatterns            []scan.CustomPatternSpec    `yaml:"custom_patterns" json:"custom_patterns"`
	DisabledPatterns          []string                    `yaml:"disabled_patterns" json:"disabled_patterns"`
	PatternSeverityOverrides  map[string]dlp.Severity     `yaml:"pattern_severity_overrides" json:"pattern_severity_overrides"`
	// PromptThreshold is opt-in: when set, Decide additionally returns
	// ActionPrompt for scans whose highest finding severity meets it, in
	// place of whatever the ladder would otherwise have decided.
	PromptThreshold *dlp.Severity `yaml:"prompt_threshold,omitempty" json:"prompt_threshold,omitempty"`
}

// DefaultConfig returns the zero-value policy: BLOCK everything, mask
// redaction defaults, and no rules at all.
func DefaultConfig() Config {
	return Config{
		DefaultAction:            dlp.ActionBlock,
		Redaction:                DefaultRedactionConfig(),
		SeverityOverrides:        []SeverityOverride{},
		DestinationAllowlist:     []string{},
		DestinationBlocklist:     []string{},
		DestinationRules:         []DestinationRule{},
		AgentRules:               []AgentRule{},
		CustomPatterns:           []scan.CustomPatternSpec{},
		DisabledPatterns:         []string{},
		PatternSeverityOverrides: map[string]dlp.Severity{},
	}
}
