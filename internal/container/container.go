// Package container wires the scanner registry, policy evaluator,
// redactor, action handler, and audit repository into the single
// long-lived Container the request handlers depend on.
package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/clawguard/clawguard/internal/audit"
	"github.com/clawguard/clawguard/internal/config"
	"github.com/clawguard/clawguard/internal/dlp"
	"github.com/clawguard/clawguard/internal/dlp/action"
	"github.com/clawguard/clawguard/internal/dlp/policy"
	"github.com/clawguard/clawguard/internal/dlp/redact"
	"github.com/clawguard/clawguard/internal/dlp/scan"
	"github.com/clawguard/clawguard/internal/policyseed"
)

// Container holds every service singleton for the application lifetime.
// Policy reloads (PUT /policy, POST /policy/reload) mutate the Evaluator
// and push derived state (disabled patterns, redaction config, custom
// patterns) to the scanners and redactor atomically, so a scan in flight
// during a reload always sees one consistent generation of the policy.
type Container struct {
	Settings *config.Settings
	Logger   *zap.Logger

	Registry   *scan.Registry
	Evaluator  *policy.Evaluator
	Redactor   *redact.Redactor
	Action     *action.Handler
	AuditRepo  audit.Repository

	secretScanner *scan.SecretScanner
	piiScanner    *scan.PIIScanner
	customScanner *scan.CustomScanner
}

// New builds a Container: scanners, policy (seeded and loaded from
// settings.PolicyPath), redactor, action handler, and audit repository.
func New(settings *config.Settings, auditRepo audit.Repository, logger *zap.Logger) (*Container, error) {
	if err := policyseed.EnsureSeeded(settings.PolicyPath); err != nil {
		logger.Warn("could not seed default policy", zap.Error(err))
	}

	registry := scan.NewRegistry()
	secretScanner := scan.NewSecretScanner()
	piiScanner := scan.NewPIIScanner()
	customScanner := scan.NewCustomScanner()
	registry.Register(secretScanner)
	registry.Register(piiScanner)
	registry.Register(customScanner)

	evaluator := policy.NewEvaluator()
	if err := evaluator.LoadFromFile(settings.PolicyPath); err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	c := &Container{
		Settings:      settings,
		Logger:        logger,
		Registry:      registry,
		Evaluator:     evaluator,
		AuditRepo:     auditRepo,
		secretScanner: secretScanner,
		piiScanner:    piiScanner,
		customScanner: customScanner,
	}

	if err := customScanner.LoadPatterns(evaluator.Policy().CustomPatterns); err != nil {
		logger.Warn("some custom patterns failed to compile", zap.Error(err))
	}
	c.syncDisabledPatterns()

	c.Redactor = redact.New(evaluator.Policy().Redaction)
	c.Action = action.New(c.Redactor)

	return c, nil
}

// syncDisabledPatterns pushes the active policy's disabled_patterns and
// pattern_severity_overrides down to the secret and PII scanners.
func (c *Container) syncDisabledPatterns() {
	p := c.Evaluator.Policy()

	disabled := make(map[string]bool, len(p.DisabledPatterns))
	for _, name := range p.DisabledPatterns {
		disabled[name] = true
	}
	c.secretScanner.SetDisabledPatterns(disabled)
	c.piiScanner.SetDisabledPatterns(disabled)
	c.piiScanner.SetSeverityOverrides(p.PatternSeverityOverrides)
}

// ReloadPolicy re-reads the policy file and re-syncs every derived piece
// of state: custom patterns, disabled patterns, and redaction config.
func (c *Container) ReloadPolicy(ctx context.Context) error {
	if err := c.Evaluator.Reload(c.Settings.PolicyPath); err != nil {
		return err
	}
	return c.applyPolicyChange()
}

// ReplacePolicy saves a new policy document (PUT /policy) and re-syncs
// derived state exactly as ReloadPolicy does.
func (c *Container) ReplacePolicy(ctx context.Context, cfg policy.Config) error {
	if err := c.Evaluator.SaveToFile(c.Settings.PolicyPath, cfg); err != nil {
		return err
	}
	return c.applyPolicyChange()
}

func (c *Container) applyPolicyChange() error {
	p := c.Evaluator.Policy()
	if err := c.customScanner.LoadPatterns(p.CustomPatterns); err != nil {
		c.Logger.Warn("some custom patterns failed to compile on reload", zap.Error(err))
	}
	c.Redactor.SetConfig(p.Redaction)
	c.syncDisabledPatterns()
	return nil
}

// ScanAll runs the scanners selected for destination against content.
func (c *Container) ScanAll(content, destination string) []dlp.Finding {
	only := c.Evaluator.ScannersForDestination(destination)
	return c.Registry.ScanAll(content, only)
}
