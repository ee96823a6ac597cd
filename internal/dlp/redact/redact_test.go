package redact_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clawguard/clawguard/internal/dlp"
	"github.com/clawguard/clawguard/internal/dlp/policy"
	"github.com/clawguard/clawguard/internal/dlp/redact"
)

func TestRedactValueMask(t *testing.T) {
	r := redact.New(policy.RedactionConfig{Strategy: dlp.RedactMask, MaskChar: "*", MaskPreserveEdges: 2})
	got := r.RedactValue("AKIA1234523")
	assert.Equal(t, "AK*******23", got)
}

func TestRedactValueMaskShortStringFullyMasked(t *testing.T) {
	r := redact.New(policy.RedactionConfig{Strategy: dlp.RedactMask, MaskChar: "*", MaskPreserveEdges: 4})
	assert.Equal(t, "***", r.RedactValue("abc"))
}

func TestRedactValueHash(t *testing.T) {
	r := redact.New(policy.RedactionConfig{Strategy: dlp.RedactHash})
	got := r.RedactValue("secret-value")
	assert.True(t, strings.HasPrefix(got, "[REDACTED:sha256:"))
	assert.True(t, strings.HasSuffix(got, "]"))
	// deterministic for the same input
	assert.Equal(t, got, r.RedactValue("secret-value"))
}

func TestRedactValueRemove(t *testing.T) {
	r := redact.New(policy.RedactionConfig{Strategy: dlp.RedactRemove})
	assert.Equal(t, "[REDACTED]", r.RedactValue("anything"))
}

func TestRedactAppliesSpansHighestOffsetFirst(t *testing.T) {
	r := redact.New(policy.RedactionConfig{Strategy: dlp.RedactRemove})
	content := "key=AKIA1234567890ABCD and email=a@b.com"

	findings := []dlp.Finding{
		{MatchedText: "AKIA1234567890ABCD", Start: 4, End: 23},
		{MatchedText: "a@b.com", Start: 33, End: 40},
	}

	got := r.Redact(content, findings)
	assert.Equal(t, "key=[REDACTED] and email=[REDACTED]", got)
}

func TestRedactNoFindingsReturnsContentUnchanged(t *testing.T) {
	r := redact.New(policy.DefaultRedactionConfig())
	assert.Equal(t, "unchanged", r.Redact("unchanged", nil))
}

func TestSetConfigChangesStrategy(t *testing.T) {
	r := redact.New(policy.RedactionConfig{Strategy: dlp.RedactRemove})
	assert.Equal(t, "[REDACTED]", r.RedactValue("x"))

	r.SetConfig(policy.RedactionConfig{Strategy: dlp.RedactHash})
	assert.True(t, strings.HasPrefix(r.RedactValue("x"), "[REDACTED:sha256:"))
}
