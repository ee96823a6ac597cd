package action_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clawguard/clawguard/internal/dlp"
	"github.com/clawguard/clawguard/internal/dlp/action"
	"github.com/clawguard/clawguard/internal/dlp/policy"
	"github.com/clawguard/clawguard/internal/dlp/redact"
)

func TestHandleAllowReturnsOriginalContent(t *testing.T) {
	h := action.New(redact.New(policy.DefaultRedactionConfig()))
	result := h.Handle(dlp.ActionAllow, "hello world", nil)

	require.NotNil(t, result.Content)
	assert.Equal(t, "hello world", *result.Content)
}

func TestHandleBlockReturnsNilContent(t *testing.T) {
	h := action.New(redact.New(policy.DefaultRedactionConfig()))
	result := h.Handle(dlp.ActionBlock, "hello world", []dlp.Finding{{}})

	assert.Nil(t, result.Content)
	assert.Equal(t, 1, result.FindingsCount)
}

func TestHandleRedactAppliesRedactor(t *testing.T) {
	h := action.New(redact.New(policy.RedactionConfig{Strategy: dlp.RedactRemove}))
	findings := []dlp.Finding{{MatchedText: "secret", Start: 0, End: 6}}

	result := h.Handle(dlp.ActionRedact, "secret value", findings)

	require.NotNil(t, result.Content)
	assert.Equal(t, "[REDACTED] value", *result.Content)
}

func TestHandlePromptSurfacesRedactedContent(t *testing.T) {
	h := action.New(redact.New(policy.RedactionConfig{Strategy: dlp.RedactRemove}))
	findings := []dlp.Finding{{MatchedText: "secret", Start: 0, End: 6}}

	result := h.Handle(dlp.ActionPrompt, "secret value", findings)

	require.NotNil(t, result.Content)
	assert.Equal(t, "[REDACTED] value", *result.Content)
}
