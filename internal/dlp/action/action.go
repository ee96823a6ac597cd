// Package action is the thin dispatcher that turns a policy decision plus
// the original content into the content the caller is actually allowed
// to see.
package action

import (
	"github.com/clawguard/clawguard/internal/dlp"
	"github.com/clawguard/clawguard/internal/dlp/redact"
)

// Result is what a policy decision resolves to once applied to content.
type Result struct {
	Action        dlp.Action
	Content       *string
	FindingsCount int
}

// Handler dispatches ALLOW/BLOCK/REDACT (and PROMPT, treated like REDACT
// until a caller acts on the suggestion) against scanned content.
type Handler struct {
	redactor *redact.Redactor
}

// New returns a Handler backed by redactor.
func New(redactor *redact.Redactor) *Handler {
	return &Handler{redactor: redactor}
}

// Handle applies action to content given its findings.
func (h *Handler) Handle(act dlp.Action, content string, findings []dlp.Finding) Result {
	switch act {
	case dlp.ActionAllow:
		c := content
		return Result{Action: dlp.ActionAllow, Content: &c, FindingsCount: len(findings)}

	case dlp.ActionBlock:
		return Result{Action: dlp.ActionBlock, Content: nil, FindingsCount: len(findings)}

	default:
		// REDACT, and PROMPT pending a caller's decision, both surface the
		// redacted content rather than the raw original.
		redacted := h.redactor.Redact(content, findings)
		return Result{Action: act, Content: &redacted, FindingsCount: len(findings)}
	}
}
