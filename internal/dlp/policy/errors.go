package policy

import "errors"

var (
	// ErrPolicyValidation is returned when a policy document fails to
	// parse or violates the document's structural constraints.
	ErrPolicyValidation = errors.New("policy validation failed")
	// ErrPolicyIO is returned when the policy file cannot be read or
	// written, for reasons other than it simply not existing yet.
	ErrPolicyIO = errors.New("policy file io error")
)
