package core

import "errors"

// Sentinel errors the API layer maps to HTTP statuses via errors.Is.
var (
	// ErrValidation covers missing or malformed submission fields.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound covers records that are absent, owned by another user, or
	// not in the state an operation requires.
	ErrNotFound = errors.New("not found")
	// ErrEvaluatorUnavailable means the arbiter policy is active but its
	// credential is missing.
	ErrEvaluatorUnavailable = errors.New("evaluator credential not configured")
)
