package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by stores and
// services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// Exercise errors
var (
	ErrExerciseNotFound      = errors.New("exercise not found")
	ErrMisconfiguredExercise = errors.New("exercise misconfigured")
)

// Evaluation errors
var (
	ErrInvalidGrade         = errors.New("invalid grade")
	ErrEvaluationSuperseded = errors.New("evaluation superseded by a newer submission")
	ErrSandboxUnavailable   = errors.New("sandbox unavailable")
)

// Scheduling errors
var (
	ErrCardNotFound      = errors.New("review card not found")
	ErrInvalidCardState  = errors.New("invalid card state")
	ErrInvalidParameters = errors.New("scheduler parameters out of bounds")
)

// Mastery errors
var (
	ErrConceptNotFound = errors.New("concept not found")
)

// Ledger errors
var (
	ErrAttemptNotFound = errors.New("attempt not found")
)
