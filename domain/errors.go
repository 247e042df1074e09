package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the orchestrator can convert it into an
// ExecutionResult at its boundary.
type Kind string

const (
	KindRepoAccess     Kind = "repo_access"
	KindBranchConflict Kind = "branch_conflict"
	KindHookFailure    Kind = "hook_failure"
	KindPush           Kind = "push"
	KindBackend        Kind = "backend"
	KindConfig         Kind = "config"
	KindCancelled      Kind = "cancelled"
)

// StepError attaches a Kind to the error of a single pipeline step.
type StepError struct {
	Kind Kind
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// NewStepError wraps err with the given kind.
func NewStepError(kind Kind, err error) *StepError {
	return &StepError{Kind: kind, Err: err}
}

// StepErrorf wraps a formatted error with the given kind.
func StepErrorf(kind Kind, format string, args ...any) *StepError {
	return &StepError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the Kind from an error chain, returning fallback when the
// chain carries no StepError.
func KindOf(err error, fallback Kind) Kind {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr.Kind
	}
	return fallback
}
