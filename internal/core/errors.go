package core

import (
	"errors"
	"fmt"
)

// Sentinel errors used across layers for stable error mapping.
var (
	// ErrNotAuthenticated indicates a missing or expired credential.
	ErrNotAuthenticated = errors.New("not authenticated, please re-authorize")

	// ErrNoResults indicates an operation that requires a live result entry
	// when none exists.
	ErrNoResults = errors.New("no results found, please run detection first")
)

// ValidationError describes a violated input constraint
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError creates a validation error with the given reason
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UpstreamError wraps a failure from the mail provider or the LLM service
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError wraps err as an upstream failure for the given operation
func NewUpstreamError(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}

// IsUpstream reports whether err is an upstream failure
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
