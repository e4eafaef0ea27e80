package study

import (
	"errors"
	"fmt"
)

// Common error types for the scheduler. Expected terminal conditions
// (empty queue, completion, quota) are states or result variants, not
// errors; these errors signal caller misuse or persistence failure.
var (
	// ErrSessionActive indicates Start was called while a session is
	// already in flight.
	ErrSessionActive = errors.New("a session is already active")

	// ErrNotInSession indicates an answer was submitted outside an
	// active session.
	ErrNotInSession = errors.New("no active session")

	// ErrPausedAtBreak indicates an answer was submitted while the
	// scheduler is blocked on a breakpoint verdict; call Resume first.
	ErrPausedAtBreak = errors.New("session paused at breakpoint")

	// ErrNotReloadable indicates Reload was called from a state other
	// than Error.
	ErrNotReloadable = errors.New("session is not in a reloadable state")

	// ErrInvalidQuality indicates an unknown quality rating.
	ErrInvalidQuality = errors.New("invalid quality rating")
)

// ServiceError wraps errors from the scheduler with operation context,
// allowing consumers to differentiate failures with errors.As instead
// of string matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "start", "submit_answer")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewStartError returns a new ServiceError for the start operation.
func NewStartError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "start",
		Message:   message,
		Err:       err,
	}
}

// NewSubmitAnswerError returns a new ServiceError for the submit_answer
// operation.
func NewSubmitAnswerError(message string, err error) *ServiceError {
	return &ServiceError{
		Operation: "submit_answer",
		Message:   message,
		Err:       err,
	}
}
