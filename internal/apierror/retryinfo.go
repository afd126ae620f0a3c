package apierror

import (
	"errors"
	"fmt"
)

// RetryableError wraps an error with information about the retry attempt
// that produced it. The wrapped error remains reachable via errors.Unwrap.
type RetryableError struct {
	Err        error
	Attempt    int
	MaxRetries int
}

// Error implements the error interface.
func (e *RetryableError) Error() string {
	return fmt.Sprintf("%v (attempt %d/%d)", e.Err, e.Attempt, e.MaxRetries)
}

// Unwrap returns the underlying error.
func (e *RetryableError) Unwrap() error {
	return e.Err
}

// WithRetryInfo annotates an error with the attempt number that produced it.
func WithRetryInfo(err error, attempt, maxRetries int) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err, Attempt: attempt, MaxRetries: maxRetries}
}

// ActionableError wraps an error with a suggested user action. The CLI
// prints the action alongside the error message.
type ActionableError struct {
	Err    error
	Action string
}

// Error implements the error interface.
func (e *ActionableError) Error() string {
	return fmt.Sprintf("%v\n%s", e.Err, e.Action)
}

// Unwrap returns the underlying error.
func (e *ActionableError) Unwrap() error {
	return e.Err
}

// WithUserAction annotates an error with a suggested remediation for the user.
func WithUserAction(err error, action string) error {
	if err == nil {
		return nil
	}
	return &ActionableError{Err: err, Action: action}
}

// IsRetryable reports whether an error is worth retrying: throttling and
// transient network failures qualify, auth and not-found errors do not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return true
	}
	inspector := NewInspector()
	return inspector.IsRateLimitError(err) || inspector.IsNetworkError(err)
}
