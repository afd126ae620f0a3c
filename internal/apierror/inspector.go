package apierror

import (
	"errors"
	"strings"
)

// Inspector provides methods for analyzing Azure DevOps API errors.
type Inspector interface {
	// IsAuthError returns true if the error represents an authentication or authorization failure.
	IsAuthError(err error) bool

	// IsNotFoundError returns true if the error represents a resource not found error.
	IsNotFoundError(err error) bool

	// IsRateLimitError returns true if the error represents a throttling error.
	IsRateLimitError(err error) bool

	// IsQueryError returns true if the error represents a rejected WIQL query.
	IsQueryError(err error) bool

	// IsNetworkError returns true if the error represents a network connectivity error.
	IsNetworkError(err error) bool
}

// DevOpsErrorInspector implements the Inspector interface for Azure DevOps API errors.
type DevOpsErrorInspector struct{}

// NewInspector creates a new DevOpsErrorInspector.
func NewInspector() Inspector {
	return &DevOpsErrorInspector{}
}

// IsAuthError checks if the error is an authentication or authorization error.
func (i *DevOpsErrorInspector) IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "forbidden") ||
		strings.Contains(errStr, "tf400813") ||
		strings.Contains(errStr, "access denied") ||
		strings.Contains(errStr, "authentication")
}

// IsNotFoundError checks if the error is a not found error.
func (i *DevOpsErrorInspector) IsNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "404") ||
		strings.Contains(errStr, "not found") ||
		strings.Contains(errStr, "tf200016") ||
		strings.Contains(errStr, "tf401019") ||
		strings.Contains(errStr, "does not exist")
}

// IsRateLimitError checks if the error is a throttling error.
func (i *DevOpsErrorInspector) IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "vs402844") ||
		strings.Contains(errStr, "request was blocked due to exceeding usage")
}

// IsQueryError checks if the error is a rejected WIQL query.
func (i *DevOpsErrorInspector) IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "tf51005") ||
		strings.Contains(errStr, "vs402337") ||
		strings.Contains(errStr, "wiql") ||
		strings.Contains(errStr, "syntax error")
}

// IsNetworkError checks if the error is a network connectivity error.
func (i *DevOpsErrorInspector) IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "temporary failure") ||
		strings.Contains(errStr, "dial tcp") ||
		strings.Contains(errStr, "tls handshake") ||
		strings.Contains(errStr, "network is unreachable")
}

// ErrorChainInspector wraps a base inspector and adds support for checking errors
// in the error chain using errors.Is and errors.As.
type ErrorChainInspector struct {
	base Inspector
}

// NewErrorChainInspector creates a new ErrorChainInspector that checks both
// the error chain and falls back to string-based inspection.
func NewErrorChainInspector(base Inspector) Inspector {
	return &ErrorChainInspector{base: base}
}

// IsAuthError checks the error chain first, then falls back to base inspector.
func (e *ErrorChainInspector) IsAuthError(err error) bool {
	var authErr interface{ IsAuthError() bool }
	if errors.As(err, &authErr) && authErr.IsAuthError() {
		return true
	}
	return e.base.IsAuthError(err)
}

// IsNotFoundError checks the error chain first, then falls back to base inspector.
func (e *ErrorChainInspector) IsNotFoundError(err error) bool {
	var notFoundErr interface{ IsNotFoundError() bool }
	if errors.As(err, &notFoundErr) && notFoundErr.IsNotFoundError() {
		return true
	}
	return e.base.IsNotFoundError(err)
}

// IsRateLimitError checks the error chain first, then falls back to base inspector.
func (e *ErrorChainInspector) IsRateLimitError(err error) bool {
	var rateLimitErr interface{ IsRateLimitError() bool }
	if errors.As(err, &rateLimitErr) && rateLimitErr.IsRateLimitError() {
		return true
	}
	return e.base.IsRateLimitError(err)
}

// IsQueryError checks the error chain first, then falls back to base inspector.
func (e *ErrorChainInspector) IsQueryError(err error) bool {
	var queryErr interface{ IsQueryError() bool }
	if errors.As(err, &queryErr) && queryErr.IsQueryError() {
		return true
	}
	return e.base.IsQueryError(err)
}

// IsNetworkError checks the error chain first, then falls back to base inspector.
func (e *ErrorChainInspector) IsNetworkError(err error) bool {
	var networkErr interface{ IsNetworkError() bool }
	if errors.As(err, &networkErr) && networkErr.IsNetworkError() {
		return true
	}
	return e.base.IsNetworkError(err)
}
