package apierror

import (
	"errors"
	"fmt"
	"testing"
)

func TestDevOpsErrorInspector_IsAuthError(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "401 unauthorized",
			err:  errors.New("401 Unauthorized"),
			want: true,
		},
		{
			name: "403 forbidden",
			err:  errors.New("403 Forbidden"),
			want: true,
		},
		{
			name: "tfs auth error code",
			err:  errors.New("TF400813: The user is not authorized to access this resource"),
			want: true,
		},
		{
			name: "access denied",
			err:  errors.New("Access Denied: The Personal Access Token used has expired"),
			want: true,
		},
		{
			name: "wrapped auth error",
			err:  fmt.Errorf("failed to query: %w", errors.New("401 Unauthorized")),
			want: true,
		},
		{
			name: "not an auth error",
			err:  errors.New("something went wrong"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.IsAuthError(tt.err); got != tt.want {
				t.Errorf("IsAuthError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDevOpsErrorInspector_IsNotFoundError(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "404 not found",
			err:  errors.New("404 Not Found"),
			want: true,
		},
		{
			name: "project does not exist",
			err:  errors.New("TF200016: The following project does not exist: Fabrikam"),
			want: true,
		},
		{
			name: "repository not found code",
			err:  errors.New("TF401019: The Git repository with name or identifier web does not exist"),
			want: true,
		},
		{
			name: "wrapped not found error",
			err:  fmt.Errorf("failed to fetch: %w", errors.New("404 Not Found")),
			want: true,
		},
		{
			name: "not a not found error",
			err:  errors.New("internal server error"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.IsNotFoundError(tt.err); got != tt.want {
				t.Errorf("IsNotFoundError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDevOpsErrorInspector_IsRateLimitError(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "429 too many requests",
			err:  errors.New("received status 429"),
			want: true,
		},
		{
			name: "throttling message",
			err:  errors.New("Request was blocked due to exceeding usage of resource 'WorkItemTrackingResource'"),
			want: true,
		},
		{
			name: "rate limit message",
			err:  errors.New("API rate limit exceeded"),
			want: true,
		},
		{
			name: "not a rate limit error",
			err:  errors.New("404 Not Found"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.IsRateLimitError(tt.err); got != tt.want {
				t.Errorf("IsRateLimitError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDevOpsErrorInspector_IsQueryError(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "wiql field error",
			err:  errors.New("TF51005: The query references a field that does not exist: [System.Nonsense]"),
			want: true,
		},
		{
			name: "wiql syntax error",
			err:  errors.New("VS402337: The WIQL query is malformed: syntax error near 'FORM'"),
			want: true,
		},
		{
			name: "not a query error",
			err:  errors.New("503 Service Unavailable"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.IsQueryError(tt.err); got != tt.want {
				t.Errorf("IsQueryError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDevOpsErrorInspector_IsNetworkError(t *testing.T) {
	inspector := NewInspector()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "connection refused",
			err:  errors.New("dial tcp 127.0.0.1:443: connect: connection refused"),
			want: true,
		},
		{
			name: "no such host",
			err:  errors.New("dial tcp: lookup dev.azure.invalid: no such host"),
			want: true,
		},
		{
			name: "timeout",
			err:  errors.New("context deadline exceeded (Client.Timeout exceeded while awaiting headers)"),
			want: true,
		},
		{
			name: "tls handshake failure",
			err:  errors.New("tls handshake failure"),
			want: true,
		},
		{
			name: "not a network error",
			err:  errors.New("401 Unauthorized"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inspector.IsNetworkError(tt.err); got != tt.want {
				t.Errorf("IsNetworkError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorChainInspector(t *testing.T) {
	inspector := NewErrorChainInspector(NewInspector())

	// Falls back to string inspection for plain errors.
	if !inspector.IsAuthError(errors.New("401 Unauthorized")) {
		t.Error("expected fallback string inspection to detect auth error")
	}

	// Detects typed errors anywhere in the chain.
	wrapped := fmt.Errorf("request failed: %w", &testAuthError{})
	if !inspector.IsAuthError(wrapped) {
		t.Error("expected chain inspection to detect typed auth error")
	}
}

type testAuthError struct{}

func (e *testAuthError) Error() string     { return "token rejected" }
func (e *testAuthError) IsAuthError() bool { return true }

func TestWithRetryInfo(t *testing.T) {
	base := errors.New("received status 503")
	err := WithRetryInfo(base, 2, 5)

	if !errors.Is(err, base) {
		t.Error("expected wrapped error to match base via errors.Is")
	}
	want := "received status 503 (attempt 2/5)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if WithRetryInfo(nil, 1, 5) != nil {
		t.Error("expected nil for nil input")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"throttled", errors.New("received status 429"), true},
		{"network", errors.New("dial tcp: connection refused"), true},
		{"auth", errors.New("401 Unauthorized"), false},
		{"retry-wrapped", WithRetryInfo(errors.New("boom"), 1, 3), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}
