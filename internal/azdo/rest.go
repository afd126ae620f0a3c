// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package azdo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirseerhq/sirseer-devops/internal/apierror"
	"github.com/sirseerhq/sirseer-devops/internal/config"
	deverrors "github.com/sirseerhq/sirseer-devops/internal/errors"
	"github.com/sirseerhq/sirseer-devops/pkg/version"
)

// RESTExecutor implements the Executor interface against the Azure DevOps
// REST API. It is configured with:
//   - Personal access token authentication on every request
//   - Response size limiting to prevent memory issues
//   - User-Agent header for API compliance
//   - Optimized connection pooling for API performance
type RESTExecutor struct {
	httpClient *http.Client
	inspector  apierror.Inspector

	retries    bool
	rateLimit  *config.RateLimitConfig
	stateSaver StateSaver
}

// ExecutorOption customizes a RESTExecutor.
type ExecutorOption func(*RESTExecutor)

// WithHTTPClient replaces the underlying HTTP client. The auth, retry, and
// rate limit transports are still layered on top of the client's transport.
func WithHTTPClient(client *http.Client) ExecutorOption {
	return func(e *RESTExecutor) {
		e.httpClient = client
	}
}

// WithTransportRetries enables transparent retries of transient failures
// (502/503/504 and network errors) with exponential backoff.
func WithTransportRetries() ExecutorOption {
	return func(e *RESTExecutor) {
		e.retries = true
	}
}

// WithRateLimitHandling enables throttling detection. When cfg.AutoWait is
// set the executor blocks until the Retry-After window passes, saving state
// through saver (may be nil) before waiting.
func WithRateLimitHandling(cfg *config.RateLimitConfig, saver StateSaver) ExecutorOption {
	return func(e *RESTExecutor) {
		e.rateLimit = cfg
		e.stateSaver = saver
	}
}

// NewExecutor creates an Executor authenticated with the given personal
// access token.
func NewExecutor(token string, opts ...ExecutorOption) *RESTExecutor {
	// Create optimized transport with connection pooling
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10, // Increased from default 2
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  false,
		ForceAttemptHTTP2:   true,
	}

	e := &RESTExecutor{
		httpClient: &http.Client{Transport: transport},
		inspector:  apierror.NewInspector(),
	}

	for _, opt := range opts {
		opt(e)
	}

	chain := e.httpClient.Transport
	if chain == nil {
		chain = http.DefaultTransport
	}
	chain = &authTransport{token: token, base: chain}
	if e.retries {
		chain = newRetryTransport(chain)
	}
	if e.rateLimit != nil {
		chain = newRateLimitTransport(chain, e.rateLimit, e.stateSaver)
	}
	e.httpClient = &http.Client{
		Transport: chain,
		Timeout:   e.httpClient.Timeout,
	}

	return e
}

// Get performs a GET request and decodes the JSON response into out.
func (e *RESTExecutor) Get(ctx context.Context, url string, out interface{}) error {
	return e.do(ctx, http.MethodGet, url, nil, out)
}

// Post performs a POST request with a JSON-encoded body and decodes the
// JSON response into out.
func (e *RESTExecutor) Post(ctx context.Context, url string, body, out interface{}) error {
	return e.do(ctx, http.MethodPost, url, body, out)
}

// do executes a single HTTP call. Non-2xx responses are mapped to the
// domain sentinel errors with the service's error message attached.
func (e *RESTExecutor) do(ctx context.Context, method, url string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if e.inspector.IsNetworkError(err) {
			return fmt.Errorf("network error connecting to Azure DevOps: %v: %w", err, deverrors.ErrNetworkFailure)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return e.mapStatusError(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// apiErrorBody is the error envelope returned by Azure DevOps on failures.
type apiErrorBody struct {
	Message string `json:"message"`
	TypeKey string `json:"typeKey"`
}

// mapStatusError converts a non-2xx response into a sentinel-wrapped error.
// The response body is consumed to recover the service's error message.
func (e *RESTExecutor) mapStatusError(resp *http.Response) error {
	message := fmt.Sprintf("received status %d", resp.StatusCode)
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024)); err == nil && len(data) > 0 {
		var body apiErrorBody
		if json.Unmarshal(data, &body) == nil && body.Message != "" {
			message = fmt.Sprintf("%s: %s", message, body.Message)
		}
	}

	// Check throttling first; a 403 can carry a throttling message.
	msgErr := errors.New(message)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests || e.inspector.IsRateLimitError(msgErr):
		return fmt.Errorf("azure devops throttled the request. Wait before retrying: %s: %w", message, deverrors.ErrRateLimit)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("azure devops authentication failed. Provide a valid PAT via --token flag or AZDO_TOKEN environment variable: %s: %w", message, deverrors.ErrInvalidToken)
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("resource not found. Check the project and repository names and your access permissions: %s: %w", message, deverrors.ErrProjectNotFound)
	case resp.StatusCode == http.StatusBadRequest && e.inspector.IsQueryError(msgErr):
		return fmt.Errorf("work item query rejected: %s: %w", message, deverrors.ErrInvalidQuery)
	default:
		return fmt.Errorf("azure devops request failed: %s", message)
	}
}

// limitedReader wraps a ReadCloser with a size limit to prevent excessive memory usage.
type limitedReader struct {
	io.ReadCloser
	limit int64
	read  int64
}

// Read implements io.Reader with size limit enforcement.
func (lr *limitedReader) Read(p []byte) (n int, err error) {
	if lr.read >= lr.limit {
		return 0, fmt.Errorf("response size exceeded limit of %d bytes", lr.limit)
	}

	remaining := lr.limit - lr.read
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err = lr.ReadCloser.Read(p)
	lr.read += int64(n)

	return n, err
}

// authTransport adds authentication headers and safety limits to HTTP requests
type authTransport struct {
	token string
	base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	req = req.Clone(req.Context())

	// Azure DevOps accepts a PAT as the password of a basic auth pair with
	// an empty user name.
	req.SetBasicAuth("", t.token)

	req.Header.Set("User-Agent", fmt.Sprintf("sirseer-devops/%s", version.Version))

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	// Apply response size limit (10MB)
	if resp.Body != nil {
		resp.Body = &limitedReader{
			ReadCloser: resp.Body,
			limit:      10 * 1024 * 1024, // 10MB
		}
	}

	return resp, nil
}
