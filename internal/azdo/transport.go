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
	"fmt"
	"net/http"
	"time"

	"github.com/sirseerhq/sirseer-devops/internal/apierror"
	"github.com/sirseerhq/sirseer-devops/internal/config"
	deverrors "github.com/sirseerhq/sirseer-devops/internal/errors"
	"github.com/sirseerhq/sirseer-devops/internal/ratelimit"
)

// StateSaver provides an interface for saving state during rate limit waits.
type StateSaver interface {
	Save() error
}

// rateLimitTransport adds throttling detection and handling to HTTP requests.
// It wraps the auth transport and checks responses for Retry-After headers.
type rateLimitTransport struct {
	base       http.RoundTripper
	detector   *ratelimit.Detector
	waiter     *ratelimit.Waiter
	config     *config.RateLimitConfig
	stateSaver StateSaver
}

// newRateLimitTransport creates a new transport with rate limit handling.
func newRateLimitTransport(base http.RoundTripper, cfg *config.RateLimitConfig, stateSaver StateSaver) http.RoundTripper {
	return &rateLimitTransport{
		base:       base,
		detector:   ratelimit.NewDetector(),
		waiter:     ratelimit.NewWaiter(cfg.ShowProgress),
		config:     cfg,
		stateSaver: stateSaver,
	}
}

// RoundTrip implements http.RoundTripper with rate limit handling.
func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if t.detector.IsRateLimited(resp) {
		info := t.detector.Detect(resp)

		if !t.config.AutoWait {
			// Fail fast without waiting. The response is not handed back,
			// so its body must be closed here.
			resp.Body.Close()
			return nil, fmt.Errorf("rate limit exceeded, retry after %s: %w",
				info.RetryAfter, deverrors.ErrRateLimit)
		}

		// Save state before waiting - best effort
		if t.stateSaver != nil {
			_ = t.stateSaver.Save()
		}

		resp.Body.Close()

		ctx := req.Context()
		if err := t.waiter.Wait(ctx, info); err != nil {
			return nil, fmt.Errorf("rate limit wait canceled: %w", err)
		}

		// Retry the request after waiting
		return t.RoundTrip(req)
	}

	return resp, nil
}

// retryTransport adds exponential backoff retry logic for transient failures.
type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
}

// newRetryTransport creates a new transport with retry logic.
func newRetryTransport(base http.RoundTripper) http.RoundTripper {
	return &retryTransport{
		base:       base,
		maxRetries: 5,
	}
}

// RoundTrip implements http.RoundTripper with retry logic.
func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var lastErr error
	backoff := time.Second

	for attempt := 0; attempt < t.maxRetries; attempt++ {
		// Clone request for each attempt. Clone copies the Body reference,
		// which a previous attempt may have consumed, so rewind it.
		clonedReq := req.Clone(req.Context())
		if req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, fmt.Errorf("failed to rewind request body: %w", bodyErr)
			}
			clonedReq.Body = body
		}

		resp, err := t.base.RoundTrip(clonedReq)

		// Success - return immediately
		if err == nil && !isRetryableStatusCode(resp.StatusCode) {
			return resp, nil
		}

		// Check if error is retryable
		if err != nil {
			if !apierror.IsRetryable(err) {
				return nil, err
			}
			lastErr = apierror.WithRetryInfo(err, attempt+1, t.maxRetries)
		} else {
			// Retryable status code
			lastErr = apierror.WithRetryInfo(
				fmt.Errorf("received status %d", resp.StatusCode),
				attempt+1, t.maxRetries)
			resp.Body.Close()
		}

		// Don't retry on the last attempt
		if attempt < t.maxRetries-1 {
			// Wait with exponential backoff
			select {
			case <-time.After(backoff):
				// Increase backoff for next attempt
				backoff *= 2
				if backoff > 30*time.Second {
					backoff = 30 * time.Second
				}
			case <-req.Context().Done():
				return nil, req.Context().Err()
			}
		}
	}

	return nil, apierror.WithUserAction(lastErr,
		"Network connection failed. Please check your internet connection and try again")
}

// isRetryableStatusCode checks if an HTTP status code should trigger a retry.
func isRetryableStatusCode(code int) bool {
	switch code {
	case http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
