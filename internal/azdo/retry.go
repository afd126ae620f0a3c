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
	"context"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sirseerhq/sirseer-devops/internal/apierror"
)

// RetryConfig configures the retry behavior for API calls
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts
	MaxRetries int
	// InitialBackoff is the initial backoff duration
	InitialBackoff time.Duration
	// MaxBackoff is the maximum backoff duration
	MaxBackoff time.Duration
	// BackoffMultiplier is the multiplier for exponential backoff
	BackoffMultiplier float64
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        3,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryClient wraps a Client with automatic retry logic for throttling and
// transient network errors using exponential backoff.
type RetryClient struct {
	client    Client
	config    *RetryConfig
	inspector apierror.Inspector
}

// NewRetryClient creates a new RetryClient with the given configuration
func NewRetryClient(client Client, config *RetryConfig) Client {
	if config == nil {
		config = DefaultRetryConfig()
	}
	return &RetryClient{
		client:    client,
		config:    config,
		inspector: apierror.NewInspector(),
	}
}

// QueryWorkItems implements the Client interface with retry logic
func (r *RetryClient) QueryWorkItems(ctx context.Context, project, wiql string, opts WorkItemOptions) ([]WorkItem, error) {
	return retryFetch(ctx, r, func() ([]WorkItem, error) {
		return r.client.QueryWorkItems(ctx, project, wiql, opts)
	})
}

// GetWorkItems implements the Client interface with retry logic
func (r *RetryClient) GetWorkItems(ctx context.Context, project string, ids []int, opts WorkItemOptions) ([]WorkItem, error) {
	return retryFetch(ctx, r, func() ([]WorkItem, error) {
		return r.client.GetWorkItems(ctx, project, ids, opts)
	})
}

// ListPullRequests implements the Client interface with retry logic
func (r *RetryClient) ListPullRequests(ctx context.Context, project, repository string, opts PullRequestOptions) ([]PullRequest, error) {
	return retryFetch(ctx, r, func() ([]PullRequest, error) {
		return r.client.ListPullRequests(ctx, project, repository, opts)
	})
}

// GetIterations implements the Client interface with retry logic
func (r *RetryClient) GetIterations(ctx context.Context, project, repository string, pullRequestID int) ([]Iteration, error) {
	return retryFetch(ctx, r, func() ([]Iteration, error) {
		return r.client.GetIterations(ctx, project, repository, pullRequestID)
	})
}

// GetThreads implements the Client interface with retry logic
func (r *RetryClient) GetThreads(ctx context.Context, project, repository string, pullRequestID int) ([]Thread, error) {
	return retryFetch(ctx, r, func() ([]Thread, error) {
		return r.client.GetThreads(ctx, project, repository, pullRequestID)
	})
}

// ListRepositories implements the Client interface with retry logic
func (r *RetryClient) ListRepositories(ctx context.Context, project string) ([]GitRepository, error) {
	return retryFetch(ctx, r, func() ([]GitRepository, error) {
		return r.client.ListRepositories(ctx, project)
	})
}

// retryFetch runs op until it succeeds, fails permanently, or exhausts the
// configured attempts.
func retryFetch[T any](ctx context.Context, r *RetryClient, op func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}

		lastErr = err

		// Don't retry on non-retryable errors
		if !r.shouldRetry(err) {
			return zero, err
		}

		// Don't retry if context is cancelled
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		backoff := r.calculateBackoff(attempt)

		if r.inspector.IsRateLimitError(err) {
			log.Warn("Throttled by Azure DevOps, backing off",
				"wait", backoff, "attempt", attempt+1, "max", r.config.MaxRetries)
		} else {
			log.Warn("Network error, retrying",
				"wait", backoff, "attempt", attempt+1, "max", r.config.MaxRetries)
		}

		// Wait with context cancellation support
		select {
		case <-time.After(backoff):
			// Continue to next retry
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	return zero, fmt.Errorf("failed after %d retries: %w", r.config.MaxRetries, lastErr)
}

// shouldRetry determines if an error is retryable
func (r *RetryClient) shouldRetry(err error) bool {
	// Retry on throttling errors
	if r.inspector.IsRateLimitError(err) {
		return true
	}

	// Retry on network errors
	if r.inspector.IsNetworkError(err) {
		return true
	}

	// Don't retry on other errors (auth, not found, bad query, etc.)
	return false
}

// calculateBackoff calculates the backoff duration for the given attempt
func (r *RetryClient) calculateBackoff(attempt int) time.Duration {
	// Calculate exponential backoff
	backoff := float64(r.config.InitialBackoff) * math.Pow(r.config.BackoffMultiplier, float64(attempt))

	// Apply max backoff limit
	if backoff > float64(r.config.MaxBackoff) {
		backoff = float64(r.config.MaxBackoff)
	}

	// Add jitter (±10%) to prevent thundering herd
	jitter := backoff * 0.1 * (2*float64(time.Now().UnixNano()%100)/100 - 1)
	backoff += jitter

	return time.Duration(backoff)
}
