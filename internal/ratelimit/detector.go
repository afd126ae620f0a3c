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

// Package ratelimit detects Azure DevOps throttling responses and waits out
// the penalty window. The service signals throttling with HTTP 429 (or a 503
// carrying a Retry-After header) and advertises remaining quota through the
// X-RateLimit family of headers.
package ratelimit

import (
	"net/http"
	"strconv"
	"time"
)

// DefaultRetryAfter is used when a throttling response carries no usable
// Retry-After or X-RateLimit-Reset header.
const DefaultRetryAfter = 30 * time.Second

// Info describes a detected throttling event.
type Info struct {
	// RetryAfter is how long the client should wait before retrying.
	RetryAfter time.Duration

	// Reset is the wall clock time the quota window resets, if advertised.
	Reset time.Time

	// Remaining is the advertised remaining quota, -1 when absent.
	Remaining int
}

// Detector inspects HTTP responses for throttling signals.
type Detector struct {
	now func() time.Time
}

// NewDetector creates a Detector.
func NewDetector() *Detector {
	return &Detector{now: time.Now}
}

// IsRateLimited reports whether the response indicates throttling.
func (d *Detector) IsRateLimited(resp *http.Response) bool {
	if resp == nil {
		return false
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	// Azure DevOps occasionally throttles with a 503 plus Retry-After.
	if resp.StatusCode == http.StatusServiceUnavailable && resp.Header.Get("Retry-After") != "" {
		return true
	}
	return false
}

// Detect extracts the throttling details from a response. It prefers the
// Retry-After header, falls back to X-RateLimit-Reset, then to a fixed
// default so callers always get a positive wait.
func (d *Detector) Detect(resp *http.Response) *Info {
	info := &Info{
		RetryAfter: DefaultRetryAfter,
		Remaining:  -1,
	}
	if resp == nil {
		return info
	}

	if v := resp.Header.Get("X-RateLimit-Remaining"); v != "" {
		if remaining, err := strconv.Atoi(v); err == nil {
			info.Remaining = remaining
		}
	}

	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if unix, err := strconv.ParseInt(v, 10, 64); err == nil {
			info.Reset = time.Unix(unix, 0)
		}
	}

	if v := resp.Header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			info.RetryAfter = time.Duration(seconds) * time.Second
			if info.Reset.IsZero() {
				info.Reset = d.now().Add(info.RetryAfter)
			}
			return info
		}
	}

	if !info.Reset.IsZero() {
		if wait := info.Reset.Sub(d.now()); wait > 0 {
			info.RetryAfter = wait
		}
	}

	return info
}
