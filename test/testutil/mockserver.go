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

// Package testutil provides common test helpers for sirseer-devops
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

// MockServer provides common mock server configurations for testing
type MockServer struct {
	*httptest.Server
	requestCount int32
}

// RequestCount returns the number of requests the server has received
func (m *MockServer) RequestCount() int32 {
	return atomic.LoadInt32(&m.requestCount)
}

// NewMockServer creates a basic mock server backed by the given handler
func NewMockServer(t *testing.T, handler http.HandlerFunc) *MockServer {
	t.Helper()
	mock := &MockServer{}
	mock.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&mock.requestCount, 1)
		handler(w, r)
	}))
	return mock
}

// NewRateLimitServer creates a mock server that throttles the first
// successAfterCount requests with 429 and a Retry-After header, then serves
// a pull request page
func NewRateLimitServer(t *testing.T, retryAfter, successAfterCount int) *MockServer {
	t.Helper()
	mock := &MockServer{}

	mock.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := atomic.AddInt32(&mock.requestCount, 1)

		if count <= int32(successAfterCount) {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"message": "TF429: Request was blocked due to exceeding usage of resource 'Count' in namespace 'GitPullRequests'."}`))
			return
		}

		response := GeneratePRListResponse(1, 10)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))

	return mock
}

// NewErrorServer creates a mock server that always returns the specified error
func NewErrorServer(t *testing.T, statusCode int) *MockServer {
	t.Helper()
	return NewMockServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(http.StatusText(statusCode)))
	})
}

// NewTransientErrorServer creates a mock server that fails N times then succeeds
func NewTransientErrorServer(t *testing.T, failCount, errorCode int) *MockServer {
	t.Helper()
	mock := &MockServer{}

	mock.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := atomic.AddInt32(&mock.requestCount, 1)

		if count <= int32(failCount) {
			w.WriteHeader(errorCode)
			_, _ = w.Write([]byte(http.StatusText(errorCode)))
			return
		}

		response := GeneratePRListResponse(1, 10)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))

	return mock
}

// NewTimeoutServer creates a mock server that times out N times then succeeds
func NewTimeoutServer(t *testing.T, timeoutCount int) *MockServer {
	t.Helper()
	mock := &MockServer{}

	mock.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := atomic.AddInt32(&mock.requestCount, 1)

		if count <= int32(timeoutCount) {
			// Sleep longer than any client timeout the tests configure.
			time.Sleep(10 * time.Second)
			return
		}

		response := GeneratePRListResponse(1, 10)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))

	return mock
}

// GeneratePRListResponse generates a pull request list envelope with
// sequential IDs in [startID, endID]. A caller paging with $top/$skip can
// combine pages by slicing the range
func GeneratePRListResponse(startID, endID int) map[string]interface{} {
	prs := make([]map[string]interface{}, 0)

	for id := startID; id <= endID; id++ {
		prs = append(prs, NewPullRequestBuilder(id).Build())
	}

	return map[string]interface{}{
		"count": len(prs),
		"value": prs,
	}
}

// GenerateWorkItemBatchResponse generates a work item list envelope with the
// given IDs
func GenerateWorkItemBatchResponse(ids ...int) map[string]interface{} {
	items := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		items = append(items, NewWorkItemBuilder(id).Build())
	}

	return map[string]interface{}{
		"count": len(items),
		"value": items,
	}
}

// AssertRESTRequest validates the wire-level invariants every Azure DevOps
// request carries: basic auth with an empty username and exactly one
// api-version query parameter
func AssertRESTRequest(t *testing.T, r *http.Request) {
	t.Helper()

	user, pass, ok := r.BasicAuth()
	if !ok {
		t.Error("Request missing basic auth credentials")
	}
	if user != "" {
		t.Errorf("Expected empty basic auth username, got %q", user)
	}
	if pass == "" {
		t.Error("Expected non-empty basic auth password")
	}

	versions := r.URL.Query()["api-version"]
	if len(versions) != 1 {
		t.Errorf("Expected exactly one api-version parameter, got %v", versions)
	} else if versions[0] != "7.1" {
		t.Errorf("Expected api-version 7.1, got %s", versions[0])
	}
}
