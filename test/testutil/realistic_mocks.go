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

package testutil

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// DevOpsMockServer simulates an Azure DevOps organization: WIQL queries,
// work item batch reads, and paginated pull request lists, with basic auth
// enforcement and request throttling that mirror the hosted service
type DevOpsMockServer struct {
	*httptest.Server
	mu                 sync.RWMutex
	rateLimitRemaining int32
	requestHistory     []RESTRequest

	// TotalPRs controls how many pull requests the server pages out.
	TotalPRs int
	// WorkItemIDs is what every WIQL query matches.
	WorkItemIDs []int
}

// RESTRequest records one request the mock server received
type RESTRequest struct {
	Method    string
	Path      string
	Query     url.Values
	Timestamp time.Time
}

// NewDevOpsMockServer creates a realistic Azure DevOps REST mock
func NewDevOpsMockServer(t *testing.T) *DevOpsMockServer {
	t.Helper()

	mock := &DevOpsMockServer{
		rateLimitRemaining: 5000,
		requestHistory:     []RESTRequest{},
		TotalPRs:           100,
		WorkItemIDs:        []int{1, 2, 3, 4, 5},
	}

	mock.Server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

func (m *DevOpsMockServer) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requestHistory = append(m.requestHistory, RESTRequest{
		Method:    r.Method,
		Path:      r.URL.Path,
		Query:     r.URL.Query(),
		Timestamp: time.Now(),
	})
	m.mu.Unlock()

	if _, pass, ok := r.BasicAuth(); !ok || pass == "" {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"message": "TF400813: The user '' is not authorized to access this resource.",
		})
		return
	}

	remaining := atomic.AddInt32(&m.rateLimitRemaining, -1)
	if remaining < 0 {
		w.Header().Set("X-RateLimit-Remaining", "0")
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"message": "TF429: Request was blocked due to exceeding usage of resource 'Count' in namespace 'Any'.",
		})
		return
	}
	w.Header().Set("X-RateLimit-Limit", "5000")
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(int(remaining)))

	path := r.URL.Path
	switch {
	case strings.HasSuffix(path, "/_apis/wit/wiql") && r.Method == http.MethodPost:
		m.handleWiql(w, r)
	case strings.HasSuffix(path, "/_apis/wit/workitems"):
		m.handleWorkItems(w, r)
	case strings.HasSuffix(path, "/pullrequests"):
		m.handlePullRequests(w, r)
	case strings.HasSuffix(path, "/iterations"):
		writeJSON(w, GenerateIterationListResponse(2))
	case strings.HasSuffix(path, "/threads"):
		writeJSON(w, GenerateThreadListResponse(2))
	case strings.HasSuffix(path, "/git/repositories"):
		writeJSON(w, map[string]interface{}{
			"count": 1,
			"value": []map[string]interface{}{
				{
					"id":            "3f1a2b4c-0000-0000-0000-000000000001",
					"name":          "repo",
					"defaultBranch": "refs/heads/main",
					"url":           m.URL + "/_apis/git/repositories/repo",
				},
			},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"message": "TF200016: The following project does not exist: " + path,
		})
	}
}

func (m *DevOpsMockServer) handleWiql(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"message": "VS402337: The WIQL query is malformed.",
		})
		return
	}

	m.mu.RLock()
	ids := append([]int(nil), m.WorkItemIDs...)
	m.mu.RUnlock()

	writeJSON(w, NewWiqlResponseBuilder().WithWorkItems(ids...).Build())
}

func (m *DevOpsMockServer) handleWorkItems(w http.ResponseWriter, r *http.Request) {
	var ids []int
	for _, raw := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if raw == "" {
			continue
		}
		id, err := strconv.Atoi(raw)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"message": "VS402323: The work item ID is not valid: " + raw,
			})
			return
		}
		ids = append(ids, id)
	}

	if len(ids) > 200 {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"message": "VS402337: The number of work items returned exceeds the size limit of 200.",
		})
		return
	}

	writeJSON(w, GenerateWorkItemBatchResponse(ids...))
}

func (m *DevOpsMockServer) handlePullRequests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	top := 100
	if raw := query.Get("$top"); raw != "" {
		top, _ = strconv.Atoi(raw)
	}
	skip := 0
	if raw := query.Get("$skip"); raw != "" {
		skip, _ = strconv.Atoi(raw)
	}

	m.mu.RLock()
	total := m.TotalPRs
	m.mu.RUnlock()

	startID := skip + 1
	endID := skip + top
	if endID > total {
		endID = total
	}
	if startID > total {
		writeJSON(w, map[string]interface{}{"count": 0, "value": []interface{}{}})
		return
	}

	writeJSON(w, GeneratePRListResponse(startID, endID))
}

// GenerateIterationListResponse generates an iteration list envelope with
// the given number of iterations
func GenerateIterationListResponse(n int) map[string]interface{} {
	iterations := make([]map[string]interface{}, n)
	for i := range iterations {
		iterations[i] = map[string]interface{}{
			"id":          i + 1,
			"description": fmt.Sprintf("push %d", i+1),
			"createdDate": time.Now().AddDate(0, 0, -n+i).Format(time.RFC3339),
			"sourceRefCommit": map[string]interface{}{
				"commitId": fmt.Sprintf("%040d", i+1),
			},
		}
	}
	return map[string]interface{}{"count": n, "value": iterations}
}

// GenerateThreadListResponse generates a comment thread list envelope with
// the given number of threads
func GenerateThreadListResponse(n int) map[string]interface{} {
	threads := make([]map[string]interface{}, n)
	for i := range threads {
		threads[i] = map[string]interface{}{
			"id":            i + 1,
			"status":        "active",
			"publishedDate": time.Now().AddDate(0, 0, -n+i).Format(time.RFC3339),
			"comments": []map[string]interface{}{
				{
					"id":          1,
					"content":     fmt.Sprintf("comment on thread %d", i+1),
					"commentType": "text",
					"author": map[string]interface{}{
						"displayName": "reviewer",
						"uniqueName":  "reviewer@fabrikam.com",
					},
				},
			},
		}
	}
	return map[string]interface{}{"count": n, "value": threads}
}

// GetRequestHistory returns the history of requests received so far
func (m *DevOpsMockServer) GetRequestHistory() []RESTRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := make([]RESTRequest, len(m.requestHistory))
	copy(history, m.requestHistory)
	return history
}

// ResetRateLimit resets the remaining request budget
func (m *DevOpsMockServer) ResetRateLimit() {
	atomic.StoreInt32(&m.rateLimitRemaining, 5000)
}

// SetRateLimit sets a specific remaining request budget
func (m *DevOpsMockServer) SetRateLimit(remaining int32) {
	atomic.StoreInt32(&m.rateLimitRemaining, remaining)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// FlakeyNetworkServer creates a server that randomly fails
type FlakeyNetworkServer struct {
	*httptest.Server
	failureRate float32
	mu          sync.Mutex
	requests    int32
}

// NewFlakeyNetworkServer creates a server with intermittent failures
func NewFlakeyNetworkServer(t *testing.T, failureRate float32) *FlakeyNetworkServer {
	t.Helper()

	mock := &FlakeyNetworkServer{
		failureRate: failureRate,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&mock.requests, 1)

		mock.mu.Lock()
		rate := mock.failureRate
		mock.mu.Unlock()

		if rand.Float32() < rate {
			switch rand.Intn(4) {
			case 0:
				// Connection timeout (no response)
				time.Sleep(10 * time.Second)
			case 1:
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("Bad Gateway"))
			case 2:
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("Service Unavailable"))
			case 3:
				// Partial response (truncated JSON)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"count": 10, "value": [`))
			}
			return
		}

		writeJSON(w, GeneratePRListResponse(1, 10))
	}))

	mock.Server = server
	return mock
}

// GetRequestCount returns the number of requests received
func (f *FlakeyNetworkServer) GetRequestCount() int32 {
	return atomic.LoadInt32(&f.requests)
}

// SetFailureRate updates the failure rate
func (f *FlakeyNetworkServer) SetFailureRate(rate float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failureRate = rate
}
