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
	"time"

	deverrors "github.com/sirseerhq/sirseer-devops/internal/errors"
)

// MockClient is a mock implementation of the Client interface for testing.
type MockClient struct {
	// Data to return
	WorkItems    []WorkItem
	PullRequests []PullRequest
	Iterations   []Iteration
	Threads      []Thread
	Repositories []GitRepository

	// Error to return
	Error error

	// Behavior flags
	ShouldFailAuth     bool
	ShouldFailNetwork  bool
	ShouldFailNotFound bool

	// Track calls for verification
	CallCount        int
	LastProject      string
	LastRepository   string
	LastQuery        string
	LastIDs          []int
	LastPROpts       PullRequestOptions
	LastWorkItemOpts WorkItemOptions
}

// NewMockClient creates a new mock client with default test data
func NewMockClient() *MockClient {
	return &MockClient{
		WorkItems:    generateTestWorkItems(),
		PullRequests: generateTestPullRequests(),
	}
}

// QueryWorkItems implements the Client interface
func (m *MockClient) QueryWorkItems(ctx context.Context, project, wiql string, opts WorkItemOptions) ([]WorkItem, error) {
	m.LastQuery = wiql
	m.LastWorkItemOpts = opts
	if err := m.record(ctx, project, ""); err != nil {
		return nil, err
	}
	return m.WorkItems, nil
}

// GetWorkItems implements the Client interface
func (m *MockClient) GetWorkItems(ctx context.Context, project string, ids []int, opts WorkItemOptions) ([]WorkItem, error) {
	m.LastIDs = ids
	m.LastWorkItemOpts = opts
	if err := m.record(ctx, project, ""); err != nil {
		return nil, err
	}
	return m.WorkItems, nil
}

// ListPullRequests implements the Client interface
func (m *MockClient) ListPullRequests(ctx context.Context, project, repository string, opts PullRequestOptions) ([]PullRequest, error) {
	m.LastPROpts = opts
	if err := m.record(ctx, project, repository); err != nil {
		return nil, err
	}
	return m.PullRequests, nil
}

// GetIterations implements the Client interface
func (m *MockClient) GetIterations(ctx context.Context, project, repository string, pullRequestID int) ([]Iteration, error) {
	if err := m.record(ctx, project, repository); err != nil {
		return nil, err
	}
	return m.Iterations, nil
}

// GetThreads implements the Client interface
func (m *MockClient) GetThreads(ctx context.Context, project, repository string, pullRequestID int) ([]Thread, error) {
	if err := m.record(ctx, project, repository); err != nil {
		return nil, err
	}
	return m.Threads, nil
}

// ListRepositories implements the Client interface
func (m *MockClient) ListRepositories(ctx context.Context, project string) ([]GitRepository, error) {
	if err := m.record(ctx, project, ""); err != nil {
		return nil, err
	}
	return m.Repositories, nil
}

// record tracks the call and simulates the configured failure modes.
func (m *MockClient) record(ctx context.Context, project, repository string) error {
	m.CallCount++
	m.LastProject = project
	if repository != "" {
		m.LastRepository = repository
	}

	// Check for context cancellation
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if m.ShouldFailAuth {
		return fmt.Errorf("authentication failed: %w", deverrors.ErrInvalidToken)
	}

	if m.ShouldFailNetwork {
		return fmt.Errorf("network timeout: %w", deverrors.ErrNetworkFailure)
	}

	if m.ShouldFailNotFound || project == "nonexistent" {
		return fmt.Errorf("project not found: %w", deverrors.ErrProjectNotFound)
	}

	return m.Error
}

// generateTestWorkItems creates sample work item data for testing
func generateTestWorkItems() []WorkItem {
	return []WorkItem{
		{
			ID:  297,
			Rev: 1,
			Fields: map[string]interface{}{
				"System.Title":        "Customer can sign in using their Microsoft Account",
				"System.WorkItemType": "User Story",
				"System.State":        "Active",
			},
			URL: "https://dev.azure.com/fabrikam/_apis/wit/workItems/297",
		},
		{
			ID:  299,
			Rev: 7,
			Fields: map[string]interface{}{
				"System.Title":        "Fix sign-in redirect on mobile",
				"System.WorkItemType": "Bug",
				"System.State":        "New",
			},
			URL: "https://dev.azure.com/fabrikam/_apis/wit/workItems/299",
		},
		{
			ID:  300,
			Rev: 2,
			Fields: map[string]interface{}{
				"System.Title":        "Update sign-in documentation",
				"System.WorkItemType": "Task",
				"System.State":        "Closed",
			},
			URL: "https://dev.azure.com/fabrikam/_apis/wit/workItems/300",
		},
	}
}

// generateTestPullRequests creates sample pull request data for testing
func generateTestPullRequests() []PullRequest {
	now := time.Now().UTC()
	yesterday := now.Add(-24 * time.Hour)
	lastWeek := now.Add(-7 * 24 * time.Hour)

	return []PullRequest{
		{
			PullRequestID: 1234,
			Title:         "Add new feature for data processing",
			Status:        "active",
			SourceRefName: "refs/heads/feature/data-processing",
			TargetRefName: "refs/heads/main",
			CreationDate:  lastWeek,
			CreatedBy:     IdentityRef{DisplayName: "Alice Johnson", UniqueName: "alice@fabrikam.com"},
		},
		{
			PullRequestID: 1233,
			Title:         "Fix memory leak in parser",
			Status:        "completed",
			SourceRefName: "refs/heads/fix/parser-leak",
			TargetRefName: "refs/heads/main",
			CreationDate:  lastWeek,
			ClosedDate:    &yesterday,
			CreatedBy:     IdentityRef{DisplayName: "Bob Smith", UniqueName: "bob@fabrikam.com"},
		},
		{
			PullRequestID: 1232,
			Title:         "Update documentation",
			Status:        "active",
			SourceRefName: "refs/heads/docs/update",
			TargetRefName: "refs/heads/main",
			CreationDate:  yesterday,
			CreatedBy:     IdentityRef{DisplayName: "Charlie Davis", UniqueName: "charlie@fabrikam.com"},
		},
	}
}

// MockClientOption allows configuring the mock client
type MockClientOption func(*MockClient)

// WithPullRequests sets specific pull requests to return
func WithPullRequests(prs []PullRequest) MockClientOption {
	return func(m *MockClient) {
		m.PullRequests = prs
	}
}

// WithWorkItems sets specific work items to return
func WithWorkItems(items []WorkItem) MockClientOption {
	return func(m *MockClient) {
		m.WorkItems = items
	}
}

// WithError makes the client return a specific error
func WithError(err error) MockClientOption {
	return func(m *MockClient) {
		m.Error = err
	}
}

// WithAuthFailure makes the client simulate authentication failure
func WithAuthFailure() MockClientOption {
	return func(m *MockClient) {
		m.ShouldFailAuth = true
	}
}

// NewMockClientWithOptions creates a mock client with options
func NewMockClientWithOptions(opts ...MockClientOption) *MockClient {
	mock := NewMockClient()
	for _, opt := range opts {
		opt(mock)
	}
	return mock
}
