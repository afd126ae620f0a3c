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

import "context"

// Client defines the interface for interacting with the Azure DevOps API.
// This interface allows for easy mocking in tests.
type Client interface {
	// QueryWorkItems executes a WIQL query against the project, extracts the
	// matching work item IDs from either a flat or hierarchical result, and
	// fetches the full work item records in batches. opts controls field
	// projection and expansion on the batch reads.
	QueryWorkItems(ctx context.Context, project, wiql string, opts WorkItemOptions) ([]WorkItem, error)

	// GetWorkItems fetches full work item records for the given IDs. IDs are
	// requested in batches of at most 200 per call and results are returned
	// in the order the IDs were supplied.
	GetWorkItems(ctx context.Context, project string, ids []int, opts WorkItemOptions) ([]WorkItem, error)

	// ListPullRequests retrieves pull requests from the specified repository,
	// paging through the result set until it is exhausted.
	ListPullRequests(ctx context.Context, project, repository string, opts PullRequestOptions) ([]PullRequest, error)

	// GetIterations retrieves the iterations (pushed updates) of a pull request.
	GetIterations(ctx context.Context, project, repository string, pullRequestID int) ([]Iteration, error)

	// GetThreads retrieves the comment threads of a pull request.
	GetThreads(ctx context.Context, project, repository string, pullRequestID int) ([]Thread, error)

	// ListRepositories retrieves the Git repositories of a project.
	// Used by the CLI to resolve repository names.
	ListRepositories(ctx context.Context, project string) ([]GitRepository, error)
}

// Executor performs HTTP calls against the Azure DevOps API and deserializes
// JSON responses into typed values. Errors from the executor propagate to
// callers unchanged; the clients never rewrap them.
type Executor interface {
	// Get performs a GET request and decodes the response body into out.
	// Passing a nil out discards the body.
	Get(ctx context.Context, url string, out interface{}) error

	// Post performs a POST request with a JSON-encoded body and decodes the
	// response body into out.
	Post(ctx context.Context, url string, body, out interface{}) error
}
