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
	"net/url"
	"strconv"
)

// ListPullRequests retrieves pull requests from the repository, paging with
// $top/$skip until a page comes back short. The repository may be given by
// name or ID. A repository with no matching pull requests yields an empty,
// non-nil slice.
func (c *RESTClient) ListPullRequests(ctx context.Context, project, repository string, opts PullRequestOptions) ([]PullRequest, error) {
	top := opts.PageSize
	if top <= 0 {
		top = defaultPageSize
	}
	if top > maxPageSize {
		top = maxPageSize
	}

	status := opts.Status
	if status == "" {
		status = "all"
	}

	pullRequests := []PullRequest{}
	for skip := 0; ; skip += top {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		params := url.Values{}
		params.Set("searchCriteria.status", status)
		if opts.TargetRefName != "" {
			params.Set("searchCriteria.targetRefName", opts.TargetRefName)
		}
		if opts.SourceRefName != "" {
			params.Set("searchCriteria.sourceRefName", opts.SourceRefName)
		}
		params.Set("$top", strconv.Itoa(top))
		params.Set("$skip", strconv.Itoa(skip))

		endpoint := c.urls.Build(project,
			[]string{"git", "repositories", repository, "pullrequests"}, params)

		var page pullRequestList
		if err := c.exec.Get(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		pullRequests = append(pullRequests, page.Value...)

		// A short page means the result set is exhausted.
		if len(page.Value) < top {
			return pullRequests, nil
		}
	}
}

// PageRequestCount returns the number of list calls ListPullRequests issues
// to fetch n records: one per full page plus the short or empty page that
// terminates the loop. The page size is clamped the same way the fetch
// clamps it.
func PageRequestCount(n, pageSize int) int {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return n/pageSize + 1
}

// GetIterations retrieves the iterations of a pull request. Each push to the
// source branch produces a new iteration.
func (c *RESTClient) GetIterations(ctx context.Context, project, repository string, pullRequestID int) ([]Iteration, error) {
	endpoint := c.urls.Build(project, []string{
		"git", "repositories", repository,
		"pullrequests", strconv.Itoa(pullRequestID), "iterations",
	}, nil)

	var page iterationList
	if err := c.exec.Get(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return page.Value, nil
}

// GetThreads retrieves the comment threads of a pull request, including
// system threads recording vote and status changes.
func (c *RESTClient) GetThreads(ctx context.Context, project, repository string, pullRequestID int) ([]Thread, error) {
	endpoint := c.urls.Build(project, []string{
		"git", "repositories", repository,
		"pullrequests", strconv.Itoa(pullRequestID), "threads",
	}, nil)

	var page threadList
	if err := c.exec.Get(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return page.Value, nil
}

// ListRepositories retrieves the Git repositories of a project.
func (c *RESTClient) ListRepositories(ctx context.Context, project string) ([]GitRepository, error) {
	endpoint := c.urls.Build(project, []string{"git", "repositories"}, nil)

	var page repositoryList
	if err := c.exec.Get(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return page.Value, nil
}
