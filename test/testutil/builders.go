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
	"fmt"
	"time"
)

// PullRequestBuilder provides a fluent API for creating test pull requests
type PullRequestBuilder struct {
	id            int
	title         string
	description   string
	status        string
	creator       string
	creationDate  time.Time
	closedDate    *time.Time
	sourceRefName string
	targetRefName string
	mergeStatus   string
	isDraft       bool
	reviewers     []string
}

// NewPullRequestBuilder creates a new pull request builder with defaults
func NewPullRequestBuilder(id int) *PullRequestBuilder {
	now := time.Now()
	return &PullRequestBuilder{
		id:            id,
		title:         fmt.Sprintf("PR %d", id),
		description:   fmt.Sprintf("This is the description of PR %d", id),
		status:        "active",
		creator:       fmt.Sprintf("user%d", id),
		creationDate:  now.AddDate(0, 0, -id),
		sourceRefName: fmt.Sprintf("refs/heads/feature-%d", id),
		targetRefName: "refs/heads/main",
		mergeStatus:   "succeeded",
	}
}

// WithTitle sets the pull request title
func (b *PullRequestBuilder) WithTitle(title string) *PullRequestBuilder {
	b.title = title
	return b
}

// WithDescription sets the pull request description
func (b *PullRequestBuilder) WithDescription(description string) *PullRequestBuilder {
	b.description = description
	return b
}

// WithStatus sets the pull request status (active, completed, abandoned)
func (b *PullRequestBuilder) WithStatus(status string) *PullRequestBuilder {
	b.status = status
	return b
}

// WithCreatedBy sets the unique name of the author
func (b *PullRequestBuilder) WithCreatedBy(uniqueName string) *PullRequestBuilder {
	b.creator = uniqueName
	return b
}

// WithCreationDate sets when the pull request was created
func (b *PullRequestBuilder) WithCreationDate(t time.Time) *PullRequestBuilder {
	b.creationDate = t
	return b
}

// WithClosedDate marks the pull request as closed at the given time
func (b *PullRequestBuilder) WithClosedDate(t time.Time) *PullRequestBuilder {
	b.closedDate = &t
	if b.status == "active" {
		b.status = "completed"
	}
	return b
}

// WithBranches sets the source and target ref names
func (b *PullRequestBuilder) WithBranches(source, target string) *PullRequestBuilder {
	b.sourceRefName = source
	b.targetRefName = target
	return b
}

// WithMergeStatus sets the merge status
func (b *PullRequestBuilder) WithMergeStatus(status string) *PullRequestBuilder {
	b.mergeStatus = status
	return b
}

// AsDraft marks the pull request as a draft
func (b *PullRequestBuilder) AsDraft() *PullRequestBuilder {
	b.isDraft = true
	return b
}

// WithReviewers adds reviewers to the pull request
func (b *PullRequestBuilder) WithReviewers(reviewers ...string) *PullRequestBuilder {
	b.reviewers = reviewers
	return b
}

// Build creates the pull request wire representation
func (b *PullRequestBuilder) Build() map[string]interface{} {
	reviewers := make([]map[string]interface{}, len(b.reviewers))
	for i, reviewer := range b.reviewers {
		reviewers[i] = map[string]interface{}{
			"displayName": reviewer,
			"uniqueName":  reviewer + "@fabrikam.com",
			"vote":        0,
		}
	}

	pr := map[string]interface{}{
		"pullRequestId": b.id,
		"codeReviewId":  b.id,
		"status":        b.status,
		"title":         b.title,
		"description":   b.description,
		"sourceRefName": b.sourceRefName,
		"targetRefName": b.targetRefName,
		"mergeStatus":   b.mergeStatus,
		"isDraft":       b.isDraft,
		"creationDate":  b.creationDate.Format(time.RFC3339),
		"createdBy": map[string]interface{}{
			"id":          fmt.Sprintf("00000000-0000-0000-0000-%012d", b.id),
			"displayName": b.creator,
			"uniqueName":  b.creator + "@fabrikam.com",
		},
		"reviewers": reviewers,
		"url":       fmt.Sprintf("https://dev.azure.com/fabrikam/_apis/git/repositories/repo/pullRequests/%d", b.id),
	}

	if b.closedDate != nil {
		pr["closedDate"] = b.closedDate.Format(time.RFC3339)
	}

	return pr
}

// WorkItemBuilder provides a fluent API for creating test work items
type WorkItemBuilder struct {
	id     int
	rev    int
	fields map[string]interface{}
}

// NewWorkItemBuilder creates a new work item builder with defaults
func NewWorkItemBuilder(id int) *WorkItemBuilder {
	return &WorkItemBuilder{
		id:  id,
		rev: 1,
		fields: map[string]interface{}{
			"System.Id":           id,
			"System.Title":        fmt.Sprintf("Work item %d", id),
			"System.State":        "Active",
			"System.WorkItemType": "Task",
			"System.ChangedDate":  time.Now().AddDate(0, 0, -id).Format(time.RFC3339),
		},
	}
}

// WithTitle sets the work item title
func (b *WorkItemBuilder) WithTitle(title string) *WorkItemBuilder {
	b.fields["System.Title"] = title
	return b
}

// WithState sets the work item state
func (b *WorkItemBuilder) WithState(state string) *WorkItemBuilder {
	b.fields["System.State"] = state
	return b
}

// WithType sets the work item type
func (b *WorkItemBuilder) WithType(workItemType string) *WorkItemBuilder {
	b.fields["System.WorkItemType"] = workItemType
	return b
}

// WithRev sets the work item revision
func (b *WorkItemBuilder) WithRev(rev int) *WorkItemBuilder {
	b.rev = rev
	return b
}

// WithField sets an arbitrary field by reference name
func (b *WorkItemBuilder) WithField(name string, value interface{}) *WorkItemBuilder {
	b.fields[name] = value
	return b
}

// Build creates the work item wire representation
func (b *WorkItemBuilder) Build() map[string]interface{} {
	fields := make(map[string]interface{}, len(b.fields))
	for k, v := range b.fields {
		fields[k] = v
	}

	return map[string]interface{}{
		"id":     b.id,
		"rev":    b.rev,
		"fields": fields,
		"url":    fmt.Sprintf("https://dev.azure.com/fabrikam/_apis/wit/workItems/%d", b.id),
	}
}

// WiqlResponseBuilder builds WIQL query responses in either result shape
type WiqlResponseBuilder struct {
	flatIDs []int
	links   []map[string]interface{}
}

// NewWiqlResponseBuilder creates a new WIQL response builder
func NewWiqlResponseBuilder() *WiqlResponseBuilder {
	return &WiqlResponseBuilder{}
}

// WithWorkItems adds flat result references for the given IDs
func (b *WiqlResponseBuilder) WithWorkItems(ids ...int) *WiqlResponseBuilder {
	b.flatIDs = append(b.flatIDs, ids...)
	return b
}

// WithLink adds a hierarchy edge. A sourceID of 0 produces a root entry
// with a null source, the way the service reports tree roots
func (b *WiqlResponseBuilder) WithLink(sourceID, targetID int) *WiqlResponseBuilder {
	link := map[string]interface{}{
		"rel": "System.LinkTypes.Hierarchy-Forward",
		"target": map[string]interface{}{
			"id":  targetID,
			"url": fmt.Sprintf("https://dev.azure.com/fabrikam/_apis/wit/workItems/%d", targetID),
		},
	}
	if sourceID == 0 {
		link["rel"] = nil
		link["source"] = nil
	} else {
		link["source"] = map[string]interface{}{
			"id":  sourceID,
			"url": fmt.Sprintf("https://dev.azure.com/fabrikam/_apis/wit/workItems/%d", sourceID),
		}
	}
	b.links = append(b.links, link)
	return b
}

// Build creates the WIQL response. Link edges take precedence: if any were
// added the response takes the tree shape, otherwise the flat shape
func (b *WiqlResponseBuilder) Build() map[string]interface{} {
	if len(b.links) > 0 {
		return map[string]interface{}{
			"queryType":         "tree",
			"queryResultType":   "workItemLinks",
			"asOf":              time.Now().Format(time.RFC3339),
			"workItemRelations": b.links,
		}
	}

	refs := make([]map[string]interface{}, len(b.flatIDs))
	for i, id := range b.flatIDs {
		refs[i] = map[string]interface{}{
			"id":  id,
			"url": fmt.Sprintf("https://dev.azure.com/fabrikam/_apis/wit/workItems/%d", id),
		}
	}

	return map[string]interface{}{
		"queryType":       "flat",
		"queryResultType": "workItems",
		"asOf":            time.Now().Format(time.RFC3339),
		"workItems":       refs,
	}
}
