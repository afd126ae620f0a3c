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

// Package azdo types mirror the Azure DevOps REST resource shapes. Only the
// fields the extraction pipeline consumes are declared; unknown fields are
// ignored during decoding.
package azdo

import "time"

// WiqlRequest is the body of a WIQL query execution request.
type WiqlRequest struct {
	Query string `json:"query"`
}

// WiqlResponse is the result of a WIQL query. Exactly one of WorkItems or
// WorkItemRelations is populated depending on the query shape: flat queries
// return WorkItems, tree and one-hop queries return WorkItemRelations.
type WiqlResponse struct {
	QueryType       string              `json:"queryType"`
	QueryResultType string              `json:"queryResultType"`
	AsOf            time.Time           `json:"asOf"`
	Columns         []FieldReference    `json:"columns,omitempty"`
	WorkItems       []WorkItemReference `json:"workItems,omitempty"`
	WorkItemLinks   []WorkItemLink      `json:"workItemRelations,omitempty"`
}

// FieldReference identifies a work item field selected by a query.
type FieldReference struct {
	Name          string `json:"name"`
	ReferenceName string `json:"referenceName"`
	URL           string `json:"url,omitempty"`
}

// WorkItemReference is a shallow pointer to a work item.
type WorkItemReference struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

// WorkItemLink is one edge of a hierarchical query result. The source is
// absent on root entries.
type WorkItemLink struct {
	Rel    string             `json:"rel"`
	Source *WorkItemReference `json:"source"`
	Target *WorkItemReference `json:"target"`
}

// WorkItem is a full work item record. Fields holds the raw field values
// keyed by reference name (e.g. "System.Title"); values are left untyped
// because the field set varies by process template.
type WorkItem struct {
	ID        int                    `json:"id"`
	Rev       int                    `json:"rev"`
	Fields    map[string]interface{} `json:"fields"`
	Relations []WorkItemRelation     `json:"relations,omitempty"`
	URL       string                 `json:"url"`
}

// WorkItemRelation is a typed link from a work item to another resource.
type WorkItemRelation struct {
	Rel        string                 `json:"rel"`
	URL        string                 `json:"url"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// WorkItemOptions configures how full work item records are fetched.
type WorkItemOptions struct {
	// Fields restricts the returned field set. Leave empty for all fields.
	Fields []string

	// Expand controls expansion of linked resources ("relations", "fields",
	// "links", "all"). Cannot be combined with Fields; the service rejects
	// the request if both are set.
	Expand string
}

// IdentityRef identifies an Azure DevOps user or group.
type IdentityRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName,omitempty"`
	URL         string `json:"url,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// TeamProjectReference is a shallow pointer to a team project.
type TeamProjectReference struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
}

// GitRepository represents a Git repository within a project.
type GitRepository struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	URL           string                `json:"url"`
	DefaultBranch string                `json:"defaultBranch,omitempty"`
	RemoteURL     string                `json:"remoteUrl,omitempty"`
	IsDisabled    bool                  `json:"isDisabled,omitempty"`
	Project       *TeamProjectReference `json:"project,omitempty"`
}

// GitCommitRef is a shallow pointer to a commit.
type GitCommitRef struct {
	CommitID string `json:"commitId"`
	URL      string `json:"url,omitempty"`
}

// PullRequest represents an Azure DevOps pull request with essential metadata.
// This is the core record serialized to NDJSON output.
type PullRequest struct {
	PullRequestID         int            `json:"pullRequestId"`
	CodeReviewID          int            `json:"codeReviewId,omitempty"`
	Status                string         `json:"status"`
	Title                 string         `json:"title"`
	Description           string         `json:"description,omitempty"`
	SourceRefName         string         `json:"sourceRefName"`
	TargetRefName         string         `json:"targetRefName"`
	MergeStatus           string         `json:"mergeStatus,omitempty"`
	IsDraft               bool           `json:"isDraft"`
	CreatedBy             IdentityRef    `json:"createdBy"`
	CreationDate          time.Time      `json:"creationDate"`
	ClosedDate            *time.Time     `json:"closedDate,omitempty"`
	LastMergeSourceCommit *GitCommitRef  `json:"lastMergeSourceCommit,omitempty"`
	LastMergeTargetCommit *GitCommitRef  `json:"lastMergeTargetCommit,omitempty"`
	LastMergeCommit       *GitCommitRef  `json:"lastMergeCommit,omitempty"`
	Reviewers             []Reviewer     `json:"reviewers,omitempty"`
	Repository            *GitRepository `json:"repository,omitempty"`
	URL                   string         `json:"url,omitempty"`
}

// Reviewer is a pull request reviewer with their current vote.
// Vote values: 10 approved, 5 approved with suggestions, 0 no vote,
// -5 waiting for author, -10 rejected.
type Reviewer struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	UniqueName  string `json:"uniqueName,omitempty"`
	Vote        int    `json:"vote"`
	IsRequired  bool   `json:"isRequired,omitempty"`
}

// Iteration is one pushed update of a pull request's source branch.
type Iteration struct {
	ID              int           `json:"id"`
	Description     string        `json:"description,omitempty"`
	Author          IdentityRef   `json:"author"`
	CreatedDate     time.Time     `json:"createdDate"`
	UpdatedDate     time.Time     `json:"updatedDate"`
	SourceRefCommit *GitCommitRef `json:"sourceRefCommit,omitempty"`
	TargetRefCommit *GitCommitRef `json:"targetRefCommit,omitempty"`
	CommonRefCommit *GitCommitRef `json:"commonRefCommit,omitempty"`
}

// Thread is a pull request comment thread.
type Thread struct {
	ID              int            `json:"id"`
	Status          string         `json:"status,omitempty"`
	PublishedDate   time.Time      `json:"publishedDate"`
	LastUpdatedDate time.Time      `json:"lastUpdatedDate"`
	IsDeleted       bool           `json:"isDeleted,omitempty"`
	Comments        []Comment      `json:"comments,omitempty"`
	ThreadContext   *ThreadContext `json:"threadContext,omitempty"`
}

// Comment is a single comment within a thread.
type Comment struct {
	ID              int         `json:"id"`
	ParentCommentID int         `json:"parentCommentId,omitempty"`
	Author          IdentityRef `json:"author"`
	Content         string      `json:"content,omitempty"`
	CommentType     string      `json:"commentType,omitempty"`
	PublishedDate   time.Time   `json:"publishedDate"`
	LastUpdatedDate time.Time   `json:"lastUpdatedDate"`
}

// ThreadContext anchors a thread to a file position in the diff.
type ThreadContext struct {
	FilePath       string           `json:"filePath"`
	RightFileStart *CommentPosition `json:"rightFileStart,omitempty"`
	RightFileEnd   *CommentPosition `json:"rightFileEnd,omitempty"`
	LeftFileStart  *CommentPosition `json:"leftFileStart,omitempty"`
	LeftFileEnd    *CommentPosition `json:"leftFileEnd,omitempty"`
}

// CommentPosition is a 1-based line/column position within a file.
type CommentPosition struct {
	Line   int `json:"line"`
	Offset int `json:"offset"`
}

// PullRequestOptions configures how pull requests are listed.
type PullRequestOptions struct {
	// Status filters by pull request state: "active", "completed",
	// "abandoned", or "all". Defaults to "all".
	Status string

	// TargetRefName filters by target branch, e.g. "refs/heads/main".
	TargetRefName string

	// SourceRefName filters by source branch.
	SourceRefName string

	// PageSize controls how many pull requests to request per page.
	// Defaults to 100. The service caps a single page at 1000.
	PageSize int
}

// Collection envelopes. Every Azure DevOps list endpoint wraps its payload
// in a count/value pair.
type workItemList struct {
	Count int        `json:"count"`
	Value []WorkItem `json:"value"`
}

type pullRequestList struct {
	Count int           `json:"count"`
	Value []PullRequest `json:"value"`
}

type iterationList struct {
	Count int         `json:"count"`
	Value []Iteration `json:"value"`
}

type threadList struct {
	Count int      `json:"count"`
	Value []Thread `json:"value"`
}

type repositoryList struct {
	Count int             `json:"count"`
	Value []GitRepository `json:"value"`
}

// Default values for fetch operations
const (
	// defaultPageSize is the page size used when PullRequestOptions does not
	// specify one.
	defaultPageSize = 100

	// maxPageSize is the largest page the service will serve.
	maxPageSize = 1000

	// maxBatchSize is the largest number of work item IDs accepted by a
	// single workitems call.
	maxBatchSize = 200
)
