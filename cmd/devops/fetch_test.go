package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sirseerhq/sirseer-devops/internal/azdo"
	"github.com/sirseerhq/sirseer-devops/internal/config"
	deverrors "github.com/sirseerhq/sirseer-devops/internal/errors"
	"github.com/sirseerhq/sirseer-devops/internal/metadata"
	"github.com/sirseerhq/sirseer-devops/internal/output"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		input       string
		wantProject string
		wantRepo    string
		wantErr     bool
	}{
		{
			input:       "Fabrikam-Fiber/web",
			wantProject: "Fabrikam-Fiber",
			wantRepo:    "web",
			wantErr:     false,
		},
		{
			input:       "Fiber/docs",
			wantProject: "Fiber",
			wantRepo:    "docs",
			wantErr:     false,
		},
		{
			input:   "invalid",
			wantErr: true,
		},
		{
			input:   "too/many/slashes",
			wantErr: true,
		},
		{
			input:   "/repo",
			wantErr: true,
		},
		{
			input:   "project/",
			wantErr: true,
		},
		{
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		project, repo, err := parseTarget(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseTarget(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr {
			if project != tt.wantProject {
				t.Errorf("parseTarget(%q) project = %q, want %q", tt.input, project, tt.wantProject)
			}
			if repo != tt.wantRepo {
				t.Errorf("parseTarget(%q) repo = %q, want %q", tt.input, repo, tt.wantRepo)
			}
		}
	}
}

func TestParseDate(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		input   string
		wantErr bool
		check   func(time.Time) bool
	}{
		{
			input:   "2024-01-15",
			wantErr: false,
			check: func(t time.Time) bool {
				return t.Year() == 2024 && t.Month() == 1 && t.Day() == 15
			},
		},
		{
			input:   "2024-01-15T10:30:00Z",
			wantErr: false,
			check: func(t time.Time) bool {
				return t.Year() == 2024 && t.Month() == 1 && t.Day() == 15 &&
					t.Hour() == 10 && t.Minute() == 30
			},
		},
		{
			input:   "1d",
			wantErr: false,
			check: func(t time.Time) bool {
				// Should be approximately 24 hours ago
				diff := now.Sub(t)
				return diff >= 23*time.Hour && diff <= 25*time.Hour
			},
		},
		{
			input:   "2w",
			wantErr: false,
			check: func(t time.Time) bool {
				diff := now.Sub(t)
				return diff >= 13*24*time.Hour && diff <= 15*24*time.Hour
			},
		},
		{
			input:   "12h",
			wantErr: false,
			check: func(t time.Time) bool {
				diff := now.Sub(t)
				return diff >= 11*time.Hour && diff <= 13*time.Hour
			},
		},
		{
			input:   "invalid",
			wantErr: true,
		},
		{
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		got, err := parseDate(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && tt.check != nil {
			if !tt.check(got) {
				t.Errorf("parseDate(%q) = %v, failed check", tt.input, got)
			}
		}
	}
}

func TestGetToken(t *testing.T) {
	tests := []struct {
		name      string
		flagToken string
		envVar    string
		envValue  string
		want      string
	}{
		{
			name:      "flag takes precedence",
			flagToken: "flag-token",
			envVar:    "AZDO_TOKEN",
			envValue:  "env-token",
			want:      "flag-token",
		},
		{
			name:      "env var fallback",
			flagToken: "",
			envVar:    "AZDO_TOKEN",
			envValue:  "env-token",
			want:      "env-token",
		},
		{
			name:      "custom env var",
			flagToken: "",
			envVar:    "CUSTOM_TOKEN",
			envValue:  "custom-token",
			want:      "custom-token",
		},
		{
			name:      "no token",
			flagToken: "",
			envVar:    "NONEXISTENT_TOKEN_VAR",
			envValue:  "",
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envVar, tt.envValue)
			got := getToken(tt.flagToken, tt.envVar)
			if got != tt.want {
				t.Errorf("getToken(%q, %q) = %q, want %q", tt.flagToken, tt.envVar, got, tt.want)
			}
		})
	}
}

func TestMapErrorToExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			name:     "nil error",
			err:      nil,
			wantCode: 0,
		},
		{
			name:     "general error",
			err:      os.ErrClosed,
			wantCode: 1,
		},
		{
			name:     "invalid token",
			err:      deverrors.ErrInvalidToken,
			wantCode: 2,
		},
		{
			name:     "project not found",
			err:      deverrors.ErrProjectNotFound,
			wantCode: 2,
		},
		{
			name:     "invalid query",
			err:      deverrors.ErrInvalidQuery,
			wantCode: 2,
		},
		{
			name:     "rate limit",
			err:      deverrors.ErrRateLimit,
			wantCode: 2,
		},
		{
			name:     "network failure",
			err:      deverrors.ErrNetworkFailure,
			wantCode: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapErrorToExitCode(tt.err)
			if got != tt.wantCode {
				t.Errorf("mapErrorToExitCode(%v) = %d, want %d", tt.err, got, tt.wantCode)
			}
		})
	}
}

// newTestEnv builds a fetchEnv wired to a mock client and an in-memory
// writer. State and metadata land under temporary directories.
func newTestEnv(t *testing.T, mock azdo.Client) (*fetchEnv, *bytes.Buffer) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cfg := config.DefaultConfig()
	cfg.AzureDevOps.Organization = "fabrikam"
	cfg.Defaults.StateDir = t.TempDir()

	var buf bytes.Buffer
	return &fetchEnv{
		cfg:     cfg,
		client:  mock,
		writer:  output.NewWriter(&buf),
		org:     "fabrikam",
		tracker: metadata.New(),
	}, &buf
}

func TestRunFetchPRs(t *testing.T) {
	mock := azdo.NewMockClient()
	env, buf := newTestEnv(t, mock)

	err := runFetchPRs(context.Background(), env, "Fiber", "web", &prFlags{status: "all"})
	if err != nil {
		t.Fatalf("runFetchPRs() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines of NDJSON, got %d", len(lines))
	}

	var pr azdo.PullRequest
	if err := json.Unmarshal([]byte(lines[0]), &pr); err != nil {
		t.Fatalf("failed to parse first line as JSON: %v", err)
	}
	if pr.PullRequestID == 0 {
		t.Error("expected PR to have an ID")
	}

	if mock.LastProject != "Fiber" {
		t.Errorf("LastProject = %q, want %q", mock.LastProject, "Fiber")
	}
	if mock.LastRepository != "web" {
		t.Errorf("LastRepository = %q, want %q", mock.LastRepository, "web")
	}
}

func TestRunFetchPRs_WithIterationsAndThreads(t *testing.T) {
	mock := azdo.NewMockClient()
	mock.PullRequests = mock.PullRequests[:1]
	mock.Iterations = []azdo.Iteration{{ID: 1, Description: "first push"}}
	mock.Threads = []azdo.Thread{{ID: 10, Status: "active"}}
	env, buf := newTestEnv(t, mock)

	err := runFetchPRs(context.Background(), env, "Fiber", "web", &prFlags{
		status:     "all",
		iterations: true,
		threads:    true,
	})
	if err != nil {
		t.Fatalf("runFetchPRs() error = %v", err)
	}

	var record struct {
		azdo.PullRequest
		Iterations []azdo.Iteration `json:"iterations"`
		Threads    []azdo.Thread    `json:"threads"`
	}
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("failed to parse record: %v", err)
	}
	if len(record.Iterations) != 1 {
		t.Errorf("got %d iterations, want 1", len(record.Iterations))
	}
	if len(record.Threads) != 1 {
		t.Errorf("got %d threads, want 1", len(record.Threads))
	}
}

func TestRunFetchPRs_SinceFilter(t *testing.T) {
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Now().UTC().Add(-time.Hour)
	mock := azdo.NewMockClientWithOptions(azdo.WithPullRequests([]azdo.PullRequest{
		{PullRequestID: 1, Title: "old", CreationDate: old},
		{PullRequestID: 2, Title: "recent", CreationDate: recent},
	}))
	env, buf := newTestEnv(t, mock)

	err := runFetchPRs(context.Background(), env, "Fiber", "web", &prFlags{
		status: "all",
		since:  "7d",
	})
	if err != nil {
		t.Fatalf("runFetchPRs() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"recent"`) {
		t.Errorf("expected only the recent PR, got %s", lines[0])
	}
}

func TestRunFetchPRs_AuthFailure(t *testing.T) {
	mock := azdo.NewMockClientWithOptions(azdo.WithAuthFailure())
	env, _ := newTestEnv(t, mock)

	err := runFetchPRs(context.Background(), env, "Fiber", "web", &prFlags{status: "all"})
	if !errors.Is(err, deverrors.ErrInvalidToken) {
		t.Fatalf("error = %v, want wrapped ErrInvalidToken", err)
	}
}

func TestRunFetchPRs_ProjectNotFound(t *testing.T) {
	mock := azdo.NewMockClient()
	env, _ := newTestEnv(t, mock)

	err := runFetchPRs(context.Background(), env, "nonexistent", "web", &prFlags{status: "all"})
	if !errors.Is(err, deverrors.ErrProjectNotFound) {
		t.Fatalf("error = %v, want wrapped ErrProjectNotFound", err)
	}
}

func TestRunFetchWorkItems(t *testing.T) {
	mock := azdo.NewMockClient()
	env, buf := newTestEnv(t, mock)

	err := runFetchWorkItems(context.Background(), env, "Fiber", &workItemFlags{})
	if err != nil {
		t.Fatalf("runFetchWorkItems() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines of NDJSON, got %d", len(lines))
	}

	var item azdo.WorkItem
	if err := json.Unmarshal([]byte(lines[0]), &item); err != nil {
		t.Fatalf("failed to parse work item: %v", err)
	}
	if item.ID == 0 {
		t.Error("expected work item to have an ID")
	}

	// Default query is used when --wiql is omitted
	if mock.LastQuery != defaultWiql {
		t.Errorf("LastQuery = %q, want default query", mock.LastQuery)
	}
}

func TestRunFetchWorkItems_CustomWiql(t *testing.T) {
	mock := azdo.NewMockClient()
	env, _ := newTestEnv(t, mock)

	wiql := "SELECT [System.Id] FROM WorkItems WHERE [System.State] = 'Active'"
	err := runFetchWorkItems(context.Background(), env, "Fiber", &workItemFlags{wiql: wiql})
	if err != nil {
		t.Fatalf("runFetchWorkItems() error = %v", err)
	}

	if mock.LastQuery != wiql {
		t.Errorf("LastQuery = %q, want %q", mock.LastQuery, wiql)
	}
}

func TestRunFetchWorkItems_FieldsAndExpand(t *testing.T) {
	mock := azdo.NewMockClient()
	env, _ := newTestEnv(t, mock)

	flags := &workItemFlags{
		fields: []string{"System.Id", "System.Title"},
		expand: "relations",
	}
	if err := runFetchWorkItems(context.Background(), env, "Fiber", flags); err != nil {
		t.Fatalf("runFetchWorkItems() error = %v", err)
	}

	// --fields and --expand must reach the client unchanged.
	got := mock.LastWorkItemOpts
	if len(got.Fields) != 2 || got.Fields[0] != "System.Id" || got.Fields[1] != "System.Title" {
		t.Errorf("LastWorkItemOpts.Fields = %v, want [System.Id System.Title]", got.Fields)
	}
	if got.Expand != "relations" {
		t.Errorf("LastWorkItemOpts.Expand = %q, want %q", got.Expand, "relations")
	}
}

func TestRunFetchPRs_Incremental(t *testing.T) {
	now := time.Now()
	existing := []azdo.PullRequest{
		{PullRequestID: 1, Title: "one", Status: "completed", CreationDate: now.Add(-3 * time.Hour)},
		{PullRequestID: 2, Title: "two", Status: "active", CreationDate: now.Add(-2 * time.Hour)},
	}

	mock := azdo.NewMockClientWithOptions(azdo.WithPullRequests(existing))
	env, buf := newTestEnv(t, mock)

	if err := runFetchPRs(context.Background(), env, "Fiber", "web", &prFlags{}); err != nil {
		t.Fatalf("runFetchPRs() error = %v", err)
	}
	if lines := strings.Split(strings.TrimSpace(buf.String()), "\n"); len(lines) != 2 {
		t.Fatalf("expected 2 lines from the full fetch, got %d", len(lines))
	}

	// The next fetch sees one new PR on top of the old ones and must write
	// only that one.
	updated := append(existing, azdo.PullRequest{
		PullRequestID: 3, Title: "three", Status: "active", CreationDate: now.Add(-time.Hour),
	})
	mock2 := azdo.NewMockClientWithOptions(azdo.WithPullRequests(updated))

	var buf2 bytes.Buffer
	env2 := &fetchEnv{
		cfg:     env.cfg,
		client:  mock2,
		writer:  output.NewWriter(&buf2),
		org:     "fabrikam",
		tracker: metadata.New(),
	}

	if err := runFetchPRs(context.Background(), env2, "Fiber", "web", &prFlags{incremental: true}); err != nil {
		t.Fatalf("incremental runFetchPRs() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf2.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line from the incremental fetch, got %d: %q", len(lines), buf2.String())
	}
	if !strings.Contains(lines[0], `"three"`) {
		t.Errorf("incremental output should carry the new PR, got: %s", lines[0])
	}
}

func TestRunFetchPRs_IncrementalWithoutState(t *testing.T) {
	mock := azdo.NewMockClient()
	env, _ := newTestEnv(t, mock)

	err := runFetchPRs(context.Background(), env, "Fiber", "web", &prFlags{incremental: true})
	if err == nil {
		t.Fatal("expected error when no previous fetch state exists")
	}
	if !strings.Contains(err.Error(), "full fetch") {
		t.Errorf("error should point at running a full fetch first, got: %v", err)
	}
}
