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

package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirseerhq/sirseer-devops/internal/azdo"
	"github.com/sirseerhq/sirseer-devops/test/testutil"
)

// TestFullRepositoryFetch pages every pull request out of a repository and
// verifies the request count tracks the $top/$skip window
func TestFullRepositoryFetch(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}

	tests := []struct {
		name         string
		totalPRs     int
		pageSize     int
		wantRequests int // Expected number of API requests
	}{
		{
			name:         "small repository",
			totalPRs:     5,
			pageSize:     10,
			wantRequests: 1,
		},
		{
			name:         "exact page boundary",
			totalPRs:     20,
			pageSize:     10,
			wantRequests: 3, // 2 full pages + 1 empty page confirming the end
		},
		{
			name:         "large repository",
			totalPRs:     157,
			pageSize:     25,
			wantRequests: 7, // 6 full pages + 1 partial
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewDevOpsMockServer(t)
			defer server.Close()
			server.TotalPRs = tt.totalPRs

			client := azdo.NewRESTClientWith(
				azdo.NewURLBuilderWithEndpoint(server.URL),
				azdo.NewExecutor("test-token"),
			)

			prs, err := client.ListPullRequests(context.Background(), "fleet", "repo",
				azdo.PullRequestOptions{PageSize: tt.pageSize})
			testutil.AssertNoError(t, err)

			if len(prs) != tt.totalPRs {
				t.Errorf("Expected %d PRs, got %d", tt.totalPRs, len(prs))
			}

			// Results must come back in ID order with no gaps.
			for i, pr := range prs {
				if pr.PullRequestID != i+1 {
					t.Fatalf("PR at index %d has ID %d", i, pr.PullRequestID)
				}
			}

			history := server.GetRequestHistory()
			if len(history) != tt.wantRequests {
				t.Errorf("Expected %d API requests, got %d", tt.wantRequests, len(history))
			}
			for _, req := range history {
				if !strings.HasSuffix(req.Path, "/pullrequests") {
					t.Errorf("Unexpected request path: %s", req.Path)
				}
				if got := req.Query.Get("api-version"); got != "7.1" {
					t.Errorf("Expected api-version 7.1, got %q", got)
				}
			}
		})
	}
}

// TestFullFetchCLI drives the built binary end to end against a mock
// collection endpoint and checks the NDJSON output, metadata, and state
func TestFullFetchCLI(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}

	server := testutil.NewDevOpsMockServer(t)
	defer server.Close()
	server.TotalPRs = 42

	home := testutil.CreateTempDir(t, "full-fetch-cli")
	outputFile := filepath.Join(home, "output.ndjson")

	result := testutil.RunCLI(t,
		[]string{"fetch", "prs", "fleet/repo", "--output", outputFile},
		map[string]string{
			"HOME":              home,
			"AZDO_TOKEN":        "test-token",
			"AZDO_ORGANIZATION": "fabrikam",
			"AZDO_ENDPOINT":     server.URL,
		})

	testutil.AssertCLISuccess(t, result)
	testutil.AssertExitCode(t, result, 0)
	testutil.AssertNDJSONOutput(t, outputFile, 42)

	stateDir := filepath.Join(home, ".sirseer", "state")
	testutil.AssertMetadataFile(t, stateDir)
	testutil.AssertFileExists(t, filepath.Join(stateDir, "fabrikam-fleet-repo.state"))
}

// TestFullFetchCLI_WorkItems runs a WIQL-driven work item fetch through the
// binary and verifies each record carries its fields map
func TestFullFetchCLI_WorkItems(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}

	server := testutil.NewDevOpsMockServer(t)
	defer server.Close()
	server.WorkItemIDs = []int{11, 12, 13}

	home := testutil.CreateTempDir(t, "workitems-cli")
	outputFile := filepath.Join(home, "items.ndjson")

	result := testutil.RunCLI(t,
		[]string{"fetch", "workitems", "fleet", "--output", outputFile},
		map[string]string{
			"HOME":              home,
			"AZDO_TOKEN":        "test-token",
			"AZDO_ORGANIZATION": "fabrikam",
			"AZDO_ENDPOINT":     server.URL,
		})

	testutil.AssertCLISuccess(t, result)

	data, err := os.ReadFile(outputFile)
	testutil.AssertNoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 work items, got %d lines", len(lines))
	}
	for _, line := range lines {
		testutil.AssertContainsString(t, line, `"fields"`)
		testutil.AssertContainsString(t, line, "System.Title")
	}
}
