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

// Package main implements the sirseer-devops command-line interface.
// This tool fetches pull request and work item data from Azure DevOps
// organizations and outputs it in NDJSON format for efficient streaming
// and processing.
//
// The CLI supports:
//   - Fetching pull requests with status and branch filters
//   - Fetching work items selected by a WIQL query
//   - Listing Git repositories in a project
//   - Incremental pull request fetches resumed from saved state
//   - Customizable output destinations (stdout or file)
//   - Personal access token authentication via flag or environment variable
//   - Graceful error handling with appropriate exit codes
//
// Usage:
//
//	sirseer-devops fetch prs <project>/<repo> [flags]
//	sirseer-devops fetch workitems <project> [flags]
//	sirseer-devops fetch repos <project> [flags]
//
// Example:
//
//	export AZDO_TOKEN=your_token
//	sirseer-devops fetch prs Fabrikam-Fiber/web --org fabrikam --output prs.ndjson
//
// Exit codes:
//   - 0: Success
//   - 1: General error
//   - 2: Authentication, authorization, or query error
//   - 3: Network error
package main
