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

// Package azdo provides a client for the Azure DevOps REST API to fetch
// work item and pull request data. It abstracts endpoint construction,
// request execution, and response deserialization behind a typed interface
// with support for pagination, batching, error handling, and rate limiting.
//
// The package includes:
//   - A Client interface covering work item queries and pull request reads
//   - A REST implementation built on a layered http.RoundTripper stack
//   - A URL builder for versioned _apis endpoints
//   - Mock client for testing
//   - Type definitions for the REST resource shapes
//
// Basic usage:
//
//	client := azdo.NewRESTClient("fabrikam", "your-pat-token")
//	items, err := client.QueryWorkItems(ctx, "Fabrikam-Fiber",
//	    "SELECT [System.Id] FROM WorkItems WHERE [System.State] = 'Active'",
//	    azdo.WorkItemOptions{})
//	if err != nil {
//	    // Handle error
//	}
//	for _, wi := range items {
//	    // Process work item
//	}
package azdo
