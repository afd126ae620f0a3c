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
	"strings"
)

// QueryWorkItems executes a WIQL query and returns the full records of every
// matching work item. Flat queries report matches under workItems; tree and
// one-hop queries report them as workItemRelations edges, where the source
// is absent on root entries. IDs are extracted from whichever shape the
// service returned, deduplicated preserving first-seen order, and resolved
// in batches, applying opts to every batch read. An empty result yields an
// empty slice, not an error.
func (c *RESTClient) QueryWorkItems(ctx context.Context, project, wiql string, opts WorkItemOptions) ([]WorkItem, error) {
	endpoint := c.urls.Build(project, []string{"wit", "wiql"}, nil)

	var resp WiqlResponse
	if err := c.exec.Post(ctx, endpoint, WiqlRequest{Query: wiql}, &resp); err != nil {
		return nil, err
	}

	ids := extractWorkItemIDs(&resp)
	if len(ids) == 0 {
		return []WorkItem{}, nil
	}

	return c.GetWorkItems(ctx, project, ids, opts)
}

// GetWorkItems fetches full work item records for the given IDs in batches
// of at most 200 per call, the service's limit. Results are aggregated in
// the order the IDs were supplied.
func (c *RESTClient) GetWorkItems(ctx context.Context, project string, ids []int, opts WorkItemOptions) ([]WorkItem, error) {
	items := make([]WorkItem, 0, len(ids))

	for start := 0; start < len(ids); start += maxBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + maxBatchSize
		if end > len(ids) {
			end = len(ids)
		}

		params := url.Values{}
		params.Set("ids", joinIDs(ids[start:end]))
		if len(opts.Fields) > 0 {
			params.Set("fields", strings.Join(opts.Fields, ","))
		}
		if opts.Expand != "" {
			params.Set("$expand", opts.Expand)
		}

		endpoint := c.urls.Build(project, []string{"wit", "workitems"}, params)

		var page workItemList
		if err := c.exec.Get(ctx, endpoint, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Value...)
	}

	return items, nil
}

// extractWorkItemIDs pulls the matched work item IDs out of a WIQL result,
// handling both result shapes. Hierarchical results list each parent once
// per child edge, so IDs are deduplicated preserving first-seen order.
func extractWorkItemIDs(resp *WiqlResponse) []int {
	seen := make(map[int]bool)
	var ids []int

	add := func(id int) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if resp.QueryResultType == "workItemLinks" || len(resp.WorkItemLinks) > 0 {
		for _, link := range resp.WorkItemLinks {
			if link.Source != nil {
				add(link.Source.ID)
			}
			if link.Target != nil {
				add(link.Target.ID)
			}
		}
		return ids
	}

	for _, ref := range resp.WorkItems {
		add(ref.ID)
	}
	return ids
}

// BatchRequestCount returns the number of batch calls GetWorkItems issues
// to fetch n IDs at the 200-ID service limit. Zero IDs issue no calls.
func BatchRequestCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + maxBatchSize - 1) / maxBatchSize
}

// joinIDs renders a comma-separated ID list for the ids query parameter.
func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
