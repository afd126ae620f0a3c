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

// Package output provides utilities for writing fetched Azure DevOps records
// in NDJSON (Newline Delimited JSON) format. Each line contains one complete
// JSON object, so pull requests and work items can be streamed to disk as
// they arrive from the API without accumulating in memory.
//
// The primary type is Writer, which provides thread-safe writing of JSON
// records to an io.Writer or file.
//
// Example usage:
//
//	// Write to a file
//	w, err := output.NewFileWriter("pullrequests.ndjson")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	// Write records as pages arrive
//	for _, pr := range page {
//	    if err := w.Write(pr); err != nil {
//	        log.Printf("Failed to write record: %v", err)
//	    }
//	}
//
//	fmt.Printf("Wrote %d records\n", w.Count())
package output
