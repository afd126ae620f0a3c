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
	"fmt"
	"net/url"
	"strings"
)

// APIVersion is the Azure DevOps REST API version requested on every call.
const APIVersion = "7.1"

// DefaultHost is the hosted service endpoint. Organization names are
// appended as the first path segment.
const DefaultHost = "https://dev.azure.com"

// URLBuilder composes versioned REST endpoint URLs from an organization
// base, an optional project, resource path segments, and query parameters.
// The api-version parameter is appended to every URL exactly once.
type URLBuilder struct {
	base string
}

// NewURLBuilder creates a builder for the hosted service:
// https://dev.azure.com/{organization}.
func NewURLBuilder(organization string) *URLBuilder {
	return &URLBuilder{
		base: fmt.Sprintf("%s/%s", DefaultHost, url.PathEscape(organization)),
	}
}

// NewURLBuilderWithEndpoint creates a builder rooted at a custom collection
// URL, e.g. an Azure DevOps Server install. Trailing slashes are stripped.
func NewURLBuilderWithEndpoint(endpoint string) *URLBuilder {
	return &URLBuilder{base: strings.TrimRight(endpoint, "/")}
}

// Build composes {base}/{project}/_apis/{segments...}?{params}&api-version=7.1.
// An empty project yields an organization-level URL ({base}/_apis/...).
// Segments and parameter values are URL-escaped; params may be nil.
func (b *URLBuilder) Build(project string, segments []string, params url.Values) string {
	var sb strings.Builder
	sb.WriteString(b.base)
	if project != "" {
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(project))
	}
	sb.WriteString("/_apis")
	for _, seg := range segments {
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(seg))
	}

	query := url.Values{}
	for key, values := range params {
		query[key] = values
	}
	query.Set("api-version", APIVersion)

	sb.WriteByte('?')
	sb.WriteString(query.Encode())
	return sb.String()
}

// Base returns the organization base URL without any path suffix.
func (b *URLBuilder) Base() string {
	return b.base
}
