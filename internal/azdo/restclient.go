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

// RESTClient implements the Client interface against the Azure DevOps REST
// API. It is stateless apart from its configuration: the URL builder holds
// the organization base and the executor holds the credentials. The same
// client can serve any number of projects and repositories concurrently.
type RESTClient struct {
	urls *URLBuilder
	exec Executor
}

// NewRESTClient creates a client for the hosted service organization,
// authenticated with the given personal access token. The executor options
// are passed through to NewExecutor.
func NewRESTClient(organization, token string, opts ...ExecutorOption) *RESTClient {
	return &RESTClient{
		urls: NewURLBuilder(organization),
		exec: NewExecutor(token, opts...),
	}
}

// NewRESTClientWith assembles a client from an explicit URL builder and
// executor. Used for Azure DevOps Server endpoints and in tests.
func NewRESTClientWith(urls *URLBuilder, exec Executor) *RESTClient {
	return &RESTClient{urls: urls, exec: exec}
}
