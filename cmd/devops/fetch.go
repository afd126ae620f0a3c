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

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/sirseerhq/sirseer-devops/internal/azdo"
	"github.com/sirseerhq/sirseer-devops/internal/config"
	deverrors "github.com/sirseerhq/sirseer-devops/internal/errors"
	"github.com/sirseerhq/sirseer-devops/internal/metadata"
	"github.com/sirseerhq/sirseer-devops/internal/output"
	"github.com/sirseerhq/sirseer-devops/internal/state"
	"github.com/sirseerhq/sirseer-devops/pkg/version"
	"github.com/spf13/cobra"
)

// defaultWiql selects every work item in the target project, newest first.
const defaultWiql = "SELECT [System.Id] FROM WorkItems " +
	"WHERE [System.TeamProject] = @project ORDER BY [System.ChangedDate] DESC"

// fetchFlags holds the flags shared by all fetch subcommands.
type fetchFlags struct {
	org        string
	token      string
	configPath string
	outputFile string
}

// prFlags holds the pull request specific flags.
type prFlags struct {
	status       string
	targetBranch string
	sourceBranch string
	since        string
	pageSize     int
	incremental  bool
	iterations   bool
	threads      bool
}

// workItemFlags holds the work item specific flags.
type workItemFlags struct {
	wiql   string
	fields []string
	expand string
}

func newFetchCommand() *cobra.Command {
	common := &fetchFlags{}

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch data from an Azure DevOps organization",
	}

	cmd.PersistentFlags().StringVar(&common.org, "org", "", "Azure DevOps organization (overrides AZDO_ORGANIZATION)")
	cmd.PersistentFlags().StringVar(&common.token, "token", "", "Personal access token (overrides the token environment variable)")
	cmd.PersistentFlags().StringVar(&common.configPath, "config", "", "Path to a configuration file")
	cmd.PersistentFlags().StringVar(&common.outputFile, "output", "", "Output file path (default: stdout)")

	cmd.AddCommand(newFetchPRsCommand(common))
	cmd.AddCommand(newFetchWorkItemsCommand(common))
	cmd.AddCommand(newFetchReposCommand(common))

	return cmd
}

func newFetchPRsCommand(common *fetchFlags) *cobra.Command {
	flags := &prFlags{}

	cmd := &cobra.Command{
		Use:   "prs <project>/<repo>",
		Short: "Fetch pull requests from a repository",
		Long: `Fetch pull requests from an Azure DevOps Git repository and output
them in NDJSON format.

The target must be specified in the format: <project>/<repo>
For example: Fabrikam-Fiber/web

Authentication requires a personal access token:
  - Use --token flag to provide the token directly
  - Or set the AZDO_TOKEN environment variable`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project, repo, err := parseTarget(args[0])
			if err != nil {
				return err
			}

			env, err := setupFetch(common, project+"/"+repo)
			if err != nil {
				return err
			}
			defer env.writer.Close()

			return runFetchPRs(cmd.Context(), env, project, repo, flags)
		},
	}

	cmd.Flags().StringVar(&flags.status, "status", "all", "Filter by status: active, completed, abandoned, or all")
	cmd.Flags().StringVar(&flags.targetBranch, "target-branch", "", "Filter by target branch ref (e.g. refs/heads/main)")
	cmd.Flags().StringVar(&flags.sourceBranch, "source-branch", "", "Filter by source branch ref")
	cmd.Flags().StringVar(&flags.since, "since", "", "Only include PRs created after this date (2006-01-02, RFC3339, or relative like 7d)")
	cmd.Flags().IntVar(&flags.pageSize, "page-size", 0, "Page size for list requests (default from config)")
	cmd.Flags().BoolVar(&flags.incremental, "incremental", false, "Resume from the last saved fetch state")
	cmd.Flags().BoolVar(&flags.iterations, "iterations", false, "Include iterations for each pull request")
	cmd.Flags().BoolVar(&flags.threads, "threads", false, "Include comment threads for each pull request")

	return cmd
}

func newFetchWorkItemsCommand(common *fetchFlags) *cobra.Command {
	flags := &workItemFlags{}

	cmd := &cobra.Command{
		Use:   "workitems <project>",
		Short: "Fetch work items selected by a WIQL query",
		Long: `Fetch work items from an Azure DevOps project and output them in
NDJSON format. Work items are selected with a WIQL query; without --wiql
every work item in the project is fetched, newest first.

Both flat queries and link queries (SELECT ... FROM WorkItemLinks) are
supported. Link query results include each distinct source and target
work item exactly once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project := strings.TrimSpace(args[0])
			if project == "" {
				return fmt.Errorf("project must not be empty")
			}

			env, err := setupFetch(common, project)
			if err != nil {
				return err
			}
			defer env.writer.Close()

			return runFetchWorkItems(cmd.Context(), env, project, flags)
		},
	}

	cmd.Flags().StringVar(&flags.wiql, "wiql", "", "WIQL query selecting the work items to fetch")
	cmd.Flags().StringSliceVar(&flags.fields, "fields", nil, "Field reference names to include (e.g. System.Title)")
	cmd.Flags().StringVar(&flags.expand, "expand", "", "Expand option for work item reads: relations, fields, links, or all")

	return cmd
}

func newFetchReposCommand(common *fetchFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repos <project>",
		Short: "List Git repositories in a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project := strings.TrimSpace(args[0])
			if project == "" {
				return fmt.Errorf("project must not be empty")
			}

			env, err := setupFetch(common, project)
			if err != nil {
				return err
			}
			defer env.writer.Close()

			repos, err := env.client.ListRepositories(cmd.Context(), project)
			if err != nil {
				return err
			}
			for _, repo := range repos {
				if err := env.writer.Write(repo); err != nil {
					return fmt.Errorf("failed to write repository: %w", err)
				}
			}
			log.Info("Listed repositories", "project", project, "count", len(repos))
			return nil
		},
	}

	return cmd
}

// fetchEnv bundles the resolved configuration and constructed collaborators
// a fetch subcommand needs.
type fetchEnv struct {
	cfg     *config.Config
	client  azdo.Client
	writer  output.OutputWriter
	org     string
	tracker *metadata.Tracker
}

// setupFetch resolves configuration, authentication and output for a fetch
// subcommand. target is "project" or "project/repo" and selects any
// per-repository overrides.
func setupFetch(common *fetchFlags, target string) (*fetchEnv, error) {
	cfg, err := config.LoadConfigForRepo(common.configPath, target)
	if err != nil {
		return nil, err
	}

	if common.org != "" {
		cfg.AzureDevOps.Organization = common.org
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	token := getToken(common.token, cfg.AzureDevOps.TokenEnv)
	if token == "" {
		return nil, fmt.Errorf("%w: set %s or use --token", deverrors.ErrInvalidToken, cfg.AzureDevOps.TokenEnv)
	}

	execOpts := []azdo.ExecutorOption{
		azdo.WithTransportRetries(),
		azdo.WithRateLimitHandling(&cfg.RateLimit, nil),
	}

	var base *azdo.RESTClient
	if endpoint := cfg.BaseEndpoint(); endpoint != "" {
		base = azdo.NewRESTClientWith(azdo.NewURLBuilderWithEndpoint(endpoint), azdo.NewExecutor(token, execOpts...))
	} else {
		base = azdo.NewRESTClient(cfg.AzureDevOps.Organization, token, execOpts...)
	}

	var writer output.OutputWriter
	if common.outputFile == "" {
		writer = output.NewWriter(os.Stdout)
	} else {
		fileWriter, fErr := output.NewFileWriter(common.outputFile)
		if fErr != nil {
			return nil, fErr
		}
		writer = fileWriter
	}

	return &fetchEnv{
		cfg:     cfg,
		client:  azdo.NewRetryClient(base, nil),
		writer:  writer,
		org:     cfg.AzureDevOps.Organization,
		tracker: metadata.New(),
	}, nil
}

// runFetchPRs fetches pull requests from a repository, streams them to the
// output writer, and records fetch state and metadata.
func runFetchPRs(ctx context.Context, env *fetchEnv, project, repo string, flags *prFlags) error {
	opts := azdo.PullRequestOptions{
		Status:        flags.status,
		TargetRefName: flags.targetBranch,
		SourceRefName: flags.sourceBranch,
		PageSize:      flags.pageSize,
	}
	if opts.PageSize == 0 {
		opts.PageSize = env.cfg.GetPageSize(project + "/" + repo)
	}

	// Resolve the lower bound for incremental or --since fetches
	var since time.Time
	if flags.since != "" {
		parsed, err := parseDate(flags.since)
		if err != nil {
			return err
		}
		since = parsed
	}

	stateFile := state.GetStateFilePath(env.org, project, repo)
	var previous *state.FetchState
	if flags.incremental {
		loaded, err := state.LoadState(stateFile)
		if err != nil {
			return err
		}
		previous = loaded
		if previous.LastPRDate.After(since) {
			since = previous.LastPRDate
		}
	}

	log.Info("Fetching pull requests", "project", project, "repository", repo, "status", opts.Status)

	prs, err := env.client.ListPullRequests(ctx, project, repo, opts)
	if err != nil {
		return err
	}
	env.tracker.AddAPICalls(azdo.PageRequestCount(len(prs), opts.PageSize))

	written := 0
	lastID := 0
	var lastDate time.Time
	for i := range prs {
		pr := prs[i]
		if !since.IsZero() && !pr.CreationDate.After(since) {
			continue
		}
		if previous != nil && pr.PullRequestID <= previous.LastPullRequestID {
			continue
		}

		record, err := buildPRRecord(ctx, env, project, repo, pr, flags)
		if err != nil {
			return err
		}
		if err := env.writer.Write(record); err != nil {
			return fmt.Errorf("failed to write PR: %w", err)
		}
		written++

		closedAt := time.Time{}
		if pr.ClosedDate != nil {
			closedAt = *pr.ClosedDate
		}
		env.tracker.UpdatePRStats(pr.PullRequestID, pr.CreationDate, closedAt)

		if pr.PullRequestID > lastID {
			lastID = pr.PullRequestID
		}
		if pr.CreationDate.After(lastDate) {
			lastDate = pr.CreationDate
		}
	}

	if err := saveFetchState(env, stateFile, project, repo, lastID, lastDate, written, previous, flags.incremental); err != nil {
		return err
	}

	if written > 0 {
		log.Info("Fetch complete", "pull_requests", humanize.Comma(int64(written)))
	} else {
		log.Info("No pull requests matched", "project", project, "repository", repo)
	}
	return nil
}

// buildPRRecord assembles the output record for one pull request, fetching
// iterations and threads when requested.
func buildPRRecord(ctx context.Context, env *fetchEnv, project, repo string, pr azdo.PullRequest, flags *prFlags) (interface{}, error) {
	if !flags.iterations && !flags.threads {
		return pr, nil
	}

	record := struct {
		azdo.PullRequest
		Iterations []azdo.Iteration `json:"iterations,omitempty"`
		Threads    []azdo.Thread    `json:"threads,omitempty"`
	}{PullRequest: pr}

	if flags.iterations {
		iterations, err := env.client.GetIterations(ctx, project, repo, pr.PullRequestID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch iterations for PR %d: %w", pr.PullRequestID, err)
		}
		env.tracker.IncrementAPICall()
		record.Iterations = iterations
	}

	if flags.threads {
		threads, err := env.client.GetThreads(ctx, project, repo, pr.PullRequestID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch threads for PR %d: %w", pr.PullRequestID, err)
		}
		env.tracker.IncrementAPICall()
		record.Threads = threads
	}

	return record, nil
}

// saveFetchState persists fetch state and metadata after a successful PR
// fetch. Incremental runs that found nothing keep the previous watermark.
func saveFetchState(env *fetchEnv, stateFile, project, repo string, lastID int, lastDate time.Time, written int, previous *state.FetchState, incremental bool) error {
	if written == 0 && previous == nil {
		return nil
	}

	var previousRef *metadata.FetchRef
	if previous != nil {
		previousRef = &metadata.FetchRef{
			FetchID:     previous.LastFetchID,
			CompletedAt: previous.LastFetchTime,
		}
		if lastID < previous.LastPullRequestID {
			lastID = previous.LastPullRequestID
		}
		if previous.LastPRDate.After(lastDate) {
			lastDate = previous.LastPRDate
		}
	}

	meta := env.tracker.GenerateMetadata(version.Version, metadata.FetchParams{
		Organization: env.org,
		Project:      project,
		Repository:   repo,
		FetchAll:     !incremental,
		PageSize:     env.cfg.GetPageSize(project + "/" + repo),
	}, incremental, previousRef)

	if err := metadata.SaveMetadata(meta, env.cfg.Defaults.StateDir); err != nil {
		log.Warn("Failed to save fetch metadata", "error", err)
	}

	newState := &state.FetchState{
		Organization:      env.org,
		Project:           project,
		Repository:        repo,
		LastFetchID:       meta.FetchID,
		LastPullRequestID: lastID,
		LastPRDate:        lastDate,
		LastFetchTime:     time.Now(),
		TotalFetched:      written,
	}
	if err := state.SaveState(newState, stateFile); err != nil {
		return fmt.Errorf("failed to save fetch state: %w", err)
	}
	return nil
}

// runFetchWorkItems executes a WIQL query and streams the matching work
// items to the output writer.
func runFetchWorkItems(ctx context.Context, env *fetchEnv, project string, flags *workItemFlags) error {
	wiql := flags.wiql
	if wiql == "" {
		wiql = defaultWiql
	}

	log.Info("Fetching work items", "project", project)

	items, err := env.client.QueryWorkItems(ctx, project, wiql, azdo.WorkItemOptions{
		Fields: flags.fields,
		Expand: flags.expand,
	})
	if err != nil {
		return err
	}
	// One WIQL call plus the batch reads that resolved the matches.
	env.tracker.AddAPICalls(1 + azdo.BatchRequestCount(len(items)))

	for _, item := range items {
		if err := env.writer.Write(item); err != nil {
			return fmt.Errorf("failed to write work item: %w", err)
		}
	}
	env.tracker.AddWorkItems(len(items))

	meta := env.tracker.GenerateMetadata(version.Version, metadata.FetchParams{
		Organization: env.org,
		Project:      project,
		Wiql:         wiql,
		FetchAll:     true,
		PageSize:     env.cfg.Defaults.PageSize,
		BatchSize:    env.cfg.Defaults.BatchSize,
	}, false, nil)
	if err := metadata.SaveMetadata(meta, env.cfg.Defaults.StateDir); err != nil {
		log.Warn("Failed to save fetch metadata", "error", err)
	}

	if len(items) > 0 {
		log.Info("Fetch complete", "work_items", humanize.Comma(int64(len(items))))
	} else {
		log.Info("Query matched no work items", "project", project)
	}
	return nil
}

// parseTarget parses a project/repo string into its components
func parseTarget(arg string) (project, repo string, err error) {
	parts := strings.Split(arg, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid target format. Expected: <project>/<repo>, got: %s", arg)
	}

	project = strings.TrimSpace(parts[0])
	repo = strings.TrimSpace(parts[1])

	if project == "" || repo == "" {
		return "", "", fmt.Errorf("invalid target format. Expected: <project>/<repo>, got: %s", arg)
	}

	return project, repo, nil
}

// getToken returns the personal access token from the flag or the configured
// environment variable.
func getToken(flagToken, envVar string) string {
	if flagToken != "" {
		return flagToken
	}
	if envVar == "" {
		envVar = "AZDO_TOKEN"
	}
	return os.Getenv(envVar)
}

// parseDate parses an absolute date (2006-01-02 or RFC3339) or a relative
// duration like 7d, 12h, or 2w counted back from now.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}

	// Relative durations: trailing unit d (days) or w (weeks), or anything
	// time.ParseDuration accepts.
	if len(s) > 1 {
		unit := s[len(s)-1]
		if unit == 'd' || unit == 'w' {
			n, err := strconv.Atoi(s[:len(s)-1])
			if err == nil && n > 0 {
				hours := n * 24
				if unit == 'w' {
					hours *= 7
				}
				return time.Now().UTC().Add(-time.Duration(hours) * time.Hour), nil
			}
		}
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return time.Now().UTC().Add(-d), nil
	}

	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}

// mapErrorToExitCode maps internal errors to appropriate exit codes
func mapErrorToExitCode(err error) int {
	if err == nil {
		return 0
	}

	// Check for specific error types
	if errors.Is(err, deverrors.ErrInvalidToken) ||
		errors.Is(err, deverrors.ErrProjectNotFound) ||
		errors.Is(err, deverrors.ErrInvalidQuery) ||
		errors.Is(err, deverrors.ErrRateLimit) {
		return 2 // Authentication/authorization/query errors
	}

	if errors.Is(err, deverrors.ErrNetworkFailure) {
		return 3 // Network errors
	}

	return 1 // General error
}
