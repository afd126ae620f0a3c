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

// Package config types define the configuration structures used throughout
// sirseer-devops. These types represent settings that can be loaded from
// YAML configuration files, environment variables, or command-line flags.
package config

// Config represents the complete configuration for sirseer-devops.
// It consolidates settings from various sources and provides a unified
// interface for accessing configuration values throughout the application.
type Config struct {
	AzureDevOps  AzureDevOpsConfig     `yaml:"azure_devops"`
	Defaults     DefaultsConfig        `yaml:"defaults"`
	Repositories map[string]RepoConfig `yaml:"repositories"`
	RateLimit    RateLimitConfig       `yaml:"rate_limit"`
}

// AzureDevOpsConfig contains service-specific settings including the
// organization and authentication configuration. Endpoint overrides the
// default https://dev.azure.com/{organization} base, which allows pointing
// the tool at an Azure DevOps Server collection URL.
type AzureDevOpsConfig struct {
	Organization string `yaml:"organization"`
	Endpoint     string `yaml:"endpoint"`
	TokenEnv     string `yaml:"token_env"`
}

// DefaultsConfig contains default settings that apply to all fetch operations
// unless overridden by repository-specific settings or command-line flags.
// These settings control the core behavior of the fetch process.
type DefaultsConfig struct {
	Project      string `yaml:"project"`
	PageSize     int    `yaml:"page_size"`
	BatchSize    int    `yaml:"batch_size"`
	OutputFormat string `yaml:"output_format"`
	StateDir     string `yaml:"state_dir"`
}

// RepoConfig contains repository-specific overrides that allow fine-tuning
// fetch behavior for individual repositories. This is useful when certain
// repositories have special requirements, such as smaller pages for
// repositories with very large pull request descriptions.
type RepoConfig struct {
	PageSize int `yaml:"page_size"`
}

// RateLimitConfig controls throttling behavior when interacting with the
// Azure DevOps API. It determines whether the tool should automatically
// wait when throttled or exit with an error, and whether to show progress
// during waits.
type RateLimitConfig struct {
	AutoWait     bool `yaml:"auto_wait"`
	ShowProgress bool `yaml:"show_progress"`
}

// DefaultConfig returns a Config with sensible defaults suitable for most
// use cases. These defaults target the hosted dev.azure.com service but can
// be overridden for Azure DevOps Server or special requirements.
func DefaultConfig() *Config {
	return &Config{
		AzureDevOps: AzureDevOpsConfig{
			TokenEnv: "AZDO_TOKEN",
		},
		Defaults: DefaultsConfig{
			PageSize:     100,
			BatchSize:    200,
			OutputFormat: "ndjson",
			StateDir:     "~/.sirseer/state",
		},
		Repositories: make(map[string]RepoConfig),
		RateLimit: RateLimitConfig{
			AutoWait:     true,
			ShowProgress: true,
		},
	}
}
