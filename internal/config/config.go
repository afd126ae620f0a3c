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

// Package config provides configuration management for sirseer-devops with
// support for multiple configuration sources and a well-defined precedence
// order. It enables enterprise deployments to customize behavior through
// configuration files while maintaining flexibility with environment variables
// and command-line overrides.
//
// Configuration sources (in precedence order, highest to lowest):
//  1. Command-line flags
//  2. Environment variables
//  3. Repository-specific configuration
//  4. Global configuration file
//  5. Built-in defaults
//
// The package supports YAML configuration files and provides automatic
// discovery of configuration in standard locations. It's designed to work
// seamlessly with Azure DevOps Server deployments and supports
// repository-specific overrides for fine-grained control.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from multiple sources and applies them in
// the correct precedence order. If configPath is provided, it loads from
// that specific file. Otherwise, it searches standard locations:
//   - .sirseer-devops.yaml (current directory)
//   - .sirseer-devops.yml (current directory)
//   - ~/.sirseer/devops.yaml
//   - ~/.sirseer/devops.yml
//
// Environment variables are applied after loading the config file, allowing
// runtime overrides. Path expansion (~ and environment variables) is performed
// on directory paths.
//
// Returns an error if the specified config file cannot be loaded, but will
// succeed with defaults if no config file is found in standard locations.
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Try to load config file if path is provided
	if configPath != "" {
		if err := loadConfigFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		// Try default locations
		defaultPaths := []string{
			".sirseer-devops.yaml",
			".sirseer-devops.yml",
			filepath.Join(os.Getenv("HOME"), ".sirseer", "devops.yaml"),
			filepath.Join(os.Getenv("HOME"), ".sirseer", "devops.yml"),
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := loadConfigFile(path, cfg); err != nil {
					return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
				}
				break
			}
		}
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Expand paths
	cfg.Defaults.StateDir = expandPath(cfg.Defaults.StateDir)

	return cfg, nil
}

// LoadConfigForRepo loads configuration and applies repository-specific
// overrides. This allows different settings for different repositories,
// useful when some repositories require special handling (e.g., smaller
// pages for repositories with large pull requests).
//
// The repo parameter should be in "project/repository" format.
func LoadConfigForRepo(configPath, repo string) (*Config, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	// Apply repository-specific overrides if they exist
	if repoConfig, ok := cfg.Repositories[repo]; ok {
		if repoConfig.PageSize > 0 {
			cfg.Defaults.PageSize = repoConfig.PageSize
		}
	}

	return cfg, nil
}

// loadConfigFile reads and parses a YAML config file
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(cfg *Config) {
	// Organization and endpoint
	if org := os.Getenv("AZDO_ORGANIZATION"); org != "" {
		cfg.AzureDevOps.Organization = org
	}
	if endpoint := os.Getenv("AZDO_ENDPOINT"); endpoint != "" {
		cfg.AzureDevOps.Endpoint = endpoint
	}

	// Defaults
	if project := os.Getenv("AZDO_PROJECT"); project != "" {
		cfg.Defaults.Project = project
	}
	if pageSize := os.Getenv("SIRSEER_PAGE_SIZE"); pageSize != "" {
		if size, err := parsePositiveInt(pageSize); err == nil {
			cfg.Defaults.PageSize = size
		}
	}
	if batchSize := os.Getenv("SIRSEER_BATCH_SIZE"); batchSize != "" {
		if size, err := parsePositiveInt(batchSize); err == nil {
			cfg.Defaults.BatchSize = size
		}
	}
	if stateDir := os.Getenv("SIRSEER_STATE_DIR"); stateDir != "" {
		cfg.Defaults.StateDir = stateDir
	}

	// Rate limit settings
	if autoWait := os.Getenv("SIRSEER_RATE_LIMIT_AUTO_WAIT"); autoWait != "" {
		cfg.RateLimit.AutoWait = parseBool(autoWait)
	}
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home := os.Getenv("HOME")
		if home == "" {
			home = os.Getenv("USERPROFILE") // Windows
		}
		path = filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// parsePositiveInt parses a string to a positive integer
func parsePositiveInt(s string) (int, error) {
	var i int
	_, err := fmt.Sscanf(s, "%d", &i)
	if err != nil {
		return 0, fmt.Errorf("failed to parse integer from '%s': %w", s, err)
	}
	if i <= 0 {
		return 0, fmt.Errorf("value must be positive, got: %d", i)
	}
	return i, nil
}

// parseBool parses various boolean representations
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}

// GetPageSize returns the effective page size for a repository, taking
// into account repository-specific overrides. If the repository has a
// specific page size configured, it returns that value. Otherwise, it
// returns the default page size.
func (c *Config) GetPageSize(repo string) int {
	if repoConfig, ok := c.Repositories[repo]; ok && repoConfig.PageSize > 0 {
		return repoConfig.PageSize
	}
	return c.Defaults.PageSize
}

// BaseEndpoint returns the effective collection base URL: the configured
// endpoint override if present, otherwise empty (callers fall back to the
// hosted service with the organization name).
func (c *Config) BaseEndpoint() string {
	return strings.TrimRight(c.AzureDevOps.Endpoint, "/")
}

// Validate checks if the configuration contains valid values. It ensures
// page and batch sizes are within the service's limits and that the target
// organization is identified. This should be called after loading
// configuration to catch invalid settings early.
func (c *Config) Validate() error {
	if c.Defaults.PageSize <= 0 {
		return fmt.Errorf("default page size must be positive, got: %d", c.Defaults.PageSize)
	}
	if c.Defaults.PageSize > 1000 {
		return fmt.Errorf("default page size %d exceeds Azure DevOps limit of 1000", c.Defaults.PageSize)
	}
	if c.Defaults.BatchSize <= 0 {
		return fmt.Errorf("default batch size must be positive, got: %d", c.Defaults.BatchSize)
	}
	if c.Defaults.BatchSize > 200 {
		return fmt.Errorf("default batch size %d exceeds Azure DevOps limit of 200", c.Defaults.BatchSize)
	}
	if c.AzureDevOps.Organization == "" && c.AzureDevOps.Endpoint == "" {
		return fmt.Errorf("either an organization or an endpoint must be configured")
	}
	return nil
}
