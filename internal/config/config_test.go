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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "AZDO_TOKEN", cfg.AzureDevOps.TokenEnv)
	assert.Empty(t, cfg.AzureDevOps.Organization)
	assert.Empty(t, cfg.AzureDevOps.Endpoint)

	assert.Equal(t, 100, cfg.Defaults.PageSize)
	assert.Equal(t, 200, cfg.Defaults.BatchSize)
	assert.Equal(t, "ndjson", cfg.Defaults.OutputFormat)
	assert.Equal(t, "~/.sirseer/state", cfg.Defaults.StateDir)

	assert.True(t, cfg.RateLimit.AutoWait)
	assert.True(t, cfg.RateLimit.ShowProgress)
}

func TestLoadConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
azure_devops:
  organization: fabrikam
  endpoint: https://tfs.fabrikam.com/DefaultCollection
  token_env: AZDO_PAT

defaults:
  project: Fabrikam-Fiber
  page_size: 50
  batch_size: 100
  output_format: json
  state_dir: /custom/state

repositories:
  "Fabrikam-Fiber/web":
    page_size: 10

rate_limit:
  auto_wait: false
  show_progress: false
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "fabrikam", cfg.AzureDevOps.Organization)
	assert.Equal(t, "https://tfs.fabrikam.com/DefaultCollection", cfg.AzureDevOps.Endpoint)
	assert.Equal(t, "AZDO_PAT", cfg.AzureDevOps.TokenEnv)

	assert.Equal(t, "Fabrikam-Fiber", cfg.Defaults.Project)
	assert.Equal(t, 50, cfg.Defaults.PageSize)
	assert.Equal(t, 100, cfg.Defaults.BatchSize)
	assert.Equal(t, "json", cfg.Defaults.OutputFormat)
	assert.Equal(t, "/custom/state", cfg.Defaults.StateDir)

	assert.Equal(t, 10, cfg.Repositories["Fabrikam-Fiber/web"].PageSize)

	assert.False(t, cfg.RateLimit.AutoWait)
	assert.False(t, cfg.RateLimit.ShowProgress)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigNoFileUsesDefaults(t *testing.T) {
	// Run from an empty directory so no local config file is discovered.
	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(wd) })
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Defaults.PageSize)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AZDO_ORGANIZATION", "contoso")
	t.Setenv("AZDO_ENDPOINT", "https://azure.contoso.com/Collection")
	t.Setenv("AZDO_PROJECT", "Tailspin")
	t.Setenv("SIRSEER_PAGE_SIZE", "25")
	t.Setenv("SIRSEER_BATCH_SIZE", "75")
	t.Setenv("SIRSEER_STATE_DIR", "/env/state")
	t.Setenv("SIRSEER_RATE_LIMIT_AUTO_WAIT", "no")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, "contoso", cfg.AzureDevOps.Organization)
	assert.Equal(t, "https://azure.contoso.com/Collection", cfg.AzureDevOps.Endpoint)
	assert.Equal(t, "Tailspin", cfg.Defaults.Project)
	assert.Equal(t, 25, cfg.Defaults.PageSize)
	assert.Equal(t, 75, cfg.Defaults.BatchSize)
	assert.Equal(t, "/env/state", cfg.Defaults.StateDir)
	assert.False(t, cfg.RateLimit.AutoWait)
}

func TestEnvOverridesIgnoreInvalidSizes(t *testing.T) {
	t.Setenv("SIRSEER_PAGE_SIZE", "not-a-number")
	t.Setenv("SIRSEER_BATCH_SIZE", "-5")

	cfg := DefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, 100, cfg.Defaults.PageSize)
	assert.Equal(t, 200, cfg.Defaults.BatchSize)
}

func TestLoadConfigForRepo(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
azure_devops:
  organization: fabrikam

repositories:
  "Fabrikam-Fiber/web":
    page_size: 10
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0o644))

	cfg, err := LoadConfigForRepo(configPath, "Fabrikam-Fiber/web")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Defaults.PageSize)

	cfg, err = LoadConfigForRepo(configPath, "Fabrikam-Fiber/other")
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Defaults.PageSize)
}

func TestGetPageSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Repositories["Fabrikam-Fiber/web"] = RepoConfig{PageSize: 10}

	assert.Equal(t, 10, cfg.GetPageSize("Fabrikam-Fiber/web"))
	assert.Equal(t, 100, cfg.GetPageSize("Fabrikam-Fiber/other"))
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")

	assert.Equal(t, "/home/tester/.sirseer/state", expandPath("~/.sirseer/state"))
	assert.Equal(t, "/absolute/path", expandPath("/absolute/path"))

	t.Setenv("STATE_ROOT", "/var/lib")
	assert.Equal(t, "/var/lib/state", expandPath("$STATE_ROOT/state"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid with organization",
			mutate:  func(c *Config) { c.AzureDevOps.Organization = "fabrikam" },
			wantErr: false,
		},
		{
			name:    "valid with endpoint only",
			mutate:  func(c *Config) { c.AzureDevOps.Endpoint = "https://tfs.local/Collection" },
			wantErr: false,
		},
		{
			name:    "missing organization and endpoint",
			mutate:  func(c *Config) {},
			wantErr: true,
		},
		{
			name: "page size too large",
			mutate: func(c *Config) {
				c.AzureDevOps.Organization = "fabrikam"
				c.Defaults.PageSize = 5000
			},
			wantErr: true,
		},
		{
			name: "zero page size",
			mutate: func(c *Config) {
				c.AzureDevOps.Organization = "fabrikam"
				c.Defaults.PageSize = 0
			},
			wantErr: true,
		},
		{
			name: "batch size over service limit",
			mutate: func(c *Config) {
				c.AzureDevOps.Organization = "fabrikam"
				c.Defaults.BatchSize = 500
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
