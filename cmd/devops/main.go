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
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/sirseerhq/sirseer-devops/pkg/version"
	"github.com/spf13/cobra"
)

func main() {
	// Load .env if present so AZDO_TOKEN can live next to the checkout
	_ = godotenv.Load()

	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "sirseer-devops",
		Short: "Extract pull request and work item data from Azure DevOps",
		Long: `SirSeer DevOps is a high-performance tool for extracting pull request
and work item data from Azure DevOps organizations. It efficiently handles
projects of any size while maintaining low memory usage through streaming
architecture.`,
		Version:       version.Version,
		SilenceUsage:  true, // Don't show usage on error
		SilenceErrors: true, // We'll handle error printing ourselves
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newFetchCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(mapErrorToExitCode(err))
	}
}
