package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "argus",
	Short: "Argus - trend intelligence and conviction scoring",
	Long: `Argus Unified CLI

Entity resolution, cross-source signal validation, financial signal
aggregation, adversarial conviction scoring and backtesting.

Usage:
  go run ./cmd/argus [command]

Examples:
  go run ./cmd/argus api
  go run ./cmd/argus refresh --as-of 2026-08-01
  go run ./cmd/argus resolve "deepseek-ai/DeepSeek-V3" --category technical
  go run ./cmd/argus score --entity deepseek --as-of 2026-08-01
  go run ./cmd/argus backtest --prediction 2026-01-15 --validation 2026-06-15`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
