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
	Use:   "valora",
	Short: "Valora - DCF equity valuation engine",
	Long: `Valora Unified CLI

DCF-based equity valuation: growth modeling, WACC estimation,
terminal growth, sensitivity grids and price alerts.

Usage:
  go run ./cmd/valora [command]

Examples:
  go run ./cmd/valora api
  go run ./cmd/valora valuate AAPL
  go run ./cmd/valora sensitivity AAPL
  go run ./cmd/valora alerts list`,
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
