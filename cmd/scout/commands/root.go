package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "OptionScout - options-trading decision support",
	Long: `OptionScout Unified CLI

Data-resilience layer for options-trading decision support: multi-source
market data with provenance, dynamic universe discovery and budgeted scans.

Usage:
  go run ./cmd/scout [command]

Examples:
  go run ./cmd/scout scan
  go run ./cmd/scout universe --discover
  go run ./cmd/scout api
  go run ./cmd/scout scheduler`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
