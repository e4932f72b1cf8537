package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/optionscout/backend/internal/contracts"
)

// universeCmd represents the universe command
var universeCmd = &cobra.Command{
	Use:   "universe",
	Short: "Build the scan universe",
	Long: `Builds the scan universe without running a scan: deduplicates the
base symbols and, with --discover, tops the list up from ranked scanner
providers.

Example:
  go run ./cmd/scout universe
  go run ./cmd/scout universe --discover --size 20
  go run ./cmd/scout universe --discover --scan-code HIGH_OPEN_GAP`,
	RunE: runUniverse,
}

var (
	universeSymbols  string
	universeSize     int
	universeDiscover bool
	universeScanCode string
)

func init() {
	rootCmd.AddCommand(universeCmd)

	// Flags
	universeCmd.Flags().StringVar(&universeSymbols, "symbols", "", "comma-separated base universe")
	universeCmd.Flags().IntVar(&universeSize, "size", 0, "target size (default: UNIVERSE_SIZE)")
	universeCmd.Flags().BoolVar(&universeDiscover, "discover", false, "enable dynamic discovery")
	universeCmd.Flags().StringVar(&universeScanCode, "scan-code", "", "scanner code for discovery")
}

func runUniverse(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	base := a.cfg.Analysis.BaseUniverse
	if universeSymbols != "" {
		base = strings.Split(universeSymbols, ",")
	}
	size := universeSize
	if size <= 0 {
		size = a.cfg.Analysis.UniverseSize
	}

	result, err := a.builder.Build(cmd.Context(), base, size, contracts.DiscoveryOptions{
		Enabled:  universeDiscover,
		ScanCode: universeScanCode,
	})
	if err != nil {
		return fmt.Errorf("build universe: %w", err)
	}

	fmt.Printf("\n=== Universe (%d symbols) ===\n", len(result.Symbols))
	fmt.Printf("Symbols:    %s\n", strings.Join(result.Symbols, ", "))
	if len(result.Discovered) > 0 {
		fmt.Printf("Discovered: %s\n", strings.Join(result.Discovered, ", "))
	}
	if len(result.ProvidersTried) > 0 {
		fmt.Printf("Tried:      %s\n", strings.Join(result.ProvidersTried, ", "))
	}
	if len(result.Ranking) > 0 {
		fmt.Println("\nProvider ranking:")
		for _, entry := range result.Ranking {
			fmt.Printf("  %-14s %.3f\n", entry.Provider, entry.Score)
		}
	}
	if result.FallbackReason != "" {
		fmt.Printf("\nNotes: %s\n", result.FallbackReason)
	}
	fmt.Println()

	return nil
}
