package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/internal/scan"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one budgeted scan",
	Long: `Runs one budgeted scan: builds the universe, resolves market data,
context and option chains per symbol, then scores and ranks the result.

Flags:
  --symbols    comma-separated base universe (default: BASE_UNIVERSE)
  --top        number of ranked symbols to keep
  --budget     wall-clock budget, e.g. 9s
  --discover   enable dynamic discovery
  --scan-code  scanner code, e.g. MOST_ACTIVE, HIGH_OPEN_GAP
  --json       print the raw result as JSON

Example:
  go run ./cmd/scout scan
  go run ./cmd/scout scan --symbols SPY,QQQ,NVDA --top 5
  go run ./cmd/scout scan --discover --scan-code MOST_ACTIVE --budget 12s`,
	RunE: runScan,
}

var (
	scanSymbols  string
	scanTopN     int
	scanBudget   time.Duration
	scanDiscover bool
	scanCode     string
	scanJSON     bool
)

func init() {
	rootCmd.AddCommand(scanCmd)

	// Flags
	scanCmd.Flags().StringVar(&scanSymbols, "symbols", "", "comma-separated base universe")
	scanCmd.Flags().IntVar(&scanTopN, "top", 0, "ranked symbols to keep (default: ANALYSIS_TOP_N)")
	scanCmd.Flags().DurationVar(&scanBudget, "budget", 0, "wall-clock budget (default: ANALYSIS_BUDGET)")
	scanCmd.Flags().BoolVar(&scanDiscover, "discover", false, "enable dynamic discovery")
	scanCmd.Flags().StringVar(&scanCode, "scan-code", "", "scanner code for discovery")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "print raw JSON")
}

func runScan(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	opts := scan.RunOptions{
		TopN:   scanTopN,
		Budget: scanBudget,
		Discovery: contracts.DiscoveryOptions{
			Enabled:  scanDiscover,
			ScanCode: scanCode,
		},
	}
	if scanSymbols != "" {
		opts.Symbols = strings.Split(scanSymbols, ",")
	}

	result, err := a.service.Run(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if scanJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printScanResult(result)
	return nil
}

func printScanResult(result *contracts.ScanResult) {
	fmt.Printf("\n=== Scan %s ===\n", result.RunID)
	fmt.Printf("Universe:  %d symbols (%d discovered)\n",
		len(result.Universe.Symbols), len(result.Universe.Discovered))
	fmt.Printf("Completed: %d/%d in %s\n",
		result.CompletedSymbols, result.AttemptedSymbols, result.Duration.Round(time.Millisecond))
	if result.Benchmark != "" {
		fmt.Printf("Benchmark: %s\n", result.Benchmark)
	}
	if result.TimedOut {
		fmt.Printf("⚠️  Partial result: %s\n", result.Reason)
	}

	fmt.Printf("\n%-5s %-7s %8s %8s %8s  %s\n", "RANK", "SYMBOL", "SCORE", "REL20", "REL60", "SOURCES")
	for _, comp := range result.Ranked {
		sources := fmt.Sprintf("quote:%s chain:%s", comp.Snapshot.Source, comp.Chain.Source)
		if !comp.FullyLive() {
			sources += " (degraded)"
		}
		fmt.Printf("%-5d %-7s %8.3f %8.3f %8.3f  %s\n",
			comp.Rank, comp.Symbol, comp.Score, comp.RelReturn20, comp.RelReturn60, sources)
	}
	fmt.Println()
}
