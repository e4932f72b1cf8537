package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and connectivity status",
	Long: `Checks the configured data sources and infrastructure:
database, Redis, the broker gateway session and the market clock.

Example:
  go run ./cmd/scout status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== OptionScout Status ===")

	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	fmt.Printf("\nEnvironment:     %s\n", a.cfg.Env)
	fmt.Printf("Data preference: %s\n", a.policy.DataPreference())
	fmt.Printf("Base universe:   %v\n", a.cfg.Analysis.BaseUniverse)
	fmt.Printf("Scan budget:     %s (per symbol %s)\n",
		a.cfg.Analysis.Budget, a.cfg.Analysis.PerSymbolTimeout)

	fmt.Println("\nInfrastructure:")
	if a.db != nil {
		if health, err := a.db.HealthCheck(ctx); err != nil {
			fmt.Printf("  database: ❌ %v\n", err)
		} else {
			fmt.Printf("  database: ✅ %d/%d connections, ping %s\n",
				health.TotalConns, health.MaxConns, health.ResponseTime)
		}
	} else {
		fmt.Println("  database: not configured")
	}
	if a.redisClient.Enabled() {
		fmt.Println("  redis:    ✅ enabled")
	} else {
		fmt.Println("  redis:    disabled")
	}

	fmt.Println("\nData sources:")
	printBrokerStatus(ctx, a)
	printKeyStatus("tradier", a.cfg.Tradier.APIKey != "")
	printKeyStatus("finnhub", a.cfg.Finnhub.APIKey != "")
	printKeyStatus("alphavantage", a.cfg.AlphaVantage.APIKey != "")
	printKeyStatus("edgar", a.cfg.EDGAR.Enabled && a.cfg.EDGAR.UserAgent != "")
	printKeyStatus("fred", a.cfg.FRED.APIKey != "")
	printKeyStatus("llm", a.cfg.LLM.APIKey != "")

	if a.cfg.Tradier.APIKey != "" {
		if state, err := a.clock.GetMarketState(ctx); err == nil {
			fmt.Printf("\nMarket state: %s\n", state)
		}
	}
	fmt.Println()

	return nil
}

func printBrokerStatus(ctx context.Context, a *app) {
	if !a.cfg.Broker.Enabled {
		fmt.Println("  broker:       disabled")
		return
	}

	if err := a.broker.CheckSession(ctx); err != nil {
		fmt.Printf("  broker:       ⚠️  %v\n", err)
		return
	}
	fmt.Println("  broker:       ✅ session live")
}

func printKeyStatus(name string, configured bool) {
	if configured {
		fmt.Printf("  %-12s ✅ configured\n", name)
	} else {
		fmt.Printf("  %-12s not configured\n", name)
	}
}
