package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/optionscout/backend/internal/api"
	"github.com/optionscout/backend/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                    - Health check
  POST /api/scan                  - Run a budgeted scan
  GET  /api/scan/latest           - Latest scan result
  GET  /api/scan/runs             - Recent run summaries
  POST /api/universe              - Build the scan universe
  GET  /api/providers/ranking     - Discovery-provider reliability
  PUT  /api/providers/preference  - Override the data preference

Example:
  go run ./cmd/scout api
  go run ./cmd/scout api --port 8087`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	// Flags
	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== OptionScout API Server ===")

	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	// Streaming ticks short-circuit REST quote resolution while connected.
	if a.streamClient != nil {
		if err := a.streamClient.Start(cmd.Context()); err != nil {
			a.log.WithError(err).Warn("Broker stream unavailable, falling back to REST")
		} else if err := a.streamClient.Subscribe(a.cfg.Analysis.BaseUniverse); err != nil {
			a.log.WithError(err).Warn("Broker stream subscribe failed")
		}
	}

	scanHandler := handlers.NewScanHandler(a.service, a.log)
	universeHandler := handlers.NewUniverseHandler(a.cfg.Analysis, a.builder, a.cache, a.log)
	providerHandler := handlers.NewProviderHandler(a.policy, a.reliability, a.scannerNames, a.log)

	router := api.NewRouter(scanHandler, universeHandler, providerHandler, a.log)
	server := api.New(a.cfg, a.log, router)

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
