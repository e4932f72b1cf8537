package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/optionscout/backend/internal/scheduler"
	"github.com/optionscout/backend/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the scan scheduler",
	Long: `Starts the scheduler daemon.

Registered jobs:
- budgeted_scan: every 15 minutes during US market hours
- maintenance:   hourly stale-tick pruning

Example:
  go run ./cmd/scout scheduler
  go run ./cmd/scout scheduler --scan-schedule "0 */30 13-20 * * 1-5"
  go run ./cmd/scout scheduler --run-now`,
	RunE: runScheduler,
}

var (
	scanSchedule string
	runNow       bool
)

func init() {
	rootCmd.AddCommand(schedulerCmd)

	// Flags
	schedulerCmd.Flags().StringVar(&scanSchedule, "scan-schedule", "", "cron expression for the scan job")
	schedulerCmd.Flags().BoolVar(&runNow, "run-now", false, "run the scan job immediately on start")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== OptionScout Scheduler ===")

	a, err := buildApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if a.streamClient != nil {
		if err := a.streamClient.Start(cmd.Context()); err != nil {
			a.log.WithError(err).Warn("Broker stream unavailable, falling back to REST")
		} else if err := a.streamClient.Subscribe(a.cfg.Analysis.BaseUniverse); err != nil {
			a.log.WithError(err).Warn("Broker stream subscribe failed")
		}
	}

	s := scheduler.New(a.log)

	scanJob := jobs.NewScanJob(a.service, a.clock, scanSchedule, a.log)
	if err := s.AddJob(scanJob); err != nil {
		return fmt.Errorf("add scan job: %w", err)
	}
	if err := s.AddJob(jobs.NewMaintenanceJob(a.ticks, a.log)); err != nil {
		return fmt.Errorf("add maintenance job: %w", err)
	}

	s.Start()
	defer s.Stop()

	if runNow {
		if err := s.RunJob(scanJob.Name()); err != nil {
			return err
		}
	}

	fmt.Println("\n✅ Scheduler running, press Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	return nil
}
