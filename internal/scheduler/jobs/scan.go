package jobs

import (
	"context"
	"fmt"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/internal/scan"
	"github.com/optionscout/backend/internal/scanner"
	"github.com/optionscout/backend/pkg/logger"
)

// defaultScanSchedule runs every 15 minutes, 13:30-20:00 UTC on weekdays,
// bracketing the regular US session.
const defaultScanSchedule = "0 */15 13-20 * * 1-5"

// ScanJob runs a budgeted scan on a schedule. The market clock gates
// execution: holidays and half-days land inside the cron window but the
// market is closed, so the job skips instead of scanning a dead tape.
type ScanJob struct {
	service  *scan.Service
	clock    scanner.MarketClock // optional
	schedule string
	logger   *logger.Logger
}

// NewScanJob creates a scheduled scan job. An empty schedule uses the
// default market-hours window; clock may be nil.
func NewScanJob(service *scan.Service, clock scanner.MarketClock, schedule string, log *logger.Logger) *ScanJob {
	if schedule == "" {
		schedule = defaultScanSchedule
	}
	return &ScanJob{
		service:  service,
		clock:    clock,
		schedule: schedule,
		logger:   log,
	}
}

func (j *ScanJob) Name() string {
	return "budgeted_scan"
}

func (j *ScanJob) Schedule() string {
	return j.schedule
}

// Run executes one scan with discovery enabled and configured defaults.
func (j *ScanJob) Run(ctx context.Context) error {
	if j.clock != nil {
		state, err := j.clock.GetMarketState(ctx)
		if err != nil {
			// Unknown session: scan anyway, the resolver degrades gracefully.
			j.logger.WithError(err).Debug("Market clock unavailable, scanning anyway")
		} else if state != "open" {
			j.logger.WithField("state", state).Info("Market closed, skipping scheduled scan")
			return nil
		}
	}

	result, err := j.service.Run(ctx, scan.RunOptions{
		Discovery: contracts.DiscoveryOptions{Enabled: true},
	})
	if err != nil {
		return fmt.Errorf("scheduled scan: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    result.RunID,
		"completed": result.CompletedSymbols,
		"timed_out": result.TimedOut,
	}).Info("Scheduled scan finished")

	return nil
}
