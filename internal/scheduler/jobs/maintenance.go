package jobs

import (
	"context"

	"github.com/optionscout/backend/internal/marketdata/stream"
	"github.com/optionscout/backend/pkg/logger"
)

// MaintenanceJob prunes stale streaming ticks so a quiet symbol does not
// pin memory between sessions.
type MaintenanceJob struct {
	ticks  *stream.Cache
	logger *logger.Logger
}

// NewMaintenanceJob creates the hourly maintenance job.
func NewMaintenanceJob(ticks *stream.Cache, log *logger.Logger) *MaintenanceJob {
	return &MaintenanceJob{ticks: ticks, logger: log}
}

func (j *MaintenanceJob) Name() string {
	return "maintenance"
}

func (j *MaintenanceJob) Schedule() string {
	return "@hourly"
}

func (j *MaintenanceJob) Run(ctx context.Context) error {
	removed := j.ticks.CleanStale()
	if removed > 0 {
		j.logger.WithField("removed", removed).Debug("Pruned stale ticks")
	}
	return nil
}
