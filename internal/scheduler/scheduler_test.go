package scheduler

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/optionscout/backend/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	fail     bool
	runs     int32
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }
func (j *fakeJob) Run(ctx context.Context) error {
	atomic.AddInt32(&j.runs, 1)
	if j.fail {
		return fmt.Errorf("boom")
	}
	return nil
}

func TestAddJob_RejectsDuplicates(t *testing.T) {
	s := New(logger.Nop())

	job := &fakeJob{name: "scan", schedule: "@hourly"}
	require.NoError(t, s.AddJob(job))
	require.Error(t, s.AddJob(job))
}

func TestRunJob_RecordsHistory(t *testing.T) {
	s := New(logger.Nop())
	s.retryDelay = time.Millisecond

	job := &fakeJob{name: "scan", schedule: "@hourly"}
	require.NoError(t, s.AddJob(job))
	require.NoError(t, s.RunJob("scan"))

	require.Eventually(t, func() bool {
		history, err := s.GetJobHistory("scan")
		return err == nil && len(history.Results) == 1
	}, 2*time.Second, 10*time.Millisecond)

	stats := s.GetJobStats()["scan"]
	require.Equal(t, 1, stats.TotalRuns)
	require.Equal(t, 1, stats.SuccessCount)
	require.NotNil(t, stats.LastSuccess)
}

func TestRunJob_RetriesFailures(t *testing.T) {
	s := New(logger.Nop())
	s.retryDelay = time.Millisecond

	job := &fakeJob{name: "scan", schedule: "@hourly", fail: true}
	require.NoError(t, s.AddJob(job))
	require.NoError(t, s.RunJob("scan"))

	require.Eventually(t, func() bool {
		history, err := s.GetJobHistory("scan")
		return err == nil && len(history.Results) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Initial attempt plus two retries.
	require.Equal(t, int32(3), atomic.LoadInt32(&job.runs))

	history, err := s.GetJobHistory("scan")
	require.NoError(t, err)
	require.False(t, history.Results[0].Success)
	require.Contains(t, history.Results[0].Error, "boom")
	require.Zero(t, s.GetJobStats()["scan"].SuccessRate)
}

func TestRunJob_UnknownJob(t *testing.T) {
	s := New(logger.Nop())
	require.Error(t, s.RunJob("missing"))
}

func TestJobHistory_CapsResults(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 120; i++ {
		h.AddResult(JobResult{JobName: "scan", Success: i%2 == 0})
	}

	require.Len(t, h.Results, 100)
	require.InDelta(t, 0.5, h.GetSuccessRate(), 0.01)
}
