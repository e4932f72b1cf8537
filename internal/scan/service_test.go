package scan

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/optionscout/backend/internal/brain"
	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/internal/policy"
	"github.com/optionscout/backend/internal/scanner"
	"github.com/optionscout/backend/internal/scoring"
	"github.com/optionscout/backend/pkg/config"
	"github.com/optionscout/backend/pkg/logger"
)

type fakeData struct{}

func (f *fakeData) ResolveSnapshotAndHistory(ctx context.Context, symbol string, n int) (contracts.Sourced[contracts.SnapshotHistory], error) {
	return contracts.WithSource(contracts.SnapshotHistory{
		Quote:  contracts.Quote{Symbol: symbol, Last: 100, Timestamp: time.Now()},
		Closes: []float64{100, 101},
	}, contracts.SourceBroker), nil
}

func (f *fakeData) ResolveOptionChain(ctx context.Context, symbol string, underlying float64, dteMin, dteMax int) (contracts.Sourced[[]contracts.OptionContract], error) {
	return contracts.WithSource([]contracts.OptionContract{
		{Symbol: symbol, Strike: underlying, Bid: 1, Ask: 1.2, OpenInterest: 500, DTE: 21},
	}, contracts.SourceBroker), nil
}

// slowData delays snapshot resolution so overlapping runs land in the
// orchestrator's coalescing window.
type slowData struct {
	fakeData
	delay time.Duration
}

func (s *slowData) ResolveSnapshotAndHistory(ctx context.Context, symbol string, n int) (contracts.Sourced[contracts.SnapshotHistory], error) {
	select {
	case <-ctx.Done():
		return contracts.Sourced[contracts.SnapshotHistory]{}, ctx.Err()
	case <-time.After(s.delay):
	}
	return s.fakeData.ResolveSnapshotAndHistory(ctx, symbol, n)
}

type fakeContext struct{}

func (f *fakeContext) Resolve(ctx context.Context, symbol string) (contracts.ContextEvidence, error) {
	return contracts.ContextEvidence{Symbol: symbol}, nil
}

func newTestService() *Service {
	cfg := config.AnalysisConfig{
		DataPreference:   "auto",
		BaseUniverse:     []string{"SPY", "QQQ"},
		UniverseSize:     2,
		TopN:             5,
		Budget:           5 * time.Second,
		PerSymbolTimeout: time.Second,
		Workers:          2,
		BrokerWorkers:    1,
	}

	pol := policy.FromConfig(cfg)
	builder := scanner.NewUniverseBuilder(pol, scanner.NewReliability(), nil, nil, 0, logger.Nop())
	orchestrator := brain.NewOrchestrator(cfg, pol, &fakeData{}, &fakeContext{},
		scoring.NewComposite(scoring.DefaultWeights()), logger.Nop())

	return NewService(cfg, builder, orchestrator, nil, nil, logger.Nop())
}

func TestServiceRun_UsesConfiguredDefaults(t *testing.T) {
	svc := newTestService()

	result, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"SPY", "QQQ"}, result.Universe.Symbols)
	require.Equal(t, 2, result.CompletedSymbols)
	require.Len(t, result.Ranked, 2)
}

func TestServiceRun_ConcurrentCallersGetOwnResult(t *testing.T) {
	cfg := config.AnalysisConfig{
		DataPreference:   "auto",
		BaseUniverse:     []string{"SPY", "QQQ"},
		UniverseSize:     2,
		TopN:             5,
		Budget:           5 * time.Second,
		PerSymbolTimeout: time.Second,
		Workers:          2,
		BrokerWorkers:    1,
	}
	pol := policy.FromConfig(cfg)
	builder := scanner.NewUniverseBuilder(pol, scanner.NewReliability(), nil, nil, 0, logger.Nop())
	orchestrator := brain.NewOrchestrator(cfg, pol, &slowData{delay: 50 * time.Millisecond}, &fakeContext{},
		scoring.NewComposite(scoring.DefaultWeights()), logger.Nop())
	svc := NewService(cfg, builder, orchestrator, nil, nil, logger.Nop())

	const callers = 4
	results := make([]*contracts.ScanResult, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Run(context.Background(), RunOptions{})
		}(i)
	}
	wg.Wait()

	// Identical overlapping runs coalesce onto one execution, but every
	// caller must still get a private copy to hang its universe on.
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, []string{"SPY", "QQQ"}, results[i].Universe.Symbols)
		for j := i + 1; j < callers; j++ {
			require.NotSame(t, results[i], results[j])
		}
	}
}

func TestServiceLatest(t *testing.T) {
	svc := newTestService()

	_, err := svc.Latest(context.Background())
	require.ErrorIs(t, err, ErrNoRuns)

	result, err := svc.Run(context.Background(), RunOptions{})
	require.NoError(t, err)

	latest, err := svc.Latest(context.Background())
	require.NoError(t, err)
	require.Equal(t, result.RunID, latest.RunID)
}

func TestServiceHistory_RequiresDatabase(t *testing.T) {
	svc := newTestService()

	_, err := svc.History(context.Background(), 10)
	require.Error(t, err)
}
