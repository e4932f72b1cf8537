package brain

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/pkg/config"
	"github.com/optionscout/backend/pkg/logger"
)

// deadlineMargin is shaved off the budget so ranking and result assembly
// finish inside the caller's deadline.
const deadlineMargin = 250 * time.Millisecond

// Option chain window used for every scan.
const (
	chainDTEMin = 7
	chainDTEMax = 45
)

// barsRequested is the history depth fetched per symbol; 60 trading days
// covers the 60d relative-return lookback.
const barsRequested = 60

// preferredBenchmark anchors relative returns when it was computed in the run.
const preferredBenchmark = "SPY"

// DataResolver is the market-data surface the orchestrator consumes.
type DataResolver interface {
	ResolveSnapshotAndHistory(ctx context.Context, symbol string, barsRequested int) (contracts.Sourced[contracts.SnapshotHistory], error)
	ResolveOptionChain(ctx context.Context, symbol string, underlyingPrice float64, dteMin, dteMax int) (contracts.Sourced[[]contracts.OptionContract], error)
}

// ContextResolver is the context-features surface the orchestrator consumes.
type ContextResolver interface {
	Resolve(ctx context.Context, symbol string) (contracts.ContextEvidence, error)
}

// Orchestrator runs budgeted scans: a fixed worker pool drains the universe
// under a wall-clock budget and returns best-effort partial results.
type Orchestrator struct {
	cfg     config.AnalysisConfig
	policy  contracts.PolicySource
	data    DataResolver
	context ContextResolver
	scorer  contracts.Scorer
	logger  *logger.Logger

	// Identical concurrent runs share one execution.
	runs singleflight.Group
}

// NewOrchestrator creates a scan orchestrator.
func NewOrchestrator(
	cfg config.AnalysisConfig,
	policy contracts.PolicySource,
	data DataResolver,
	contextResolver ContextResolver,
	scorer contracts.Scorer,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:     cfg,
		policy:  policy,
		data:    data,
		context: contextResolver,
		scorer:  scorer,
		logger:  log,
	}
}

// RunBudgetedScan computes, scores and ranks the universe within budget.
// When the budget expires mid-run the result is partial, flagged timedOut,
// with a reason naming how far the run got. Concurrent calls with identical
// parameters are coalesced into one execution.
func (o *Orchestrator) RunBudgetedScan(ctx context.Context, universe []string, topN int, budget, perSymbolTimeout time.Duration) (*contracts.ScanResult, error) {
	key := runKey(universe, topN, budget, perSymbolTimeout)

	result, err, shared := o.runs.Do(key, func() (interface{}, error) {
		return o.run(ctx, universe, topN, budget, perSymbolTimeout)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		o.logger.WithField("run_id", result.(*contracts.ScanResult).RunID).Debug("Joined in-flight scan")
	}

	return result.(*contracts.ScanResult), nil
}

func (o *Orchestrator) run(ctx context.Context, universe []string, topN int, budget, perSymbolTimeout time.Duration) (*contracts.ScanResult, error) {
	start := time.Now()
	deadline := start.Add(budget - deadlineMargin)

	workCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	workers := o.cfg.Workers
	if o.policy.DataPreference() == contracts.PreferBroker {
		// The gateway is rate-limit-sensitive; hammer it less.
		workers = o.cfg.BrokerWorkers
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(universe) {
		workers = len(universe)
	}

	var (
		mu        sync.Mutex
		cursor    int
		attempted int
		completed []*contracts.SymbolComputation
	)

	next := func() (string, bool) {
		mu.Lock()
		defer mu.Unlock()
		if cursor >= len(universe) {
			return "", false
		}
		symbol := universe[cursor]
		cursor++
		attempted++
		return symbol, true
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if workCtx.Err() != nil {
					return
				}
				symbol, ok := next()
				if !ok {
					return
				}

				comp, err := o.computeSymbol(workCtx, symbol, perSymbolTimeout, deadline)
				if err != nil {
					o.logger.WithFields(map[string]interface{}{
						"symbol": symbol,
						"error":  err.Error(),
					}).Debug("Symbol dropped from scan")
					continue
				}

				mu.Lock()
				completed = append(completed, comp)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	timedOut := workCtx.Err() != nil && ctx.Err() == nil

	result := &contracts.ScanResult{
		RunID:            fmt.Sprintf("scan-%d", start.UnixNano()),
		AttemptedSymbols: attempted,
		CompletedSymbols: len(completed),
		TimedOut:         timedOut,
		StartedAt:        start,
	}

	if timedOut || len(completed) < len(universe) {
		result.Reason = fmt.Sprintf("%d/%d symbols completed, budget %dms",
			len(completed), len(universe), budget.Milliseconds())
	}

	result.Benchmark = pickBenchmark(completed)
	applyRelativeReturns(completed, result.Benchmark)

	for _, comp := range completed {
		comp.Score = o.scorer.Score(comp)
	}
	sort.SliceStable(completed, func(i, j int) bool {
		return completed[i].Score > completed[j].Score
	})
	for i, comp := range completed {
		comp.Rank = i + 1
	}
	if len(completed) > topN {
		completed = completed[:topN]
	}
	result.Ranked = completed
	result.Duration = time.Since(start)

	o.logger.WithFields(map[string]interface{}{
		"run_id":    result.RunID,
		"universe":  len(universe),
		"completed": result.CompletedSymbols,
		"timed_out": result.TimedOut,
		"duration":  result.Duration,
	}).Info("Budgeted scan finished")

	return result, nil
}

// computeSymbol assembles one symbol bundle under its per-symbol timeout,
// capped at the time remaining in the run.
func (o *Orchestrator) computeSymbol(ctx context.Context, symbol string, perSymbolTimeout time.Duration, deadline time.Time) (*contracts.SymbolComputation, error) {
	timeout := perSymbolTimeout
	if remaining := time.Until(deadline); remaining < timeout {
		timeout = remaining
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	symCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	snapshot, err := o.data.ResolveSnapshotAndHistory(symCtx, symbol, barsRequested)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", symbol, err)
	}

	chain, err := o.data.ResolveOptionChain(symCtx, symbol, snapshot.Value.Quote.Price(), chainDTEMin, chainDTEMax)
	if err != nil {
		return nil, fmt.Errorf("chain %s: %w", symbol, err)
	}

	evidence, err := o.context.Resolve(symCtx, symbol)
	if err != nil {
		return nil, fmt.Errorf("context %s: %w", symbol, err)
	}

	return &contracts.SymbolComputation{
		Symbol:   symbol,
		Snapshot: snapshot,
		Chain:    chain,
		Context:  evidence,
	}, nil
}

// pickBenchmark prefers SPY when it completed; otherwise the highest-volume
// completed symbol anchors the cross-section.
func pickBenchmark(completed []*contracts.SymbolComputation) string {
	if len(completed) == 0 {
		return ""
	}

	best := completed[0]
	for _, comp := range completed {
		if comp.Symbol == preferredBenchmark {
			return preferredBenchmark
		}
		if comp.Snapshot.Value.Quote.Volume > best.Snapshot.Value.Quote.Volume {
			best = comp
		}
	}
	return best.Symbol
}

// applyRelativeReturns fills the 20d/60d benchmark-relative returns, clamped
// to [-1, 1]. The benchmark itself scores zero on both.
func applyRelativeReturns(completed []*contracts.SymbolComputation, benchmark string) {
	if benchmark == "" {
		return
	}

	var benchCloses []float64
	for _, comp := range completed {
		if comp.Symbol == benchmark {
			benchCloses = comp.Snapshot.Value.Closes
			break
		}
	}
	if len(benchCloses) == 0 {
		return
	}

	bench20 := trailingReturn(benchCloses, 20)
	bench60 := trailingReturn(benchCloses, 60)

	for _, comp := range completed {
		closes := comp.Snapshot.Value.Closes
		comp.RelReturn20 = clampSigned(trailingReturn(closes, 20) - bench20)
		comp.RelReturn60 = clampSigned(trailingReturn(closes, 60) - bench60)
	}
}

// trailingReturn is the simple return over the last n closes (or the whole
// series when shorter).
func trailingReturn(closes []float64, n int) float64 {
	if len(closes) < 2 {
		return 0
	}

	start := 0
	if len(closes)-1 > n {
		start = len(closes) - 1 - n
	}
	if closes[start] <= 0 {
		return 0
	}
	return closes[len(closes)-1]/closes[start] - 1
}

func clampSigned(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// runKey identifies a scan execution for coalescing.
func runKey(universe []string, topN int, budget, perSymbolTimeout time.Duration) string {
	return fmt.Sprintf("%s|%d|%s|%s", strings.Join(universe, ","), topN, budget, perSymbolTimeout)
}
