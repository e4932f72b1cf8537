package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/optionscout/backend/internal/brain"
	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/internal/scanner"
	"github.com/optionscout/backend/pkg/config"
	"github.com/optionscout/backend/pkg/logger"
	"github.com/optionscout/backend/pkg/redis"
)

// latestTTL bounds how long a cached latest-scan entry survives in Redis.
const latestTTL = time.Hour

// ErrNoRuns is returned when no scan has completed yet.
var ErrNoRuns = errors.New("no scan runs available")

// RunOptions parameterizes one scan. Zero values fall back to configuration.
type RunOptions struct {
	Symbols          []string                   `json:"symbols,omitempty"`
	TargetSize       int                        `json:"target_size,omitempty"`
	TopN             int                        `json:"top_n,omitempty"`
	Budget           time.Duration              `json:"-"`
	PerSymbolTimeout time.Duration              `json:"-"`
	Discovery        contracts.DiscoveryOptions `json:"discovery"`
}

// Service runs the full scan flow: build the universe, run the budgeted
// scan, persist the result and cache it for cheap retrieval. The repository
// and the Redis cache are both optional; the service keeps the latest result
// in memory regardless.
type Service struct {
	cfg          config.AnalysisConfig
	builder      *scanner.UniverseBuilder
	orchestrator *brain.Orchestrator
	repo         *Repository  // optional
	cache        *redis.Cache // optional
	logger       *logger.Logger

	mu     sync.RWMutex
	latest *contracts.ScanResult
}

// NewService creates a scan service. repo and cache may be nil.
func NewService(
	cfg config.AnalysisConfig,
	builder *scanner.UniverseBuilder,
	orchestrator *brain.Orchestrator,
	repo *Repository,
	cache *redis.Cache,
	log *logger.Logger,
) *Service {
	return &Service{
		cfg:          cfg,
		builder:      builder,
		orchestrator: orchestrator,
		repo:         repo,
		cache:        cache,
		logger:       log,
	}
}

// normalize fills unset options from configuration.
func (s *Service) normalize(opts RunOptions) RunOptions {
	if len(opts.Symbols) == 0 {
		opts.Symbols = s.cfg.BaseUniverse
	}
	if opts.TargetSize <= 0 {
		opts.TargetSize = s.cfg.UniverseSize
	}
	if opts.TopN <= 0 {
		opts.TopN = s.cfg.TopN
	}
	if opts.Budget <= 0 {
		opts.Budget = s.cfg.Budget
	}
	if opts.PerSymbolTimeout <= 0 {
		opts.PerSymbolTimeout = s.cfg.PerSymbolTimeout
	}
	return opts
}

// Run builds the universe and runs one budgeted scan. Persistence and
// caching are best-effort: their failures are logged, never returned.
func (s *Service) Run(ctx context.Context, opts RunOptions) (*contracts.ScanResult, error) {
	opts = s.normalize(opts)

	universe, err := s.builder.Build(ctx, opts.Symbols, opts.TargetSize, opts.Discovery)
	if err != nil {
		return nil, fmt.Errorf("build universe: %w", err)
	}
	if len(universe.Symbols) == 0 {
		return nil, fmt.Errorf("empty universe: %s", universe.FallbackReason)
	}

	shared, err := s.orchestrator.RunBudgetedScan(ctx, universe.Symbols, opts.TopN, opts.Budget, opts.PerSymbolTimeout)
	if err != nil {
		return nil, fmt.Errorf("run scan: %w", err)
	}

	// Coalesced runs hand every caller the same result; copy before
	// attaching this caller's universe so callers never write to it.
	copied := *shared
	copied.Universe = universe
	result := &copied

	s.mu.Lock()
	s.latest = result
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.SaveResult(ctx, result); err != nil {
			s.logger.WithError(err).Warn("Failed to persist scan result")
		}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, redis.LatestScanKey(), result, latestTTL); err != nil {
			s.logger.WithError(err).Warn("Failed to cache scan result")
		}
	}

	return result, nil
}

// Latest returns the most recent scan result: in-memory first, then the
// Redis cache, then the database.
func (s *Service) Latest(ctx context.Context) (*contracts.ScanResult, error) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()
	if latest != nil {
		return latest, nil
	}

	if s.cache != nil {
		var cached contracts.ScanResult
		if found, err := s.cache.Get(ctx, redis.LatestScanKey(), &cached); err == nil && found {
			return &cached, nil
		}
	}

	if s.repo != nil {
		result, err := s.repo.GetLatestResult(ctx)
		if err == nil {
			return result, nil
		}
	}

	return nil, ErrNoRuns
}

// History lists recent run summaries from the database.
func (s *Service) History(ctx context.Context, limit int) ([]*contracts.ScanResult, error) {
	if s.repo == nil {
		return nil, errors.New("scan history requires a database")
	}
	return s.repo.ListRuns(ctx, limit)
}
