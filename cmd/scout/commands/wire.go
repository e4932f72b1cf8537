package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/optionscout/backend/internal/brain"
	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/internal/external/alphavantage"
	"github.com/optionscout/backend/internal/external/broker"
	"github.com/optionscout/backend/internal/external/edgar"
	"github.com/optionscout/backend/internal/external/finnhub"
	"github.com/optionscout/backend/internal/external/fred"
	"github.com/optionscout/backend/internal/external/llm"
	"github.com/optionscout/backend/internal/external/tradier"
	"github.com/optionscout/backend/internal/features"
	"github.com/optionscout/backend/internal/marketdata"
	"github.com/optionscout/backend/internal/marketdata/stream"
	"github.com/optionscout/backend/internal/policy"
	"github.com/optionscout/backend/internal/scan"
	"github.com/optionscout/backend/internal/scanner"
	"github.com/optionscout/backend/internal/scoring"
	"github.com/optionscout/backend/pkg/config"
	"github.com/optionscout/backend/pkg/database"
	"github.com/optionscout/backend/pkg/httputil"
	"github.com/optionscout/backend/pkg/logger"
	"github.com/optionscout/backend/pkg/redis"
)

// app holds the assembled application graph. Commands pick the pieces they
// need; close releases every held resource.
type app struct {
	cfg *config.Config
	log *logger.Logger

	db          *database.DB  // nil without DATABASE_URL
	redisClient *redis.Client // no-op when Redis is disabled
	cache       *redis.Cache

	ticks        *stream.Cache
	broker       *broker.Client
	streamClient *broker.StreamClient // nil when the broker is disabled

	policy       *policy.ConfigSource
	reliability  *scanner.Reliability
	clock        scanner.MarketClock
	builder      *scanner.UniverseBuilder
	resolver     *marketdata.Resolver
	orchestrator *brain.Orchestrator
	service      *scan.Service
	scannerNames []string
}

// buildApp wires the full stack from configuration. The database and Redis
// are optional; everything else degrades through the provider chain.
func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	var db *database.DB
	var repo *scan.Repository
	if cfg.Database.URL != "" {
		db, err = database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		repo = scan.NewRepository(db.Pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		log.Info("Connected to database")
	} else {
		log.Info("DATABASE_URL not set, scan persistence disabled")
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	cache := redis.NewCache(redisClient, "scout")

	httpClient := httputil.New(log)

	// Sliding-window limits for the strictest vendors, shared across
	// processes when Redis is up. The broker keeps its local token bucket.
	vendorClient := func(key string, limit int, window time.Duration) *httputil.Client {
		if !redisClient.Enabled() {
			return httpClient
		}
		limiter := redis.NewRateLimiter(redisClient, "scout")
		return httpClient.WithRateLimiter(limiter, redis.RateLimitConfig{
			Key:    key,
			Limit:  limit,
			Window: window,
		})
	}

	brokerClient := broker.NewClient(cfg.Broker, httpClient, log)
	tradierClient := tradier.NewClient(cfg.Tradier, vendorClient("tradier", 120, time.Minute), log)
	finnhubClient := finnhub.NewClient(cfg.Finnhub, vendorClient("finnhub", 60, time.Minute), log)
	avClient := alphavantage.NewClient(cfg.AlphaVantage, vendorClient("alphavantage", 5, time.Minute), log)
	edgarClient := edgar.NewClient(cfg.EDGAR, vendorClient("edgar", 10, time.Second), log)
	fredClient := fred.NewClient(cfg.FRED, vendorClient("fred", 60, time.Minute), log)
	llmClient := llm.NewClient(cfg.LLM, httpClient, log)

	ticks := stream.NewCache(cfg.Analysis.QuoteTTL, log)
	var streamClient *broker.StreamClient
	if cfg.Broker.Enabled {
		streamClient = broker.NewStreamClient(cfg.Broker, log, ticks)
	}

	pol := policy.FromConfig(cfg.Analysis)
	reliability := scanner.NewReliability()

	scanners := []contracts.ScannerProvider{brokerClient, avClient, finnhubClient, llmClient}
	names := make([]string, 0, len(scanners))
	for _, s := range scanners {
		names = append(names, string(s.Name()))
	}

	builder := scanner.NewUniverseBuilder(pol, reliability, scanners, tradierClient,
		brokerClient.CallTimeout(), log)

	resolver := marketdata.NewResolver(cfg.Analysis, marketdata.ResolverDeps{
		Policy: pol,
		Ticks:  ticks,
		Quotes: []contracts.QuoteProvider{brokerClient, tradierClient},
		Bars:   []contracts.BarsProvider{brokerClient, tradierClient},
		Chains: []contracts.ChainProvider{brokerClient, tradierClient},
	}, log)

	contextResolver := features.NewContextResolver(cfg.Analysis, features.ContextDeps{
		News:   []contracts.NewsProvider{finnhubClient, avClient},
		Events: []contracts.EventProvider{edgarClient},
		Macro:  []contracts.MacroProvider{fredClient},
	}, log)

	orchestrator := brain.NewOrchestrator(cfg.Analysis, pol, resolver, contextResolver,
		scoring.NewComposite(scoring.DefaultWeights()), log)

	service := scan.NewService(cfg.Analysis, builder, orchestrator, repo, cache, log)

	return &app{
		cfg:          cfg,
		log:          log,
		db:           db,
		redisClient:  redisClient,
		cache:        cache,
		ticks:        ticks,
		broker:       brokerClient,
		streamClient: streamClient,
		policy:       pol,
		reliability:  reliability,
		clock:        tradierClient,
		builder:      builder,
		resolver:     resolver,
		orchestrator: orchestrator,
		service:      service,
		scannerNames: names,
	}, nil
}

// close releases the database and Redis connections.
func (a *app) close() {
	if a.streamClient != nil {
		a.streamClient.Stop()
	}
	if a.redisClient != nil {
		_ = a.redisClient.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
