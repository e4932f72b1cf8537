package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/internal/marketdata/cache"
	"github.com/optionscout/backend/internal/marketdata/stream"
	"github.com/optionscout/backend/pkg/config"
	"github.com/optionscout/backend/pkg/logger"
)

// Resolver answers quote, history and option-chain requests through a
// policy-ordered provider chain. Every failure is absorbed into a note and
// the next provider is tried; the deterministic synthetic generator is the
// last resort, so a resolve only errors when the caller's context dies.
type Resolver struct {
	cfg    config.AnalysisConfig
	policy contracts.PolicySource
	ticks  *stream.Cache
	logger *logger.Logger

	quoteProviders []contracts.QuoteProvider
	barsProviders  []contracts.BarsProvider
	chainProviders []contracts.ChainProvider

	quotes *cache.Loader[contracts.Sourced[contracts.Quote]]
	bars   *cache.Loader[contracts.Sourced[[]contracts.DailyBar]]
	chains *cache.Loader[contracts.Sourced[[]contracts.OptionContract]]
}

// ResolverDeps carries the resolver's injected collaborators. Provider slices
// are in fallback order; policy filtering happens at call time.
type ResolverDeps struct {
	Policy contracts.PolicySource
	Ticks  *stream.Cache // optional
	Quotes []contracts.QuoteProvider
	Bars   []contracts.BarsProvider
	Chains []contracts.ChainProvider
}

// NewResolver creates a resolver with fresh caches.
func NewResolver(cfg config.AnalysisConfig, deps ResolverDeps, log *logger.Logger) *Resolver {
	return &Resolver{
		cfg:            cfg,
		policy:         deps.Policy,
		ticks:          deps.Ticks,
		logger:         log,
		quoteProviders: deps.Quotes,
		barsProviders:  deps.Bars,
		chainProviders: deps.Chains,
		quotes:         cache.New[contracts.Sourced[contracts.Quote]](),
		bars:           cache.New[contracts.Sourced[[]contracts.DailyBar]](),
		chains:         cache.New[contracts.Sourced[[]contracts.OptionContract]](),
	}
}

// brokerFamily reports whether a source belongs to the broker gateway.
func brokerFamily(s contracts.Source) bool {
	return s == contracts.SourceBroker || s == contracts.SourceBrokerStream
}

// filterByPreference keeps the providers the current data preference allows,
// preserving their fallback order.
func filterByPreference[P interface{ Name() contracts.Source }](providers []P, pref contracts.DataPreference) []P {
	if pref == contracts.PreferAuto {
		return providers
	}

	kept := make([]P, 0, len(providers))
	for _, p := range providers {
		isBroker := brokerFamily(p.Name())
		if (pref == contracts.PreferBroker) == isBroker {
			kept = append(kept, p)
		}
	}
	return kept
}

// ResolveQuote returns a provenance-tagged quote. A fresh streaming tick
// short-circuits the REST chain entirely.
func (r *Resolver) ResolveQuote(ctx context.Context, symbol string) (contracts.Sourced[contracts.Quote], error) {
	pref := r.policy.DataPreference()

	if r.ticks != nil && pref != contracts.PreferVendor {
		if tick, ok := r.ticks.Fresh(symbol); ok {
			return contracts.WithSource(tick.Quote(), tick.Source), nil
		}
	}

	return r.quotes.Load(ctx, symbol, r.cfg.QuoteTTL, func(ctx context.Context) (contracts.Sourced[contracts.Quote], error) {
		return r.resolveQuote(ctx, symbol, pref)
	})
}

func (r *Resolver) resolveQuote(ctx context.Context, symbol string, pref contracts.DataPreference) (contracts.Sourced[contracts.Quote], error) {
	var notes []string

	for _, provider := range filterByPreference(r.quoteProviders, pref) {
		if err := ctx.Err(); err != nil {
			return contracts.Sourced[contracts.Quote]{}, err
		}

		quote, err := provider.GetQuote(ctx, symbol)
		if err != nil {
			notes = append(notes, fmt.Sprintf("%s quote: %v", provider.Name(), err))
			continue
		}

		return contracts.WithSource(quote, provider.Name(), notes...), nil
	}

	r.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"note":   contracts.JoinNotes(notes),
	}).Warn("All quote providers failed, substituting synthetic")

	notes = append(notes, "synthetic quote substituted")
	return contracts.WithSource(SyntheticQuote(symbol, time.Now()), contracts.SourceSynthetic, notes...), nil
}

// ResolveSnapshotAndHistory bundles a quote with barsRequested daily bars.
// The snapshot's source follows the history; a quote from a different source
// is recorded in the notes.
func (r *Resolver) ResolveSnapshotAndHistory(ctx context.Context, symbol string, barsRequested int) (contracts.Sourced[contracts.SnapshotHistory], error) {
	quote, err := r.ResolveQuote(ctx, symbol)
	if err != nil {
		return contracts.Sourced[contracts.SnapshotHistory]{}, err
	}

	key := fmt.Sprintf("%s|%d", symbol, barsRequested)
	bars, err := r.bars.Load(ctx, key, r.cfg.BarsTTL, func(ctx context.Context) (contracts.Sourced[[]contracts.DailyBar], error) {
		return r.resolveBars(ctx, symbol, barsRequested)
	})
	if err != nil {
		return contracts.Sourced[contracts.SnapshotHistory]{}, err
	}

	closes := make([]float64, len(bars.Value))
	for i, bar := range bars.Value {
		closes[i] = bar.Close
	}

	snapshot := contracts.WithSource(contracts.SnapshotHistory{
		Quote:  quote.Value,
		Bars:   bars.Value,
		Closes: closes,
	}, bars.Source, bars.Notes...)

	for _, note := range quote.Notes {
		snapshot.AddNote(note)
	}
	if quote.Source != bars.Source {
		snapshot.AddNote(fmt.Sprintf("quote from %s", quote.Source))
	}

	return snapshot, nil
}

func (r *Resolver) resolveBars(ctx context.Context, symbol string, count int) (contracts.Sourced[[]contracts.DailyBar], error) {
	var notes []string

	for _, provider := range filterByPreference(r.barsProviders, r.policy.DataPreference()) {
		if err := ctx.Err(); err != nil {
			return contracts.Sourced[[]contracts.DailyBar]{}, err
		}

		bars, err := provider.GetDailyBars(ctx, symbol, count)
		if err != nil || len(bars) == 0 {
			if err == nil {
				err = contracts.Unavailablef("empty history")
			}
			notes = append(notes, fmt.Sprintf("%s bars: %v", provider.Name(), err))
			continue
		}

		return contracts.WithSource(bars, provider.Name(), notes...), nil
	}

	r.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"note":   contracts.JoinNotes(notes),
	}).Warn("All bar providers failed, substituting synthetic history")

	notes = append(notes, "synthetic history substituted")
	return contracts.WithSource(SyntheticBars(symbol, count, time.Now()), contracts.SourceSynthetic, notes...), nil
}

// ResolveOptionChain returns a provenance-tagged chain inside the DTE window,
// enriched around the underlying price. The cache key rounds the underlying
// so small price moves reuse the cached chain.
func (r *Resolver) ResolveOptionChain(ctx context.Context, symbol string, underlyingPrice float64, dteMin, dteMax int) (contracts.Sourced[[]contracts.OptionContract], error) {
	key := fmt.Sprintf("%s|%d-%d|%.0f", symbol, dteMin, dteMax, underlyingPrice)
	return r.chains.Load(ctx, key, r.cfg.ChainTTL, func(ctx context.Context) (contracts.Sourced[[]contracts.OptionContract], error) {
		return r.resolveChain(ctx, symbol, underlyingPrice, dteMin, dteMax)
	})
}

func (r *Resolver) resolveChain(ctx context.Context, symbol string, underlying float64, dteMin, dteMax int) (contracts.Sourced[[]contracts.OptionContract], error) {
	var notes []string

	for _, provider := range filterByPreference(r.chainProviders, r.policy.DataPreference()) {
		if err := ctx.Err(); err != nil {
			return contracts.Sourced[[]contracts.OptionContract]{}, err
		}

		chain, err := provider.GetOptionChain(ctx, symbol, underlying, dteMin, dteMax)
		if err != nil {
			notes = append(notes, fmt.Sprintf("%s chain: %v", provider.Name(), err))
			continue
		}

		final := finalizeChain(chain, underlying)
		if len(final) == 0 {
			notes = append(notes, fmt.Sprintf("%s chain: no priceable contracts", provider.Name()))
			continue
		}

		return contracts.WithSource(final, provider.Name(), notes...), nil
	}

	r.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"note":   contracts.JoinNotes(notes),
	}).Warn("All chain providers failed, substituting synthetic chain")

	notes = append(notes, "synthetic chain substituted")
	chain := SyntheticChain(symbol, underlying, dteMin, dteMax, time.Now())
	return contracts.WithSource(chain, contracts.SourceSynthetic, notes...), nil
}

// InvalidateSymbol drops cached quote state for a symbol. The bars and chain
// caches key on request parameters and age out on their own TTLs.
func (r *Resolver) InvalidateSymbol(symbol string) {
	r.quotes.Invalidate(symbol)
}
