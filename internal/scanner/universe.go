package scanner

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/pkg/logger"
)

// vendorTimeout bounds each REST vendor's discovery call. The broker gets its
// own configured client timeout instead.
const vendorTimeout = 4500 * time.Millisecond

// UniverseBuilder merges a configured base universe with symbols discovered
// by ranked scanner providers. Providers are tried in reliability order until
// the target size is reached; every outcome feeds back into the ranking.
type UniverseBuilder struct {
	policy        contracts.PolicySource
	reliability   *Reliability
	providers     []contracts.ScannerProvider
	clock         MarketClock // optional
	brokerTimeout time.Duration
	logger        *logger.Logger
}

// NewUniverseBuilder creates a universe builder. brokerTimeout should come
// from the broker client's configured call timeout.
func NewUniverseBuilder(
	policy contracts.PolicySource,
	reliability *Reliability,
	providers []contracts.ScannerProvider,
	clock MarketClock,
	brokerTimeout time.Duration,
	log *logger.Logger,
) *UniverseBuilder {
	return &UniverseBuilder{
		policy:        policy,
		reliability:   reliability,
		providers:     providers,
		clock:         clock,
		brokerTimeout: brokerTimeout,
		logger:        log,
	}
}

// Build returns the scan universe: the deduplicated base, topped up to
// targetSize with discovered symbols when discovery is enabled. The result
// always reports which providers were tried and the ranking that ordered them.
func (b *UniverseBuilder) Build(ctx context.Context, base []string, targetSize int, opts contracts.DiscoveryOptions) (contracts.DynamicUniverseResult, error) {
	result := contracts.DynamicUniverseResult{}

	seen := make(map[string]bool)
	for _, raw := range base {
		symbol := strings.ToUpper(strings.TrimSpace(raw))
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		result.Symbols = append(result.Symbols, symbol)
	}

	ranked := b.rankProviders()
	for _, entry := range ranked {
		result.Ranking = append(result.Ranking, contracts.ProviderScore{
			Provider: string(entry.provider.Name()),
			Score:    entry.score,
		})
	}

	if !opts.Enabled {
		result.FallbackReason = "discovery disabled"
		return result, nil
	}

	needed := targetSize - len(result.Symbols)
	if needed <= 0 {
		result.FallbackReason = "base universe already at target size"
		return result, nil
	}

	scanCode, sessionNote := b.effectiveScanCode(ctx, opts.ScanCode)
	var notes []string
	if sessionNote != "" {
		notes = append(notes, sessionNote)
	}

	for _, entry := range ranked {
		if needed <= 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			notes = append(notes, "discovery aborted: context done")
			break
		}

		name := string(entry.provider.Name())
		result.ProvidersTried = append(result.ProvidersTried, name)

		symbols, note, err := b.callProvider(ctx, entry.provider, needed, scanCode)
		if err != nil {
			b.reliability.RecordFailure(name)
			notes = append(notes, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		b.reliability.RecordSuccess(name)
		if note != "" {
			notes = append(notes, fmt.Sprintf("%s: %s", name, note))
		}

		added := 0
		for _, symbol := range symbols {
			if needed <= 0 {
				break
			}
			if symbol == "" || seen[symbol] {
				continue
			}
			seen[symbol] = true
			result.Symbols = append(result.Symbols, symbol)
			result.Discovered = append(result.Discovered, symbol)
			added++
			needed--
		}

		if added > 0 {
			result.ProvidersUsed = append(result.ProvidersUsed, name)
			result.ScannerUsed = true
		}
	}

	if needed > 0 {
		notes = append(notes, fmt.Sprintf("universe short by %d symbols", needed))
	}
	result.FallbackReason = contracts.JoinNotes(notes)

	b.logger.WithFields(map[string]interface{}{
		"size":       len(result.Symbols),
		"discovered": len(result.Discovered),
		"providers":  result.ProvidersUsed,
	}).Info("Universe built")

	return result, nil
}

// callProvider invokes a provider under its per-provider timeout. A timeout
// counts as a failure like any other error.
func (b *UniverseBuilder) callProvider(ctx context.Context, provider contracts.ScannerProvider, limit int, scanCode string) ([]string, string, error) {
	timeout := vendorTimeout
	if provider.Name() == contracts.SourceBroker && b.brokerTimeout > 0 {
		timeout = b.brokerTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return provider.GetScannerSymbols(callCtx, limit, scanCode)
}

// effectiveScanCode substitutes the session-agnostic default for
// session-bound codes outside regular trading hours.
func (b *UniverseBuilder) effectiveScanCode(ctx context.Context, requested string) (string, string) {
	if requested == "" {
		return DefaultScanCode, ""
	}
	if !sessionBound(requested) || b.clock == nil {
		return requested, ""
	}

	state, err := b.clock.GetMarketState(ctx)
	if err != nil {
		// Unknown session: keep the requested code, note the blind spot.
		return requested, fmt.Sprintf("market clock unavailable (%v), keeping scan code %s", err, requested)
	}
	if state == "open" {
		return requested, ""
	}

	return DefaultScanCode, fmt.Sprintf("market %s, substituted %s for session-bound %s", state, DefaultScanCode, requested)
}

type rankedProvider struct {
	provider contracts.ScannerProvider
	score    float64
	pinned   bool
}

// rankProviders orders the allowed providers by reliability score. The broker
// is pinned ahead on ties; the configured scanner order contributes a small
// positional bonus.
func (b *UniverseBuilder) rankProviders() []rankedProvider {
	pref := b.policy.DataPreference()
	order := b.policy.ScannerOrder()

	orderBonus := func(name string) float64 {
		for i, n := range order {
			if n == name {
				return float64(len(order)-i) * 0.05
			}
		}
		return 0
	}

	ranked := make([]rankedProvider, 0, len(b.providers))
	for _, provider := range b.providers {
		name := provider.Name()
		isBroker := name == contracts.SourceBroker
		if pref == contracts.PreferBroker && !isBroker {
			continue
		}
		if pref == contracts.PreferVendor && isBroker {
			continue
		}

		ranked = append(ranked, rankedProvider{
			provider: provider,
			score:    b.reliability.Score(string(name), orderBonus(string(name))),
			pinned:   isBroker,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].pinned && !ranked[j].pinned
	})

	return ranked
}
