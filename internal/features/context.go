package features

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/internal/marketdata/cache"
	"github.com/optionscout/backend/pkg/config"
	"github.com/optionscout/backend/pkg/logger"
)

// velocitySoftCap is the 24h article count mapped to a velocity of 1.0.
const velocitySoftCap = 8

// macroKey is the single key of the global macro cache.
const macroKey = "macro"

// ContextResolver assembles news, filing-event and macro features per symbol.
// Each channel degrades independently: a missing provider yields the neutral
// value for that channel plus a note, never an error.
type ContextResolver struct {
	cfg    config.AnalysisConfig
	logger *logger.Logger

	news   []contracts.NewsProvider // fallback order
	events []contracts.EventProvider
	macro  []contracts.MacroProvider

	symbols  *cache.Loader[contracts.ContextEvidence]
	macroTTL *cache.Loader[contracts.Sourced[contracts.MacroSnapshot]]

	now func() time.Time
}

// ContextDeps carries the resolver's providers in fallback order.
type ContextDeps struct {
	News   []contracts.NewsProvider
	Events []contracts.EventProvider
	Macro  []contracts.MacroProvider
}

// NewContextResolver creates a context resolver with fresh caches.
func NewContextResolver(cfg config.AnalysisConfig, deps ContextDeps, log *logger.Logger) *ContextResolver {
	return &ContextResolver{
		cfg:      cfg,
		logger:   log,
		news:     deps.News,
		events:   deps.Events,
		macro:    deps.Macro,
		symbols:  cache.New[contracts.ContextEvidence](),
		macroTTL: cache.New[contracts.Sourced[contracts.MacroSnapshot]](),
		now:      time.Now,
	}
}

// Resolve returns the merged context evidence for a symbol, cached per symbol.
func (r *ContextResolver) Resolve(ctx context.Context, symbol string) (contracts.ContextEvidence, error) {
	return r.symbols.Load(ctx, symbol, r.cfg.ContextTTL, func(ctx context.Context) (contracts.ContextEvidence, error) {
		return r.resolve(ctx, symbol)
	})
}

func (r *ContextResolver) resolve(ctx context.Context, symbol string) (contracts.ContextEvidence, error) {
	evidence := contracts.ContextEvidence{
		Symbol:      symbol,
		NewsSource:  contracts.SourceNone,
		EventSource: contracts.SourceNone,
		MacroSource: contracts.SourceNone,
	}

	now := r.now()

	news, newsSource, notes := r.resolveNews(ctx, symbol)
	evidence.NewsSource = newsSource
	for _, note := range notes {
		evidence.Notes = append(evidence.Notes, note)
	}
	applyNewsFeatures(&evidence.Features, news, newsSource, now)

	event, eventSource, note := r.resolveEvent(ctx, symbol)
	evidence.EventSource = eventSource
	if note != "" {
		evidence.Notes = append(evidence.Notes, note)
	}
	evidence.Features.EventBias = event.EventBias
	evidence.Features.EventRisk = event.EventRisk

	macro, err := r.macroTTL.Load(ctx, macroKey, r.cfg.MacroTTL, func(ctx context.Context) (contracts.Sourced[contracts.MacroSnapshot], error) {
		return r.resolveMacro(ctx), nil
	})
	if err != nil {
		return contracts.ContextEvidence{}, err
	}
	evidence.MacroSource = macro.Source
	evidence.Features.MacroRegime = macro.Value.Regime
	evidence.Features.MacroScore = macro.Value.Score
	for _, note := range macro.Notes {
		evidence.Notes = append(evidence.Notes, note)
	}

	return evidence, nil
}

func (r *ContextResolver) resolveNews(ctx context.Context, symbol string) (contracts.NewsSnapshot, contracts.Source, []string) {
	var notes []string

	for _, provider := range r.news {
		if ctx.Err() != nil {
			break
		}
		snapshot, err := provider.GetNewsSnapshot(ctx, symbol)
		if err != nil {
			notes = append(notes, fmt.Sprintf("%s news: %v", provider.Name(), err))
			continue
		}
		return snapshot, provider.Name(), notes
	}

	notes = append(notes, "no news source available")
	return contracts.NewsSnapshot{}, contracts.SourceNone, notes
}

func (r *ContextResolver) resolveEvent(ctx context.Context, symbol string) (contracts.EventSnapshot, contracts.Source, string) {
	for _, provider := range r.events {
		if ctx.Err() != nil {
			break
		}
		snapshot, err := provider.GetEventSnapshot(ctx, symbol)
		if err != nil {
			return contracts.NeutralEvent(), contracts.SourceNone,
				fmt.Sprintf("%s events: %v, using neutral", provider.Name(), err)
		}
		return snapshot, provider.Name(), ""
	}

	return contracts.NeutralEvent(), contracts.SourceNone, "no filings source, using neutral event"
}

func (r *ContextResolver) resolveMacro(ctx context.Context) contracts.Sourced[contracts.MacroSnapshot] {
	for _, provider := range r.macro {
		if ctx.Err() != nil {
			break
		}
		snapshot, err := provider.GetMacroSnapshot(ctx)
		if err != nil {
			return contracts.WithSource(contracts.NeutralMacro(), contracts.SourceNone,
				fmt.Sprintf("%s macro: %v, using neutral regime", provider.Name(), err))
		}
		return contracts.WithSource(snapshot, provider.Name())
	}

	return contracts.WithSource(contracts.NeutralMacro(), contracts.SourceNone, "no macro source, using neutral regime")
}

// applyNewsFeatures derives the news metrics from the snapshot. All metrics
// stay zero when the channel produced no parseable articles.
func applyNewsFeatures(features *contracts.ContextFeatures, news contracts.NewsSnapshot, source contracts.Source, now time.Time) {
	features.NewsSentiment = news.Sentiment
	if source == contracts.SourceNone || len(news.Articles) == 0 {
		return
	}

	recent := 0
	newest := news.Articles[0].PublishedAt
	for _, article := range news.Articles {
		if now.Sub(article.PublishedAt) <= 24*time.Hour {
			recent++
		}
		if article.PublishedAt.After(newest) {
			newest = article.PublishedAt
		}
	}

	features.NewsVelocity = math.Min(1, float64(recent)/velocitySoftCap)

	ageHours := now.Sub(newest).Hours()
	features.NewsFreshness = clamp01(1 - ageHours/24)

	features.SentimentDispersion = sentimentDispersion(news.Articles)
}

// sentimentDispersion is the population standard deviation of per-article
// scores. It needs at least two scored articles to mean anything.
func sentimentDispersion(articles []contracts.NewsArticle) float64 {
	var scores []float64
	for _, article := range articles {
		if article.Scored {
			scores = append(scores, article.Sentiment)
		}
	}
	if len(scores) < 2 {
		return 0
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))

	var variance float64
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
	}
	variance /= float64(len(scores))

	return clamp01(math.Sqrt(variance))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
