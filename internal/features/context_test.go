package features

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/pkg/config"
	"github.com/optionscout/backend/pkg/logger"
)

type fakeNews struct {
	name     contracts.Source
	snapshot contracts.NewsSnapshot
	err      error
	calls    int
}

func (f *fakeNews) Name() contracts.Source { return f.name }
func (f *fakeNews) GetNewsSnapshot(ctx context.Context, symbol string) (contracts.NewsSnapshot, error) {
	f.calls++
	if f.err != nil {
		return contracts.NewsSnapshot{}, f.err
	}
	return f.snapshot, nil
}

type fakeEvents struct {
	name     contracts.Source
	snapshot contracts.EventSnapshot
	err      error
}

func (f *fakeEvents) Name() contracts.Source { return f.name }
func (f *fakeEvents) GetEventSnapshot(ctx context.Context, symbol string) (contracts.EventSnapshot, error) {
	if f.err != nil {
		return contracts.EventSnapshot{}, f.err
	}
	return f.snapshot, nil
}

type fakeMacro struct {
	name     contracts.Source
	snapshot contracts.MacroSnapshot
	err      error
	calls    int
}

func (f *fakeMacro) Name() contracts.Source { return f.name }
func (f *fakeMacro) GetMacroSnapshot(ctx context.Context) (contracts.MacroSnapshot, error) {
	f.calls++
	if f.err != nil {
		return contracts.MacroSnapshot{}, f.err
	}
	return f.snapshot, nil
}

func testConfig() config.AnalysisConfig {
	return config.AnalysisConfig{ContextTTL: 5 * time.Minute, MacroTTL: 15 * time.Minute}
}

func scoredArticle(age time.Duration, score float64) contracts.NewsArticle {
	return contracts.NewsArticle{
		Title:       "article",
		PublishedAt: time.Now().Add(-age),
		Sentiment:   score,
		Scored:      true,
	}
}

func TestResolve_AllChannelsLive(t *testing.T) {
	news := &fakeNews{name: contracts.SourceFinnhub, snapshot: contracts.NewsSnapshot{
		Sentiment: 0.4,
		Articles: []contracts.NewsArticle{
			scoredArticle(2*time.Hour, 0.6),
			scoredArticle(5*time.Hour, 0.2),
		},
	}}
	events := &fakeEvents{name: contracts.SourceEDGAR, snapshot: contracts.EventSnapshot{EventBias: 0.2, EventRisk: 0.25}}
	macro := &fakeMacro{name: contracts.SourceFRED, snapshot: contracts.MacroSnapshot{Regime: "risk-on", Score: 0.6}}

	r := NewContextResolver(testConfig(), ContextDeps{
		News:   []contracts.NewsProvider{news},
		Events: []contracts.EventProvider{events},
		Macro:  []contracts.MacroProvider{macro},
	}, logger.Nop())

	got, err := r.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, contracts.SourceFinnhub, got.NewsSource)
	require.Equal(t, contracts.SourceEDGAR, got.EventSource)
	require.Equal(t, contracts.SourceFRED, got.MacroSource)
	require.Equal(t, 0.4, got.Features.NewsSentiment)
	require.Equal(t, 0.25, got.Features.EventRisk)
	require.Equal(t, "risk-on", got.Features.MacroRegime)
	require.InDelta(t, 0.25, got.Features.NewsVelocity, 1e-9, "2 articles / cap 8")
	require.InDelta(t, 0.2, got.Features.SentimentDispersion, 1e-9)
	require.Greater(t, got.Features.NewsFreshness, 0.9)
	require.Empty(t, got.Note())
}

func TestResolve_NewsFallbackChain(t *testing.T) {
	primary := &fakeNews{name: contracts.SourceFinnhub, err: contracts.Disabledf("finnhub")}
	secondary := &fakeNews{name: contracts.SourceAlphaVantage, snapshot: contracts.NewsSnapshot{
		Sentiment: -0.3,
		Articles:  []contracts.NewsArticle{scoredArticle(time.Hour, -0.3)},
	}}

	r := NewContextResolver(testConfig(), ContextDeps{
		News: []contracts.NewsProvider{primary, secondary},
	}, logger.Nop())

	got, err := r.Resolve(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, contracts.SourceAlphaVantage, got.NewsSource)
	require.Contains(t, got.Note(), "finnhub news")
}

func TestResolve_AllChannelsDegrade(t *testing.T) {
	r := NewContextResolver(testConfig(), ContextDeps{
		News:   []contracts.NewsProvider{&fakeNews{name: contracts.SourceFinnhub, err: contracts.Unavailablef("down")}},
		Events: []contracts.EventProvider{&fakeEvents{name: contracts.SourceEDGAR, err: contracts.Unavailablef("down")}},
		Macro:  []contracts.MacroProvider{&fakeMacro{name: contracts.SourceFRED, err: contracts.Disabledf("fred")}},
	}, logger.Nop())

	got, err := r.Resolve(context.Background(), "AAPL")
	require.NoError(t, err, "channel degradation must never error")
	require.Equal(t, contracts.SourceNone, got.NewsSource)
	require.Equal(t, contracts.SourceNone, got.EventSource)
	require.Equal(t, contracts.SourceNone, got.MacroSource)
	require.Equal(t, "neutral", got.Features.MacroRegime)
	require.Zero(t, got.Features.EventBias)
	require.Zero(t, got.Features.NewsVelocity)
	require.NotEmpty(t, got.Note())
}

func TestResolve_MacroCachedGlobally(t *testing.T) {
	macro := &fakeMacro{name: contracts.SourceFRED, snapshot: contracts.MacroSnapshot{Regime: "neutral"}}
	r := NewContextResolver(testConfig(), ContextDeps{
		Macro: []contracts.MacroProvider{macro},
	}, logger.Nop())

	for _, symbol := range []string{"AAPL", "MSFT", "NVDA"} {
		_, err := r.Resolve(context.Background(), symbol)
		require.NoError(t, err)
	}
	require.Equal(t, 1, macro.calls, "macro must be fetched once across symbols")
}

func TestResolve_PerSymbolCache(t *testing.T) {
	news := &fakeNews{name: contracts.SourceFinnhub, snapshot: contracts.NewsSnapshot{}}
	r := NewContextResolver(testConfig(), ContextDeps{
		News: []contracts.NewsProvider{news},
	}, logger.Nop())

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(context.Background(), "AAPL")
		require.NoError(t, err)
	}
	require.Equal(t, 1, news.calls)
}

func TestSentimentDispersion(t *testing.T) {
	tests := []struct {
		name     string
		articles []contracts.NewsArticle
		want     float64
	}{
		{name: "no articles", want: 0},
		{
			name:     "one scored article",
			articles: []contracts.NewsArticle{scoredArticle(time.Hour, 0.5)},
			want:     0,
		},
		{
			name: "unscored articles ignored",
			articles: []contracts.NewsArticle{
				{Title: "a", Sentiment: 1},
				{Title: "b", Sentiment: -1},
			},
			want: 0,
		},
		{
			name: "symmetric scores",
			articles: []contracts.NewsArticle{
				scoredArticle(time.Hour, 0.5),
				scoredArticle(time.Hour, -0.5),
			},
			want: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.InDelta(t, tt.want, sentimentDispersion(tt.articles), 1e-9)
		})
	}
}

func TestApplyNewsFeatures_Freshness(t *testing.T) {
	now := time.Now()

	var stale contracts.ContextFeatures
	applyNewsFeatures(&stale, contracts.NewsSnapshot{
		Articles: []contracts.NewsArticle{{Title: "old", PublishedAt: now.Add(-48 * time.Hour)}},
	}, contracts.SourceFinnhub, now)
	require.Zero(t, stale.NewsFreshness, "freshness clamps at zero after a day")
	require.Zero(t, stale.NewsVelocity, "48h-old article is outside the velocity window")

	var fresh contracts.ContextFeatures
	applyNewsFeatures(&fresh, contracts.NewsSnapshot{
		Articles: []contracts.NewsArticle{{Title: "new", PublishedAt: now.Add(-6 * time.Hour)}},
	}, contracts.SourceFinnhub, now)
	require.InDelta(t, 0.75, fresh.NewsFreshness, 1e-9)
}
