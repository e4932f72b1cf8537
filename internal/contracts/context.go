package contracts

import "time"

// NewsArticle is a single article from a news-sentiment provider.
type NewsArticle struct {
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
	Sentiment   float64   `json:"sentiment"` // -1.0 ~ 1.0
	Scored      bool      `json:"scored"`    // whether the provider attached a per-article score
}

// NewsSnapshot is the raw output of a news-sentiment provider.
type NewsSnapshot struct {
	Sentiment float64       `json:"sentiment"` // aggregate, -1.0 ~ 1.0
	Articles  []NewsArticle `json:"articles"`
}

// EventSnapshot captures filing-driven event expectations for a symbol.
type EventSnapshot struct {
	EventBias float64 `json:"event_bias"` // -1.0 ~ 1.0
	EventRisk float64 `json:"event_risk"` // 0.0 ~ 1.0
}

// NeutralEvent is the default when no filings provider is available.
func NeutralEvent() EventSnapshot {
	return EventSnapshot{}
}

// MacroSnapshot captures the market-wide macro regime.
type MacroSnapshot struct {
	Regime string  `json:"regime"` // "risk-on", "neutral", "risk-off"
	Score  float64 `json:"score"`  // -1.0 ~ 1.0
}

// NeutralMacro is the default when no macro provider is available.
func NeutralMacro() MacroSnapshot {
	return MacroSnapshot{Regime: "neutral"}
}

// ContextFeatures are the merged sentiment/event/macro features for a symbol.
type ContextFeatures struct {
	NewsSentiment       float64 `json:"news_sentiment"`       // -1.0 ~ 1.0
	NewsVelocity        float64 `json:"news_velocity"`        // 0.0 ~ 1.0, 24h article count / soft cap
	SentimentDispersion float64 `json:"sentiment_dispersion"` // 0.0 ~ 1.0
	NewsFreshness       float64 `json:"news_freshness"`       // 0.0 ~ 1.0
	EventBias           float64 `json:"event_bias"`
	EventRisk           float64 `json:"event_risk"`
	MacroRegime         string  `json:"macro_regime"`
	MacroScore          float64 `json:"macro_score"`
}

// ContextEvidence pairs context features with per-channel provenance.
type ContextEvidence struct {
	Symbol      string          `json:"symbol"`
	Features    ContextFeatures `json:"features"`
	NewsSource  Source          `json:"news_source"`
	EventSource Source          `json:"event_source"`
	MacroSource Source          `json:"macro_source"`
	Notes       []string        `json:"notes,omitempty"`
}

// Note returns the accumulated degradation notes, de-duplicated and capped.
func (e ContextEvidence) Note() string {
	return JoinNotes(e.Notes)
}
