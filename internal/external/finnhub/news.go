package finnhub

import (
	"context"
	"net/url"
	"time"

	"github.com/optionscout/backend/internal/contracts"
)

type companyNewsItem struct {
	Datetime int64  `json:"datetime"` // unix seconds
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
	Source   string `json:"source"`
}

type sentimentPayload struct {
	Sentiment struct {
		BullishPercent float64 `json:"bullishPercent"`
		BearishPercent float64 `json:"bearishPercent"`
	} `json:"sentiment"`
	CompanyNewsScore float64 `json:"companyNewsScore"`
}

// GetNewsSnapshot fetches recent company news and an aggregate sentiment reading.
// Finnhub does not score individual articles, so Scored stays false and the
// context resolver derives dispersion from the aggregate only.
func (c *Client) GetNewsSnapshot(ctx context.Context, symbol string) (contracts.NewsSnapshot, error) {
	now := time.Now()
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("from", now.AddDate(0, 0, -7).Format("2006-01-02"))
	params.Set("to", now.Format("2006-01-02"))

	var items []companyNewsItem
	if err := c.getJSON(ctx, "/company-news", params, &items); err != nil {
		if contracts.IsDisabled(err) {
			return contracts.NewsSnapshot{}, err
		}
		return contracts.NewsSnapshot{}, contracts.Unavailablef("finnhub news: %v", err)
	}

	articles := make([]contracts.NewsArticle, 0, len(items))
	for _, item := range items {
		if item.Headline == "" || item.Datetime <= 0 {
			continue
		}
		articles = append(articles, contracts.NewsArticle{
			Title:       item.Headline,
			PublishedAt: time.Unix(item.Datetime, 0).UTC(),
		})
	}

	if len(articles) == 0 {
		return contracts.NewsSnapshot{}, contracts.Unavailablef("finnhub news: no articles for %s", symbol)
	}

	snapshot := contracts.NewsSnapshot{Articles: articles}

	// Aggregate sentiment is a separate endpoint and may be gated; the
	// articles alone are still useful, so a failure here is non-fatal.
	var payload sentimentPayload
	sentParams := url.Values{}
	sentParams.Set("symbol", symbol)
	if err := c.getJSON(ctx, "/news-sentiment", sentParams, &payload); err == nil {
		snapshot.Sentiment = clampSigned(payload.Sentiment.BullishPercent - payload.Sentiment.BearishPercent)
	} else {
		c.logger.WithField("symbol", symbol).Debug("Finnhub sentiment endpoint unavailable, using articles only")
	}

	return snapshot, nil
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
