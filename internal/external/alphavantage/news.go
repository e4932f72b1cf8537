package alphavantage

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/optionscout/backend/internal/contracts"
)

// time_published format, e.g. "20260828T153000".
const publishedLayout = "20060102T150405"

type newsFeedPayload struct {
	Feed []struct {
		Title           string  `json:"title"`
		TimePublished   string  `json:"time_published"`
		OverallScore    float64 `json:"overall_sentiment_score"`
		TickerSentiment []struct {
			Ticker string `json:"ticker"`
			Score  string `json:"ticker_sentiment_score"` // stringly typed upstream
		} `json:"ticker_sentiment"`
	} `json:"feed"`
}

// GetNewsSnapshot fetches scored news via the NEWS_SENTIMENT function. Alpha Vantage
// scores each article, so the context resolver can compute real dispersion.
func (c *Client) GetNewsSnapshot(ctx context.Context, symbol string) (contracts.NewsSnapshot, error) {
	params := url.Values{}
	params.Set("tickers", symbol)
	params.Set("sort", "LATEST")
	params.Set("limit", "50")

	var payload newsFeedPayload
	if err := c.query(ctx, "NEWS_SENTIMENT", params, &payload); err != nil {
		if contracts.IsDisabled(err) {
			return contracts.NewsSnapshot{}, err
		}
		return contracts.NewsSnapshot{}, contracts.Unavailablef("alphavantage news: %v", err)
	}

	articles := make([]contracts.NewsArticle, 0, len(payload.Feed))
	var total float64
	for _, item := range payload.Feed {
		publishedAt, err := time.Parse(publishedLayout, item.TimePublished)
		if err != nil || item.Title == "" {
			continue
		}

		// Prefer the ticker-specific score over the article-wide one.
		score := item.OverallScore
		for _, ts := range item.TickerSentiment {
			if ts.Ticker == symbol {
				if parsed, err := strconv.ParseFloat(ts.Score, 64); err == nil {
					score = parsed
				}
				break
			}
		}

		articles = append(articles, contracts.NewsArticle{
			Title:       item.Title,
			PublishedAt: publishedAt.UTC(),
			Sentiment:   score,
			Scored:      true,
		})
		total += score
	}

	if len(articles) == 0 {
		return contracts.NewsSnapshot{}, contracts.Unavailablef("alphavantage news: no articles for %s", symbol)
	}

	return contracts.NewsSnapshot{
		Sentiment: total / float64(len(articles)),
		Articles:  articles,
	}, nil
}
