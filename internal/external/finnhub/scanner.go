package finnhub

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/optionscout/backend/internal/contracts"
)

type marketNewsItem struct {
	Headline string `json:"headline"`
	Related  string `json:"related"` // comma-separated tickers
}

// GetScannerSymbols discovers active symbols by counting ticker mentions in
// the general market-news feed. Finnhub has no movers endpoint on the
// standard plan; mention frequency is a serviceable proxy for attention.
// The scan code is ignored because the feed is not session-bound.
func (c *Client) GetScannerSymbols(ctx context.Context, limit int, scanCode string) ([]string, string, error) {
	params := url.Values{}
	params.Set("category", "general")

	var items []marketNewsItem
	if err := c.getJSON(ctx, "/news", params, &items); err != nil {
		if contracts.IsDisabled(err) {
			return nil, "", err
		}
		return nil, "", contracts.Unavailablef("finnhub scanner: %v", err)
	}

	counts := make(map[string]int)
	for _, item := range items {
		for _, raw := range strings.Split(item.Related, ",") {
			symbol := strings.ToUpper(strings.TrimSpace(raw))
			if symbol == "" || strings.ContainsAny(symbol, ".:") {
				continue
			}
			counts[symbol]++
		}
	}

	if len(counts) == 0 {
		return nil, "", contracts.Unavailablef("finnhub scanner: no tickers in market news")
	}

	symbols := make([]string, 0, len(counts))
	for symbol := range counts {
		symbols = append(symbols, symbol)
	}
	sort.Slice(symbols, func(i, j int) bool {
		if counts[symbols[i]] != counts[symbols[j]] {
			return counts[symbols[i]] > counts[symbols[j]]
		}
		return symbols[i] < symbols[j]
	})

	if len(symbols) > limit {
		symbols = symbols[:limit]
	}

	return symbols, "finnhub discovery ranks by news-mention frequency", nil
}
