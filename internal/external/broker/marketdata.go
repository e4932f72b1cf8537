package broker

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/optionscout/backend/internal/contracts"
)

// Gateway market-data payloads. The decoder maps the gateway's documented
// schema to the internal types; shape variance stays at this boundary.

type quotePayload struct {
	Symbol    string  `json:"symbol"`
	Last      float64 `json:"last"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	Volume    int64   `json:"volume"`
	Timestamp int64   `json:"ts"` // unix millis
}

type barsPayload struct {
	Symbol string       `json:"symbol"`
	Bars   []barPayload `json:"bars"`
}

type barPayload struct {
	Date   string  `json:"date"` // YYYY-MM-DD
	Open   float64 `json:"o"`
	High   float64 `json:"h"`
	Low    float64 `json:"l"`
	Close  float64 `json:"c"`
	Volume int64   `json:"v"`
}

type chainPayload struct {
	Symbol    string            `json:"symbol"`
	Contracts []contractPayload `json:"contracts"`
}

type contractPayload struct {
	Expiration   string  `json:"expiration"` // YYYY-MM-DD
	Right        string  `json:"right"`      // "C" or "P"
	Strike       float64 `json:"strike"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	Last         float64 `json:"last"`
	Volume       int64   `json:"volume"`
	OpenInterest int64   `json:"open_interest"`
}

// GetQuote fetches a live quote from the gateway.
func (c *Client) GetQuote(ctx context.Context, symbol string) (contracts.Quote, error) {
	if !c.cfg.Enabled {
		return contracts.Quote{}, contracts.Disabledf("broker gateway")
	}

	var payload quotePayload
	path := fmt.Sprintf("/md/quote?symbol=%s", url.QueryEscape(symbol))
	if err := c.getJSON(ctx, path, &payload); err != nil {
		if isNotFound(err) {
			return contracts.Quote{}, contracts.Unavailablef("broker quote: unknown symbol %s", symbol)
		}
		return contracts.Quote{}, contracts.Unavailablef("broker quote: %v", err)
	}

	quote := decodeQuote(payload)
	if quote.Last <= 0 && quote.Mid() <= 0 {
		return contracts.Quote{}, contracts.Invalidf("broker quote for %s has no price", symbol)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"last":   quote.Last,
	}).Debug("Fetched broker quote")

	return quote, nil
}

// GetDailyBars fetches recent daily bars from the gateway.
func (c *Client) GetDailyBars(ctx context.Context, symbol string, count int) ([]contracts.DailyBar, error) {
	if !c.cfg.Enabled {
		return nil, contracts.Disabledf("broker gateway")
	}

	var payload barsPayload
	path := fmt.Sprintf("/md/bars?symbol=%s&days=%d", url.QueryEscape(symbol), count)
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, contracts.Unavailablef("broker bars: %v", err)
	}

	bars := make([]contracts.DailyBar, 0, len(payload.Bars))
	for _, raw := range payload.Bars {
		bar, err := decodeBar(raw)
		if err != nil {
			continue
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, contracts.Unavailablef("broker bars: empty history for %s", symbol)
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(bars),
	}).Debug("Fetched broker bars")

	return bars, nil
}

// GetOptionChain fetches the option chain within a DTE window.
func (c *Client) GetOptionChain(ctx context.Context, symbol string, priceHint float64, dteMin, dteMax int) ([]contracts.OptionContract, error) {
	if !c.cfg.Enabled {
		return nil, contracts.Disabledf("broker gateway")
	}

	var payload chainPayload
	path := fmt.Sprintf("/md/chain?symbol=%s&dteMin=%d&dteMax=%d", url.QueryEscape(symbol), dteMin, dteMax)
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, contracts.Unavailablef("broker chain: %v", err)
	}

	chain := make([]contracts.OptionContract, 0, len(payload.Contracts))
	now := time.Now()
	for _, raw := range payload.Contracts {
		contract, err := decodeContract(symbol, raw, now)
		if err != nil {
			continue
		}
		chain = append(chain, contract)
	}

	if len(chain) == 0 {
		return nil, contracts.Unavailablef("broker chain: no contracts for %s in %d-%d DTE", symbol, dteMin, dteMax)
	}

	return chain, nil
}

func decodeQuote(p quotePayload) contracts.Quote {
	ts := time.Now()
	if p.Timestamp > 0 {
		ts = time.UnixMilli(p.Timestamp)
	}
	return contracts.Quote{
		Symbol:    p.Symbol,
		Last:      p.Last,
		Bid:       p.Bid,
		Ask:       p.Ask,
		Volume:    p.Volume,
		Timestamp: ts,
	}
}

func decodeBar(p barPayload) (contracts.DailyBar, error) {
	date, err := time.Parse("2006-01-02", p.Date)
	if err != nil {
		return contracts.DailyBar{}, fmt.Errorf("bad bar date %q: %w", p.Date, err)
	}
	if p.Close <= 0 {
		return contracts.DailyBar{}, fmt.Errorf("bar without close price")
	}
	return contracts.DailyBar{
		Date:   date,
		Open:   p.Open,
		High:   p.High,
		Low:    p.Low,
		Close:  p.Close,
		Volume: p.Volume,
	}, nil
}

func decodeContract(symbol string, p contractPayload, now time.Time) (contracts.OptionContract, error) {
	expiration, err := time.Parse("2006-01-02", p.Expiration)
	if err != nil {
		return contracts.OptionContract{}, fmt.Errorf("bad expiration %q: %w", p.Expiration, err)
	}

	right := contracts.Right(p.Right)
	if right != contracts.RightCall && right != contracts.RightPut {
		return contracts.OptionContract{}, fmt.Errorf("bad right %q", p.Right)
	}

	if p.Strike <= 0 {
		return contracts.OptionContract{}, fmt.Errorf("bad strike %v", p.Strike)
	}

	return contracts.OptionContract{
		Symbol:       symbol,
		Expiration:   expiration,
		Right:        right,
		Strike:       p.Strike,
		Bid:          p.Bid,
		Ask:          p.Ask,
		Last:         p.Last,
		Volume:       p.Volume,
		OpenInterest: p.OpenInterest,
		DTE:          int(expiration.Sub(now).Hours() / 24),
	}, nil
}
