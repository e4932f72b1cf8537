package tradier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/optionscout/backend/internal/contracts"
)

// Tradier wraps single results as an object and multiple results as an
// array under the same key. The decoders below normalize both shapes so the
// resolver never sees the variance.

type quotesEnvelope struct {
	Quotes struct {
		Quote json.RawMessage `json:"quote"`
	} `json:"quotes"`
}

type quotePayload struct {
	Symbol string  `json:"symbol"`
	Last   float64 `json:"last"`
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Volume int64   `json:"volume"`
}

type historyEnvelope struct {
	History struct {
		Day json.RawMessage `json:"day"`
	} `json:"history"`
}

type dayPayload struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

type expirationsEnvelope struct {
	Expirations struct {
		Date json.RawMessage `json:"date"`
	} `json:"expirations"`
}

type chainEnvelope struct {
	Options struct {
		Option json.RawMessage `json:"option"`
	} `json:"options"`
}

type optionPayload struct {
	Symbol         string  `json:"symbol"`
	Strike         float64 `json:"strike"`
	OptionType     string  `json:"option_type"` // "call" or "put"
	ExpirationDate string  `json:"expiration_date"`
	Bid            float64 `json:"bid"`
	Ask            float64 `json:"ask"`
	Last           float64 `json:"last"`
	Volume         int64   `json:"volume"`
	OpenInterest   int64   `json:"open_interest"`
}

// decodeOneOrMany decodes Tradier's object-or-array wrapping into a slice.
func decodeOneOrMany[T any](raw json.RawMessage) ([]T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var many []T
	if err := json.Unmarshal(raw, &many); err == nil {
		return many, nil
	}

	var one T
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []T{one}, nil
}

// GetQuote fetches a live quote.
func (c *Client) GetQuote(ctx context.Context, symbol string) (contracts.Quote, error) {
	var envelope quotesEnvelope
	path := fmt.Sprintf("/markets/quotes?symbols=%s", url.QueryEscape(symbol))
	if err := c.getJSON(ctx, path, &envelope); err != nil {
		if contracts.IsDisabled(err) {
			return contracts.Quote{}, err
		}
		return contracts.Quote{}, contracts.Unavailablef("tradier quote: %v", err)
	}

	quotes, err := decodeOneOrMany[quotePayload](envelope.Quotes.Quote)
	if err != nil {
		return contracts.Quote{}, contracts.Invalidf("tradier quote payload: %v", err)
	}
	if len(quotes) == 0 {
		return contracts.Quote{}, contracts.Unavailablef("tradier quote: no data for %s", symbol)
	}

	p := quotes[0]
	quote := contracts.Quote{
		Symbol:    symbol,
		Last:      p.Last,
		Bid:       p.Bid,
		Ask:       p.Ask,
		Volume:    p.Volume,
		Timestamp: time.Now(),
	}

	if quote.Last <= 0 && quote.Mid() <= 0 {
		return contracts.Quote{}, contracts.Invalidf("tradier quote for %s has no price", symbol)
	}

	return quote, nil
}

// GetDailyBars fetches recent daily history.
func (c *Client) GetDailyBars(ctx context.Context, symbol string, count int) ([]contracts.DailyBar, error) {
	end := time.Now()
	// Calendar days overshoot trading days; fetch extra and trim.
	start := end.AddDate(0, 0, -(count*7/5 + 10))

	var envelope historyEnvelope
	path := fmt.Sprintf("/markets/history?symbol=%s&interval=daily&start=%s&end=%s",
		url.QueryEscape(symbol), start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err := c.getJSON(ctx, path, &envelope); err != nil {
		if contracts.IsDisabled(err) {
			return nil, err
		}
		return nil, contracts.Unavailablef("tradier history: %v", err)
	}

	days, err := decodeOneOrMany[dayPayload](envelope.History.Day)
	if err != nil {
		return nil, contracts.Invalidf("tradier history payload: %v", err)
	}

	bars := make([]contracts.DailyBar, 0, len(days))
	for _, day := range days {
		date, err := time.Parse("2006-01-02", day.Date)
		if err != nil || day.Close <= 0 {
			continue
		}
		bars = append(bars, contracts.DailyBar{
			Date:   date,
			Open:   day.Open,
			High:   day.High,
			Low:    day.Low,
			Close:  day.Close,
			Volume: day.Volume,
		})
	}

	if len(bars) == 0 {
		return nil, contracts.Unavailablef("tradier history: empty for %s", symbol)
	}

	if len(bars) > count {
		bars = bars[len(bars)-count:]
	}

	return bars, nil
}

// GetOptionChain fetches contracts for every expiration inside the DTE window.
func (c *Client) GetOptionChain(ctx context.Context, symbol string, priceHint float64, dteMin, dteMax int) ([]contracts.OptionContract, error) {
	expirations, err := c.getExpirations(ctx, symbol, dteMin, dteMax)
	if err != nil {
		return nil, err
	}
	if len(expirations) == 0 {
		return nil, contracts.Unavailablef("tradier chain: no expirations for %s in %d-%d DTE", symbol, dteMin, dteMax)
	}

	// One request per expiration adds up; cap the window at three.
	if len(expirations) > 3 {
		expirations = expirations[:3]
	}

	now := time.Now()
	chain := make([]contracts.OptionContract, 0, 64)
	for _, expiration := range expirations {
		contractsForExp, err := c.getChainForExpiration(ctx, symbol, expiration, now)
		if err != nil {
			c.logger.WithFields(map[string]interface{}{
				"symbol":     symbol,
				"expiration": expiration.Format("2006-01-02"),
				"error":      err.Error(),
			}).Debug("Skipped expiration in tradier chain")
			continue
		}
		chain = append(chain, contractsForExp...)
	}

	if len(chain) == 0 {
		return nil, contracts.Unavailablef("tradier chain: no contracts for %s", symbol)
	}

	return chain, nil
}

func (c *Client) getExpirations(ctx context.Context, symbol string, dteMin, dteMax int) ([]time.Time, error) {
	var envelope expirationsEnvelope
	path := fmt.Sprintf("/markets/options/expirations?symbol=%s", url.QueryEscape(symbol))
	if err := c.getJSON(ctx, path, &envelope); err != nil {
		if contracts.IsDisabled(err) {
			return nil, err
		}
		return nil, contracts.Unavailablef("tradier expirations: %v", err)
	}

	dates, err := decodeOneOrMany[string](envelope.Expirations.Date)
	if err != nil {
		return nil, contracts.Invalidf("tradier expirations payload: %v", err)
	}

	now := time.Now()
	expirations := make([]time.Time, 0, len(dates))
	for _, dateStr := range dates {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		dte := int(date.Sub(now).Hours() / 24)
		if dte >= dteMin && dte <= dteMax {
			expirations = append(expirations, date)
		}
	}

	return expirations, nil
}

func (c *Client) getChainForExpiration(ctx context.Context, symbol string, expiration time.Time, now time.Time) ([]contracts.OptionContract, error) {
	var envelope chainEnvelope
	path := fmt.Sprintf("/markets/options/chains?symbol=%s&expiration=%s",
		url.QueryEscape(symbol), expiration.Format("2006-01-02"))
	if err := c.getJSON(ctx, path, &envelope); err != nil {
		return nil, contracts.Unavailablef("tradier chain request: %v", err)
	}

	options, err := decodeOneOrMany[optionPayload](envelope.Options.Option)
	if err != nil {
		return nil, contracts.Invalidf("tradier chain payload: %v", err)
	}

	result := make([]contracts.OptionContract, 0, len(options))
	for _, option := range options {
		var right contracts.Right
		switch option.OptionType {
		case "call":
			right = contracts.RightCall
		case "put":
			right = contracts.RightPut
		default:
			continue
		}

		if option.Strike <= 0 {
			continue
		}

		result = append(result, contracts.OptionContract{
			Symbol:       symbol,
			Expiration:   expiration,
			Right:        right,
			Strike:       option.Strike,
			Bid:          option.Bid,
			Ask:          option.Ask,
			Last:         option.Last,
			Volume:       option.Volume,
			OpenInterest: option.OpenInterest,
			DTE:          int(expiration.Sub(now).Hours() / 24),
		})
	}

	return result, nil
}
