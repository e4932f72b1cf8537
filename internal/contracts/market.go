package contracts

import (
	"fmt"
	"time"
)

// Quote represents a live top-of-book snapshot for a symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	Last      float64   `json:"last"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	Volume    int64     `json:"volume"`
	Timestamp time.Time `json:"timestamp"`
}

// Mid returns the bid/ask midpoint, or 0 when either side is missing.
func (q Quote) Mid() float64 {
	if q.Bid > 0 && q.Ask > 0 {
		return (q.Bid + q.Ask) / 2
	}
	return 0
}

// Price returns the best available price signal for the underlying.
func (q Quote) Price() float64 {
	if q.Last > 0 {
		return q.Last
	}
	return q.Mid()
}

// DailyBar represents one day of OHLCV data.
type DailyBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// SnapshotHistory bundles a quote with its recent daily history.
type SnapshotHistory struct {
	Quote  Quote      `json:"quote"`
	Bars   []DailyBar `json:"bars"`
	Closes []float64  `json:"closes"`
}

// Right is an option right: call or put.
type Right string

const (
	RightCall Right = "C"
	RightPut  Right = "P"
)

// OptionContract represents one option contract, with or without live quotes.
type OptionContract struct {
	Symbol       string    `json:"symbol"`
	Expiration   time.Time `json:"expiration"`
	Right        Right     `json:"right"`
	Strike       float64   `json:"strike"`
	Bid          float64   `json:"bid"`
	Ask          float64   `json:"ask"`
	Last         float64   `json:"last"`
	Volume       int64     `json:"volume"`
	OpenInterest int64     `json:"open_interest"`
	DTE          int       `json:"dte"`

	// DerivedPricing marks contracts whose prices were modeled rather than
	// quoted live (un-enriched chain entries and synthetic chains).
	DerivedPricing bool `json:"derived_pricing,omitempty"`
}

// Key returns the canonical contract key used to merge quote enrichment back
// into a chain skeleton. Strike is rounded to 4 decimals.
func (c OptionContract) Key() string {
	return fmt.Sprintf("%s|%s|%s|%.4f", c.Symbol, c.Expiration.Format("2006-01-02"), c.Right, c.Strike)
}

// MarkPrice returns the contract's usable price: the first positive of
// bid/ask midpoint, last trade, bid, ask. The second return is false when no
// positive price signal exists, in which case the contract should be dropped.
func (c OptionContract) MarkPrice() (float64, bool) {
	if c.Bid > 0 && c.Ask > 0 {
		return (c.Bid + c.Ask) / 2, true
	}
	if c.Last > 0 {
		return c.Last, true
	}
	if c.Bid > 0 {
		return c.Bid, true
	}
	if c.Ask > 0 {
		return c.Ask, true
	}
	return 0, false
}
