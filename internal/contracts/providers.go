package contracts

import "context"

// Capability interfaces for external data providers. An adapter implements
// only the capabilities it supports; anything else returns ErrDisabled as a
// typed outcome instead of being probed reflectively.

// QuoteProvider serves live top-of-book quotes.
type QuoteProvider interface {
	Name() Source
	GetQuote(ctx context.Context, symbol string) (Quote, error)
}

// BarsProvider serves recent daily OHLCV history.
type BarsProvider interface {
	Name() Source
	GetDailyBars(ctx context.Context, symbol string, count int) ([]DailyBar, error)
}

// ChainProvider serves option chains within a DTE window.
type ChainProvider interface {
	Name() Source
	GetOptionChain(ctx context.Context, symbol string, priceHint float64, dteMin, dteMax int) ([]OptionContract, error)
}

// ScannerProvider discovers candidate symbols. The note describes any
// degradation (e.g. a substituted scan code).
type ScannerProvider interface {
	Name() Source
	GetScannerSymbols(ctx context.Context, limit int, scanCode string) (symbols []string, note string, err error)
}

// NewsProvider serves news-sentiment snapshots per symbol.
type NewsProvider interface {
	Name() Source
	GetNewsSnapshot(ctx context.Context, symbol string) (NewsSnapshot, error)
}

// EventProvider serves filing-driven event snapshots per symbol.
type EventProvider interface {
	Name() Source
	GetEventSnapshot(ctx context.Context, symbol string) (EventSnapshot, error)
}

// MacroProvider serves the market-wide macro regime.
type MacroProvider interface {
	Name() Source
	GetMacroSnapshot(ctx context.Context) (MacroSnapshot, error)
}
