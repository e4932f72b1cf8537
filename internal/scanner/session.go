package scanner

import "context"

// MarketClock reports the current market session state. The tradier client
// provides the production implementation.
type MarketClock interface {
	GetMarketState(ctx context.Context) (string, error)
}

// DefaultScanCode is the session-agnostic discovery code.
const DefaultScanCode = "MOST_ACTIVE"

// sessionBound reports whether a scan code only makes sense during regular
// trading hours. Gap and percentage-move lists are meaningless pre-open.
func sessionBound(scanCode string) bool {
	switch scanCode {
	case "HIGH_OPEN_GAP", "TOP_PERC_GAIN", "TOP_PERC_LOSE":
		return true
	default:
		return false
	}
}
