package alphavantage

import (
	"context"
	"strings"

	"github.com/optionscout/backend/internal/contracts"
)

type moverEntry struct {
	Ticker           string `json:"ticker"`
	ChangePercentage string `json:"change_percentage"`
}

type moversPayload struct {
	TopGainers   []moverEntry `json:"top_gainers"`
	TopLosers    []moverEntry `json:"top_losers"`
	MostActive   []moverEntry `json:"most_actively_traded"`
	LastUpdated  string       `json:"last_updated"`
	Information  string       `json:"Information"` // rate-limit notice
	ErrorMessage string       `json:"Error Message"`
}

// GetScannerSymbols discovers symbols from the TOP_GAINERS_LOSERS function.
// Scan codes map onto the three mover lists; gap codes fall back to gainers
// since Alpha Vantage has no dedicated gap list.
func (c *Client) GetScannerSymbols(ctx context.Context, limit int, scanCode string) ([]string, string, error) {
	var payload moversPayload
	if err := c.query(ctx, "TOP_GAINERS_LOSERS", nil, &payload); err != nil {
		if contracts.IsDisabled(err) {
			return nil, "", err
		}
		return nil, "", contracts.Unavailablef("alphavantage scanner: %v", err)
	}

	// The API returns 200 with a notice body when the daily quota is hit.
	if payload.Information != "" || payload.ErrorMessage != "" {
		return nil, "", contracts.Unavailablef("alphavantage scanner: quota or request error")
	}

	var entries []moverEntry
	note := ""
	switch scanCode {
	case "TOP_PERC_LOSE":
		entries = payload.TopLosers
	case "TOP_PERC_GAIN":
		entries = payload.TopGainers
	case "HIGH_OPEN_GAP":
		entries = payload.TopGainers
		note = "alphavantage has no gap list, substituted top gainers"
	default:
		entries = payload.MostActive
	}

	symbols := make([]string, 0, len(entries))
	for _, entry := range entries {
		symbol := strings.ToUpper(strings.TrimSpace(entry.Ticker))
		// Skip warrants, units and other suffixed listings that rarely
		// carry option chains.
		if symbol == "" || strings.ContainsAny(symbol, "+-.^") {
			continue
		}
		symbols = append(symbols, symbol)
		if len(symbols) >= limit {
			break
		}
	}

	if len(symbols) == 0 {
		return nil, "", contracts.Unavailablef("alphavantage scanner: empty mover list")
	}

	return symbols, note, nil
}
