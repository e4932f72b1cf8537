package broker

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/optionscout/backend/internal/contracts"
)

// Market-scanner codes the gateway understands.
const (
	ScanMostActive  = "MOST_ACTIVE"
	ScanHighOpenGap = "HIGH_OPEN_GAP"
	ScanTopGainers  = "TOP_PERC_GAIN"
	ScanTopLosers   = "TOP_PERC_LOSE"
)

type scannerPayload struct {
	Symbols []string `json:"symbols"`
	Note    string   `json:"note,omitempty"`
}

// GetScannerSymbols runs the broker market scanner with the given scan code.
func (c *Client) GetScannerSymbols(ctx context.Context, limit int, scanCode string) ([]string, string, error) {
	if !c.cfg.Enabled {
		return nil, "", contracts.Disabledf("broker gateway")
	}

	if scanCode == "" {
		scanCode = ScanMostActive
	}

	var payload scannerPayload
	path := fmt.Sprintf("/scanner?code=%s&limit=%d", url.QueryEscape(scanCode), limit)
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, "", contracts.Unavailablef("broker scanner: %v", err)
	}

	symbols := make([]string, 0, len(payload.Symbols))
	for _, s := range payload.Symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			symbols = append(symbols, s)
		}
	}

	if len(symbols) == 0 {
		return nil, payload.Note, contracts.Unavailablef("broker scanner: no symbols for %s", scanCode)
	}

	c.logger.WithFields(map[string]interface{}{
		"scan_code": scanCode,
		"count":     len(symbols),
	}).Debug("Broker scanner returned symbols")

	return symbols, payload.Note, nil
}
