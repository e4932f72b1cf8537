package tradier

import (
	"context"

	"github.com/optionscout/backend/internal/contracts"
)

// Market session states reported by the clock endpoint.
const (
	SessionPre    = "premarket"
	SessionOpen   = "open"
	SessionPost   = "postmarket"
	SessionClosed = "closed"
)

type clockEnvelope struct {
	Clock struct {
		State       string `json:"state"`
		Date        string `json:"date"`
		Description string `json:"description"`
	} `json:"clock"`
}

// GetMarketState returns the current market session state. The universe
// builder uses it to decide whether session-bound scan codes are meaningful.
func (c *Client) GetMarketState(ctx context.Context) (string, error) {
	var envelope clockEnvelope
	if err := c.getJSON(ctx, "/markets/clock", &envelope); err != nil {
		if contracts.IsDisabled(err) {
			return "", err
		}
		return "", contracts.Unavailablef("tradier clock: %v", err)
	}

	state := envelope.Clock.State
	if state == "" {
		return "", contracts.Invalidf("tradier clock: empty state")
	}

	return state, nil
}
