package fred

import (
	"context"

	"github.com/optionscout/backend/internal/contracts"
)

// GetMacroSnapshot reads the VIX level and the 10y-2y spread and condenses them into
// a regime snapshot. The VIX carries the weight; the curve only nudges.
func (c *Client) GetMacroSnapshot(ctx context.Context) (contracts.MacroSnapshot, error) {
	vix, err := c.latestValue(ctx, seriesVIX)
	if err != nil {
		return contracts.MacroSnapshot{}, err
	}

	// The curve read is best-effort; the VIX alone still yields a regime.
	spread, spreadErr := c.latestValue(ctx, seriesYieldCurve)
	if spreadErr != nil {
		c.logger.WithField("error", spreadErr.Error()).Debug("FRED yield curve unavailable, using VIX only")
	}

	return condenseMacro(vix, spread, spreadErr == nil), nil
}

// condenseMacro maps VIX and curve readings onto a score in [-1, 1].
// VIX 15 or below is calm, 30 or above is stressed; an inverted curve
// subtracts a fixed penalty.
func condenseMacro(vix, spread float64, haveSpread bool) contracts.MacroSnapshot {
	score := (22.5 - vix) / 7.5
	if score > 1 {
		score = 1
	}
	if score < -1 {
		score = -1
	}

	if haveSpread && spread < 0 {
		score -= 0.25
		if score < -1 {
			score = -1
		}
	}

	regime := "neutral"
	switch {
	case score >= 0.35:
		regime = "risk-on"
	case score <= -0.35:
		regime = "risk-off"
	}

	return contracts.MacroSnapshot{Regime: regime, Score: score}
}
