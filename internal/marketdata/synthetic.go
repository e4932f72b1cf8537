package marketdata

import (
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/optionscout/backend/internal/contracts"
)

// Synthetic data is the deterministic last resort of every resolver chain.
// The seed mixes the symbol hash with the day of year, so repeated calls on
// the same day produce identical values while different symbols and different
// days diverge.

func syntheticSeed(symbol string, now time.Time) int64 {
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return int64(h.Sum32()) + int64(now.YearDay())
}

func syntheticRand(symbol string, now time.Time) *rand.Rand {
	return rand.New(rand.NewSource(syntheticSeed(symbol, now)))
}

// syntheticBasePrice derives a plausible share price in roughly the 15-420
// dollar range.
func syntheticBasePrice(rng *rand.Rand) float64 {
	return 15 + rng.Float64()*405
}

// SyntheticQuote generates a plausible quote with a tight spread.
func SyntheticQuote(symbol string, now time.Time) contracts.Quote {
	rng := syntheticRand(symbol, now)
	price := syntheticBasePrice(rng)
	spread := price * (0.0005 + rng.Float64()*0.002)

	return contracts.Quote{
		Symbol:    symbol,
		Last:      round2(price),
		Bid:       round2(price - spread/2),
		Ask:       round2(price + spread/2),
		Volume:    500_000 + rng.Int63n(20_000_000),
		Timestamp: now,
	}
}

// SyntheticBars generates count daily bars as a bounded random walk ending at
// the synthetic base price.
func SyntheticBars(symbol string, count int, now time.Time) []contracts.DailyBar {
	rng := syntheticRand(symbol, now)
	price := syntheticBasePrice(rng)

	bars := make([]contracts.DailyBar, count)
	for i := count - 1; i >= 0; i-- {
		// Daily move bounded at +-2.5%.
		move := (rng.Float64() - 0.5) * 0.05
		open := price / (1 + move)
		high := math.Max(open, price) * (1 + rng.Float64()*0.01)
		low := math.Min(open, price) * (1 - rng.Float64()*0.01)

		bars[i] = contracts.DailyBar{
			Date:   now.AddDate(0, 0, -(count - 1 - i)),
			Open:   round2(open),
			High:   round2(high),
			Low:    round2(low),
			Close:  round2(price),
			Volume: 500_000 + rng.Int63n(10_000_000),
		}

		price = open
	}

	// Walk was generated newest-first; restore chronological closes.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	return bars
}

// SyntheticChain generates a strike-by-expiration grid around the underlying
// price, priced with the derived model. Every contract is tagged.
func SyntheticChain(symbol string, underlying float64, dteMin, dteMax int, now time.Time) []contracts.OptionContract {
	if underlying <= 0 {
		rng := syntheticRand(symbol, now)
		underlying = syntheticBasePrice(rng)
	}

	step := strikeStep(underlying)
	atm := math.Round(underlying/step) * step

	// Narrow windows collapse the tenor points onto each other; keep each
	// DTE once so the grid never holds duplicate contracts.
	dtes := make([]int, 0, 3)
	for _, dte := range []int{dteMin + (dteMax-dteMin)/4, dteMin + (dteMax-dteMin)/2, dteMax} {
		if dte < dteMin || dte > dteMax {
			continue
		}
		if len(dtes) > 0 && dtes[len(dtes)-1] == dte {
			continue
		}
		dtes = append(dtes, dte)
	}

	chain := make([]contracts.OptionContract, 0, len(dtes)*10)
	for _, dte := range dtes {
		expiration := now.AddDate(0, 0, dte)
		for offset := -2; offset <= 2; offset++ {
			strike := atm + float64(offset)*step
			if strike <= 0 {
				continue
			}
			for _, right := range []contracts.Right{contracts.RightCall, contracts.RightPut} {
				chain = append(chain, contracts.OptionContract{
					Symbol:         symbol,
					Expiration:     expiration,
					Right:          right,
					Strike:         strike,
					Last:           round2(derivedPrice(underlying, strike, right, dte)),
					DTE:            dte,
					DerivedPricing: true,
				})
			}
		}
	}

	return chain
}

// derivedPrice models a contract price as intrinsic value plus a crude
// time-value term. Good enough for ranking; not a pricing model.
func derivedPrice(underlying, strike float64, right contracts.Right, dte int) float64 {
	if underlying <= 0 || strike <= 0 {
		return 0
	}

	var intrinsic float64
	if right == contracts.RightCall {
		intrinsic = math.Max(0, underlying-strike)
	} else {
		intrinsic = math.Max(0, strike-underlying)
	}

	if dte < 0 {
		dte = 0
	}
	extrinsic := underlying * 0.02 * math.Sqrt(float64(dte)/21)

	// Time value decays with distance from the money.
	moneyness := math.Abs(underlying-strike) / underlying
	extrinsic *= math.Exp(-4 * moneyness)

	return intrinsic + extrinsic
}

// strikeStep picks a listing-like strike interval for the price level.
func strikeStep(underlying float64) float64 {
	switch {
	case underlying < 25:
		return 0.5
	case underlying < 100:
		return 1
	case underlying < 250:
		return 2.5
	default:
		return 5
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
