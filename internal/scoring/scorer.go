package scoring

import (
	"math"

	"github.com/optionscout/backend/internal/contracts"
)

// Weights control the composite blend. They sum to 1 so component scores in
// [-1, 1] land in [-1, 1] before the liveness discount.
type Weights struct {
	Momentum  float64
	Relative  float64
	Liquidity float64
	Context   float64
}

// DefaultWeights favors momentum, with context as a tiebreaker.
func DefaultWeights() Weights {
	return Weights{
		Momentum:  0.35,
		Relative:  0.25,
		Liquidity: 0.2,
		Context:   0.2,
	}
}

// syntheticDiscount shrinks the score of bundles built on non-live data so
// they rank below comparable live results without disappearing.
const syntheticDiscount = 0.5

// Composite is the default Scorer: a weighted blend of price momentum,
// benchmark-relative strength, option-chain liquidity and context features.
type Composite struct {
	weights Weights
}

// NewComposite creates a composite scorer.
func NewComposite(weights Weights) *Composite {
	return &Composite{weights: weights}
}

// Score computes the composite score for one symbol bundle.
func (s *Composite) Score(comp *contracts.SymbolComputation) float64 {
	score := s.weights.Momentum*momentumScore(comp.Snapshot.Value.Closes) +
		s.weights.Relative*relativeScore(comp) +
		s.weights.Liquidity*liquidityScore(comp.Chain.Value) +
		s.weights.Context*contextScore(comp.Context.Features)

	if !comp.FullyLive() {
		score *= syntheticDiscount
	}

	return score
}

// momentumScore maps the 20-day return onto [-1, 1]; +-10% saturates.
func momentumScore(closes []float64) float64 {
	const lookback = 20
	if len(closes) < 2 {
		return 0
	}

	start := 0
	if len(closes) > lookback {
		start = len(closes) - 1 - lookback
	}
	first, last := closes[start], closes[len(closes)-1]
	if first <= 0 {
		return 0
	}

	return clampSigned((last/first - 1) / 0.10)
}

// relativeScore averages the pre-clamped benchmark-relative returns.
func relativeScore(comp *contracts.SymbolComputation) float64 {
	return (comp.RelReturn20 + comp.RelReturn60) / 2
}

// liquidityScore rewards open interest and live pricing across the chain.
// An all-derived chain scores zero.
func liquidityScore(chain []contracts.OptionContract) float64 {
	if len(chain) == 0 {
		return 0
	}

	var totalOI int64
	live := 0
	for _, contract := range chain {
		totalOI += contract.OpenInterest
		if !contract.DerivedPricing {
			live++
		}
	}

	liveShare := float64(live) / float64(len(chain))
	// log10 scale: 10k total OI saturates.
	oiScore := math.Min(1, math.Log10(float64(totalOI)+1)/4)

	return liveShare*0.5 + oiScore*0.5
}

// contextScore blends sentiment, event and macro features. Dispersion and
// event risk subtract: disagreement and headline risk are both drags.
func contextScore(f contracts.ContextFeatures) float64 {
	score := f.NewsSentiment*0.4 +
		f.EventBias*0.2 +
		f.MacroScore*0.2 +
		f.NewsVelocity*f.NewsFreshness*0.2

	score -= f.SentimentDispersion * 0.15
	score -= f.EventRisk * 0.15

	return clampSigned(score)
}

func clampSigned(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
