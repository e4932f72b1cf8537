package marketdata

import (
	"testing"
	"time"

	"github.com/optionscout/backend/internal/contracts"
)

func contract(exp time.Time, right contracts.Right, strike, bid, ask float64) contracts.OptionContract {
	return contracts.OptionContract{
		Symbol:     "SPY",
		Expiration: exp,
		Right:      right,
		Strike:     strike,
		Bid:        bid,
		Ask:        ask,
		DTE:        21,
	}
}

func TestEnrichmentKeys(t *testing.T) {
	near := time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)
	far := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	chain := []contracts.OptionContract{
		contract(near, contracts.RightCall, 95, 1, 1.1),
		contract(near, contracts.RightCall, 100, 1, 1.1),
		contract(near, contracts.RightCall, 105, 1, 1.1),
		contract(near, contracts.RightPut, 100, 1, 1.1),
		contract(far, contracts.RightCall, 100, 1, 1.1),
	}

	keys := enrichmentKeys(chain, 101)

	// Two closest call strikes of the nearest expiration: 100 and 105.
	if !keys[chain[1].Key()] || !keys[chain[2].Key()] {
		t.Errorf("expected 100C and 105C in targets, got %v", keys)
	}
	if keys[chain[0].Key()] {
		t.Error("95C is the third-closest strike and must not be a target")
	}
	if keys[chain[4].Key()] {
		t.Error("far expiration must not be a target")
	}
	if !keys[chain[3].Key()] {
		t.Error("the only put of the nearest expiration must be a target")
	}
}

func TestEnrichmentKeys_Empty(t *testing.T) {
	if len(enrichmentKeys(nil, 100)) != 0 {
		t.Error("empty chain yields no targets")
	}
	chain := []contracts.OptionContract{contract(time.Now(), contracts.RightCall, 100, 1, 1.1)}
	if len(enrichmentKeys(chain, 0)) != 0 {
		t.Error("unknown underlying yields no targets")
	}
}

func TestFinalizeChain(t *testing.T) {
	exp := time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)
	chain := []contracts.OptionContract{
		contract(exp, contracts.RightCall, 100, 2.0, 2.2), // target, live
		contract(exp, contracts.RightCall, 105, 0, 0),     // target, no quote
		contract(exp, contracts.RightCall, 130, 1.5, 1.7), // wing, quoted but untrusted
	}

	result := finalizeChain(chain, 101)
	if len(result) != 3 {
		t.Fatalf("len = %d, want 3", len(result))
	}

	byStrike := make(map[float64]contracts.OptionContract)
	for _, c := range result {
		byStrike[c.Strike] = c
	}

	if byStrike[100].DerivedPricing {
		t.Error("live target must keep live pricing")
	}
	if got := byStrike[100].Bid; got != 2.0 {
		t.Errorf("live target bid = %v, want 2.0", got)
	}

	if !byStrike[105].DerivedPricing {
		t.Error("unquoted target falls back to derived pricing")
	}
	if byStrike[105].Last <= 0 {
		t.Error("derived target must still carry a price")
	}

	if !byStrike[130].DerivedPricing {
		t.Error("wing pricing is re-modeled and tagged")
	}
	if byStrike[130].Bid != 0 || byStrike[130].Ask != 0 {
		t.Error("re-modeled wing must not keep its stale quote")
	}
}

func TestDedupeByKey(t *testing.T) {
	exp := time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)
	unquoted := contract(exp, contracts.RightCall, 100, 0, 0)
	quoted := contract(exp, contracts.RightCall, 100, 2.0, 2.2)

	result := dedupeByKey([]contracts.OptionContract{unquoted, quoted})
	if len(result) != 1 {
		t.Fatalf("len = %d, want 1", len(result))
	}
	if _, live := result[0].MarkPrice(); !live {
		t.Error("dedupe must prefer the live-priced duplicate")
	}
}
