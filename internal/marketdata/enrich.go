package marketdata

import (
	"math"
	"sort"

	"github.com/optionscout/backend/internal/contracts"
)

// Chains come back from providers with uneven pricing quality: near-the-money
// front-month contracts carry tight live quotes, the rest of the grid is often
// stale or empty. finalizeChain keeps live pricing only for the enrichment
// set and re-prices everything else with the derived model, tagged as such.

// strikesPerRight bounds how many strikes per right stay live-priced.
const strikesPerRight = 2

// finalizeChain de-duplicates the chain by contract key and splits it into
// live and derived pricing. Contracts that cannot be priced at all are dropped.
func finalizeChain(chain []contracts.OptionContract, underlying float64) []contracts.OptionContract {
	chain = dedupeByKey(chain)
	targets := enrichmentKeys(chain, underlying)

	result := make([]contracts.OptionContract, 0, len(chain))
	for _, contract := range chain {
		if targets[contract.Key()] {
			if _, ok := contract.MarkPrice(); ok {
				result = append(result, contract)
				continue
			}
		}

		price := derivedPrice(underlying, contract.Strike, contract.Right, contract.DTE)
		if price <= 0 {
			continue
		}
		contract.Bid = 0
		contract.Ask = 0
		contract.Last = round2(price)
		contract.DerivedPricing = true
		result = append(result, contract)
	}

	return result
}

// enrichmentKeys selects the nearest expiration and, within it, the one or
// two strikes per right closest to the underlying.
func enrichmentKeys(chain []contracts.OptionContract, underlying float64) map[string]bool {
	keys := make(map[string]bool)
	if len(chain) == 0 || underlying <= 0 {
		return keys
	}

	nearest := chain[0].Expiration
	for _, contract := range chain[1:] {
		if contract.Expiration.Before(nearest) {
			nearest = contract.Expiration
		}
	}

	byRight := make(map[contracts.Right][]contracts.OptionContract)
	for _, contract := range chain {
		if contract.Expiration.Equal(nearest) {
			byRight[contract.Right] = append(byRight[contract.Right], contract)
		}
	}

	for _, group := range byRight {
		sort.Slice(group, func(i, j int) bool {
			return math.Abs(group[i].Strike-underlying) < math.Abs(group[j].Strike-underlying)
		})
		for i, contract := range group {
			if i >= strikesPerRight {
				break
			}
			keys[contract.Key()] = true
		}
	}

	return keys
}

// dedupeByKey collapses duplicate contracts, preferring a live-priced copy.
func dedupeByKey(chain []contracts.OptionContract) []contracts.OptionContract {
	index := make(map[string]int, len(chain))
	result := make([]contracts.OptionContract, 0, len(chain))

	for _, contract := range chain {
		key := contract.Key()
		if at, seen := index[key]; seen {
			_, existingLive := result[at].MarkPrice()
			_, newLive := contract.MarkPrice()
			if newLive && !existingLive {
				result[at] = contract
			}
			continue
		}
		index[key] = len(result)
		result = append(result, contract)
	}

	return result
}
