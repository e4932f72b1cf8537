package marketdata

import (
	"testing"
	"time"

	"github.com/optionscout/backend/internal/contracts"
)

func TestSyntheticQuote_Deterministic(t *testing.T) {
	now := time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC)

	a := SyntheticQuote("AAPL", now)
	b := SyntheticQuote("AAPL", now.Add(3*time.Hour)) // same day
	if a.Last != b.Last || a.Bid != b.Bid || a.Volume != b.Volume {
		t.Errorf("same symbol and day must match: %+v vs %+v", a, b)
	}

	c := SyntheticQuote("MSFT", now)
	if a.Last == c.Last {
		t.Error("different symbols should diverge")
	}

	d := SyntheticQuote("AAPL", now.AddDate(0, 0, 1))
	if a.Last == d.Last {
		t.Error("different days should diverge")
	}
}

func TestSyntheticQuote_Plausible(t *testing.T) {
	quote := SyntheticQuote("TSLA", time.Now())
	if quote.Last <= 0 {
		t.Fatalf("last = %v", quote.Last)
	}
	if quote.Bid >= quote.Ask {
		t.Errorf("bid %v must sit below ask %v", quote.Bid, quote.Ask)
	}
	if quote.Mid() <= 0 {
		t.Errorf("mid = %v", quote.Mid())
	}
	if quote.Volume <= 0 {
		t.Errorf("volume = %v", quote.Volume)
	}
}

func TestSyntheticBars(t *testing.T) {
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	bars := SyntheticBars("AAPL", 60, now)

	if len(bars) != 60 {
		t.Fatalf("len = %d, want 60", len(bars))
	}

	for i, bar := range bars {
		if bar.Close <= 0 || bar.High < bar.Low {
			t.Fatalf("bar %d implausible: %+v", i, bar)
		}
		if i > 0 {
			if !bars[i-1].Date.Before(bar.Date) {
				t.Fatalf("dates must ascend: %v then %v", bars[i-1].Date, bar.Date)
			}
			move := bar.Close/bars[i-1].Close - 1
			if move > 0.06 || move < -0.06 {
				t.Fatalf("daily move %v outside bounds", move)
			}
		}
	}

	again := SyntheticBars("AAPL", 60, now)
	for i := range bars {
		if bars[i].Close != again[i].Close {
			t.Fatal("walk must be deterministic for the same day")
		}
	}
}

func TestSyntheticChain(t *testing.T) {
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	chain := SyntheticChain("AAPL", 100, 7, 45, now)

	if len(chain) == 0 {
		t.Fatal("empty chain")
	}

	seen := make(map[string]bool)
	for _, c := range chain {
		if !c.DerivedPricing {
			t.Fatalf("synthetic contract must be tagged derived: %+v", c)
		}
		if c.DTE < 7 || c.DTE > 45 {
			t.Errorf("DTE %d outside window", c.DTE)
		}
		if c.Last <= 0 {
			t.Errorf("contract without price: %+v", c)
		}
		if seen[c.Key()] {
			t.Errorf("duplicate contract key %s", c.Key())
		}
		seen[c.Key()] = true
	}
}

func TestSyntheticChain_NarrowWindow(t *testing.T) {
	now := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	chain := SyntheticChain("AAPL", 100, 21, 21, now)

	if len(chain) == 0 {
		t.Fatal("empty chain")
	}

	seen := make(map[string]bool)
	for _, c := range chain {
		if c.DTE != 21 {
			t.Errorf("DTE %d outside one-day window", c.DTE)
		}
		if seen[c.Key()] {
			t.Errorf("duplicate contract key %s", c.Key())
		}
		seen[c.Key()] = true
	}
}

func TestDerivedPrice(t *testing.T) {
	tests := []struct {
		name       string
		underlying float64
		strike     float64
		right      contracts.Right
		dte        int
		wantMin    float64
	}{
		{name: "itm call keeps intrinsic", underlying: 110, strike: 100, right: contracts.RightCall, dte: 21, wantMin: 10},
		{name: "itm put keeps intrinsic", underlying: 90, strike: 100, right: contracts.RightPut, dte: 21, wantMin: 10},
		{name: "atm has time value", underlying: 100, strike: 100, right: contracts.RightCall, dte: 21, wantMin: 0.01},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := derivedPrice(tt.underlying, tt.strike, tt.right, tt.dte)
			if got < tt.wantMin {
				t.Errorf("derivedPrice() = %v, want >= %v", got, tt.wantMin)
			}
		})
	}

	if derivedPrice(0, 100, contracts.RightCall, 21) != 0 {
		t.Error("zero underlying must price to zero")
	}

	atm := derivedPrice(100, 100, contracts.RightCall, 21)
	otm := derivedPrice(100, 130, contracts.RightCall, 21)
	if otm >= atm {
		t.Errorf("far OTM time value %v should be below ATM %v", otm, atm)
	}
}
