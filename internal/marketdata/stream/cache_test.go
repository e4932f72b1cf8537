package stream

import (
	"testing"
	"time"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/pkg/logger"
)

func TestCache_Update(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		first    *Tick
		second   *Tick
		accepted bool
	}{
		{
			name:     "newer tick accepted",
			first:    &Tick{Symbol: "SPY", Last: 612, Timestamp: now, Source: contracts.SourceBrokerStream},
			second:   &Tick{Symbol: "SPY", Last: 613, Timestamp: now.Add(time.Second), Source: contracts.SourceBrokerStream},
			accepted: true,
		},
		{
			name:     "older tick rejected",
			first:    &Tick{Symbol: "SPY", Last: 612, Timestamp: now, Source: contracts.SourceBrokerStream},
			second:   &Tick{Symbol: "SPY", Last: 611, Timestamp: now.Add(-time.Second), Source: contracts.SourceBrokerStream},
			accepted: false,
		},
		{
			name:     "same timestamp lower priority rejected",
			first:    &Tick{Symbol: "SPY", Last: 612, Timestamp: now, Source: contracts.SourceBrokerStream},
			second:   &Tick{Symbol: "SPY", Last: 611, Timestamp: now, Source: contracts.SourceTradier},
			accepted: false,
		},
		{
			name:     "same timestamp higher priority accepted",
			first:    &Tick{Symbol: "SPY", Last: 612, Timestamp: now, Source: contracts.SourceTradier},
			second:   &Tick{Symbol: "SPY", Last: 611, Timestamp: now, Source: contracts.SourceBrokerStream},
			accepted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewCache(time.Minute, logger.Nop())
			if !cache.Update(tt.first) {
				t.Fatal("first update should always be accepted")
			}
			if got := cache.Update(tt.second); got != tt.accepted {
				t.Errorf("Update() = %v, want %v", got, tt.accepted)
			}
		})
	}
}

func TestCache_Fresh(t *testing.T) {
	cache := NewCache(50*time.Millisecond, logger.Nop())

	cache.Update(&Tick{Symbol: "SPY", Last: 612, Timestamp: time.Now(), Source: contracts.SourceBrokerStream})

	if _, ok := cache.Fresh("SPY"); !ok {
		t.Fatal("tick should be fresh immediately after update")
	}
	if _, ok := cache.Fresh("QQQ"); ok {
		t.Fatal("unknown symbol should not be fresh")
	}

	time.Sleep(60 * time.Millisecond)

	if _, ok := cache.Fresh("SPY"); ok {
		t.Error("tick past TTL should not be fresh")
	}
	if _, ok := cache.Get("SPY"); !ok {
		t.Error("Get should still return the stale tick")
	}
}

func TestCache_CleanStale(t *testing.T) {
	cache := NewCache(10*time.Millisecond, logger.Nop())

	cache.Update(&Tick{Symbol: "SPY", Timestamp: time.Now(), Source: contracts.SourceBrokerStream})
	cache.Update(&Tick{Symbol: "QQQ", Timestamp: time.Now(), Source: contracts.SourceBrokerStream})

	time.Sleep(20 * time.Millisecond)
	cache.Update(&Tick{Symbol: "AAPL", Timestamp: time.Now(), Source: contracts.SourceBrokerStream})

	removed := cache.CleanStale()
	if removed != 2 {
		t.Errorf("CleanStale() = %d, want 2", removed)
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}
