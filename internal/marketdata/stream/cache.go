package stream

import (
	"sync"
	"time"

	"github.com/optionscout/backend/internal/contracts"
	"github.com/optionscout/backend/pkg/logger"
)

// Tick is a streaming quote update for one symbol.
type Tick struct {
	Symbol    string           `json:"symbol"`
	Last      float64          `json:"last"`
	Bid       float64          `json:"bid"`
	Ask       float64          `json:"ask"`
	Volume    int64            `json:"volume"`
	Timestamp time.Time        `json:"timestamp"`
	Source    contracts.Source `json:"source"`
	IsStale   bool             `json:"is_stale"`
}

// Quote converts the tick to a quote snapshot.
func (t *Tick) Quote() contracts.Quote {
	return contracts.Quote{
		Symbol:    t.Symbol,
		Last:      t.Last,
		Bid:       t.Bid,
		Ask:       t.Ask,
		Volume:    t.Volume,
		Timestamp: t.Timestamp,
	}
}

// sourcePriority ranks tick sources; higher wins on equal timestamps.
func sourcePriority(s contracts.Source) int {
	switch s {
	case contracts.SourceBrokerStream:
		return 3
	case contracts.SourceBroker:
		return 2
	case contracts.SourceTradier:
		return 1
	default:
		return 0
	}
}

// Cache is the in-memory cache of streaming ticks. The resolver consults it
// ahead of any REST attempt; a fresh tick short-circuits the provider chain.
type Cache struct {
	mu     sync.RWMutex
	ticks  map[string]*Tick
	ttl    time.Duration
	logger *logger.Logger
}

// NewCache creates a new tick cache
func NewCache(ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{
		ticks:  make(map[string]*Tick),
		ttl:    ttl,
		logger: log,
	}
}

// Update stores a tick, rejecting older data and same-timestamp data from a
// lower-priority source. Returns whether the update was accepted.
func (c *Cache) Update(tick *Tick) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, exists := c.ticks[tick.Symbol]
	if exists {
		if tick.Timestamp.Before(existing.Timestamp) {
			c.logger.WithFields(map[string]interface{}{
				"symbol":     tick.Symbol,
				"new_time":   tick.Timestamp,
				"old_time":   existing.Timestamp,
				"new_source": tick.Source,
				"old_source": existing.Source,
			}).Debug("Rejected older tick")
			return false
		}

		if tick.Timestamp.Equal(existing.Timestamp) &&
			sourcePriority(tick.Source) <= sourcePriority(existing.Source) {
			return false
		}
	}

	tick.IsStale = time.Since(tick.Timestamp) > c.ttl
	c.ticks[tick.Symbol] = tick

	return true
}

// Get retrieves the tick for a symbol, marking staleness at read time.
func (c *Cache) Get(symbol string) (*Tick, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tick, exists := c.ticks[symbol]
	if !exists {
		return nil, false
	}

	if time.Since(tick.Timestamp) > c.ttl {
		tick.IsStale = true
	}

	return tick, true
}

// Fresh returns the tick for a symbol only if it is within TTL.
func (c *Cache) Fresh(symbol string) (*Tick, bool) {
	tick, ok := c.Get(symbol)
	if !ok || tick.IsStale {
		return nil, false
	}
	return tick, true
}

// Len returns the number of cached ticks.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ticks)
}

// Clear removes all ticks.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticks = make(map[string]*Tick)
}

// CleanStale removes ticks older than TTL and returns how many were removed.
func (c *Cache) CleanStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	count := 0
	for symbol, tick := range c.ticks {
		if now.Sub(tick.Timestamp) > c.ttl {
			delete(c.ticks, symbol)
			count++
		}
	}

	if count > 0 {
		c.logger.WithField("count", count).Info("Cleaned stale ticks from cache")
	}

	return count
}
