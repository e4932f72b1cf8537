package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader is a keyed TTL cache with single-flight deduplication. Every
// external lookup in the data layer goes through one of these: a live entry
// is returned without suspending, concurrent callers for the same key share
// one in-flight computation, and failures propagate to all waiters without
// being cached.
//
// Each data kind (quotes, bars, chains, context) owns its own Loader
// instance with its own TTL scale; instances are dependency-injected so
// tests get fresh state and an injected clock.
type Loader[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	group   singleflight.Group
	now     func() time.Time
}

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// New creates a Loader using the wall clock.
func New[T any]() *Loader[T] {
	return NewWithClock[T](time.Now)
}

// NewWithClock creates a Loader with an injected clock.
func NewWithClock[T any](now func() time.Time) *Loader[T] {
	return &Loader[T]{
		entries: make(map[string]entry[T]),
		now:     now,
	}
}

// Load returns the cached value for key if it is still live; otherwise it
// joins the in-flight computation for key, or starts fn and stores the
// result with the given TTL on success. The in-flight marker is cleared
// after the computation settles regardless of outcome, so a later call can
// retry after a failure.
//
// fn receives the context of the caller that started the computation;
// cancelling it fails every waiter of that flight.
func (l *Loader[T]) Load(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if value, ok := l.lookup(key); ok {
		return value, nil
	}

	result, err, _ := l.group.Do(key, func() (interface{}, error) {
		// A previous flight may have stored the value between our lookup
		// and joining the group.
		if value, ok := l.lookup(key); ok {
			return value, nil
		}

		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		l.store(key, value, ttl)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return result.(T), nil
}

// Peek returns the live cached value for key without computing anything.
func (l *Loader[T]) Peek(key string) (T, bool) {
	return l.lookup(key)
}

// Invalidate removes the entry for key.
func (l *Loader[T]) Invalidate(key string) {
	l.mu.Lock()
	delete(l.entries, key)
	l.mu.Unlock()
}

// Clear removes all entries.
func (l *Loader[T]) Clear() {
	l.mu.Lock()
	l.entries = make(map[string]entry[T])
	l.mu.Unlock()
}

// Len returns the number of entries, live or not yet evicted.
func (l *Loader[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// lookup returns the live value for key; expired entries are treated as
// absent and evicted lazily.
func (l *Loader[T]) lookup(key string) (T, bool) {
	l.mu.RLock()
	e, ok := l.entries[key]
	l.mu.RUnlock()

	if !ok {
		var zero T
		return zero, false
	}

	if !l.now().Before(e.expiresAt) {
		l.mu.Lock()
		// Re-check under the write lock; a fresh entry may have landed.
		if current, still := l.entries[key]; still && !l.now().Before(current.expiresAt) {
			delete(l.entries, key)
		}
		l.mu.Unlock()

		var zero T
		return zero, false
	}

	return e.value, true
}

func (l *Loader[T]) store(key string, value T, ttl time.Duration) {
	l.mu.Lock()
	l.entries[key] = entry[T]{value: value, expiresAt: l.now().Add(ttl)}
	l.mu.Unlock()
}
