package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_TTL(t *testing.T) {
	now := time.Date(2026, 8, 3, 10, 0, 0, 0, time.UTC)
	clock := &now
	loader := NewWithClock[string](func() time.Time { return *clock })

	var calls int32
	fn := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "value", nil
	}

	ctx := context.Background()

	// First load computes
	got, err := loader.Load(ctx, "SPY", 20*time.Second, fn)
	require.NoError(t, err)
	assert.Equal(t, "value", got)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	// Within TTL: cached, loader not re-invoked
	now = now.Add(19 * time.Second)
	got, err = loader.Load(ctx, "SPY", 20*time.Second, fn)
	require.NoError(t, err)
	assert.Equal(t, "value", got)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	// At TTL boundary: expired, recomputed
	now = now.Add(1 * time.Second)
	_, err = loader.Load(ctx, "SPY", 20*time.Second, fn)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestLoader_SingleFlight(t *testing.T) {
	loader := New[int]()

	var calls int32
	release := make(chan struct{})
	fn := func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	const workers = 16
	results := make([]int, workers)
	errs := make([]error, workers)

	var started sync.WaitGroup
	var done sync.WaitGroup
	started.Add(workers)
	done.Add(workers)

	for i := 0; i < workers; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i], errs[i] = loader.Load(context.Background(), "AAPL", time.Minute, fn)
		}(i)
	}

	started.Wait()
	time.Sleep(20 * time.Millisecond) // let every goroutine reach the flight
	close(release)
	done.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "loader must be invoked exactly once")
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 42, results[i])
	}
}

func TestLoader_FailureNotCached(t *testing.T) {
	loader := New[string]()

	var calls int32
	boom := errors.New("vendor down")
	fn := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		if atomic.LoadInt32(&calls) == 1 {
			return "", boom
		}
		return "recovered", nil
	}

	ctx := context.Background()

	_, err := loader.Load(ctx, "QQQ", time.Minute, fn)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, loader.Len(), "failures must not be cached")

	// In-flight marker cleared after failure: next call retries
	got, err := loader.Load(ctx, "QQQ", time.Minute, fn)
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestLoader_SharedFailure(t *testing.T) {
	loader := New[string]()

	boom := errors.New("vendor down")
	release := make(chan struct{})
	var calls int32
	fn := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "", boom
	}

	const workers = 8
	errs := make([]error, workers)

	var done sync.WaitGroup
	done.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer done.Done()
			_, errs[i] = loader.Load(context.Background(), "TSLA", time.Minute, fn)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	done.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for i := 0; i < workers; i++ {
		assert.ErrorIs(t, errs[i], boom, "all waiters share the flight's failure")
	}
}

func TestLoader_KeysAreIndependent(t *testing.T) {
	loader := New[string]()

	var calls int32
	fn := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "v", nil
	}

	ctx := context.Background()
	_, err := loader.Load(ctx, "SPY|30", time.Minute, fn)
	require.NoError(t, err)
	_, err = loader.Load(ctx, "SPY|60", time.Minute, fn)
	require.NoError(t, err)

	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
	assert.Equal(t, 2, loader.Len())
}

func TestLoader_Invalidate(t *testing.T) {
	loader := New[string]()

	var calls int32
	fn := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		return "v", nil
	}

	ctx := context.Background()
	_, err := loader.Load(ctx, "SPY", time.Minute, fn)
	require.NoError(t, err)

	loader.Invalidate("SPY")

	_, err = loader.Load(ctx, "SPY", time.Minute, fn)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}
