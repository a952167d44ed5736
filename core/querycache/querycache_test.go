package querycache

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

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache() (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := New(Options{StaleTime: time.Minute, GCTime: 5 * time.Minute}, nil)
	c.SetClock(clock.Now)
	return c, clock
}

func counter(calls *int32, value any) func(context.Context) (any, error) {
	return func(context.Context) (any, error) {
		atomic.AddInt32(calls, 1)
		return value, nil
	}
}

func TestFetchFreshAndStale(t *testing.T) {
	c, clock := newTestCache()
	ctx := context.Background()
	var calls int32

	snap, err := c.Fetch(ctx, "k", Options{}, counter(&calls, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Value)
	assert.Equal(t, uint64(1), snap.Version)

	// Fresh hit
	_, err = c.Fetch(ctx, "k", Options{}, counter(&calls, 2))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Past the stale window
	clock.Advance(2 * time.Minute)
	assert.True(t, c.IsStale("k"))
	snap, err = c.Fetch(ctx, "k", Options{}, counter(&calls, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Value)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPerKeyStaleTime(t *testing.T) {
	c, clock := newTestCache()
	ctx := context.Background()
	var calls int32

	_, err := c.Fetch(ctx, "k", Options{StaleTime: 10 * time.Minute}, counter(&calls, 1))
	require.NoError(t, err)
	clock.Advance(5 * time.Minute)
	_, err = c.Fetch(ctx, "k", Options{StaleTime: 10 * time.Minute}, counter(&calls, 1))
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestInvalidateForcesRefetch(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	var calls int32

	_, err := c.Fetch(ctx, "favorites/set", Options{}, counter(&calls, "a"))
	require.NoError(t, err)
	_, err = c.Fetch(ctx, "favorites/status/1", Options{}, counter(&calls, true))
	require.NoError(t, err)

	c.InvalidatePrefix("favorites/")
	assert.True(t, c.IsStale("favorites/set"))
	assert.True(t, c.IsStale("favorites/status/1"))

	_, err = c.Fetch(ctx, "favorites/set", Options{}, counter(&calls, "b"))
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.False(t, c.IsStale("favorites/set"))
}

func TestFetchErrorKeepsOldValue(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	boom := errors.New("boom")

	c.Set("k", "old")
	c.Invalidate("k")
	snap, err := c.Fetch(ctx, "k", Options{}, func(context.Context) (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "old", snap.Value)
}

func TestConcurrentFetchDedupe(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	var calls int32
	release := make(chan struct{})

	fetch := func(context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snap, err := c.Fetch(ctx, "k", Options{}, fetch)
			assert.NoError(t, err)
			results[i] = snap.Value
		}(i)
	}
	// Give the goroutines a chance to join the flight.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "v", r)
	}
}

func TestCancelDiscardsLateResult(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	started := make(chan struct{})
	release := make(chan struct{})

	c.Set("k", "optimistic")
	c.Invalidate("k")

	done := make(chan Snapshot)
	go func() {
		snap, _ := c.Fetch(ctx, "k", Options{}, func(fctx context.Context) (any, error) {
			close(started)
			<-release
			return "late", nil
		})
		done <- snap
	}()

	<-started
	c.Cancel("k")
	v := c.Set("k", "newer")
	close(release)

	snap := <-done
	assert.Equal(t, "newer", snap.Value)
	assert.Equal(t, v, snap.Version)
	assert.Equal(t, "newer", c.Peek("k").Value)
}

func TestCancelStopsFetchContext(t *testing.T) {
	c, _ := newTestCache()
	started := make(chan struct{})
	errCh := make(chan error, 1)

	go func() {
		_, err := c.Fetch(context.Background(), "k", Options{}, func(fctx context.Context) (any, error) {
			close(started)
			<-fctx.Done()
			return nil, fctx.Err()
		})
		errCh <- err
	}()

	<-started
	c.Cancel("k")
	assert.ErrorIs(t, <-errCh, ErrCancelled)
}

func TestCallerContextDoesNotCancelSharedFetch(t *testing.T) {
	c, _ := newTestCache()
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := c.Fetch(ctx, "k", Options{}, func(fctx context.Context) (any, error) {
		<-release
		return "v", fctx.Err()
	})
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	assert.Eventually(t, func() bool { return c.Peek("k").Value == "v" }, time.Second, 5*time.Millisecond)
}

func TestUpdateAndRestore(t *testing.T) {
	c, _ := newTestCache()
	c.Set("count", 1)

	before, v, changed := c.Update("count", func(old any, ok bool) (any, bool) {
		return old.(int) + 1, true
	})
	require.True(t, changed)
	assert.Equal(t, 1, before.Value)
	assert.Equal(t, 2, c.Peek("count").Value)

	// Restore succeeds while nobody else touched the entry.
	assert.True(t, c.Restore("count", before, v))
	assert.Equal(t, 1, c.Peek("count").Value)
	assert.Greater(t, c.Peek("count").Version, v)

	// A stale version is refused.
	assert.False(t, c.Restore("count", before, v))

	// No-op update leaves the version untouched.
	snap := c.Peek("count")
	_, v2, changed := c.Update("count", func(old any, ok bool) (any, bool) { return old, false })
	assert.False(t, changed)
	assert.Equal(t, snap.Version, v2)
}

func TestSweep(t *testing.T) {
	c, clock := newTestCache()
	ctx := context.Background()
	var calls int32

	_, _ = c.Fetch(ctx, "old", Options{}, counter(&calls, 1))
	_, _ = c.Fetch(ctx, "short", Options{GCTime: time.Minute}, counter(&calls, 1))
	clock.Advance(2 * time.Minute)
	_, _ = c.Fetch(ctx, "new", Options{}, counter(&calls, 1))

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 2, c.Len())

	clock.Advance(4 * time.Minute)
	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, Snapshot{}, c.Peek("old"))
}

func TestSubscribe(t *testing.T) {
	c, _ := newTestCache()
	var mu sync.Mutex
	var seen []string
	unsubscribe := c.Subscribe(func(key string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, key)
	})

	c.Set("a", 1)
	c.Invalidate("a", "missing")
	unsubscribe()
	c.Set("b", 2)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "a"}, seen)
}

func TestQueryTyped(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()

	res := Query(ctx, c, "ids", Options{}, func(context.Context) ([]string, error) {
		return []string{"1", "2"}, nil
	})
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"1", "2"}, res.Data)
	assert.False(t, res.Stale)
	assert.False(t, res.UpdatedAt.IsZero())

	c.Invalidate("ids")
	res = Query(ctx, c, "ids", Options{}, func(context.Context) ([]string, error) {
		return nil, errors.New("down")
	})
	assert.Error(t, res.Err)
	assert.True(t, res.Stale)
	assert.Equal(t, []string{"1", "2"}, res.Data)
}

func TestUpdateAfterInvalidateIsFresh(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	var calls int32

	c.Set("k", 1)
	c.Invalidate("k")
	require.True(t, c.IsStale("k"))

	_, _, changed := c.Update("k", func(old any, _ bool) (any, bool) {
		return old.(int) + 1, true
	})
	require.True(t, changed)
	assert.False(t, c.IsStale("k"))
	assert.False(t, c.Peek("k").Invalidated)

	// The updated value is served without a refetch.
	snap, err := c.Fetch(ctx, "k", Options{}, counter(&calls, 99))
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Value)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	// A no-op update leaves the stale mark alone.
	c.Invalidate("k")
	c.Update("k", func(old any, _ bool) (any, bool) { return old, false })
	assert.True(t, c.IsStale("k"))
}
