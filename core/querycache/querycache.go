// Package querycache is a read-through cache of derived query results.
//
// Entries are keyed by a semantic string such as "favorites/set". Each entry
// carries a monotonically increasing version so optimistic writers can tell
// whether anybody touched it after them. Reads for one key share a single
// in-flight fetch, and Cancel discards that fetch's result.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/huangsam/pantry/internal/contract"
	"golang.org/x/sync/singleflight"
)

// ErrCancelled is reported when a fetch is superseded and no cached value exists.
var ErrCancelled = errors.New("query cancelled")

// Options controls freshness for a key. Zero fields fall back to the cache defaults.
type Options struct {
	StaleTime time.Duration
	GCTime    time.Duration
}

// Snapshot is an immutable view of one entry.
type Snapshot struct {
	Value       any
	HasValue    bool
	UpdatedAt   time.Time
	Invalidated bool
	Version     uint64
}

// Result is what readers receive for a typed query.
type Result[T any] struct {
	Data      T
	Stale     bool
	UpdatedAt time.Time
	Err       error
}

type entry struct {
	value       any
	hasValue    bool
	updatedAt   time.Time
	lastAccess  time.Time
	invalidated bool
	version     uint64
	opts        Options
	generation  uint64
	cancel      context.CancelFunc
}

func (e *entry) snapshot() Snapshot {
	return Snapshot{
		Value:       e.value,
		HasValue:    e.hasValue,
		UpdatedAt:   e.updatedAt,
		Invalidated: e.invalidated,
		Version:     e.version,
	}
}

// Cache holds query entries. The zero value is not usable; call New.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*entry
	group    singleflight.Group
	defaults Options
	subs     map[int]func(key string)
	nextSub  int
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a cache with default freshness options.
func New(defaults Options, logger *slog.Logger) *Cache {
	if defaults.StaleTime <= 0 {
		defaults.StaleTime = contract.DefaultFavoritesStale
	}
	if defaults.GCTime <= 0 {
		defaults.GCTime = contract.DefaultGCTime
	}
	return &Cache{
		entries:  make(map[string]*entry),
		defaults: defaults,
		subs:     make(map[int]func(string)),
		now:      time.Now,
		logger:   contract.LoggerOrDiscard(logger),
	}
}

// SetClock replaces the time source. Tests use it to move time forward.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// entryLocked returns the entry for key, creating it when absent.
func (c *Cache) entryLocked(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{opts: c.defaults, lastAccess: c.now()}
		c.entries[key] = e
	}
	return e
}

func (c *Cache) mergeOptions(opts Options) Options {
	if opts.StaleTime <= 0 {
		opts.StaleTime = c.defaults.StaleTime
	}
	if opts.GCTime <= 0 {
		opts.GCTime = c.defaults.GCTime
	}
	return opts
}

func (c *Cache) staleLocked(e *entry) bool {
	return !e.hasValue || e.invalidated || c.now().Sub(e.updatedAt) > e.opts.StaleTime
}

// Fetch returns the cached value for key when fresh, otherwise runs fetch.
// Concurrent callers for the same key share one fetch. When fetch fails and an
// older value exists, the older value is returned alongside the error.
func (c *Cache) Fetch(ctx context.Context, key string, opts Options, fetch func(context.Context) (any, error)) (Snapshot, error) {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.opts = c.mergeOptions(opts)
	e.lastAccess = c.now()
	if !c.staleLocked(e) {
		snap := e.snapshot()
		c.mu.Unlock()
		return snap, nil
	}
	gen := e.generation
	c.mu.Unlock()

	flightKey := fmt.Sprintf("%s#%d", key, gen)
	ch := c.group.DoChan(flightKey, func() (any, error) {
		return c.runFetch(ctx, key, gen, fetch)
	})

	select {
	case res := <-ch:
		snap, _ := res.Val.(Snapshot)
		return snap, res.Err
	case <-ctx.Done():
		return c.Peek(key), ctx.Err()
	}
}

// runFetch executes one shared fetch and stores its result if still current.
func (c *Cache) runFetch(ctx context.Context, key string, gen uint64, fetch func(context.Context) (any, error)) (Snapshot, error) {
	// The fetch outlives any single waiter; only Cancel stops it.
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	c.mu.Lock()
	e := c.entryLocked(key)
	if e.generation != gen {
		snap := e.snapshot()
		c.mu.Unlock()
		return discarded(snap)
	}
	e.cancel = cancel
	c.mu.Unlock()

	value, err := fetch(fetchCtx)

	c.mu.Lock()
	e = c.entryLocked(key)
	if e.generation != gen {
		snap := e.snapshot()
		c.mu.Unlock()
		c.logger.Debug("discarded cancelled fetch", "key", key)
		return discarded(snap)
	}
	e.cancel = nil
	if err != nil {
		snap := e.snapshot()
		c.mu.Unlock()
		return snap, err
	}
	e.value = value
	e.hasValue = true
	e.updatedAt = c.now()
	e.invalidated = false
	e.version++
	snap := e.snapshot()
	c.mu.Unlock()

	c.notify(key)
	return snap, nil
}

func discarded(snap Snapshot) (Snapshot, error) {
	if snap.HasValue {
		return snap, nil
	}
	return snap, ErrCancelled
}

// Peek returns the current entry without fetching or touching access time.
func (c *Cache) Peek(key string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.snapshot()
	}
	return Snapshot{}
}

// IsStale reports whether key would trigger a fetch.
func (c *Cache) IsStale(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return !ok || c.staleLocked(e)
}

// Cancel aborts the in-flight fetch for each key. A late result is discarded.
func (c *Cache) Cancel(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		e, ok := c.entries[key]
		if !ok {
			continue
		}
		e.generation++
		if e.cancel != nil {
			e.cancel()
			e.cancel = nil
		}
	}
}

// Set stores value at key as fresh data and returns the new version.
func (c *Cache) Set(key string, value any) uint64 {
	c.mu.Lock()
	e := c.entryLocked(key)
	e.value = value
	e.hasValue = true
	e.updatedAt = c.now()
	e.invalidated = false
	e.version++
	v := e.version
	c.mu.Unlock()

	c.notify(key)
	return v
}

// Update applies fn to the current value atomically. When fn returns false
// nothing changes. It returns the snapshot before the change and the version
// after it.
func (c *Cache) Update(key string, fn func(old any, ok bool) (any, bool)) (Snapshot, uint64, bool) {
	c.mu.Lock()
	e := c.entryLocked(key)
	before := e.snapshot()
	next, changed := fn(e.value, e.hasValue)
	if !changed {
		c.mu.Unlock()
		return before, before.Version, false
	}
	e.value = next
	e.hasValue = true
	e.updatedAt = c.now()
	e.invalidated = false
	e.version++
	v := e.version
	c.mu.Unlock()

	c.notify(key)
	return before, v, true
}

// Restore puts snap back at key when the entry is still at expectVersion.
// It reports whether the restore happened.
func (c *Cache) Restore(key string, snap Snapshot, expectVersion uint64) bool {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || e.version != expectVersion {
		c.mu.Unlock()
		return false
	}
	e.value = snap.Value
	e.hasValue = snap.HasValue
	e.updatedAt = snap.UpdatedAt
	e.invalidated = snap.Invalidated
	e.version++
	c.mu.Unlock()

	c.notify(key)
	return true
}

// Invalidate marks keys stale so the next read refetches.
func (c *Cache) Invalidate(keys ...string) {
	var touched []string
	c.mu.Lock()
	for _, key := range keys {
		if e, ok := c.entries[key]; ok {
			e.invalidated = true
			touched = append(touched, key)
		}
	}
	c.mu.Unlock()

	for _, key := range touched {
		c.notify(key)
	}
}

// InvalidatePrefix marks every key starting with prefix stale.
func (c *Cache) InvalidatePrefix(prefix string) {
	var keys []string
	c.mu.Lock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	c.mu.Unlock()
	c.Invalidate(keys...)
}

// Remove drops key entirely, cancelling any fetch.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if e.cancel != nil {
			e.cancel()
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()
}

// Sweep evicts entries not accessed within their GC window and returns how many went.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for key, e := range c.entries {
		if e.cancel != nil {
			continue // fetch in flight
		}
		if now.Sub(e.lastAccess) > e.opts.GCTime {
			delete(c.entries, key)
			n++
		}
	}
	if n > 0 {
		c.logger.Debug("swept query cache", "evicted", n)
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (c *Cache) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Subscribe registers fn for key-change notifications and returns an unsubscribe func.
// fn runs synchronously on the goroutine that made the change.
func (c *Cache) Subscribe(fn func(key string)) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Cache) notify(key string) {
	c.mu.Lock()
	fns := make([]func(string), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}

// Query is the typed read-through helper over Fetch.
func Query[T any](ctx context.Context, c *Cache, key string, opts Options, fetch func(context.Context) (T, error)) Result[T] {
	snap, err := c.Fetch(ctx, key, opts, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	res := Result[T]{UpdatedAt: snap.UpdatedAt, Err: err}
	if v, ok := snap.Value.(T); ok {
		res.Data = v
	}
	res.Stale = err != nil || c.IsStale(key)
	return res
}
