package favorites

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/huangsam/pantry/core/querycache"
	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/schema"
)

// Query cache keys.
const (
	keyPrefix    = "favorites/"
	setKey       = keyPrefix + "set"
	statusPrefix = keyPrefix + "status/"
)

// ErrMutationPending is returned when the same recipe is toggled again before
// its previous toggle settled.
var ErrMutationPending = errors.New("favorite mutation already pending")

// Query is a cached read: the value plus freshness and error flags.
type Query[T any] = querycache.Result[T]

// Options sets the cache windows for favorites queries.
type Options struct {
	SetStale    time.Duration
	StatusStale time.Duration
	SetGC       time.Duration
	StatusGC    time.Duration
}

// DefaultOptions returns the stock freshness windows.
func DefaultOptions() Options {
	return Options{
		SetStale:    contract.DefaultFavoritesStale,
		StatusStale: contract.DefaultStatusStale,
		SetGC:       contract.DefaultGCTime,
		StatusGC:    contract.DefaultGCTime / 2,
	}
}

// OptionsFromConfig derives the windows from a validated config.
func OptionsFromConfig(cfg *contract.Config) Options {
	return Options{
		SetStale:    cfg.FavoritesStale,
		StatusStale: cfg.StatusStale,
		SetGC:       cfg.GCTime,
		StatusGC:    cfg.GCTime / 2,
	}
}

// Coordinator serves favorites through the query cache and applies toggles
// optimistically before the durable write lands.
type Coordinator struct {
	repo    *Repository
	cache   *querycache.Cache
	opts    Options
	logger  *slog.Logger
	mu      sync.Mutex
	pending map[string]struct{}
}

// NewCoordinator wires a repository to a query cache.
func NewCoordinator(repo *Repository, cache *querycache.Cache, opts Options, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		repo:    repo,
		cache:   cache,
		opts:    opts,
		logger:  contract.LoggerOrDiscard(logger),
		pending: make(map[string]struct{}),
	}
}

// Repository returns the underlying repository.
func (c *Coordinator) Repository() *Repository {
	return c.repo
}

func statusKey(id string) string {
	return statusPrefix + id
}

func (c *Coordinator) setOptions() querycache.Options {
	return querycache.Options{StaleTime: c.opts.SetStale, GCTime: c.opts.SetGC}
}

func (c *Coordinator) statusOptions() querycache.Options {
	return querycache.Options{StaleTime: c.opts.StatusStale, GCTime: c.opts.StatusGC}
}

func (c *Coordinator) aggregate(ctx context.Context) Query[Aggregate] {
	return querycache.Query(ctx, c.cache, setKey, c.setOptions(), func(ctx context.Context) (Aggregate, error) {
		return c.repo.Aggregate(ctx), nil
	})
}

// derive maps the aggregate query into a view of it.
func derive[T any](q Query[Aggregate], fn func(Aggregate) T) Query[T] {
	return Query[T]{Data: fn(q.Data), Stale: q.Stale, UpdatedAt: q.UpdatedAt, Err: q.Err}
}

// FavoriteIDs returns the cached favorite IDs.
func (c *Coordinator) FavoriteIDs(ctx context.Context) Query[[]string] {
	return derive(c.aggregate(ctx), func(a Aggregate) []string {
		if a.IDs == nil {
			return []string{}
		}
		return slices.Clone(a.IDs)
	})
}

// FavoriteCount returns the cached favorite count.
func (c *Coordinator) FavoriteCount(ctx context.Context) Query[int] {
	return derive(c.aggregate(ctx), Aggregate.Count)
}

// FavoriteList returns the cached favorite recipes.
func (c *Coordinator) FavoriteList(ctx context.Context) Query[[]schema.Recipe] {
	return derive(c.aggregate(ctx), func(a Aggregate) []schema.Recipe {
		if a.Recipes == nil {
			return []schema.Recipe{}
		}
		return slices.Clone(a.Recipes)
	})
}

// IsFavorite returns the cached membership of id. An empty id is never a favorite.
func (c *Coordinator) IsFavorite(ctx context.Context, id string) Query[bool] {
	if id == "" {
		return Query[bool]{}
	}
	return querycache.Query(ctx, c.cache, statusKey(id), c.statusOptions(), func(ctx context.Context) (bool, error) {
		return c.repo.IsFavorite(ctx, id), nil
	})
}

// IsPending reports whether a toggle of id is in progress.
func (c *Coordinator) IsPending(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[id]
	return ok
}

func (c *Coordinator) begin(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[id]; ok {
		return false
	}
	c.pending[id] = struct{}{}
	return true
}

func (c *Coordinator) end(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, id)
}

// currentStatus is the membership a toggle flips. Cache entries that were not
// invalidated are trusted; otherwise the repository answers.
func (c *Coordinator) currentStatus(ctx context.Context, id string) bool {
	if snap := c.cache.Peek(statusKey(id)); snap.HasValue && !snap.Invalidated {
		v, _ := snap.Value.(bool)
		return v
	}
	if snap := c.cache.Peek(setKey); snap.HasValue && !snap.Invalidated {
		agg, _ := snap.Value.(Aggregate)
		return agg.Contains(id)
	}
	return c.repo.IsFavorite(ctx, id)
}

// ToggleFavorite flips membership of recipe, showing the result in the cache
// immediately and rolling it back if the durable write fails. Both keys are
// invalidated once the write settles either way.
func (c *Coordinator) ToggleFavorite(ctx context.Context, recipe schema.Recipe) (bool, error) {
	if recipe.ID == "" {
		return false, ErrInvalidRecipe
	}
	if !c.begin(recipe.ID) {
		return false, ErrMutationPending
	}
	defer c.end(recipe.ID)

	sKey := statusKey(recipe.ID)

	// Superseded reads must not overwrite the optimistic values.
	c.cache.Cancel(sKey, setKey)

	prevStatus := c.currentStatus(ctx, recipe.ID)
	nextStatus := !prevStatus

	statusBefore, statusVersion, _ := c.cache.Update(sKey, func(any, bool) (any, bool) {
		return nextStatus, true
	})
	setBefore, setVersion, setChanged := c.cache.Update(setKey, func(old any, ok bool) (any, bool) {
		if !ok {
			return nil, false // nothing cached to splice into
		}
		agg, _ := old.(Aggregate)
		if nextStatus {
			return agg.With(recipe), true
		}
		return agg.Without(recipe.ID), true
	})

	defer c.cache.Invalidate(sKey, setKey)

	// The durable write always runs to completion.
	state, err := c.repo.ToggleFavorite(context.WithoutCancel(ctx), recipe)
	if err != nil {
		c.rollback(recipe, prevStatus, statusBefore, statusVersion, setBefore, setVersion, setChanged)
		return prevStatus, fmt.Errorf("failed to toggle favorite %s: %w", recipe.ID, err)
	}
	return state, nil
}

func (c *Coordinator) rollback(recipe schema.Recipe, prevStatus bool,
	statusBefore querycache.Snapshot, statusVersion uint64,
	setBefore querycache.Snapshot, setVersion uint64, setChanged bool,
) {
	sKey := statusKey(recipe.ID)
	if !c.cache.Restore(sKey, statusBefore, statusVersion) {
		c.cache.Update(sKey, func(old any, ok bool) (any, bool) {
			if v, _ := old.(bool); ok && v != prevStatus {
				return prevStatus, true
			}
			return old, false
		})
	}

	if !setChanged || c.cache.Restore(setKey, setBefore, setVersion) {
		return
	}

	// Another mutation changed the aggregate since; undo only this one.
	c.logger.Debug("partial rollback of favorites set", "id", recipe.ID)
	c.cache.Update(setKey, func(old any, ok bool) (any, bool) {
		if !ok {
			return old, false
		}
		agg, _ := old.(Aggregate)
		if prevStatus {
			original := recipe
			if before, ok := setBefore.Value.(Aggregate); ok {
				if r, found := before.Recipe(recipe.ID); found {
					original = r
				}
			}
			return agg.With(original), true
		}
		return agg.Without(recipe.ID), true
	})
}

// AddFavorite stores recipe and invalidates all favorites queries on success.
func (c *Coordinator) AddFavorite(ctx context.Context, recipe schema.Recipe) error {
	if err := c.repo.AddFavorite(ctx, recipe); err != nil {
		return err
	}
	c.invalidateAll()
	return nil
}

// RemoveFavorite drops id and invalidates all favorites queries on success.
func (c *Coordinator) RemoveFavorite(ctx context.Context, id string) error {
	if err := c.repo.RemoveFavorite(ctx, id); err != nil {
		return err
	}
	c.invalidateAll()
	return nil
}

// ClearFavorites empties the store and invalidates all favorites queries on success.
func (c *Coordinator) ClearFavorites(ctx context.Context) error {
	if err := c.repo.ClearFavorites(ctx); err != nil {
		return err
	}
	c.invalidateAll()
	return nil
}

// Reconcile repairs persisted drift and invalidates the cache when anything changed.
func (c *Coordinator) Reconcile(ctx context.Context) (ReconcileReport, error) {
	report, err := c.repo.Reconcile(ctx)
	if err == nil && report.Changed() {
		c.invalidateAll()
	}
	return report, err
}

func (c *Coordinator) invalidateAll() {
	c.cache.InvalidatePrefix(keyPrefix)
}

// Subscribe calls fn with the key of every favorites query that changes.
func (c *Coordinator) Subscribe(fn func(key string)) func() {
	return c.cache.Subscribe(func(key string) {
		if strings.HasPrefix(key, keyPrefix) {
			fn(key)
		}
	})
}
