package recipes

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/schema"
)

// Persisted keys for the offline cache.
const (
	OfflineKey          = "recipes.cached"
	OfflineUpdatedAtKey = "recipes.cached_at"
)

// OfflineCache keeps viewed recipes in the key-value store for offline access.
type OfflineCache struct {
	store  contract.KVStore
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// NewOfflineCache returns an OfflineCache over store.
func NewOfflineCache(store contract.KVStore, logger *slog.Logger) *OfflineCache {
	return &OfflineCache{store: store, logger: contract.LoggerOrDiscard(logger), now: time.Now}
}

func (oc *OfflineCache) load(ctx context.Context) map[string]schema.CachedRecipe {
	entries := map[string]schema.CachedRecipe{}
	data, err := oc.store.Get(ctx, OfflineKey)
	if err != nil {
		if !errors.Is(err, contract.ErrKeyNotFound) {
			oc.logger.Warn("error reading offline recipes", "err", err)
		}
		return entries
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		oc.logger.Warn("error decoding offline recipes", "err", err)
		return map[string]schema.CachedRecipe{}
	}
	return entries
}

func (oc *OfflineCache) save(ctx context.Context, entries map[string]schema.CachedRecipe) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	stamp, err := json.Marshal(oc.now().UTC())
	if err != nil {
		return err
	}
	if err := oc.store.SetBatch(ctx, map[string][]byte{OfflineKey: data, OfflineUpdatedAtKey: stamp}); err != nil {
		return fmt.Errorf("failed to save offline recipes: %w", err)
	}
	return nil
}

// Put stores recipe, replacing any older copy.
func (oc *OfflineCache) Put(ctx context.Context, recipe schema.Recipe) error {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	entries := oc.load(ctx)
	entries[recipe.ID] = schema.CachedRecipe{Recipe: recipe, CachedAt: oc.now().UTC()}
	return oc.save(ctx, entries)
}

// Get returns the cached copy of id.
func (oc *OfflineCache) Get(ctx context.Context, id string) (schema.CachedRecipe, bool) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	e, ok := oc.load(ctx)[id]
	return e, ok
}

// All returns every cached recipe, newest first.
func (oc *OfflineCache) All(ctx context.Context) []schema.CachedRecipe {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	entries := oc.load(ctx)
	out := make([]schema.CachedRecipe, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b schema.CachedRecipe) int {
		if c := b.CachedAt.Compare(a.CachedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Recipe.ID, b.Recipe.ID)
	})
	return out
}

// LastUpdated returns when the offline cache was last written.
func (oc *OfflineCache) LastUpdated(ctx context.Context) (time.Time, bool) {
	data, err := oc.store.Get(ctx, OfflineUpdatedAtKey)
	if err != nil {
		return time.Time{}, false
	}
	var ts time.Time
	if err := json.Unmarshal(data, &ts); err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// PruneOlderThan drops entries cached more than age ago and returns how many went.
func (oc *OfflineCache) PruneOlderThan(ctx context.Context, age time.Duration) (int, error) {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	entries := oc.load(ctx)
	cutoff := oc.now().Add(-age)
	removed := 0
	for id, e := range entries {
		if e.CachedAt.Before(cutoff) {
			delete(entries, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	if err := oc.save(ctx, entries); err != nil {
		return 0, err
	}
	oc.logger.Debug("pruned offline recipes", "removed", removed)
	return removed, nil
}

// Clear removes the offline cache.
func (oc *OfflineCache) Clear(ctx context.Context) error {
	oc.mu.Lock()
	defer oc.mu.Unlock()
	return oc.store.Delete(ctx, OfflineKey, OfflineUpdatedAtKey)
}
