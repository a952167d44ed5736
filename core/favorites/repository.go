// Package favorites keeps the user's favorite recipes in the key-value store
// and serves them through an optimistic query cache.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/schema"
)

// Persisted keys.
const (
	IDsKey     = "favorites.ids"
	RecipesKey = "favorites.recipes"
)

var (
	// ErrWriteFailed wraps every durable write failure.
	ErrWriteFailed = errors.New("failed to write favorites")

	// ErrInvalidRecipe is returned for recipes without an ID.
	ErrInvalidRecipe = errors.New("recipe has no id")
)

// Repository is durable CRUD over the favorite ID set and recipe snapshots.
// Both keys are always written in one store batch.
type Repository struct {
	store  contract.KVStore
	logger *slog.Logger
	mu     sync.Mutex // serializes read-modify-write cycles
}

// NewRepository returns a Repository over store.
func NewRepository(store contract.KVStore, logger *slog.Logger) *Repository {
	return &Repository{store: store, logger: contract.LoggerOrDiscard(logger)}
}

// readJSON decodes key into out. A missing key leaves out untouched.
func readJSON(ctx context.Context, store contract.KVStore, key string, out any) error {
	data, err := store.Get(ctx, key)
	if errors.Is(err, contract.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (r *Repository) loadIDs(ctx context.Context) []string {
	var ids []string
	if err := readJSON(ctx, r.store, IDsKey, &ids); err != nil {
		r.logger.Warn("error reading favorite ids", "err", err)
		return []string{}
	}
	if ids == nil {
		return []string{}
	}
	return ids
}

func (r *Repository) loadRecipes(ctx context.Context) []schema.Recipe {
	var recipes []schema.Recipe
	if err := readJSON(ctx, r.store, RecipesKey, &recipes); err != nil {
		r.logger.Warn("error reading favorite recipes", "err", err)
		return []schema.Recipe{}
	}
	if recipes == nil {
		return []schema.Recipe{}
	}
	return recipes
}

// FavoriteIDs returns the persisted IDs in insertion order. It never fails.
func (r *Repository) FavoriteIDs(ctx context.Context) []string {
	return r.loadIDs(ctx)
}

// IsFavorite reports whether id is in the favorite set.
func (r *Repository) IsFavorite(ctx context.Context, id string) bool {
	return slices.Contains(r.loadIDs(ctx), id)
}

// FavoriteRecipes returns the persisted recipe snapshots. It never fails.
func (r *Repository) FavoriteRecipes(ctx context.Context) []schema.Recipe {
	return r.loadRecipes(ctx)
}

// FavoriteCount returns the number of favorite IDs.
func (r *Repository) FavoriteCount(ctx context.Context) int {
	return len(r.loadIDs(ctx))
}

// Aggregate reads both keys in one pass.
func (r *Repository) Aggregate(ctx context.Context) Aggregate {
	return Aggregate{IDs: r.loadIDs(ctx), Recipes: r.loadRecipes(ctx)}
}

func (r *Repository) write(ctx context.Context, ids []string, recipes []schema.Recipe) error {
	idData, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	recipeData, err := json.Marshal(recipes)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if err := r.store.SetBatch(ctx, map[string][]byte{IDsKey: idData, RecipesKey: recipeData}); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// AddFavorite stores recipe as a favorite. Adding an existing favorite is a no-op.
func (r *Repository) AddFavorite(ctx context.Context, recipe schema.Recipe) error {
	if recipe.ID == "" {
		return ErrInvalidRecipe
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addLocked(ctx, recipe)
}

func (r *Repository) addLocked(ctx context.Context, recipe schema.Recipe) error {
	agg := r.Aggregate(ctx)
	if slices.Contains(agg.IDs, recipe.ID) {
		return nil
	}
	next := agg.With(recipe)
	if err := r.write(ctx, next.IDs, next.Recipes); err != nil {
		r.logger.Error("error adding to favorites", "id", recipe.ID, "err", err)
		return err
	}
	return nil
}

// RemoveFavorite drops id from both keys. A missing id is not an error.
func (r *Repository) RemoveFavorite(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(ctx, id)
}

func (r *Repository) removeLocked(ctx context.Context, id string) error {
	next := r.Aggregate(ctx).Without(id)
	if err := r.write(ctx, next.IDs, next.Recipes); err != nil {
		r.logger.Error("error removing from favorites", "id", id, "err", err)
		return err
	}
	return nil
}

// ToggleFavorite flips membership of recipe and returns the new state.
func (r *Repository) ToggleFavorite(ctx context.Context, recipe schema.Recipe) (bool, error) {
	if recipe.ID == "" {
		return false, ErrInvalidRecipe
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if slices.Contains(r.loadIDs(ctx), recipe.ID) {
		return false, r.removeLocked(ctx, recipe.ID)
	}
	return true, r.addLocked(ctx, recipe)
}

// ClearFavorites deletes both keys.
func (r *Repository) ClearFavorites(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Delete(ctx, IDsKey, RecipesKey); err != nil {
		r.logger.Error("error clearing favorites", "err", err)
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// ReconcileReport lists what Reconcile dropped.
type ReconcileReport struct {
	DroppedIDs       []string `json:"droppedIds"`
	DroppedSnapshots []string `json:"droppedSnapshots"`
	DuplicateIDs     []string `json:"duplicateIds"`
}

// Changed reports whether anything was repaired.
func (rr ReconcileReport) Changed() bool {
	return len(rr.DroppedIDs)+len(rr.DroppedSnapshots)+len(rr.DuplicateIDs) > 0
}

// Reconcile repairs drift between the ID list and the snapshots. IDs without
// a snapshot and snapshots without an ID are dropped, duplicates collapse to
// their first occurrence.
func (r *Repository) Reconcile(ctx context.Context) (ReconcileReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	agg := r.Aggregate(ctx)
	var report ReconcileReport

	byID := make(map[string]schema.Recipe, len(agg.Recipes))
	for _, rec := range agg.Recipes {
		if _, dup := byID[rec.ID]; dup {
			report.DuplicateIDs = append(report.DuplicateIDs, rec.ID)
			continue
		}
		byID[rec.ID] = rec
	}

	seen := make(map[string]struct{}, len(agg.IDs))
	fixed := Aggregate{IDs: []string{}, Recipes: []schema.Recipe{}}
	for _, id := range agg.IDs {
		if _, dup := seen[id]; dup {
			report.DuplicateIDs = append(report.DuplicateIDs, id)
			continue
		}
		seen[id] = struct{}{}
		rec, ok := byID[id]
		if !ok {
			report.DroppedIDs = append(report.DroppedIDs, id)
			continue
		}
		fixed.IDs = append(fixed.IDs, id)
		fixed.Recipes = append(fixed.Recipes, rec)
	}
	for id := range byID {
		if _, ok := seen[id]; !ok {
			report.DroppedSnapshots = append(report.DroppedSnapshots, id)
		}
	}
	slices.Sort(report.DroppedSnapshots)

	if !report.Changed() {
		return report, nil
	}
	if err := r.write(ctx, fixed.IDs, fixed.Recipes); err != nil {
		return report, err
	}
	r.logger.Info("reconciled favorites",
		"droppedIds", len(report.DroppedIDs),
		"droppedSnapshots", len(report.DroppedSnapshots),
		"duplicates", len(report.DuplicateIDs))
	return report, nil
}
