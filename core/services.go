// Package core wires the pantry services for one application session.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/huangsam/pantry/core/auth"
	"github.com/huangsam/pantry/core/favorites"
	"github.com/huangsam/pantry/core/querycache"
	"github.com/huangsam/pantry/core/recipes"
	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/schema"
)

// ErrRecipeNotFound is returned when an ID resolves nowhere.
var ErrRecipeNotFound = errors.New("recipe not found")

// sweepInterval is how often long-running sessions evict unused cache entries.
const sweepInterval = time.Minute

// Services is the explicitly constructed service graph of one session.
type Services struct {
	Store     contract.KVStore
	Catalog   *recipes.Catalog
	Recipes   *recipes.CachedProvider
	Offline   *recipes.OfflineCache
	Cache     *querycache.Cache
	Favorites *favorites.Coordinator
	Session   *auth.Session
	Logger    *slog.Logger
}

// NewServices builds the service graph over the store handed out by mgr.
func NewServices(cfg *contract.Config, mgr contract.StoreManager, logger *slog.Logger) (*Services, error) {
	logger = contract.LoggerOrDiscard(logger)
	store := mgr.GetStore()
	if store == nil {
		return nil, fmt.Errorf("store is not initialized")
	}

	catalog, err := recipes.Default()
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe catalog: %w", err)
	}

	cache := querycache.New(querycache.Options{StaleTime: cfg.FavoritesStale, GCTime: cfg.GCTime}, logger)
	repo := favorites.NewRepository(store, logger)
	coord := favorites.NewCoordinator(repo, cache, favorites.OptionsFromConfig(cfg), logger)

	session := auth.NewSession(store, logger)
	session.OnSignOut(coord.ClearFavorites)

	return &Services{
		Store:     store,
		Catalog:   catalog,
		Recipes:   recipes.NewCachedProvider(catalog, cache),
		Offline:   recipes.NewOfflineCache(store, logger),
		Cache:     cache,
		Favorites: coord,
		Session:   session,
		Logger:    logger,
	}, nil
}

// Run keeps the session's cache tidy until ctx is done.
func (s *Services) Run(ctx context.Context) {
	s.Cache.RunSweeper(ctx, sweepInterval)
}

// ResolveRecipe finds a recipe by ID in the catalog, then the offline cache,
// then the favorite snapshots. Catalog hits are kept for offline use.
func (s *Services) ResolveRecipe(ctx context.Context, id string) (schema.Recipe, error) {
	r, err := s.Recipes.GetByID(ctx, id)
	if err != nil {
		return schema.Recipe{}, err
	}
	if r != nil {
		if err := s.Offline.Put(ctx, *r); err != nil {
			s.Logger.Warn("failed to cache recipe offline", "id", id, "error", err)
		}
		return *r, nil
	}
	if cached, ok := s.Offline.Get(ctx, id); ok {
		return cached.Recipe, nil
	}
	if snap, ok := s.Favorites.Repository().Aggregate(ctx).Recipe(id); ok {
		return snap, nil
	}
	return schema.Recipe{}, fmt.Errorf("%w: %s", ErrRecipeNotFound, id)
}

// FavoritesSummary reads IDs and snapshots through the query cache.
func (s *Services) FavoritesSummary(ctx context.Context) (schema.FavoritesSummary, error) {
	ids := s.Favorites.FavoriteIDs(ctx)
	if ids.Err != nil {
		return schema.FavoritesSummary{}, ids.Err
	}
	list := s.Favorites.FavoriteList(ctx)
	if list.Err != nil {
		return schema.FavoritesSummary{}, list.Err
	}
	return schema.FavoritesSummary{
		Count:   len(ids.Data),
		IDs:     ids.Data,
		Recipes: list.Data,
	}, nil
}

// FavoriteLookup returns a membership test over the current favorite set.
func (s *Services) FavoriteLookup(ctx context.Context) func(id string) bool {
	ids := s.Favorites.FavoriteIDs(ctx).Data
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(id string) bool {
		_, ok := set[id]
		return ok
	}
}
