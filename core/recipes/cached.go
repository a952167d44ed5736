package recipes

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/huangsam/pantry/core/querycache"
	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/schema"
)

// Freshness windows for recipe queries.
const (
	ListStale   = 5 * time.Minute
	DetailStale = 10 * time.Minute
	SearchStale = 2 * time.Minute
	recipesGC   = 10 * time.Minute
)

const recipesPrefix = "recipes/"

// CachedProvider wraps a provider with the query cache.
type CachedProvider struct {
	inner contract.RecipeProvider
	cache *querycache.Cache
}

var _ contract.RecipeProvider = &CachedProvider{} // Compile-time check

// NewCachedProvider returns a provider that reads through cache.
func NewCachedProvider(inner contract.RecipeProvider, cache *querycache.Cache) *CachedProvider {
	return &CachedProvider{inner: inner, cache: cache}
}

func listKey(page, pageSize int, filters schema.RecipeFilters) string {
	return fmt.Sprintf("%slist/%d/%d/%s", recipesPrefix, page, pageSize, filters.CacheKey())
}

func detailKey(id string) string {
	return recipesPrefix + "detail/" + id
}

func searchKey(query string, filters schema.RecipeFilters) string {
	return recipesPrefix + "search/" + strconv.Quote(query) + "/" + filters.CacheKey()
}

// List implements contract.RecipeProvider.
func (p *CachedProvider) List(ctx context.Context, page, pageSize int, filters schema.RecipeFilters) (schema.RecipePage, error) {
	if page < 1 || pageSize < 1 {
		return schema.RecipePage{}, ErrInvalidPage
	}
	res := querycache.Query(ctx, p.cache, listKey(page, pageSize, filters),
		querycache.Options{StaleTime: ListStale, GCTime: recipesGC},
		func(ctx context.Context) (schema.RecipePage, error) {
			return p.inner.List(ctx, page, pageSize, filters)
		})
	return res.Data, res.Err
}

// GetByID implements contract.RecipeProvider.
func (p *CachedProvider) GetByID(ctx context.Context, id string) (*schema.Recipe, error) {
	res := querycache.Query(ctx, p.cache, detailKey(id),
		querycache.Options{StaleTime: DetailStale, GCTime: recipesGC},
		func(ctx context.Context) (*schema.Recipe, error) {
			return p.inner.GetByID(ctx, id)
		})
	if res.Data == nil {
		return nil, res.Err
	}
	r := *res.Data
	return &r, res.Err
}

// Search implements contract.RecipeProvider.
func (p *CachedProvider) Search(ctx context.Context, query string, filters schema.RecipeFilters) ([]schema.Recipe, error) {
	res := querycache.Query(ctx, p.cache, searchKey(query, filters),
		querycache.Options{StaleTime: SearchStale, GCTime: recipesGC},
		func(ctx context.Context) ([]schema.Recipe, error) {
			return p.inner.Search(ctx, query, filters)
		})
	return res.Data, res.Err
}

// Invalidate marks every cached recipe query stale.
func (p *CachedProvider) Invalidate() {
	p.cache.InvalidatePrefix(recipesPrefix)
}
