package core

import (
	"context"
	"testing"
	"time"

	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/internal/iocache"
	"github.com/huangsam/pantry/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *contract.Config {
	return &contract.Config{
		StoreBackend:   schema.MemoryBackend,
		FavoritesStale: contract.DefaultFavoritesStale,
		StatusStale:    contract.DefaultStatusStale,
		GCTime:         contract.DefaultGCTime,
	}
}

func newTestServices(t *testing.T) *Services {
	t.Helper()
	mgr := &iocache.MockStoreManager{}
	mgr.On("GetStore").Return(iocache.NewMemoryStore())

	svc, err := NewServices(testConfig(), mgr, nil)
	require.NoError(t, err)
	return svc
}

func TestNewServicesRequiresStore(t *testing.T) {
	mgr := &iocache.MockStoreManager{}
	mgr.On("GetStore").Return(nil)

	_, err := NewServices(testConfig(), mgr, nil)
	assert.Error(t, err)
	mgr.AssertExpectations(t)
}

func TestResolveRecipe(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	r, err := svc.ResolveRecipe(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Weeknight Carbonara", r.Title)

	// catalog hits land in the offline cache
	cached, ok := svc.Offline.Get(ctx, "1")
	require.True(t, ok)
	assert.Equal(t, "1", cached.Recipe.ID)

	_, err = svc.ResolveRecipe(ctx, "missing")
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestResolveRecipeFallsBackToSnapshots(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	gone := schema.Recipe{ID: "retired", Title: "Retired Dish", Difficulty: schema.EasyDifficulty}
	require.NoError(t, svc.Favorites.AddFavorite(ctx, gone))

	r, err := svc.ResolveRecipe(ctx, "retired")
	require.NoError(t, err)
	assert.Equal(t, "Retired Dish", r.Title)
}

func TestResolveRecipeFallsBackToOffline(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	require.NoError(t, svc.Offline.Put(ctx, schema.Recipe{ID: "offline-only", Title: "Saved"}))

	r, err := svc.ResolveRecipe(ctx, "offline-only")
	require.NoError(t, err)
	assert.Equal(t, "Saved", r.Title)
}

func TestFavoritesSummaryAndLookup(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	summary, err := svc.FavoritesSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Count)
	assert.Empty(t, summary.IDs)

	r, err := svc.ResolveRecipe(ctx, "2")
	require.NoError(t, err)
	now, err := svc.Favorites.ToggleFavorite(ctx, r)
	require.NoError(t, err)
	require.True(t, now)

	summary, err = svc.FavoritesSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count)
	assert.Equal(t, []string{"2"}, summary.IDs)
	require.Len(t, summary.Recipes, 1)
	assert.Equal(t, "Chicken Tikka Masala", summary.Recipes[0].Title)

	isFav := svc.FavoriteLookup(ctx)
	assert.True(t, isFav("2"))
	assert.False(t, isFav("1"))
}

func TestSignOutClearsFavorites(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	_, err := svc.Session.SignIn(ctx, "cook@example.com", "secret123")
	require.NoError(t, err)
	for _, id := range []string{"1", "2"} {
		r, err := svc.ResolveRecipe(ctx, id)
		require.NoError(t, err)
		require.NoError(t, svc.Favorites.AddFavorite(ctx, r))
	}
	require.Len(t, svc.Favorites.FavoriteIDs(ctx).Data, 2)

	require.NoError(t, svc.Session.SignOut(ctx))
	assert.Empty(t, svc.Favorites.FavoriteIDs(ctx).Data)
	assert.Nil(t, svc.Session.Current())
}

func TestRunStopsWithContext(t *testing.T) {
	svc := newTestServices(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
