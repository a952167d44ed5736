package parquet

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/pantry/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecipes() []schema.Recipe {
	rating := 4.5
	reviews := 12
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []schema.Recipe{
		{
			ID:          "1",
			Title:       "Pancakes",
			CookTime:    15,
			PrepTime:    10,
			Servings:    4,
			Difficulty:  schema.EasyDifficulty,
			Category:    []string{"Breakfast", "Dessert"},
			Rating:      &rating,
			ReviewCount: &reviews,
			Nutrition:   &schema.Nutrition{Calories: 320},
			Author:      &schema.Author{ID: "a1", Name: "Chef Ana"},
			CreatedAt:   created,
		},
		{
			ID:         "2",
			Title:      "Plain Toast",
			CookTime:   3,
			Servings:   1,
			Difficulty: schema.EasyDifficulty,
			Category:   []string{"Breakfast"},
			CreatedAt:  created,
		},
	}
}

func TestRecipeRecordStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(RecipeRecord))
	require.NotNil(t, s)

	for _, col := range []string{
		"recipe_id", "title", "difficulty", "categories", "cook_time_min",
		"prep_time_min", "servings", "rating", "review_count", "calories",
		"author_name", "created_at",
	} {
		_, ok := s.Lookup(col)
		assert.True(t, ok, "column %s should exist", col)
	}
}

func TestFavoriteRecordStructTags(t *testing.T) {
	s := parquet.SchemaOf(new(FavoriteRecord))
	require.NotNil(t, s)

	for _, col := range []string{"position", "recipe_id", "title", "rating", "exported_at"} {
		_, ok := s.Lookup(col)
		assert.True(t, ok, "column %s should exist", col)
	}
}

func TestToRecipeRecord(t *testing.T) {
	recs := sampleRecipes()

	full := ToRecipeRecord(recs[0])
	assert.Equal(t, "1", full.RecipeID)
	assert.Equal(t, "Breakfast|Dessert", full.Categories)
	assert.Equal(t, "Easy", full.Difficulty)
	require.NotNil(t, full.Rating)
	assert.InDelta(t, 4.5, *full.Rating, 0.0001)
	require.NotNil(t, full.ReviewCount)
	assert.Equal(t, int32(12), *full.ReviewCount)
	require.NotNil(t, full.Calories)
	assert.Equal(t, int32(320), *full.Calories)
	require.NotNil(t, full.AuthorName)
	assert.Equal(t, "Chef Ana", *full.AuthorName)

	bare := ToRecipeRecord(recs[1])
	assert.Nil(t, bare.Rating)
	assert.Nil(t, bare.ReviewCount)
	assert.Nil(t, bare.Calories)
	assert.Nil(t, bare.AuthorName)
}

func TestToFavoriteRecords(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := ToFavoriteRecords(sampleRecipes(), now)
	require.Len(t, rows, 2)
	assert.Equal(t, int32(1), rows[0].Position)
	assert.Equal(t, int32(2), rows[1].Position)
	assert.Equal(t, "Plain Toast", rows[1].Title)
	assert.Equal(t, now, rows[0].ExportedAt)

	assert.Empty(t, ToFavoriteRecords(nil, now))
}

func TestWriteFavoritesParquet(t *testing.T) {
	outputPath := FavoritesPath(filepath.Join(t.TempDir(), "export.parquet"))
	assert.True(t, strings.HasSuffix(outputPath, FavoriteSuffix))

	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, WriteFavoritesParquet(ToFavoriteRecords(sampleRecipes(), now), outputPath))

	info, err := os.Stat(outputPath)
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	rows, err := ReadFavoritesParquet(outputPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0].RecipeID)
	assert.Equal(t, "Pancakes", rows[0].Title)
	require.NotNil(t, rows[0].Rating)
	assert.Nil(t, rows[1].Rating)
	assert.True(t, now.Equal(rows[0].ExportedAt))
}

func TestWriteRecipesParquet(t *testing.T) {
	outputPath := filepath.Join(t.TempDir(), "recipes.parquet")
	require.NoError(t, WriteRecipesParquet(sampleRecipes(), outputPath))

	rows, err := ReadRecipesParquet(outputPath)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int32(15), rows[0].CookTimeMin)
	assert.Equal(t, "Breakfast", rows[1].Categories)
}

func TestFavoritesPath(t *testing.T) {
	assert.Equal(t, "out.favorites.parquet", FavoritesPath("out"))
	assert.Equal(t, "out.favorites.parquet", FavoritesPath("out.parquet"))
}

func TestWriteParquetBadPath(t *testing.T) {
	err := WriteRecipesParquet(sampleRecipes(), filepath.Join(t.TempDir(), "missing", "x.parquet"))
	assert.Error(t, err)
}
