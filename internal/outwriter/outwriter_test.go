package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/internal/parquet"
	"github.com/huangsam/pantry/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func sampleRecipes() []schema.Recipe {
	rating := 4.8
	reviews := 142
	return []schema.Recipe{
		{
			ID:          "1",
			Title:       "Classic Margherita Pizza",
			Description: "Thin crust with basil.",
			PrepTime:    20,
			CookTime:    15,
			Servings:    4,
			Difficulty:  schema.MediumDifficulty,
			Category:    []string{"Italian", "Dinner"},
			Ingredients: []schema.Ingredient{
				{ID: "i1", Name: "flour", Amount: 2.5, Unit: "cups"},
				{ID: "i2", Name: "basil", Amount: 6, Unit: "leaves", Notes: "fresh"},
			},
			Instructions: []schema.Instruction{
				{ID: "s1", Step: 1, Description: "Make the dough", Duration: 90},
				{ID: "s2", Step: 2, Description: "Bake"},
			},
			Nutrition:   &schema.Nutrition{Calories: 285, Protein: 12, Carbs: 36, Fat: 10},
			Rating:      &rating,
			ReviewCount: &reviews,
			Author:      &schema.Author{ID: "a1", Name: "Maria Rossi"},
		},
		{
			ID:         "2",
			Title:      "Green Salad",
			PrepTime:   10,
			Servings:   2,
			Difficulty: schema.EasyDifficulty,
			Category:   []string{"Salad"},
		},
	}
}

func favOnly(ids ...string) FavoriteLookup {
	return func(id string) bool {
		for _, want := range ids {
			if id == want {
				return true
			}
		}
		return false
	}
}

func TestFavoriteLookupNil(t *testing.T) {
	var f FavoriteLookup
	assert.False(t, f.has("1"))
	assert.True(t, favOnly("1").has("1"))
}

func TestWriteRecipeTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRecipeTable(&buf, sampleRecipes(), favOnly("1"), 40))

	out := buf.String()
	assert.Contains(t, out, "Classic Margherita Pizza")
	assert.Contains(t, out, "Maria R")
	assert.Contains(t, out, "4.8 (142)")
	assert.Contains(t, out, "35m")
	assert.Contains(t, out, contract.FavoriteMark)
	assert.Equal(t, 1, strings.Count(out, contract.FavoriteMark))
}

func TestWriteRecipeTableTruncatesTitle(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRecipeTable(&buf, sampleRecipes()[:1], nil, 10))
	assert.Contains(t, buf.String(), "Classic...")
	assert.NotContains(t, buf.String(), "Margherita")
}

func TestWritePageFooter(t *testing.T) {
	cfg := &contract.Config{Page: 1, PageSize: 2}

	var buf bytes.Buffer
	page := schema.RecipePage{Recipes: sampleRecipes(), TotalCount: 5, HasMore: true, NextPage: 2}
	require.NoError(t, writePageFooter(&buf, page, cfg, time.Millisecond))
	assert.Contains(t, buf.String(), "Page 1: 2 of 5 recipes")
	assert.Contains(t, buf.String(), "next page 2")

	buf.Reset()
	page.HasMore = false
	require.NoError(t, writePageFooter(&buf, page, cfg, time.Millisecond))
	assert.Contains(t, buf.String(), "last page")
}

func TestWriteRecipesCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRecipesCSV(&buf, sampleRecipes(), favOnly("2")))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "id", records[0][0])
	assert.Equal(t, []string{"1", "Classic Margherita Pizza", "Medium", "Italian|Dinner", "20", "15", "4", "4.8", "142", "Maria Rossi", "false"}, records[1])
	assert.Equal(t, "", records[2][7])
	assert.Equal(t, "true", records[2][10])
}

func TestWriteRecipeText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRecipeText(&buf, sampleRecipes()[0], true))

	out := buf.String()
	assert.Contains(t, out, "Classic Margherita Pizza "+contract.FavoriteMark+" (#1)")
	assert.Contains(t, out, "2.5 cups flour")
	assert.Contains(t, out, "6 leaves basil (fresh)")
	assert.Contains(t, out, "1. Make the dough [1h 30m]")
	assert.Contains(t, out, "285 kcal")
	assert.Contains(t, out, "Categories: Italian, Dinner")
}

func TestWriteRecipeTextMinimal(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeRecipeText(&buf, sampleRecipes()[1], false))
	assert.NotContains(t, buf.String(), "Ingredients")
	assert.NotContains(t, buf.String(), "Nutrition")
	assert.NotContains(t, buf.String(), contract.FavoriteMark)
}

func TestWriteRecipePageJSONFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "page.json")
	cfg := &contract.Config{Output: schema.JSONOut, OutputFile: out, Page: 1, PageSize: 2}
	page := schema.RecipePage{Recipes: sampleRecipes(), TotalCount: 3, HasMore: true, NextPage: 2}

	require.NoError(t, NewOutWriter().WriteRecipePage(page, favOnly("1"), cfg, time.Millisecond))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var decoded struct {
		Recipes []struct {
			ID       string `json:"id"`
			Favorite bool   `json:"favorite"`
		} `json:"recipes"`
		Page     int  `json:"page"`
		HasMore  bool `json:"hasMore"`
		NextPage int  `json:"nextPage"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Len(t, decoded.Recipes, 2)
	assert.True(t, decoded.Recipes[0].Favorite)
	assert.False(t, decoded.Recipes[1].Favorite)
	assert.Equal(t, 1, decoded.Page)
	assert.True(t, decoded.HasMore)
	assert.Equal(t, 2, decoded.NextPage)
}

func TestWriteRecipesTableFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "search.txt")
	cfg := &contract.Config{Output: schema.TextOut, OutputFile: out, Width: 120}

	require.NoError(t, NewOutWriter().WriteRecipes(sampleRecipes(), nil, cfg, time.Millisecond))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Green Salad")
	assert.Contains(t, string(raw), "Found 2 recipes")
}

func TestWriteRecipesParquetRequiresFile(t *testing.T) {
	cfg := &contract.Config{Output: schema.ParquetOut}
	assert.Error(t, WriteRecipes(sampleRecipes(), nil, cfg, 0))
}

func TestWriteRecipesParquetFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "recipes.parquet")
	cfg := &contract.Config{Output: schema.ParquetOut, OutputFile: out}
	require.NoError(t, WriteRecipes(sampleRecipes(), nil, cfg, 0))

	rows, err := parquet.ReadRecipesParquet(out)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestWriteRecipeDetailJSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "detail.json")
	cfg := &contract.Config{Output: schema.JSONOut, OutputFile: out}
	require.NoError(t, NewOutWriter().WriteRecipeDetail(sampleRecipes()[0], true, cfg))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "1", decoded["id"])
	assert.Equal(t, true, decoded["favorite"])
}

func TestWriteFavoritesTable(t *testing.T) {
	recipes := sampleRecipes()
	cfg := &contract.Config{Width: 120}

	var buf bytes.Buffer
	summary := schema.FavoritesSummary{Count: 3, IDs: []string{"1", "2", "9"}, Recipes: recipes}
	require.NoError(t, writeFavoritesTable(&buf, summary, cfg))
	assert.Contains(t, buf.String(), "1 favorites have no stored snapshot")
	assert.Contains(t, buf.String(), "3 favorites")

	buf.Reset()
	require.NoError(t, writeFavoritesTable(&buf, schema.FavoritesSummary{}, cfg))
	assert.Equal(t, "No favorites yet\n", buf.String())
}

func TestWriteFavoritesCSV(t *testing.T) {
	var buf bytes.Buffer
	summary := schema.FavoritesSummary{Count: 2, IDs: []string{"2", "9"}, Recipes: sampleRecipes()[1:]}
	require.NoError(t, writeFavoritesCSV(&buf, summary))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"1", "2", "Green Salad", "Easy", ""}, records[1])
	assert.Equal(t, []string{"2", "9", "", "", ""}, records[2])
}

func TestExportFavoritesParquet(t *testing.T) {
	base := filepath.Join(t.TempDir(), "export")
	summary := schema.FavoritesSummary{Count: 2, IDs: []string{"1", "2"}, Recipes: sampleRecipes()}
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ExportFavoritesParquet(summary, base, now))

	rows, err := parquet.ReadFavoritesParquet(base + parquet.FavoriteSuffix)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int32(1), rows[0].Position)
	assert.Equal(t, "2", rows[1].RecipeID)

	assert.Error(t, ExportFavoritesParquet(summary, "", now))
}

func TestWriteFavoriteStatusText(t *testing.T) {
	tests := []struct {
		name   string
		status FavoriteStatus
		want   string
	}{
		{"favorite", FavoriteStatus{RecipeID: "1", Favorite: true}, "Recipe 1: " + contract.FavoriteMark + " favorite\n"},
		{"not favorite", FavoriteStatus{RecipeID: "2"}, "Recipe 2: not a favorite\n"},
		{"pending wins over stale", FavoriteStatus{RecipeID: "3", Pending: true, Stale: true}, "Recipe 3: not a favorite (pending)\n"},
		{"stale", FavoriteStatus{RecipeID: "4", Favorite: true, Stale: true}, "Recipe 4: " + contract.FavoriteMark + " favorite (stale)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeFavoriteStatusText(&buf, tt.status))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteUserAndPreferences(t *testing.T) {
	dir := t.TempDir()

	userFile := filepath.Join(dir, "user.txt")
	cfg := &contract.Config{OutputFile: userFile}
	require.NoError(t, NewOutWriter().WriteUser(&schema.User{ID: "u1", Email: "a@b.c", Username: "ana"}, cfg))
	raw, err := os.ReadFile(userFile)
	require.NoError(t, err)
	assert.Equal(t, "ana <a@b.c>\nID: u1\n", string(raw))

	require.NoError(t, NewOutWriter().WriteUser(nil, cfg))
	raw, err = os.ReadFile(userFile)
	require.NoError(t, err)
	assert.Equal(t, "Not signed in\n", string(raw))

	prefsFile := filepath.Join(dir, "prefs.json")
	cfg = &contract.Config{Output: schema.JSONOut, OutputFile: prefsFile}
	require.NoError(t, NewOutWriter().WritePreferences(schema.DefaultPreferences(), cfg))
	raw, err = os.ReadFile(prefsFile)
	require.NoError(t, err)
	var prefs schema.Preferences
	require.NoError(t, json.Unmarshal(raw, &prefs))
	assert.Equal(t, schema.DefaultPreferences(), prefs)
}

func TestGetMaxTableTitleWidth(t *testing.T) {
	tests := []struct {
		width int
		want  int
	}{
		{width: 40, want: 15},
		{width: 100, want: 38},
		{width: 300, want: 60},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GetMaxTableTitleWidth(&contract.Config{Width: tt.width}))
	}
}
