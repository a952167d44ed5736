// Package parquet exports recipe and favorites data to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/huangsam/pantry/schema"
	"github.com/parquet-go/parquet-go"
)

// FavoriteSuffix is appended to the export base path for the favorites file.
const FavoriteSuffix = ".favorites.parquet"

// RecipeRecord is one recipe flattened for analytics tools.
type RecipeRecord struct {
	// RecipeID is the opaque recipe identifier
	RecipeID string `parquet:"recipe_id,snappy"`

	Title      string `parquet:"title,snappy"`
	Difficulty string `parquet:"difficulty,snappy,dict"`

	// Categories is the pipe-joined category list
	Categories string `parquet:"categories,snappy"`

	CookTimeMin int32 `parquet:"cook_time_min,snappy"`
	PrepTimeMin int32 `parquet:"prep_time_min,snappy"`
	Servings    int32 `parquet:"servings,snappy"`

	// Rating is null for unrated recipes
	Rating      *float64 `parquet:"rating,optional,snappy"`
	ReviewCount *int32   `parquet:"review_count,optional,snappy"`
	Calories    *int32   `parquet:"calories,optional,snappy"`
	AuthorName  *string  `parquet:"author_name,optional,snappy"`

	// CreatedAt is stored as TIMESTAMP with nanosecond precision
	CreatedAt time.Time `parquet:"created_at,snappy"`
}

// FavoriteRecord is one favorite snapshot as of an export.
type FavoriteRecord struct {
	// Position is the insertion order within the favorite set, starting at 1
	Position int32 `parquet:"position,snappy"`

	RecipeID   string   `parquet:"recipe_id,snappy"`
	Title      string   `parquet:"title,snappy"`
	Difficulty string   `parquet:"difficulty,snappy,dict"`
	Categories string   `parquet:"categories,snappy"`
	Rating     *float64 `parquet:"rating,optional,snappy"`
	AuthorName *string  `parquet:"author_name,optional,snappy"`

	// ExportedAt is when the export ran
	ExportedAt time.Time `parquet:"exported_at,snappy"`
}

// ToRecipeRecord flattens r.
func ToRecipeRecord(r schema.Recipe) RecipeRecord {
	rec := RecipeRecord{
		RecipeID:    r.ID,
		Title:       r.Title,
		Difficulty:  string(r.Difficulty),
		Categories:  strings.Join(r.Category, "|"),
		CookTimeMin: int32(r.CookTime),
		PrepTimeMin: int32(r.PrepTime),
		Servings:    int32(r.Servings),
		Rating:      r.Rating,
		CreatedAt:   r.CreatedAt,
	}
	if r.ReviewCount != nil {
		n := int32(*r.ReviewCount)
		rec.ReviewCount = &n
	}
	if r.Nutrition != nil {
		c := int32(r.Nutrition.Calories)
		rec.Calories = &c
	}
	if r.Author != nil {
		name := r.Author.Name
		rec.AuthorName = &name
	}
	return rec
}

// ToFavoriteRecords turns favorite snapshots into rows stamped with exportedAt.
func ToFavoriteRecords(recipes []schema.Recipe, exportedAt time.Time) []FavoriteRecord {
	out := make([]FavoriteRecord, len(recipes))
	for i, r := range recipes {
		rec := ToRecipeRecord(r)
		out[i] = FavoriteRecord{
			Position:   int32(i + 1),
			RecipeID:   rec.RecipeID,
			Title:      rec.Title,
			Difficulty: rec.Difficulty,
			Categories: rec.Categories,
			Rating:     rec.Rating,
			AuthorName: rec.AuthorName,
			ExportedAt: exportedAt,
		}
	}
	return out
}

// writeParquet writes rows to outputPath with a schema inferred from T's struct tags.
func writeParquet[T any](rows []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteRecipesParquet writes recipes to outputPath.
func WriteRecipesParquet(recipes []schema.Recipe, outputPath string) error {
	rows := make([]RecipeRecord, len(recipes))
	for i, r := range recipes {
		rows[i] = ToRecipeRecord(r)
	}
	return writeParquet(rows, outputPath)
}

// WriteFavoritesParquet writes favorite snapshots to outputPath.
func WriteFavoritesParquet(records []FavoriteRecord, outputPath string) error {
	return writeParquet(records, outputPath)
}

// FavoritesPath returns the favorites export file for a base path.
func FavoritesPath(base string) string {
	return strings.TrimSuffix(base, ".parquet") + FavoriteSuffix
}

// ReadFavoritesParquet loads a favorites export back.
func ReadFavoritesParquet(path string) ([]FavoriteRecord, error) {
	rows, err := parquet.ReadFile[FavoriteRecord](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}
	return rows, nil
}

// ReadRecipesParquet loads a recipe export back.
func ReadRecipesParquet(path string) ([]RecipeRecord, error) {
	rows, err := parquet.ReadFile[RecipeRecord](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}
	return rows, nil
}
