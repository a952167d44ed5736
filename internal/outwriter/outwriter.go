// Package outwriter has output and writer logic.
package outwriter

import (
	"fmt"
	"time"

	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/internal/parquet"
	"github.com/huangsam/pantry/schema"
)

// FavoriteLookup reports whether a recipe is favorited. A nil lookup marks nothing.
type FavoriteLookup func(id string) bool

func (f FavoriteLookup) has(id string) bool {
	return f != nil && f(id)
}

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the commands.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRecipePage prints one page of a recipe listing.
func (ow *OutWriter) WriteRecipePage(page schema.RecipePage, isFav FavoriteLookup, cfg *contract.Config, duration time.Duration) error {
	return WriteRecipePage(page, isFav, cfg, duration)
}

// WriteRecipes prints an unpaged recipe list such as search results.
func (ow *OutWriter) WriteRecipes(recipes []schema.Recipe, isFav FavoriteLookup, cfg *contract.Config, duration time.Duration) error {
	return WriteRecipes(recipes, isFav, cfg, duration)
}

// WriteRecipeDetail prints one recipe in full.
func (ow *OutWriter) WriteRecipeDetail(r schema.Recipe, favorite bool, cfg *contract.Config) error {
	return WriteRecipeDetail(r, favorite, cfg)
}

// WriteFavorites prints the favorites summary.
func (ow *OutWriter) WriteFavorites(summary schema.FavoritesSummary, cfg *contract.Config) error {
	return WriteFavorites(summary, cfg)
}

// WriteFavoriteStatus prints the favorite state of one recipe.
func (ow *OutWriter) WriteFavoriteStatus(status FavoriteStatus, cfg *contract.Config) error {
	return WriteFavoriteStatus(status, cfg)
}

// WriteUser prints the signed-in user.
func (ow *OutWriter) WriteUser(user *schema.User, cfg *contract.Config) error {
	return WriteUser(user, cfg)
}

// WritePreferences prints user preferences.
func (ow *OutWriter) WritePreferences(prefs schema.Preferences, cfg *contract.Config) error {
	return WritePreferences(prefs, cfg)
}

// requireParquetFile rejects parquet output to stdout.
func requireParquetFile(cfg *contract.Config) error {
	if cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}
	return nil
}

// writeRecipesParquet exports recipes to the configured output file.
func writeRecipesParquet(recipes []schema.Recipe, cfg *contract.Config) error {
	if err := requireParquetFile(cfg); err != nil {
		return err
	}
	if err := parquet.WriteRecipesParquet(recipes, cfg.OutputFile); err != nil {
		return err
	}
	reportWrite("Wrote Parquet", cfg.OutputFile)
	return nil
}
