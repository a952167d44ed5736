package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/schema"
	"github.com/spf13/cobra"
)

const defaultRandomCount = 3

// recipesCmd groups the recipe lookup commands.
var recipesCmd = &cobra.Command{
	Use:   "recipes",
	Short: "Browse the recipe catalog",
	Long: `Browse, search and inspect recipes from the built-in catalog.

Filters apply to list and search:
  --category   any of the given categories (comma-separated)
  --difficulty easy, medium or hard
  --max-cook   cook time limit in minutes or as a duration
  --min-rating minimum average rating

Examples:
  # Second page of quick Italian dishes
  pantry recipes list --page 2 --category italian --max-cook 30

  # Find anything with chickpeas
  pantry recipes search chickpea`,
}

// recipesListCmd lists one page of recipes.
var recipesListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List recipes one page at a time",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		start := time.Now()
		page, err := svc.Recipes.List(rootCtx, cfg.Page, cfg.PageSize, cfg.Filters)
		if err != nil {
			return err
		}
		return writer.WriteRecipePage(page, svc.FavoriteLookup(rootCtx), cfg, time.Since(start))
	},
}

// recipesGetCmd shows one recipe.
var recipesGetCmd = &cobra.Command{
	Use:     "get <id>",
	Short:   "Show a recipe with ingredients and steps",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		r, err := svc.ResolveRecipe(rootCtx, args[0])
		if err != nil {
			return err
		}
		fav := svc.Favorites.IsFavorite(rootCtx, r.ID)
		return writer.WriteRecipeDetail(r, fav.Data, cfg)
	},
}

// recipesSearchCmd searches recipe text.
var recipesSearchCmd = &cobra.Command{
	Use:     "search <query>",
	Short:   "Search titles, descriptions, categories and ingredients",
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		start := time.Now()
		found, err := svc.Recipes.Search(rootCtx, strings.Join(args, " "), cfg.Filters)
		if err != nil {
			return err
		}
		return writer.WriteRecipes(found, svc.FavoriteLookup(rootCtx), cfg, time.Since(start))
	},
}

// recipesRandomCmd picks random recipes.
var recipesRandomCmd = &cobra.Command{
	Use:     "random [count]",
	Short:   "Suggest random recipes",
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		n := defaultRandomCount
		if len(args) == 1 {
			parsed, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid count %q: %w", args[0], err)
			}
			n = parsed
		}
		start := time.Now()
		picked, err := svc.Catalog.Random(rootCtx, n)
		if err != nil {
			return err
		}
		return writer.WriteRecipes(picked, svc.FavoriteLookup(rootCtx), cfg, time.Since(start))
	},
}

// recipesCategoriesCmd lists known categories.
var recipesCategoriesCmd = &cobra.Command{
	Use:     "categories",
	Short:   "List recipe categories",
	PreRunE: sharedSetupWrapper,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Println(schema.AllCategory)
		for _, c := range svc.Catalog.Categories() {
			cmd.Println(c)
		}
	},
}

// recipesOfflineCmd lists recipes kept for offline use.
var recipesOfflineCmd = &cobra.Command{
	Use:   "offline",
	Short: "List recipes kept for offline use",
	Long: `List the recipes cached locally after being viewed, newest first.

With --prune, copies older than seven days are dropped first.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		start := time.Now()
		if prune, _ := cmd.Flags().GetBool("prune"); prune {
			n, err := svc.Offline.PruneOlderThan(rootCtx, contract.DefaultOfflineRetention)
			if err != nil {
				return err
			}
			logger.Info("pruned offline recipes", "removed", n)
		}
		cached := svc.Offline.All(rootCtx)
		list := make([]schema.Recipe, len(cached))
		for i, c := range cached {
			list[i] = c.Recipe
		}
		return writer.WriteRecipes(list, svc.FavoriteLookup(rootCtx), cfg, time.Since(start))
	},
}
