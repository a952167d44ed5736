package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/pantry/core/favorites"
	"github.com/huangsam/pantry/internal/outwriter"
	"github.com/spf13/cobra"
)

// favoritesCmd groups the favorites commands.
var favoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "Manage favorite recipes",
	Long: `Read and change the favorite recipe set.

Favorites are stored as an ID list plus a snapshot of each recipe, so the
list renders even for recipes no longer in the catalog. Sign-out clears them.

Examples:
  # Flip a recipe in or out of favorites
  pantry favorites toggle 3

  # Fix an ID list and snapshots that drifted apart
  pantry favorites repair

  # Export snapshots to favorites.favorites.parquet
  pantry favorites export favorites`,
}

var favoritesListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List favorite recipes",
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		summary, err := svc.FavoritesSummary(rootCtx)
		if err != nil {
			return err
		}
		return writer.WriteFavorites(summary, cfg)
	},
}

var favoritesIDsCmd = &cobra.Command{
	Use:     "ids",
	Short:   "Print favorite recipe IDs",
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		q := svc.Favorites.FavoriteIDs(rootCtx)
		if q.Err != nil {
			return q.Err
		}
		for _, id := range q.Data {
			cmd.Println(id)
		}
		return nil
	},
}

var favoritesCountCmd = &cobra.Command{
	Use:     "count",
	Short:   "Print the number of favorites",
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		q := svc.Favorites.FavoriteCount(rootCtx)
		if q.Err != nil {
			return q.Err
		}
		cmd.Println(q.Data)
		return nil
	},
}

var favoritesStatusCmd = &cobra.Command{
	Use:     "status <id>",
	Short:   "Show whether a recipe is a favorite",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		q := svc.Favorites.IsFavorite(rootCtx, args[0])
		if q.Err != nil {
			return q.Err
		}
		return writer.WriteFavoriteStatus(outwriter.FavoriteStatus{
			RecipeID: args[0],
			Favorite: q.Data,
			Stale:    q.Stale,
			Pending:  svc.Favorites.IsPending(args[0]),
		}, cfg)
	},
}

var favoritesAddCmd = &cobra.Command{
	Use:     "add <id>",
	Short:   "Add a recipe to favorites",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := svc.ResolveRecipe(rootCtx, args[0])
		if err != nil {
			return err
		}
		if err := svc.Favorites.AddFavorite(rootCtx, r); err != nil {
			return err
		}
		cmd.Printf("Added %s to favorites\n", r.Title)
		return nil
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Short:   "Remove a recipe from favorites",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := svc.Favorites.RemoveFavorite(rootCtx, args[0]); err != nil {
			return err
		}
		cmd.Printf("Removed %s from favorites\n", args[0])
		return nil
	},
}

var favoritesToggleCmd = &cobra.Command{
	Use:     "toggle <id>",
	Short:   "Add a recipe to favorites, or remove it if present",
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := svc.ResolveRecipe(rootCtx, args[0])
		if err != nil {
			return err
		}
		now, err := svc.Favorites.ToggleFavorite(rootCtx, r)
		if errors.Is(err, favorites.ErrMutationPending) {
			return fmt.Errorf("recipe %s is already being updated", r.ID)
		}
		if err != nil {
			return err
		}
		if now {
			cmd.Printf("Added %s to favorites\n", r.Title)
		} else {
			cmd.Printf("Removed %s from favorites\n", r.Title)
		}
		return nil
	},
}

var favoritesClearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Remove every favorite",
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := svc.Favorites.ClearFavorites(rootCtx); err != nil {
			return err
		}
		cmd.Println("Favorites cleared.")
		return nil
	},
}

var favoritesRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Reconcile favorite IDs with stored snapshots",
	Long: `Drop favorite IDs that have no snapshot, snapshots whose ID is not in
the list, and duplicate IDs. Run this after an interrupted write.`,
	PreRunE: sharedSetupWrapper,
	RunE: func(cmd *cobra.Command, _ []string) error {
		report, err := svc.Favorites.Reconcile(rootCtx)
		if err != nil {
			return err
		}
		if !report.Changed() {
			cmd.Println("Favorites are consistent.")
			return nil
		}
		cmd.Printf("Dropped %d IDs without snapshot, %d orphan snapshots, %d duplicate IDs\n",
			len(report.DroppedIDs), len(report.DroppedSnapshots), len(report.DuplicateIDs))
		return nil
	},
}

var favoritesExportCmd = &cobra.Command{
	Use:   "export [base]",
	Short: "Export favorite snapshots to Parquet",
	Long: `Write one row per favorite snapshot to <base>.favorites.parquet.
The base defaults to --output-file, then to "pantry".`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, args []string) error {
		base := cfg.OutputFile
		if len(args) == 1 {
			base = args[0]
		}
		if base == "" {
			base = "pantry"
		}
		summary, err := svc.FavoritesSummary(rootCtx)
		if err != nil {
			return err
		}
		return outwriter.ExportFavoritesParquet(summary, base, time.Now())
	},
}
