package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/internal/parquet"
	"github.com/huangsam/pantry/schema"
)

// FavoriteStatus is the favorite state of one recipe as the cache sees it.
type FavoriteStatus struct {
	RecipeID string `json:"recipeId"`
	Favorite bool   `json:"favorite"`
	Stale    bool   `json:"stale"`
	Pending  bool   `json:"pending"`
}

// WriteFavorites outputs the favorites summary, dispatching based on the output format configured.
func WriteFavorites(summary schema.FavoritesSummary, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, summary)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFavoritesCSV(w, summary)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return ExportFavoritesParquet(summary, cfg.OutputFile, time.Now())
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeFavoritesTable(w, summary, cfg)
		}, "Wrote table")
	}
}

// ExportFavoritesParquet writes favorite snapshots to the favorites file derived from base.
func ExportFavoritesParquet(summary schema.FavoritesSummary, base string, exportedAt time.Time) error {
	if base == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}
	path := parquet.FavoritesPath(base)
	if err := parquet.WriteFavoritesParquet(parquet.ToFavoriteRecords(summary.Recipes, exportedAt), path); err != nil {
		return err
	}
	reportWrite("Wrote Parquet", path)
	return nil
}

func writeFavoritesTable(w io.Writer, summary schema.FavoritesSummary, cfg *contract.Config) error {
	if summary.Count == 0 {
		_, err := fmt.Fprintln(w, "No favorites yet")
		return err
	}
	all := func(string) bool { return true }
	if err := writeRecipeTable(w, summary.Recipes, all, GetMaxTableTitleWidth(cfg)); err != nil {
		return err
	}
	// IDs without a snapshot still count
	if missing := summary.Count - len(summary.Recipes); missing > 0 {
		if _, err := fmt.Fprintf(w, "%d favorites have no stored snapshot\n", missing); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d favorites\n", summary.Count)
	return err
}

func writeFavoritesCSV(w io.Writer, summary schema.FavoritesSummary) error {
	snapshots := make(map[string]schema.Recipe, len(summary.Recipes))
	for _, r := range summary.Recipes {
		snapshots[r.ID] = r
	}
	return writeCSVWithHeader(w, []string{"position", "id", "title", "difficulty", "rating"}, func(cw *csv.Writer) error {
		for i, id := range summary.IDs {
			r, ok := snapshots[id]
			row := []string{strconv.Itoa(i + 1), id, "", "", ""}
			if ok {
				row[2] = r.Title
				row[3] = string(r.Difficulty)
				row[4] = formatOptionalFloat(r.Rating)
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		return nil
	})
}

// WriteFavoriteStatus outputs the favorite state of one recipe.
func WriteFavoriteStatus(status FavoriteStatus, cfg *contract.Config) error {
	if cfg.Output == schema.JSONOut {
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, status)
		}, "Wrote JSON")
	}
	return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
		return writeFavoriteStatusText(w, status)
	}, "Wrote status")
}

func writeFavoriteStatusText(w io.Writer, status FavoriteStatus) error {
	state := "not a favorite"
	if status.Favorite {
		state = contract.FavColor.Sprint(contract.FavoriteMark) + " favorite"
	}
	var notes string
	switch {
	case status.Pending:
		notes = " (pending)"
	case status.Stale:
		notes = " (stale)"
	}
	_, err := fmt.Fprintf(w, "Recipe %s: %s%s\n", status.RecipeID, state, notes)
	return err
}
