package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// recipeJSON is the JSON shape of a listed recipe.
type recipeJSON struct {
	schema.Recipe
	Favorite bool `json:"favorite"`
}

// pageJSON is the JSON shape of a recipe page.
type pageJSON struct {
	Recipes    []recipeJSON `json:"recipes"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalCount int          `json:"totalCount"`
	HasMore    bool         `json:"hasMore"`
	NextPage   int          `json:"nextPage,omitempty"`
}

func toRecipeJSON(recipes []schema.Recipe, isFav FavoriteLookup) []recipeJSON {
	out := make([]recipeJSON, len(recipes))
	for i, r := range recipes {
		out[i] = recipeJSON{Recipe: r, Favorite: isFav.has(r.ID)}
	}
	return out
}

// WriteRecipePage outputs a recipe page, dispatching based on the output format configured.
func WriteRecipePage(page schema.RecipePage, isFav FavoriteLookup, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, pageJSON{
				Recipes:    toRecipeJSON(page.Recipes, isFav),
				Page:       cfg.Page,
				PageSize:   cfg.PageSize,
				TotalCount: page.TotalCount,
				HasMore:    page.HasMore,
				NextPage:   page.NextPage,
			})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRecipesCSV(w, page.Recipes, isFav)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeRecipesParquet(page.Recipes, cfg)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if err := writeRecipeTable(w, page.Recipes, isFav, GetMaxTableTitleWidth(cfg)); err != nil {
				return err
			}
			return writePageFooter(w, page, cfg, duration)
		}, "Wrote table")
	}
}

// WriteRecipes outputs an unpaged recipe list.
func WriteRecipes(recipes []schema.Recipe, isFav FavoriteLookup, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, toRecipeJSON(recipes, isFav))
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRecipesCSV(w, recipes, isFav)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeRecipesParquet(recipes, cfg)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if err := writeRecipeTable(w, recipes, isFav, GetMaxTableTitleWidth(cfg)); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "Found %d recipes in %v\n", len(recipes), duration)
			return err
		}, "Wrote table")
	}
}

// writeRecipeTable generates and writes the human-readable recipe table.
func writeRecipeTable(w io.Writer, recipes []schema.Recipe, isFav FavoriteLookup, titleWidth int) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Fav", "Title", "Difficulty", "Time", "Serves", "Rating", "Author"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	data := make([][]string, 0, len(recipes))
	for _, r := range recipes {
		mark := ""
		if isFav.has(r.ID) {
			mark = contract.FavColor.Sprint(contract.FavoriteMark)
		}
		data = append(data, []string{
			r.ID,
			mark,
			contract.TruncateText(r.Title, titleWidth),
			contract.GetColorDifficulty(r.Difficulty),
			schema.FormatMinutes(r.PrepTime + r.CookTime),
			strconv.Itoa(r.Servings),
			contract.GetRatingLabel(r),
			schema.AuthorLabel(r),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writePageFooter(w io.Writer, page schema.RecipePage, cfg *contract.Config, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "Page %d: %d of %d recipes\n", cfg.Page, len(page.Recipes), page.TotalCount); err != nil {
		return err
	}
	next := "last page"
	if page.HasMore {
		next = fmt.Sprintf("next page %d", page.NextPage)
	}
	_, err := fmt.Fprintf(w, "Listed in %v, %s\n", duration, next)
	return err
}

// writeRecipesCSV writes recipes in CSV format.
func writeRecipesCSV(w io.Writer, recipes []schema.Recipe, isFav FavoriteLookup) error {
	header := []string{
		"id", "title", "difficulty", "categories", "prep_min", "cook_min",
		"servings", "rating", "reviews", "author", "favorite",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range recipes {
			author := ""
			if r.Author != nil {
				author = r.Author.Name
			}
			row := []string{
				r.ID,
				r.Title,
				string(r.Difficulty),
				joinCategories(r.Category),
				strconv.Itoa(r.PrepTime),
				strconv.Itoa(r.CookTime),
				strconv.Itoa(r.Servings),
				formatOptionalFloat(r.Rating),
				formatOptionalInt(r.ReviewCount),
				author,
				strconv.FormatBool(isFav.has(r.ID)),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		return nil
	})
}

// WriteRecipeDetail outputs one recipe in full.
func WriteRecipeDetail(r schema.Recipe, favorite bool, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, recipeJSON{Recipe: r, Favorite: favorite})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRecipesCSV(w, []schema.Recipe{r}, func(string) bool { return favorite })
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeRecipesParquet([]schema.Recipe{r}, cfg)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeRecipeText(w, r, favorite)
		}, "Wrote recipe")
	}
}

// writeRecipeText renders a recipe card with ingredients and steps.
func writeRecipeText(w io.Writer, r schema.Recipe, favorite bool) error {
	var sb strings.Builder

	title := r.Title
	if favorite {
		title += " " + contract.FavColor.Sprint(contract.FavoriteMark)
	}
	fmt.Fprintf(&sb, "%s (#%s)\n", title, r.ID)
	if r.Description != "" {
		fmt.Fprintf(&sb, "%s\n", r.Description)
	}
	fmt.Fprintf(&sb, "\nDifficulty: %s  Prep: %s  Cook: %s  Serves: %d\n",
		contract.GetColorDifficulty(r.Difficulty),
		schema.FormatMinutes(r.PrepTime), schema.FormatMinutes(r.CookTime), r.Servings)
	fmt.Fprintf(&sb, "Rating: %s  Author: %s\n", contract.GetRatingLabel(r), schema.AuthorLabel(r))
	if len(r.Category) > 0 {
		fmt.Fprintf(&sb, "Categories: %s\n", strings.Join(r.Category, ", "))
	}

	if len(r.Ingredients) > 0 {
		sb.WriteString("\nIngredients:\n")
		for _, ing := range r.Ingredients {
			fmt.Fprintf(&sb, "  - %s %s %s", strconv.FormatFloat(ing.Amount, 'f', -1, 64), ing.Unit, ing.Name)
			if ing.Notes != "" {
				fmt.Fprintf(&sb, " (%s)", ing.Notes)
			}
			sb.WriteString("\n")
		}
	}

	if len(r.Instructions) > 0 {
		sb.WriteString("\nInstructions:\n")
		for _, step := range r.Instructions {
			fmt.Fprintf(&sb, "  %d. %s", step.Step, step.Description)
			if step.Duration > 0 {
				fmt.Fprintf(&sb, " [%s]", schema.FormatMinutes(step.Duration))
			}
			sb.WriteString("\n")
		}
	}

	if n := r.Nutrition; n != nil {
		fmt.Fprintf(&sb, "\nNutrition per serving: %d kcal, protein %dg, carbs %dg, fat %dg\n",
			n.Calories, n.Protein, n.Carbs, n.Fat)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
