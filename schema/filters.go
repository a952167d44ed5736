package schema

import (
	"slices"
	"strings"
	"time"
)

// RecipeFilters is the closed set of filters a recipe listing accepts.
// A zero value matches every recipe.
type RecipeFilters struct {
	Categories  map[string]struct{} // any-of, case-insensitive; empty means no constraint
	Difficulty  *Difficulty
	MaxCookTime *time.Duration
	MinRating   *float64
}

// IsZero reports whether no filter is set.
func (f RecipeFilters) IsZero() bool {
	return len(f.Categories) == 0 && f.Difficulty == nil && f.MaxCookTime == nil && f.MinRating == nil
}

// Matches reports whether the recipe satisfies every configured filter.
func (f RecipeFilters) Matches(r Recipe) bool {
	if len(f.Categories) > 0 && !f.matchesCategory(r) {
		return false
	}
	if f.Difficulty != nil && r.Difficulty != *f.Difficulty {
		return false
	}
	if f.MaxCookTime != nil && time.Duration(r.CookTime)*time.Minute > *f.MaxCookTime {
		return false
	}
	if f.MinRating != nil && r.RatingValue() < *f.MinRating {
		return false
	}
	return true
}

func (f RecipeFilters) matchesCategory(r Recipe) bool {
	if _, ok := f.Categories[strings.ToLower(AllCategory)]; ok {
		return true
	}
	return slices.ContainsFunc(r.Category, func(c string) bool {
		_, ok := f.Categories[strings.ToLower(c)]
		return ok
	})
}

// WithCategories returns a copy of f constrained to the given categories.
func (f RecipeFilters) WithCategories(categories ...string) RecipeFilters {
	out := f
	out.Categories = make(map[string]struct{}, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		out.Categories[strings.ToLower(c)] = struct{}{}
	}
	return out
}

// CategoryList returns the configured categories in sorted order.
func (f RecipeFilters) CategoryList() []string {
	out := make([]string, 0, len(f.Categories))
	for c := range f.Categories {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// CacheKey renders the filters deterministically for use in cache keys.
func (f RecipeFilters) CacheKey() string {
	var sb strings.Builder
	sb.WriteString("c=")
	sb.WriteString(strings.Join(f.CategoryList(), ","))
	if f.Difficulty != nil {
		sb.WriteString(";d=")
		sb.WriteString(string(*f.Difficulty))
	}
	if f.MaxCookTime != nil {
		sb.WriteString(";t=")
		sb.WriteString(f.MaxCookTime.String())
	}
	if f.MinRating != nil {
		sb.WriteString(";r=")
		sb.WriteString(strings.TrimRight(strings.TrimRight(formatFloat(*f.MinRating), "0"), "."))
	}
	return sb.String()
}
