package favorites

import (
	"slices"

	"github.com/huangsam/pantry/schema"
)

// Aggregate is the favorite set and its snapshots as one immutable value.
// Count, ID list and recipe list are all derived from it.
type Aggregate struct {
	IDs     []string
	Recipes []schema.Recipe
}

// Count returns the number of favorites.
func (a Aggregate) Count() int {
	return len(a.IDs)
}

// Contains reports membership of id.
func (a Aggregate) Contains(id string) bool {
	return slices.Contains(a.IDs, id)
}

// With returns a copy with recipe appended. Existing members are left alone.
func (a Aggregate) With(recipe schema.Recipe) Aggregate {
	if a.Contains(recipe.ID) {
		return a
	}
	return Aggregate{
		IDs:     append(slices.Clone(a.IDs), recipe.ID),
		Recipes: append(slices.Clone(a.Recipes), recipe),
	}
}

// Without returns a copy with id removed from both lists.
func (a Aggregate) Without(id string) Aggregate {
	out := Aggregate{IDs: []string{}, Recipes: []schema.Recipe{}}
	for _, v := range a.IDs {
		if v != id {
			out.IDs = append(out.IDs, v)
		}
	}
	for _, r := range a.Recipes {
		if r.ID != id {
			out.Recipes = append(out.Recipes, r)
		}
	}
	return out
}

// Recipe returns the snapshot for id.
func (a Aggregate) Recipe(id string) (schema.Recipe, bool) {
	for _, r := range a.Recipes {
		if r.ID == id {
			return r, true
		}
	}
	return schema.Recipe{}, false
}
