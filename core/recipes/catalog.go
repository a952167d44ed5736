// Package recipes serves the built-in recipe dataset.
package recipes

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/schema"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed data/recipes.json
var datasetJSON []byte

//go:embed data/recipe.schema.json
var datasetSchemaJSON []byte

var (
	// ErrInvalidPage is returned for page or page size below 1.
	ErrInvalidPage = errors.New("page and page size must be at least 1")

	// ErrInvalidDataset is returned when a dataset fails validation.
	ErrInvalidDataset = errors.New("invalid recipe dataset")
)

// Catalog is an in-memory recipe lookup provider.
type Catalog struct {
	recipes []schema.Recipe
	byID    map[string]int
	mu      sync.Mutex // guards rng
	rng     *rand.Rand
}

var _ contract.RecipeProvider = &Catalog{} // Compile-time check

// Default returns the catalog built from the embedded dataset.
var Default = sync.OnceValues(func() (*Catalog, error) {
	return Load(datasetJSON)
})

// compileDatasetSchema compiles the embedded JSON Schema.
func compileDatasetSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	compiler.AssertFormat = true
	if err := compiler.AddResource("recipe.schema.json", bytes.NewReader(datasetSchemaJSON)); err != nil {
		return nil, fmt.Errorf("failed to add dataset schema: %w", err)
	}
	return compiler.Compile("recipe.schema.json")
}

// Load validates data against the dataset schema and builds a catalog from it.
func Load(data []byte) (*Catalog, error) {
	sch, err := compileDatasetSchema()
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
	}

	var recipes []schema.Recipe
	if err := json.Unmarshal(data, &recipes); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDataset, err)
	}
	return New(recipes)
}

// New builds a catalog over recipes, preserving their order. IDs must be unique.
func New(recipes []schema.Recipe) (*Catalog, error) {
	byID := make(map[string]int, len(recipes))
	for i, r := range recipes {
		if _, dup := byID[r.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate recipe id %q", ErrInvalidDataset, r.ID)
		}
		byID[r.ID] = i
	}
	return &Catalog{
		recipes: slices.Clone(recipes),
		byID:    byID,
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}, nil
}

// Seed makes Random deterministic.
func (c *Catalog) Seed(seed uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rng = rand.New(rand.NewPCG(seed, seed))
}

// Len returns the number of recipes.
func (c *Catalog) Len() int {
	return len(c.recipes)
}

func (c *Catalog) filter(filters schema.RecipeFilters) []schema.Recipe {
	if filters.IsZero() {
		return c.recipes
	}
	out := make([]schema.Recipe, 0, len(c.recipes))
	for _, r := range c.recipes {
		if filters.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// List returns page of the filtered recipes. Page k holds items [(k-1)*size, k*size).
func (c *Catalog) List(ctx context.Context, page, pageSize int, filters schema.RecipeFilters) (schema.RecipePage, error) {
	if err := ctx.Err(); err != nil {
		return schema.RecipePage{}, err
	}
	if page < 1 || pageSize < 1 {
		return schema.RecipePage{}, ErrInvalidPage
	}
	return Paginate(c.filter(filters), page, pageSize), nil
}

// Paginate slices items into one page.
func Paginate(items []schema.Recipe, page, pageSize int) schema.RecipePage {
	total := len(items)
	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)

	result := schema.RecipePage{
		Recipes:    slices.Clone(items[start:end]),
		TotalCount: total,
		HasMore:    page*pageSize < total,
	}
	if result.Recipes == nil {
		result.Recipes = []schema.Recipe{}
	}
	if result.HasMore {
		result.NextPage = page + 1
	}
	return result
}

// GetByID returns the recipe with id, or nil when unknown.
func (c *Catalog) GetByID(ctx context.Context, id string) (*schema.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i, ok := c.byID[id]
	if !ok {
		return nil, nil
	}
	r := c.recipes[i]
	return &r, nil
}

// matchesQuery does a case-insensitive substring match over the searchable text.
func matchesQuery(r schema.Recipe, q string) bool {
	if strings.Contains(strings.ToLower(r.Title), q) ||
		strings.Contains(strings.ToLower(r.Description), q) {
		return true
	}
	for _, cat := range r.Category {
		if strings.Contains(strings.ToLower(cat), q) {
			return true
		}
	}
	for _, ing := range r.Ingredients {
		if strings.Contains(strings.ToLower(ing.Name), q) {
			return true
		}
	}
	return false
}

// Search returns recipes matching query and filters. An empty query matches everything.
func (c *Catalog) Search(ctx context.Context, query string, filters schema.RecipeFilters) ([]schema.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := []schema.Recipe{}
	for _, r := range c.recipes {
		if matchesQuery(r, q) && filters.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ByCategory returns recipes tagged with category. "All" returns everything.
func (c *Catalog) ByCategory(ctx context.Context, category string) ([]schema.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.EqualFold(category, schema.AllCategory) {
		return slices.Clone(c.recipes), nil
	}
	return slices.Clone(c.filter(schema.RecipeFilters{}.WithCategories(category))), nil
}

// Categories returns every category in the dataset, sorted.
func (c *Catalog) Categories() []string {
	seen := map[string]struct{}{}
	for _, r := range c.recipes {
		for _, cat := range r.Category {
			seen[cat] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for cat := range seen {
		out = append(out, cat)
	}
	slices.Sort(out)
	return out
}

// Random returns up to n distinct recipes in random order.
func (c *Catalog) Random(ctx context.Context, n int) ([]schema.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("count must not be negative: %d", n)
	}
	shuffled := slices.Clone(c.recipes)
	c.mu.Lock()
	c.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	c.mu.Unlock()
	return shuffled[:min(n, len(shuffled))], nil
}
