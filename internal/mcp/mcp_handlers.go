package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/huangsam/pantry/core"
	"github.com/huangsam/pantry/core/favorites"
	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	svc     *core.Services
}

type recipeView struct {
	schema.Recipe
	Favorite bool `json:"favorite"`
}

type pageView struct {
	Recipes    []recipeView `json:"recipes"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalCount int          `json:"totalCount"`
	HasMore    bool         `json:"hasMore"`
	NextPage   int          `json:"nextPage,omitempty"`
}

type toggleView struct {
	ID       string `json:"id"`
	Favorite bool   `json:"favorite"`
	Count    int    `json:"count"`
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) views(ctx context.Context, recipes []schema.Recipe) []recipeView {
	isFav := h.svc.FavoriteLookup(ctx)
	out := make([]recipeView, len(recipes))
	for i, r := range recipes {
		out[i] = recipeView{Recipe: r, Favorite: isFav(r.ID)}
	}
	return out
}

// requestFilters parses the filter arguments, defaulting to the configured filters.
func (h *toolHandler) requestFilters(request mcp.CallToolRequest) (schema.RecipeFilters, error) {
	category := request.GetString("category", "")
	difficulty := request.GetString("difficulty", "")
	maxCook := request.GetString("max_cook", "")
	var minRating string
	if r := request.GetFloat("min_rating", 0); r != 0 {
		minRating = strconv.FormatFloat(r, 'f', -1, 64)
	}
	if category == "" && difficulty == "" && maxCook == "" && minRating == "" {
		return h.baseCfg.Filters, nil
	}
	return contract.ParseFilters(category, difficulty, maxCook, minRating)
}

func (h *toolHandler) handleListRecipes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetInt("page", 0); p != 0 {
		cfg.Page = p
	}
	if ps := request.GetInt("page_size", 0); ps != 0 {
		cfg.PageSize = ps
	}
	if cfg.Page < 1 {
		return mcp.NewToolResultError(fmt.Sprintf("page must be 1 or greater (received %d)", cfg.Page)), nil
	}
	if cfg.PageSize < 1 || cfg.PageSize > contract.MaxPageSize {
		return mcp.NewToolResultError(fmt.Sprintf("page_size must be between 1 and %d (received %d)", contract.MaxPageSize, cfg.PageSize)), nil
	}

	filters, err := h.requestFilters(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid filters: %v", err)), nil
	}

	page, err := h.svc.Recipes.List(ctx, cfg.Page, cfg.PageSize, filters)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing failed: %v", err)), nil
	}
	return jsonResult(pageView{
		Recipes:    h.views(ctx, page.Recipes),
		Page:       cfg.Page,
		PageSize:   cfg.PageSize,
		TotalCount: page.TotalCount,
		HasMore:    page.HasMore,
		NextPage:   page.NextPage,
	}), nil
}

func (h *toolHandler) handleGetRecipe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	r, err := h.svc.ResolveRecipe(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fav := h.svc.Favorites.IsFavorite(ctx, id)
	return jsonResult(recipeView{Recipe: r, Favorite: fav.Data}), nil
}

func (h *toolHandler) handleSearchRecipes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := request.GetString("query", "")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	filters, err := h.requestFilters(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid filters: %v", err)), nil
	}
	found, err := h.svc.Recipes.Search(ctx, query, filters)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return jsonResult(h.views(ctx, found)), nil
}

func (h *toolHandler) handleListFavorites(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := h.svc.FavoritesSummary(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reading favorites failed: %v", err)), nil
	}
	return jsonResult(summary), nil
}

func (h *toolHandler) handleToggleFavorite(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetString("id", "")
	if id == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	r, err := h.svc.ResolveRecipe(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := h.svc.Favorites.ToggleFavorite(ctx, r)
	if errors.Is(err, favorites.ErrMutationPending) {
		return mcp.NewToolResultError(fmt.Sprintf("recipe %s is already being updated, try again", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("toggle failed: %v", err)), nil
	}
	return jsonResult(toggleView{
		ID:       id,
		Favorite: state,
		Count:    h.svc.Favorites.FavoriteCount(ctx).Data,
	}), nil
}
