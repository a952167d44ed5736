// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/pantry/core"
	"github.com/huangsam/pantry/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// filterParams are shared by the listing and search tools.
func filterParams() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("category", mcp.Description("Comma-separated categories; a recipe matches any of them.")),
		mcp.WithString("difficulty", mcp.Description("Difficulty level."), mcp.Enum("easy", "medium", "hard")),
		mcp.WithString("max_cook", mcp.Description("Maximum cook time in minutes (45) or as a duration (1h30m).")),
		mcp.WithNumber("min_rating", mcp.Description("Minimum average rating from 0 to 5.")),
	}
}

// NewMCPServer initializes and configures the Pantry MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, svc *core.Services) *server.MCPServer {
	s := server.NewMCPServer(
		"Pantry Recipe Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		svc:     svc,
	}

	// --- 1. Tool: list_recipes ---
	listOpts := append([]mcp.ToolOption{
		mcp.WithDescription("List recipes one page at a time, optionally filtered."),
		mcp.WithNumber("page", mcp.Description("Page number starting at 1.")),
		mcp.WithNumber("page_size", mcp.Description("Recipes per page (1-100).")),
	}, filterParams()...)
	s.AddTool(mcp.NewTool("list_recipes", listOpts...), h.handleListRecipes)

	// --- 2. Tool: get_recipe ---
	s.AddTool(mcp.NewTool("get_recipe",
		mcp.WithDescription("Get one recipe with ingredients, steps and favorite state."),
		mcp.WithString("id", mcp.Description("Recipe ID."), mcp.Required()),
	), h.handleGetRecipe)

	// --- 3. Tool: search_recipes ---
	searchOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Search recipe titles, descriptions, categories and ingredients."),
		mcp.WithString("query", mcp.Description("Text to search for."), mcp.Required()),
	}, filterParams()...)
	s.AddTool(mcp.NewTool("search_recipes", searchOpts...), h.handleSearchRecipes)

	// --- 4. Tool: list_favorites ---
	s.AddTool(mcp.NewTool("list_favorites",
		mcp.WithDescription("List favorite recipe IDs and their stored snapshots."),
	), h.handleListFavorites)

	// --- 5. Tool: toggle_favorite ---
	s.AddTool(mcp.NewTool("toggle_favorite",
		mcp.WithDescription("Add a recipe to favorites, or remove it if already favorited."),
		mcp.WithString("id", mcp.Description("Recipe ID."), mcp.Required()),
	), h.handleToggleFavorite)

	return s
}

// StartMCPServer starts the Pantry MCP server on stdio.
func StartMCPServer(ctx context.Context, baseCfg *contract.Config, svc *core.Services) error {
	go svc.Run(ctx)
	s := NewMCPServer(baseCfg, svc)
	return server.ServeStdio(s)
}
