// Package schema has models, enums and shared value types for all parts of pantry.
package schema

import "time"

// Recipe is a full recipe record. Favorite snapshots persist this struct as-is.
type Recipe struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Image        string        `json:"image,omitempty"`
	CookTime     int           `json:"cookTime"` // minutes
	PrepTime     int           `json:"prepTime"` // minutes
	Servings     int           `json:"servings"`
	Difficulty   Difficulty    `json:"difficulty"`
	Category     []string      `json:"category"`
	Ingredients  []Ingredient  `json:"ingredients"`
	Instructions []Instruction `json:"instructions"`
	Nutrition    *Nutrition    `json:"nutrition,omitempty"`
	Rating       *float64      `json:"rating,omitempty"`
	ReviewCount  *int          `json:"reviewCount,omitempty"`
	Author       *Author       `json:"author,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
	Notes  string  `json:"notes,omitempty"`
}

// Instruction is one numbered preparation step.
type Instruction struct {
	ID          string `json:"id"`
	Step        int    `json:"step"`
	Description string `json:"description"`
	Duration    int    `json:"duration,omitempty"` // minutes
	Image       string `json:"image,omitempty"`
}

// Nutrition holds per-serving nutrition facts. Macros are in grams.
type Nutrition struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
	Fiber    int `json:"fiber,omitempty"`
	Sugar    int `json:"sugar,omitempty"`
}

// Author identifies who published a recipe.
type Author struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// RecipePage is one page of a filtered recipe listing.
type RecipePage struct {
	Recipes    []Recipe `json:"recipes"`
	TotalCount int      `json:"totalCount"`
	HasMore    bool     `json:"hasMore"`
	NextPage   int      `json:"nextPage,omitempty"` // zero when HasMore is false
}

// TotalTime returns prep plus cook time.
func (r Recipe) TotalTime() time.Duration {
	return time.Duration(r.PrepTime+r.CookTime) * time.Minute
}

// RatingValue returns the rating, or zero for unrated recipes.
func (r Recipe) RatingValue() float64 {
	if r.Rating == nil {
		return 0
	}
	return *r.Rating
}
