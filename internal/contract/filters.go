package contract

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/pantry/schema"
)

// MaxRating is the top of the rating scale.
const MaxRating = 5.0

// ParseFilters builds a RecipeFilters value from loosely typed user input.
// Empty strings leave the corresponding filter unset.
// maxCook accepts a Go duration ("45m", "1h30m") or a bare minute count ("45").
func ParseFilters(categories, difficulty, maxCook, minRating string) (schema.RecipeFilters, error) {
	var filters schema.RecipeFilters

	if strings.TrimSpace(categories) != "" {
		filters = filters.WithCategories(strings.Split(categories, ",")...)
	}

	if d := strings.TrimSpace(difficulty); d != "" {
		parsed, err := ParseDifficulty(d)
		if err != nil {
			return schema.RecipeFilters{}, err
		}
		filters.Difficulty = &parsed
	}

	if m := strings.TrimSpace(maxCook); m != "" {
		d, err := parseCookTime(m)
		if err != nil {
			return schema.RecipeFilters{}, err
		}
		filters.MaxCookTime = &d
	}

	if r := strings.TrimSpace(minRating); r != "" {
		v, err := strconv.ParseFloat(r, 64)
		if err != nil {
			return schema.RecipeFilters{}, fmt.Errorf("invalid min rating %q: %w", r, err)
		}
		if math.IsNaN(v) || v < 0 || v > MaxRating {
			return schema.RecipeFilters{}, fmt.Errorf("min rating must be between 0 and %.0f (received %g)", MaxRating, v)
		}
		filters.MinRating = &v
	}

	return filters, nil
}

// ParseDifficulty parses a difficulty name case-insensitively.
func ParseDifficulty(s string) (schema.Difficulty, error) {
	for _, d := range schema.AllDifficulties {
		if strings.EqualFold(string(d), strings.TrimSpace(s)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("invalid difficulty '%s'. must be easy, medium, hard", s)
}

func parseCookTime(s string) (time.Duration, error) {
	if minutes, err := strconv.Atoi(s); err == nil {
		if minutes <= 0 {
			return 0, fmt.Errorf("max cook time must be positive (received %d)", minutes)
		}
		return time.Duration(minutes) * time.Minute, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid max cook time %q: use minutes (45) or a duration (1h30m)", s)
	}
	if d <= 0 {
		return 0, fmt.Errorf("max cook time must be positive (received %s)", s)
	}
	return d, nil
}
