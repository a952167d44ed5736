package schema

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// cleanParts trims non-alphanumeric punctuation from the ends of name parts,
// and additionally trims trailing periods for looser handling.
func cleanParts(parts []string) []string {
	var cleaned []string
	for _, p := range parts {
		cp := strings.TrimFunc(p, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-' && r != '\'' && r != '.'
		})
		cp = strings.TrimSuffix(cp, ".")
		if cp != "" {
			cleaned = append(cleaned, cp)
		}
	}
	return cleaned
}

// ShortAuthorName formats "Maria Rossi" to "Maria R" for compact listings.
// Single-word names are returned unchanged.
func ShortAuthorName(name string) string {
	trimmed := strings.Trim(strings.TrimSpace(name), "()\"'`")
	cleaned := cleanParts(strings.Fields(trimmed))

	switch {
	case len(cleaned) >= 2:
		last := []rune(cleaned[len(cleaned)-1])
		return cleaned[0] + " " + string(last[0])
	case len(cleaned) == 1:
		return cleaned[0]
	default:
		return trimmed
	}
}

// AuthorLabel returns the short author name of a recipe, or "-" when unknown.
func AuthorLabel(r Recipe) string {
	if r.Author == nil || r.Author.Name == "" {
		return "-"
	}
	return ShortAuthorName(r.Author.Name)
}

// FormatMinutes renders a minute count as "1h 15m" or "40m".
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	if minutes%60 == 0 {
		return fmt.Sprintf("%dh", minutes/60)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
