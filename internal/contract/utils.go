package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/pantry/schema"
)

// Color variables for console output.
var (
	HardColor   = color.New(color.FgRed, color.Bold) // HardColor flags the most demanding recipes.
	MediumColor = color.New(color.FgYellow)          // MediumColor is standard caution, not bold.
	EasyColor   = color.New(color.FgGreen)           // EasyColor marks approachable recipes.
	FavColor    = color.New(color.FgMagenta, color.Bold)
)

// FavoriteMark is printed next to favorited recipes in table output.
const FavoriteMark = "★"

// GetColorDifficulty returns a colored difficulty label for console output (table).
func GetColorDifficulty(d schema.Difficulty) string {
	text := string(d)
	switch d {
	case schema.HardDifficulty:
		return HardColor.Sprint(text)
	case schema.MediumDifficulty:
		return MediumColor.Sprint(text)
	case schema.EasyDifficulty:
		return EasyColor.Sprint(text)
	default:
		return text
	}
}

// GetRatingLabel renders a rating as "4.8 (142)", or "-" when unrated.
func GetRatingLabel(r schema.Recipe) string {
	if r.Rating == nil {
		return "-"
	}
	if r.ReviewCount == nil {
		return fmt.Sprintf("%.1f", *r.Rating)
	}
	return fmt.Sprintf("%.1f (%d)", *r.Rating, *r.ReviewCount)
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when the path is empty.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetDBFilePath returns the path to the SQLite DB file for the key-value store.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".pantry.db"
	}
	return filepath.Join(homeDir, ".pantry.db")
}

// TruncateText truncates text to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the "..." and at least one character.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
