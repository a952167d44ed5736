package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/huangsam/pantry/internal/contract"
	"github.com/huangsam/pantry/schema"
)

// PreferencesKey is where preferences are persisted.
const PreferencesKey = "user.preferences"

// ErrUnknownPreference is returned for an unrecognized preference name.
var ErrUnknownPreference = errors.New("unknown preference")

// LoadPreferences returns the stored preferences, or the defaults when they are absent or unreadable.
func LoadPreferences(ctx context.Context, store contract.KVStore, logger *slog.Logger) schema.Preferences {
	logger = contract.LoggerOrDiscard(logger)
	prefs := schema.DefaultPreferences()
	data, err := store.Get(ctx, PreferencesKey)
	if err != nil {
		if !errors.Is(err, contract.ErrKeyNotFound) {
			logger.Warn("error loading preferences", "err", err)
		}
		return prefs
	}
	if err := json.Unmarshal(data, &prefs); err != nil {
		logger.Warn("error decoding preferences", "err", err)
		return schema.DefaultPreferences()
	}
	return prefs
}

// SavePreferences validates and stores prefs.
func SavePreferences(ctx context.Context, store contract.KVStore, prefs schema.Preferences) error {
	if err := ValidatePreferences(prefs); err != nil {
		return err
	}
	data, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	if err := store.Set(ctx, PreferencesKey, data); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

// ValidatePreferences checks enum fields.
func ValidatePreferences(prefs schema.Preferences) error {
	if _, ok := schema.ValidThemes[prefs.Theme]; !ok {
		return fmt.Errorf("invalid theme '%s'. must be light or dark", prefs.Theme)
	}
	if _, ok := schema.ValidUnits[prefs.Units]; !ok {
		return fmt.Errorf("invalid units '%s'. must be metric or imperial", prefs.Units)
	}
	return nil
}

// ApplyPreference sets one named preference from its string form.
func ApplyPreference(prefs schema.Preferences, name, value string) (schema.Preferences, error) {
	value = strings.TrimSpace(value)
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "theme":
		prefs.Theme = schema.Theme(strings.ToLower(value))
	case "units":
		prefs.Units = schema.Units(strings.ToLower(value))
	case "notifications":
		b, err := contract.ParseBoolString(value)
		if err != nil {
			return prefs, err
		}
		prefs.Notifications = b
	default:
		return prefs, fmt.Errorf("%w: %s", ErrUnknownPreference, name)
	}
	return prefs, ValidatePreferences(prefs)
}
