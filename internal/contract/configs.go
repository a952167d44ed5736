package contract

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/huangsam/pantry/schema"
)

// Default values for configuration.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// DefaultFavoritesStale is how long the favorites set stays fresh in the query cache.
	DefaultFavoritesStale = 2 * time.Minute

	// DefaultStatusStale is how long a per-recipe favorite status stays fresh.
	DefaultStatusStale = 1 * time.Minute

	// DefaultGCTime is how long an unused query cache entry is kept.
	DefaultGCTime = 10 * time.Minute

	// DefaultOfflineRetention is how long recipes stay in the offline cache.
	DefaultOfflineRetention = 7 * 24 * time.Hour
)

// ConfigRawInput holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Color          string `mapstructure:"color"`
	Width          int    `mapstructure:"width"`
	LogLevel       string `mapstructure:"log-level"`
	LogFormat      string `mapstructure:"log-format"`

	// --- Fields from the recipes commands ---
	Page       int     `mapstructure:"page"`
	PageSize   int     `mapstructure:"page-size"`
	Category   string  `mapstructure:"category"`
	Difficulty string  `mapstructure:"difficulty"`
	MaxCook    string  `mapstructure:"max-cook"`
	MinRating  float64 `mapstructure:"min-rating"`

	// --- Query cache tuning from config file ---
	Cache CacheRawInput `mapstructure:"cache"`
}

// CacheRawInput holds query cache windows from the YAML config file.
type CacheRawInput struct {
	FavoritesStale string `mapstructure:"favorites_stale"`
	StatusStale    string `mapstructure:"status_stale"`
	GCTime         string `mapstructure:"gc_time"`
}

// Config holds the final, validated runtime configuration.
type Config struct {
	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string
	Output         schema.OutputMode
	OutputFile     string
	UseColors      bool
	Width          int // Terminal width override (0 = auto-detect)
	LogLevel       slog.Level
	JSONLogs       bool

	Page     int
	PageSize int
	Filters  schema.RecipeFilters

	FavoritesStale time.Duration
	StatusStale    time.Duration
	GCTime         time.Duration
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Filters.Categories != nil {
		clone.Filters = c.Filters.WithCategories(c.Filters.CategoryList()...)
	}
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processPaging(cfg, input); err != nil {
		return err
	}
	if err := processFilters(cfg, input); err != nil {
		return err
	}
	return processCacheWindows(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.MemoryBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseBackend normalizes and validates a backend name.
func ParseBackend(s string) (schema.DatabaseBackend, error) {
	backend := schema.DatabaseBackend(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := schema.ValidStoreBackends[backend]; !ok {
		return "", fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, memory, none", s)
	}
	return backend, nil
}

// validateBackendConfigs validates the store backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	backend, err := ParseBackend(input.StoreBackend)
	if err != nil {
		return err
	}
	cfg.StoreBackend = backend
	cfg.StoreDBConnect = input.StoreDBConnect
	return ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect)
}

// validateSimpleInputs processes and validates output and logging fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}

	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	switch strings.ToLower(input.LogFormat) {
	case "", "text":
		cfg.JSONLogs = false
	case "json":
		cfg.JSONLogs = true
	default:
		return fmt.Errorf("invalid log format '%s'. must be text or json", input.LogFormat)
	}
	return nil
}

// processPaging validates page and page size.
func processPaging(cfg *Config, input *ConfigRawInput) error {
	if input.Page < 1 {
		return fmt.Errorf("page must be 1 or greater (received %d)", input.Page)
	}
	if input.PageSize <= 0 || input.PageSize > MaxPageSize {
		return fmt.Errorf("page-size must be greater than 0 and cannot exceed %d (received %d)", MaxPageSize, input.PageSize)
	}
	cfg.Page = input.Page
	cfg.PageSize = input.PageSize
	return nil
}

// processFilters turns the loose filter flags into a closed RecipeFilters value.
func processFilters(cfg *Config, input *ConfigRawInput) error {
	var minRating string
	if input.MinRating != 0 {
		minRating = fmt.Sprintf("%g", input.MinRating)
	}
	filters, err := ParseFilters(input.Category, input.Difficulty, input.MaxCook, minRating)
	if err != nil {
		return err
	}
	cfg.Filters = filters
	return nil
}

// processCacheWindows resolves the query cache windows, falling back to defaults.
func processCacheWindows(cfg *Config, input *ConfigRawInput) error {
	windows := []struct {
		name  string
		raw   string
		def   time.Duration
		field *time.Duration
	}{
		{"cache.favorites_stale", input.Cache.FavoritesStale, DefaultFavoritesStale, &cfg.FavoritesStale},
		{"cache.status_stale", input.Cache.StatusStale, DefaultStatusStale, &cfg.StatusStale},
		{"cache.gc_time", input.Cache.GCTime, DefaultGCTime, &cfg.GCTime},
	}
	for _, w := range windows {
		if w.raw == "" {
			*w.field = w.def
			continue
		}
		d, err := time.ParseDuration(w.raw)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", w.name, w.raw, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative (received %s)", w.name, w.raw)
		}
		*w.field = d
	}
	if cfg.GCTime < cfg.FavoritesStale || cfg.GCTime < cfg.StatusStale {
		return fmt.Errorf("cache.gc_time (%s) must not be shorter than the stale windows", cfg.GCTime)
	}
	return nil
}
