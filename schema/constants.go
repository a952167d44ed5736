package schema

// Custom string types for type safety.
type (
	// Difficulty represents how hard a recipe is to make.
	Difficulty string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the key-value store.
	DatabaseBackend string

	// Theme represents the preferred color theme.
	Theme string

	// Units represents the preferred measurement system.
	Units string
)

// All difficulty levels supported.
const (
	EasyDifficulty   Difficulty = "Easy"
	MediumDifficulty Difficulty = "Medium"
	HardDifficulty   Difficulty = "Hard"
)

// All output modes supported.
const (
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	CSVOut     OutputMode = "csv"
	ParquetOut OutputMode = "parquet"
)

// All store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	MemoryBackend     DatabaseBackend = "memory"
	NoneBackend       DatabaseBackend = "none"
)

// Preference values.
const (
	LightTheme    Theme = "light" // default
	DarkTheme     Theme = "dark"
	MetricUnits   Units = "metric" // default
	ImperialUnits Units = "imperial"
)

// AllCategory is the pseudo-category that matches every recipe.
const AllCategory = "All"

// AllDifficulties lists difficulties from easiest to hardest.
var AllDifficulties = []Difficulty{EasyDifficulty, MediumDifficulty, HardDifficulty}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	TextOut:    {},
	JSONOut:    {},
	CSVOut:     {},
	ParquetOut: {},
}

// ValidStoreBackends lists all valid store backends.
var ValidStoreBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	MemoryBackend:     {},
	NoneBackend:       {},
}

// ValidThemes lists all valid themes.
var ValidThemes = map[Theme]struct{}{
	LightTheme: {},
	DarkTheme:  {},
}

// ValidUnits lists all valid measurement systems.
var ValidUnits = map[Units]struct{}{
	MetricUnits:   {},
	ImperialUnits: {},
}
