package schema

import "time"

// StoreStatus represents the status of the key-value store.
type StoreStatus struct {
	Backend         string    `json:"backend"`
	Connected       bool      `json:"connected"`
	TotalKeys       int       `json:"total_keys"`
	LastWriteTime   time.Time `json:"last_write_time"`
	OldestWriteTime time.Time `json:"oldest_write_time"`
	TableSizeBytes  int64     `json:"table_size_bytes"`
	SchemaVersion   int       `json:"schema_version"`
}

// FavoritesSummary is the read-side view the favorites commands print.
type FavoritesSummary struct {
	Count   int      `json:"count"`
	IDs     []string `json:"ids"`
	Recipes []Recipe `json:"recipes"`
}

// CachedRecipe is a recipe kept for offline access.
type CachedRecipe struct {
	Recipe   Recipe    `json:"recipe"`
	CachedAt time.Time `json:"cachedAt"`
}
