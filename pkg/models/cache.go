package models

import "time"

// CacheEntry maps a normalized key to the public URL of its artifact.
// Entries are immutable once written.
type CacheEntry struct {
	NormalizedKey string    `json:"normalized_key"`
	ArtifactURL   string    `json:"artifact_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// CacheStats reports the size of the cache table.
type CacheStats struct {
	Entries    int64 `json:"entries"`
	UniqueKeys int64 `json:"unique_keys"`
}
