// Package cache defines the artifact cache: normalized key to public artifact URL.
package cache

import "context"

// ArtifactCache looks up and appends (normalizedKey, artifactURL) entries.
//
// Keys are unique by convention only. Concurrent misses for one key may both
// insert; Lookup then returns the earliest entry.
type ArtifactCache interface {
	// Lookup returns the URL cached for key. ok is false on a miss.
	Lookup(ctx context.Context, key string) (url string, ok bool, err error)
	// Insert appends an entry for key.
	Insert(ctx context.Context, key, url string) error
}
