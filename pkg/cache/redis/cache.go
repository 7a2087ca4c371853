// Package redis implements the artifact cache on Redis lists.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/cache"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
)

// Cache keeps one list per normalized key. Inserts append with RPUSH and
// lookups read index 0, so duplicates resolve to the earliest entry.
type Cache struct {
	client *goredis.Client
	prefix string
}

var _ cache.ArtifactCache = (*Cache)(nil)

// New creates a Cache. keyPrefix namespaces every key, e.g. "mealcover".
func New(client *goredis.Client, keyPrefix string) *Cache {
	return &Cache{client: client, prefix: keyPrefix}
}

func (c *Cache) key(normalizedKey string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, normalizedKey)
}

// Lookup returns the earliest URL stored for key.
func (c *Cache) Lookup(ctx context.Context, key string) (string, bool, error) {
	raw, err := c.client.LIndex(ctx, c.key(key), 0).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache lookup: %w", err)
	}

	var entry models.CacheEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return "", false, fmt.Errorf("decode cache entry: %w", err)
	}
	return entry.ArtifactURL, true, nil
}

// Insert appends an entry for key.
func (c *Cache) Insert(ctx context.Context, key, url string) error {
	data, err := json.Marshal(models.CacheEntry{
		NormalizedKey: key,
		ArtifactURL:   url,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := c.client.RPush(ctx, c.key(key), data).Err(); err != nil {
		return fmt.Errorf("cache insert: %w", err)
	}
	return nil
}

// Entries returns every entry stored for key, oldest first.
func (c *Cache) Entries(ctx context.Context, key string) ([]models.CacheEntry, error) {
	raws, err := c.client.LRange(ctx, c.key(key), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("cache entries: %w", err)
	}
	entries := make([]models.CacheEntry, 0, len(raws))
	for _, raw := range raws {
		var e models.CacheEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("decode cache entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
