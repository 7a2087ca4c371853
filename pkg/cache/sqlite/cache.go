package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/cache"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/models"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/sqlitedb"
)

// Cache is an append-only artifact cache backed by SQLite.
type Cache struct {
	db *sql.DB
}

var _ cache.ArtifactCache = (*Cache)(nil)

// normalized_key is deliberately not unique: racing inserts may duplicate a key.
const createCacheTable = `
CREATE TABLE IF NOT EXISTS artifact_cache (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	normalized_key TEXT NOT NULL,
	artifact_url TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_artifact_cache_key ON artifact_cache(normalized_key, id);
`

// New creates a Cache with the given database path.
func New(dbPath string) (*Cache, error) {
	db, err := sqlitedb.Open(dbPath, createCacheTable)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	return &Cache{db: db}, nil
}

// Lookup returns the oldest URL recorded for key.
func (c *Cache) Lookup(ctx context.Context, key string) (string, bool, error) {
	var url string
	err := c.db.QueryRowContext(ctx,
		`SELECT artifact_url FROM artifact_cache WHERE normalized_key = ? ORDER BY id ASC LIMIT 1`,
		key,
	).Scan(&url)

	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache lookup: %w", err)
	}
	return url, true, nil
}

// Insert appends an entry for key.
func (c *Cache) Insert(ctx context.Context, key, url string) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO artifact_cache (normalized_key, artifact_url, created_at) VALUES (?, ?, ?)`,
		key, url, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("cache insert: %w", err)
	}
	return nil
}

// Entries returns every entry for key, oldest first.
func (c *Cache) Entries(ctx context.Context, key string) ([]models.CacheEntry, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT normalized_key, artifact_url, created_at FROM artifact_cache WHERE normalized_key = ? ORDER BY id ASC`,
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("cache entries: %w", err)
	}
	defer rows.Close()

	var entries []models.CacheEntry
	for rows.Next() {
		var e models.CacheEntry
		if err := rows.Scan(&e.NormalizedKey, &e.ArtifactURL, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cache entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Stats returns entry and distinct key counts.
func (c *Cache) Stats(ctx context.Context) (models.CacheStats, error) {
	var count, unique int64
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(DISTINCT normalized_key) FROM artifact_cache`,
	).Scan(&count, &unique)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("cache stats: %w", err)
	}
	return models.CacheStats{
		Entries:    count,
		UniqueKeys: unique,
	}, nil
}

// Prune removes entries created before cutoff and returns how many were removed.
// A zero cutoff removes everything.
func (c *Cache) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var res sql.Result
	var err error
	if cutoff.IsZero() {
		res, err = c.db.ExecContext(ctx, `DELETE FROM artifact_cache`)
	} else {
		res, err = c.db.ExecContext(ctx, `DELETE FROM artifact_cache WHERE created_at < ?`, cutoff.UTC())
	}
	if err != nil {
		return 0, fmt.Errorf("cache prune: %w", err)
	}
	return res.RowsAffected()
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
