// Package sqlite implements storage.ObjectStore as a SQLite blob table.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/sqlitedb"
	"github.com/burzuercher/group-meal-planner-sub001/pkg/storage"
)

const createObjectsTable = `
CREATE TABLE IF NOT EXISTS objects (
	bucket TEXT NOT NULL,
	path TEXT NOT NULL,
	content_type TEXT NOT NULL,
	data BLOB NOT NULL,
	public INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (bucket, path)
);
`

// Bucket stores objects for one bucket name.
type Bucket struct {
	db   *sql.DB
	name string
}

var _ storage.ObjectStore = (*Bucket)(nil)

// New opens the object database and returns the named bucket.
func New(dbPath, bucket string) (*Bucket, error) {
	db, err := sqlitedb.Open(dbPath, createObjectsTable)
	if err != nil {
		return nil, fmt.Errorf("open object db: %w", err)
	}
	return &Bucket{db: db, name: bucket}, nil
}

// Put writes the object. Rewriting a path replaces its content and keeps its
// visibility, so a published URL keeps resolving.
func (b *Bucket) Put(ctx context.Context, path, contentType string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read object: %w", err)
	}
	_, err = b.db.ExecContext(ctx,
		`INSERT INTO objects (bucket, path, content_type, data, public, created_at) VALUES (?, ?, ?, ?, 0, ?)
		 ON CONFLICT(bucket, path) DO UPDATE SET
			content_type = excluded.content_type,
			data = excluded.data,
			created_at = excluded.created_at`,
		b.name, path, contentType, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// MakePublic marks the object as publicly readable.
func (b *Bucket) MakePublic(ctx context.Context, path string) error {
	res, err := b.db.ExecContext(ctx,
		`UPDATE objects SET public = 1 WHERE bucket = ? AND path = ?`, b.name, path)
	if err != nil {
		return fmt.Errorf("publish object: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("publish object: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("publish object %s: %w", path, storage.ErrNotFound)
	}
	return nil
}

// OpenPublic returns the object if it exists and is public.
func (b *Bucket) OpenPublic(ctx context.Context, path string) (storage.Object, error) {
	var obj storage.Object
	err := b.db.QueryRowContext(ctx,
		`SELECT content_type, data FROM objects WHERE bucket = ? AND path = ? AND public = 1`,
		b.name, path,
	).Scan(&obj.ContentType, &obj.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Object{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Object{}, fmt.Errorf("open object: %w", err)
	}
	return obj, nil
}

// Close releases the database connection.
func (b *Bucket) Close() error {
	return b.db.Close()
}
