// Package storage persists generated artifacts and addresses them publicly.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNotFound is returned by an ObjectStore when no public object exists at a path.
var ErrNotFound = errors.New("object not found")

// Object is a stored blob.
type Object struct {
	ContentType string
	Data        []byte
}

// ObjectStore is the raw object storage underneath Store.
type ObjectStore interface {
	// Put writes data at path, replacing any previous object there.
	Put(ctx context.Context, path, contentType string, r io.Reader) error
	// MakePublic marks the object at path as publicly readable.
	MakePublic(ctx context.Context, path string) error
	// OpenPublic returns the object at path if it is public, or ErrNotFound.
	OpenPublic(ctx context.Context, path string) (Object, error)
}

// WriteError reports a failure to persist an artifact.
// Op is one of "encode", "write" or "publish".
type WriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Config defines artifact addressing.
type Config struct {
	PublicBase string
	Bucket     string
	Prefix     string
}

// Store writes artifacts under Prefix in Bucket and returns
// <PublicBase>/<Bucket>/<Prefix>/<name>.<ext>.
type Store struct {
	objects ObjectStore
	cfg     Config
}

// New creates a Store over objects.
func New(objects ObjectStore, cfg Config) *Store {
	cfg.PublicBase = strings.TrimRight(cfg.PublicBase, "/")
	cfg.Prefix = strings.Trim(cfg.Prefix, "/")
	return &Store{objects: objects, cfg: cfg}
}

// Extension picks the file extension for a MIME type.
func Extension(mimeType string) string {
	if strings.EqualFold(mimeType, "image/png") {
		return "png"
	}
	return "jpg"
}

// ObjectPath returns the in-bucket path for an artifact.
func (s *Store) ObjectPath(artifactName, mimeType string) string {
	name := artifactName + "." + Extension(mimeType)
	if s.cfg.Prefix == "" {
		return name
	}
	return s.cfg.Prefix + "/" + name
}

// URL returns the public address of an in-bucket path.
func (s *Store) URL(path string) string {
	return s.cfg.PublicBase + "/" + s.cfg.Bucket + "/" + path
}

// Put stores payload and makes it public. Every failure is a *WriteError.
func (s *Store) Put(ctx context.Context, payload []byte, artifactName, mimeType string) (string, error) {
	path := s.ObjectPath(artifactName, mimeType)
	if len(payload) == 0 {
		return "", &WriteError{Op: "encode", Path: path, Err: errors.New("empty payload")}
	}
	if err := s.objects.Put(ctx, path, mimeType, bytes.NewReader(payload)); err != nil {
		return "", &WriteError{Op: "write", Path: path, Err: err}
	}
	if err := s.objects.MakePublic(ctx, path); err != nil {
		return "", &WriteError{Op: "publish", Path: path, Err: err}
	}
	return s.URL(path), nil
}
