package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "cache_test.db")
	c, err := New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestInsertAndLookup(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if err := c.Insert(ctx, "taco night", "https://cdn.test/b/p/taco-night.png"); err != nil {
		t.Fatal(err)
	}

	url, ok, err := c.Lookup(ctx, "taco night")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected cache hit")
	}
	if url != "https://cdn.test/b/p/taco-night.png" {
		t.Errorf("unexpected url: %s", url)
	}

	_, ok, err = c.Lookup(ctx, "taco nights")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected miss for a different key")
	}
}

func TestDuplicateKeysReturnFirst(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_ = c.Insert(ctx, "brunch", "https://cdn.test/first.png")
	_ = c.Insert(ctx, "brunch", "https://cdn.test/second.png")

	url, ok, err := c.Lookup(ctx, "brunch")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if url != "https://cdn.test/first.png" {
		t.Errorf("expected first inserted url, got %s", url)
	}

	entries, err := c.Entries(ctx, "brunch")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestStats(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_ = c.Insert(ctx, "k1", "u1")
	_ = c.Insert(ctx, "k1", "u1")

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 2 {
		t.Errorf("expected 2 entries, got %d", stats.Entries)
	}
	if stats.UniqueKeys != 1 {
		t.Errorf("expected 1 unique key, got %d", stats.UniqueKeys)
	}
}

func TestPrune(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_ = c.Insert(ctx, "old", "u1")
	_ = c.Insert(ctx, "old2", "u2")

	n, err := c.Prune(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected nothing older than an hour, pruned %d", n)
	}

	n, err = c.Prune(ctx, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 pruned, got %d", n)
	}

	stats, _ := c.Stats(ctx)
	if stats.Entries != 0 {
		t.Errorf("expected 0 entries after prune, got %d", stats.Entries)
	}
}
