package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) (*miniredis.Miniredis, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, New(client, "test")
}

func TestCache_InsertAndLookup(t *testing.T) {
	mr, c := setupTestCache(t)
	ctx := context.Background()

	_, ok, err := c.Lookup(ctx, "taco night")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Insert(ctx, "taco night", "https://cdn.test/taco-night.png"))

	url, ok, err := c.Lookup(ctx, "taco night")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://cdn.test/taco-night.png", url)
	assert.True(t, mr.Exists("test:cache:taco night"))
}

func TestCache_DuplicatesResolveToFirst(t *testing.T) {
	_, c := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Insert(ctx, "brunch", "https://cdn.test/a.png"))
	require.NoError(t, c.Insert(ctx, "brunch", "https://cdn.test/b.png"))

	url, ok, err := c.Lookup(ctx, "brunch")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "https://cdn.test/a.png", url)

	entries, err := c.Entries(ctx, "brunch")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "brunch", entries[1].NormalizedKey)
}

func TestCache_LookupError(t *testing.T) {
	mr, c := setupTestCache(t)
	mr.SetError("server down")

	_, ok, err := c.Lookup(context.Background(), "anything")
	assert.Error(t, err)
	assert.False(t, ok)
}
