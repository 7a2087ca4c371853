package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/burzuercher/group-meal-planner-sub001/pkg/budget"
)

func setupTestStore(t *testing.T) (*miniredis.Miniredis, *Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, New(client, "test")
}

func TestStore_GetMissing(t *testing.T) {
	_, s := setupTestStore(t)
	_, exists, err := s.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_IncrementRoundTrip(t *testing.T) {
	mr, s := setupTestStore(t)
	ctx := context.Background()

	st, err := s.Increment(ctx, 39_000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.UnitsGenerated)
	assert.Equal(t, int64(39_000), st.TotalCostMicros)

	_, err = s.Increment(ctx, 39_000)
	require.NoError(t, err)

	got, exists, err := s.Get(ctx)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int64(2), got.UnitsGenerated)
	assert.Equal(t, int64(78_000), got.TotalCostMicros)
	assert.False(t, got.LastUpdated.IsZero())
	assert.Equal(t, "2", mr.HGet("test:budget", "units_generated"))
}

func TestStore_ConcurrentIncrements(t *testing.T) {
	_, s := setupTestStore(t)
	ctx := context.Background()
	const n = 50

	var g errgroup.Group
	for range n {
		g.Go(func() error {
			_, err := s.Increment(ctx, 40_000)
			return err
		})
	}
	require.NoError(t, g.Wait())

	st, _, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(n), st.UnitsGenerated)
	assert.Equal(t, int64(n*40_000), st.TotalCostMicros)
}

func TestStore_CorruptRecord(t *testing.T) {
	mr, s := setupTestStore(t)
	mr.HSet("test:budget", "units_generated", "lots")

	_, _, err := s.Get(context.Background())
	assert.Error(t, err)
}

func TestStore_LedgerFailsOnOutage(t *testing.T) {
	mr, s := setupTestStore(t)
	l := budget.New(s, 1, 0.04)
	mr.SetError("LOADING")

	_, err := l.CheckAvailable(context.Background())
	assert.Error(t, err)
	_, err = l.CommitIncrement(context.Background())
	assert.Error(t, err)
}
