package sales

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*SummaryCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSummaryCache(client), mr
}

func TestSummaryCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	day := time.Date(2025, time.March, 14, 11, 30, 0, 0, time.UTC)

	missed, err := cache.Get(ctx, day)
	require.NoError(t, err)
	require.Nil(t, missed)

	summary := Summary{TotalSales: 3, TotalRevenue: 2750.5, TotalItems: 7}
	require.NoError(t, cache.Set(ctx, day, summary))

	cached, err := cache.Get(ctx, day)
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.Equal(t, summary, *cached)

	// Any time on the same day maps to the same key.
	sameDay := day.Add(5 * time.Hour)
	cached, err = cache.Get(ctx, sameDay)
	require.NoError(t, err)
	require.NotNil(t, cached)
}

func TestSummaryCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()
	day := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)

	require.NoError(t, cache.Set(ctx, day, Summary{TotalSales: 1}))
	require.NoError(t, cache.Invalidate(ctx, day))

	cached, err := cache.Get(ctx, day)
	require.NoError(t, err)
	require.Nil(t, cached)
}

func TestSummaryCacheExpires(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()
	day := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)

	require.NoError(t, cache.Set(ctx, day, Summary{TotalSales: 1}))
	mr.FastForward(summaryTTL + time.Minute)

	cached, err := cache.Get(ctx, day)
	require.NoError(t, err)
	require.Nil(t, cached)
}
