package reorder

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot/stockpilot/internal/commerce"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Hour)
}

func TestCacheRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	_, err := cache.Get(ctx)
	require.ErrorIs(t, err, ErrCacheMiss)

	rows := []Row{
		{ProductStock: commerce.ProductStock{ProductID: "P1", Size: "M", StockBalance: 20, PurchasePrice: decimal.NewFromInt(4)}, IncomingQty: 10, StockPlusIncoming: 30},
	}
	require.NoError(t, cache.Put(ctx, rows))

	got, err := cache.Get(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, 20, got[0].StockBalance)
	require.True(t, got[0].PurchasePrice.Equal(decimal.NewFromInt(4)))

	require.NoError(t, cache.Invalidate(ctx))
	_, err = cache.Get(ctx)
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestCacheApplyReceipt(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	rows := []Row{
		{ProductStock: commerce.ProductStock{ProductID: "P1", Size: "M", StockBalance: 20, PurchasePrice: decimal.NewFromInt(4)}, IncomingQty: 10, StockPlusIncoming: 30},
		{ProductStock: commerce.ProductStock{ProductID: "P2", Size: "M", StockBalance: 5}, StockPlusIncoming: 5},
	}
	require.NoError(t, cache.Put(ctx, rows))

	require.NoError(t, cache.ApplyReceipt(ctx, "P1", "M", 10, decimal.RequireFromString("4.75")))

	got, err := cache.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 30, got[0].StockBalance)
	require.Zero(t, got[0].IncomingQty)
	require.Equal(t, 30, got[0].StockPlusIncoming)
	require.True(t, got[0].PurchasePrice.Equal(decimal.RequireFromString("4.75")))

	// Untouched rows keep their values.
	require.Equal(t, 5, got[1].StockBalance)
}

func TestCacheApplyReceiptOnMissIsNoop(t *testing.T) {
	cache := newTestCache(t)
	require.NoError(t, cache.ApplyReceipt(context.Background(), "P1", "M", 3, decimal.Zero))
}

func TestNilCacheDegrades(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, nil))
	_, err := cache.Get(ctx)
	require.ErrorIs(t, err, ErrCacheMiss)
	require.NoError(t, cache.Invalidate(ctx))
	require.NoError(t, cache.ApplyReceipt(ctx, "P1", "M", 1, decimal.Zero))
}
