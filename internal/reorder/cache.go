package reorder

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const snapshotKey = "reorder:snapshot"

// ErrCacheMiss indicates no snapshot is cached.
var ErrCacheMiss = errors.New("reorder: snapshot not cached")

// Cache keeps the latest snapshot in Redis so views and receipts do not
// refetch the whole catalog. A nil client disables caching; every method
// degrades to a no-op or a miss.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Put stores the snapshot, replacing any previous one.
func (c *Cache) Put(ctx context.Context, rows []Row) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, snapshotKey, raw, c.ttl).Err()
}

// Get returns the cached snapshot or ErrCacheMiss.
func (c *Cache) Get(ctx context.Context) ([]Row, error) {
	if c == nil || c.client == nil {
		return nil, ErrCacheMiss
	}
	raw, err := c.client.Get(ctx, snapshotKey).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	var rows []Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Invalidate drops the cached snapshot.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, snapshotKey).Err()
}

// ApplyReceipt folds a received delivery line into the cached snapshot:
// stock goes up by the received quantity, incoming goes down, and the
// purchase price becomes the new average cost. A miss is not an error;
// the next full refresh rebuilds the snapshot anyway.
func (c *Cache) ApplyReceipt(ctx context.Context, productID, size string, receivedQty int, newCost decimal.Decimal) error {
	rows, err := c.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return nil
		}
		return err
	}
	for i := range rows {
		if rows[i].ProductID != productID || rows[i].Size != size {
			continue
		}
		rows[i].StockBalance += receivedQty
		if rows[i].IncomingQty >= receivedQty {
			rows[i].IncomingQty -= receivedQty
		} else {
			rows[i].IncomingQty = 0
		}
		rows[i].StockPlusIncoming = rows[i].StockBalance + rows[i].IncomingQty
		if !newCost.IsZero() {
			rows[i].PurchasePrice = newCost
		}
	}
	return c.Put(ctx, rows)
}
