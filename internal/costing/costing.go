// Package costing owns weighted-average inventory valuation: the blending
// rule applied on receipt and the persisted per-product average cost table.
package costing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockpilot/stockpilot/internal/platform/storage"
)

const tableName = "product_costs"

const timeLayout = "2006-01-02 15:04:05"

var header = []string{"ProductID", "AvgCost", "LastUpdated"}

// Record is the stored average cost of one product.
type Record struct {
	ProductID   string
	AvgCost     decimal.Decimal
	LastUpdated time.Time
}

// WeightedAverage blends the cost of stock on hand with a received batch,
// proportional to quantities. This is the valuation rule for the whole
// system; the fallbacks are deliberate:
//   - no stock on hand values the inventory at the received cost,
//   - a non-positive combined quantity keeps the current average.
//
// The result is rounded to 2 decimals.
func WeightedAverage(currentStock int, currentAvg decimal.Decimal, receivedQty int, landedCost decimal.Decimal) decimal.Decimal {
	if currentStock <= 0 {
		return landedCost
	}
	total := currentStock + receivedQty
	if total <= 0 {
		return currentAvg
	}
	stock := decimal.NewFromInt(int64(currentStock))
	received := decimal.NewFromInt(int64(receivedQty))
	blended := stock.Mul(currentAvg).Add(received.Mul(landedCost)).Div(decimal.NewFromInt(int64(total)))
	return blended.Round(2)
}

// Store persists average cost records as a whole table.
type Store struct {
	tables storage.TableStore
	now    func() time.Time
}

// NewStore builds a Store over the given table backend.
func NewStore(tables storage.TableStore) *Store {
	return &Store{tables: tables, now: time.Now}
}

// Get returns the current average cost for a product, zero when unknown.
func (s *Store) Get(ctx context.Context, productID string) (decimal.Decimal, error) {
	records, err := s.All(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	for _, rec := range records {
		if rec.ProductID == productID {
			return rec.AvgCost, nil
		}
	}
	return decimal.Zero, nil
}

// Put upserts the average cost for a product, stamping LastUpdated, and
// rewrites the table.
func (s *Store) Put(ctx context.Context, productID string, cost decimal.Decimal) error {
	records, err := s.All(ctx)
	if err != nil {
		return err
	}
	updated := false
	for i := range records {
		if records[i].ProductID == productID {
			records[i].AvgCost = cost
			records[i].LastUpdated = s.now()
			updated = true
			break
		}
	}
	if !updated {
		records = append(records, Record{ProductID: productID, AvgCost: cost, LastUpdated: s.now()})
	}
	return s.persist(ctx, records)
}

// All loads every record. A never-saved table is an empty list.
func (s *Store) All(ctx context.Context) ([]Record, error) {
	rows, err := s.tables.Load(ctx, tableName)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 2 || row[0] == "" {
			continue
		}
		cost, err := decimal.NewFromString(row[1])
		if err != nil {
			cost = decimal.Zero
		}
		rec := Record{ProductID: row[0], AvgCost: cost}
		if len(row) > 2 && row[2] != "" {
			if ts, err := time.Parse(timeLayout, row[2]); err == nil {
				rec.LastUpdated = ts
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Store) persist(ctx context.Context, records []Record) error {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, header)
	for _, rec := range records {
		stamp := ""
		if !rec.LastUpdated.IsZero() {
			stamp = rec.LastUpdated.Format(timeLayout)
		}
		rows = append(rows, []string{rec.ProductID, rec.AvgCost.String(), stamp})
	}
	if err := s.tables.Save(ctx, tableName, rows); err != nil {
		return fmt.Errorf("costing: persist: %w", err)
	}
	return nil
}
