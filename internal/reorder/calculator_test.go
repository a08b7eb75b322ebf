package reorder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stockpilot/stockpilot/internal/commerce"
	"github.com/stockpilot/stockpilot/internal/ledger"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestWindowDaysIsInclusive(t *testing.T) {
	days, err := WindowDays(day("2026-08-01"), day("2026-08-01"))
	require.NoError(t, err)
	require.Equal(t, 1, days)

	days, err = WindowDays(day("2026-08-01"), day("2026-08-30"))
	require.NoError(t, err)
	require.Equal(t, 30, days)

	_, err = WindowDays(day("2026-08-30"), day("2026-08-01"))
	require.Error(t, err)
}

func TestComputeSnapshotDerivesColumns(t *testing.T) {
	products := []commerce.ProductStock{
		{ProductID: "P1", Size: "M", StockBalance: 20, Status: "ACTIVE"},
		{ProductID: "P2", Size: "N/A", StockBalance: 50, Status: "ACTIVE"},
	}
	sales := []commerce.SaleLine{
		{ProductID: "P1", Size: "M", Quantity: 30},
		{ProductID: "P1", Size: "M", Quantity: 15},
	}
	incoming := map[ledger.ItemKey]int{
		{ProductID: "P1", Size: "M"}: 12,
	}

	rows, err := ComputeSnapshot(products, sales, day("2026-08-01"), day("2026-08-30"), Params{LeadTimeDays: 7, SafetyStock: 10}, incoming)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// 45 sold over 30 days: 1.5/day, level 1.5*7+10 = 20.5, short by 0.5.
	p1 := rows[0]
	require.Equal(t, "P1", p1.ProductID)
	require.Equal(t, 45, p1.QuantitySold)
	require.InDelta(t, 1.5, p1.AvgDailySales, 1e-9)
	require.InDelta(t, 20.5, p1.ReorderLevel, 1e-9)
	require.InDelta(t, 0.5, p1.QuantityToOrder, 1e-9)
	require.True(t, p1.NeedToOrder)
	require.NotNil(t, p1.DaysToZero)
	require.Equal(t, 13, *p1.DaysToZero)
	require.Equal(t, 12, p1.IncomingQty)
	require.Equal(t, 32, p1.StockPlusIncoming)

	// No sales: no depletion estimate, never negative order quantity.
	p2 := rows[1]
	require.Zero(t, p2.QuantitySold)
	require.Zero(t, p2.AvgDailySales)
	require.Nil(t, p2.DaysToZero)
	require.InDelta(t, 10, p2.ReorderLevel, 1e-9)
	require.Zero(t, p2.QuantityToOrder)
	require.False(t, p2.NeedToOrder)
	require.Equal(t, 50, p2.StockPlusIncoming)
}

func TestComputeSnapshotRoundsAverageToOneDecimal(t *testing.T) {
	products := []commerce.ProductStock{{ProductID: "P1", Size: "M", StockBalance: 10}}
	sales := []commerce.SaleLine{{ProductID: "P1", Size: "M", Quantity: 10}}

	// 10 sold over 30 days is 0.333...; stored as 0.3.
	rows, err := ComputeSnapshot(products, sales, day("2026-08-01"), day("2026-08-30"), Params{LeadTimeDays: 7, SafetyStock: 0}, nil)
	require.NoError(t, err)
	require.InDelta(t, 0.3, rows[0].AvgDailySales, 1e-9)
	require.InDelta(t, 2.1, rows[0].ReorderLevel, 1e-9)
}

func TestComputeSnapshotDaysToZeroRoundsHalfToEven(t *testing.T) {
	products := []commerce.ProductStock{
		{ProductID: "P1", Size: "M", StockBalance: 5},
		{ProductID: "P2", Size: "M", StockBalance: 15},
	}
	sales := []commerce.SaleLine{
		{ProductID: "P1", Size: "M", Quantity: 20},
		{ProductID: "P2", Size: "M", Quantity: 20},
	}

	// Two days, 10/day: 0.5 rounds to 0, 1.5 rounds to 2.
	rows, err := ComputeSnapshot(products, sales, day("2026-08-01"), day("2026-08-02"), Params{}, nil)
	require.NoError(t, err)
	require.Equal(t, 0, *rows[0].DaysToZero)
	require.Equal(t, 2, *rows[1].DaysToZero)
}

func TestFilter(t *testing.T) {
	rows := []Row{
		{ProductStock: commerce.ProductStock{ProductID: "P1", Status: "ACTIVE", Supplier: "Acme", Collections: []string{"Summer"}}},
		{ProductStock: commerce.ProductStock{ProductID: "P2", Status: "INACTIVE", Supplier: "Acme"}},
		{ProductStock: commerce.ProductStock{ProductID: "P3", Status: "ACTIVE", Supplier: "Bolt", IsBundle: true, Collections: []string{"Summer", "Sale"}}},
	}

	require.Len(t, Filter(rows, FilterOptions{}), 3)

	out := Filter(rows, FilterOptions{ActiveOnly: true})
	require.Len(t, out, 2)

	out = Filter(rows, FilterOptions{ActiveOnly: true, ExcludeBundles: true})
	require.Len(t, out, 1)
	require.Equal(t, "P1", out[0].ProductID)

	out = Filter(rows, FilterOptions{Suppliers: []string{"Bolt"}})
	require.Len(t, out, 1)
	require.Equal(t, "P3", out[0].ProductID)

	out = Filter(rows, FilterOptions{Collections: []string{"Sale"}})
	require.Len(t, out, 1)
	require.Equal(t, "P3", out[0].ProductID)
}
