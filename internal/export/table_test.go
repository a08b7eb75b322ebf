package export

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot/stockpilot/internal/commerce"
	"github.com/stockpilot/stockpilot/internal/ledger"
	"github.com/stockpilot/stockpilot/internal/reorder"
)

func TestSnapshotTableColumnOrder(t *testing.T) {
	dtz := 13
	table := SnapshotTable([]reorder.Row{
		{
			ProductStock: commerce.ProductStock{
				ProductID: "P1", ProductNumber: "A-1", ProductName: "Tee",
				Supplier: "Acme", Status: "ACTIVE", Size: "M",
				StockBalance: 20, PurchasePrice: decimal.RequireFromString("4.50"),
			},
			QuantitySold:      45,
			AvgDailySales:     1.5,
			DaysToZero:        &dtz,
			ReorderLevel:      20.5,
			QuantityToOrder:   0.5,
			NeedToOrder:       true,
			IncomingQty:       12,
			StockPlusIncoming: 32,
		},
		{
			ProductStock: commerce.ProductStock{ProductID: "P2", Size: "N/A", IsBundle: true},
		},
	})

	require.Equal(t, snapshotColumns, table.Header)
	require.Equal(t, []string{
		"P1", "A-1", "M", "Tee", "ACTIVE", "No", "Acme", "4.5",
		"45", "20", "1.5", "13", "20.5", "0.5", "Yes", "12", "32",
	}, table.Rows[0])

	// Unknown depletion renders as an empty cell, not a zero.
	require.Equal(t, "", table.Rows[1][11])
	require.Equal(t, "Yes", table.Rows[1][5])
}

func TestDeliveryTable(t *testing.T) {
	table := DeliveryTable([]ledger.Line{
		{ProductID: "P1", ProductNumber: "A-1", ProductName: "Tee", Size: "M", QuantityOrdered: 10, PurchasePrice: decimal.NewFromInt(4)},
	})
	require.Equal(t, []string{"P1", "A-1", "Tee", "M", "10", "4"}, table.Rows[0])
}

func TestSanitizeBlanksNonFiniteCells(t *testing.T) {
	table := Sanitize(Table{
		Header: []string{"A", "B", "C", "D"},
		Rows: [][]string{
			{"NaN", "+Inf", "-Inf", "1.5"},
			{"text", "", "inf", "42"},
		},
	})
	require.Equal(t, []string{"", "", "", "1.5"}, table.Rows[0])
	require.Equal(t, []string{"text", "", "", "42"}, table.Rows[1])
}
