// Package export turns snapshots and delivery details into spreadsheet
// tables and publishes them to Google Sheets.
package export

import (
	"math"
	"strconv"
	"strings"

	"github.com/stockpilot/stockpilot/internal/ledger"
	"github.com/stockpilot/stockpilot/internal/reorder"
)

// Table is the cell grid handed to a publisher. Every cell is already a
// string; numeric formatting happens when the table is built.
type Table struct {
	Header []string
	Rows   [][]string
}

// snapshotColumns is the fixed column order of the reorder export.
var snapshotColumns = []string{
	"ProductID", "Product Number", "Size", "Product Name", "Status", "Is Bundle",
	"Supplier", "Purchase Price", "Quantity Sold", "Stock Balance",
	"Avg Daily Sales", "Days to Zero", "Reorder Level",
	"Quantity to Order", "Need to Order", "Incoming Qty", "Stock + Incoming",
}

// SnapshotTable lays a reorder snapshot out in the fixed export order.
func SnapshotTable(rows []reorder.Row) Table {
	table := Table{Header: snapshotColumns}
	for _, row := range rows {
		daysToZero := ""
		if row.DaysToZero != nil {
			daysToZero = strconv.Itoa(*row.DaysToZero)
		}
		table.Rows = append(table.Rows, []string{
			row.ProductID,
			row.ProductNumber,
			row.Size,
			row.ProductName,
			row.Status,
			formatBool(row.IsBundle),
			row.Supplier,
			row.PurchasePrice.String(),
			strconv.Itoa(row.QuantitySold),
			strconv.Itoa(row.StockBalance),
			formatFloat(row.AvgDailySales),
			daysToZero,
			formatFloat(row.ReorderLevel),
			formatFloat(row.QuantityToOrder),
			formatBool(row.NeedToOrder),
			strconv.Itoa(row.IncomingQty),
			strconv.Itoa(row.StockPlusIncoming),
		})
	}
	return table
}

// DeliveryTable lays delivery lines out for the order export handed to a
// supplier.
func DeliveryTable(lines []ledger.Line) Table {
	table := Table{Header: []string{"ProductID", "Product Number", "Product Name", "Size", "Quantity Ordered", "Purchase Price"}}
	for _, line := range lines {
		table.Rows = append(table.Rows, []string{
			line.ProductID,
			line.ProductNumber,
			line.ProductName,
			line.Size,
			strconv.Itoa(line.QuantityOrdered),
			line.PurchasePrice.String(),
		})
	}
	return table
}

// Sanitize blanks cells holding non-finite numbers. Sheets rejects NaN
// and infinities in a values payload, and an empty cell reads better than
// an error string anyway.
func Sanitize(table Table) Table {
	out := Table{Header: table.Header, Rows: make([][]string, len(table.Rows))}
	for i, row := range table.Rows {
		clean := make([]string, len(row))
		for j, cell := range row {
			clean[j] = cell
			if f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err == nil {
				if math.IsNaN(f) || math.IsInf(f, 0) {
					clean[j] = ""
				}
			}
		}
		out.Rows[i] = clean
	}
	return out
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatBool(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
