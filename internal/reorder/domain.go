// Package reorder computes the reorder snapshot: per product and size,
// how fast it sells, when it runs out and how much to order.
package reorder

import "github.com/stockpilot/stockpilot/internal/commerce"

// Row is one snapshot line. The embedded product carries the catalog and
// stock columns; the rest is derived from the sales window and the order
// ledger.
type Row struct {
	commerce.ProductStock

	QuantitySold      int     `json:"quantitySold"`
	AvgDailySales     float64 `json:"avgDailySales"`
	DaysToZero        *int    `json:"daysToZero"`
	ReorderLevel      float64 `json:"reorderLevel"`
	QuantityToOrder   float64 `json:"quantityToOrder"`
	NeedToOrder       bool    `json:"needToOrder"`
	IncomingQty       int     `json:"incomingQty"`
	StockPlusIncoming int     `json:"stockPlusIncoming"`
}

// Params are the replenishment knobs applied uniformly to every row.
type Params struct {
	LeadTimeDays int
	SafetyStock  int
}

// FilterOptions narrows a snapshot for display. Zero value keeps
// everything.
type FilterOptions struct {
	ActiveOnly     bool
	ExcludeBundles bool
	Suppliers      []string
	Collections    []string
}
