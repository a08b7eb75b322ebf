package reorder

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/stockpilot/stockpilot/internal/commerce"
	"github.com/stockpilot/stockpilot/internal/ledger"
)

// AggregateSales sums sold quantities per product and size over the
// window. Both bounds are inclusive.
func AggregateSales(sales []commerce.SaleLine) map[ledger.ItemKey]int {
	sold := make(map[ledger.ItemKey]int)
	for _, line := range sales {
		sold[ledger.ItemKey{ProductID: line.ProductID, Size: line.Size}] += line.Quantity
	}
	return sold
}

// WindowDays returns the inclusive day count of the sales window. A
// single-day window counts as one day, never zero.
func WindowDays(from, to time.Time) (int, error) {
	if to.Before(from) {
		return 0, fmt.Errorf("reorder: window end %s before start %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	return int(to.Sub(from).Hours()/24) + 1, nil
}

// ComputeSnapshot derives the full reorder snapshot from the product
// catalog, the sales of the window and the active order ledger. Rows come
// back sorted by product id then size.
func ComputeSnapshot(products []commerce.ProductStock, sales []commerce.SaleLine, from, to time.Time, params Params, incoming map[ledger.ItemKey]int) ([]Row, error) {
	days, err := WindowDays(from, to)
	if err != nil {
		return nil, err
	}
	sold := AggregateSales(sales)

	rows := make([]Row, 0, len(products))
	for _, p := range products {
		key := ledger.ItemKey{ProductID: p.ProductID, Size: p.Size}
		row := Row{
			ProductStock: p,
			QuantitySold: sold[key],
			IncomingQty:  incoming[key],
		}
		row.AvgDailySales = round1(float64(row.QuantitySold) / float64(days))
		row.ReorderLevel = row.AvgDailySales*float64(params.LeadTimeDays) + float64(params.SafetyStock)
		row.QuantityToOrder = math.Max(row.ReorderLevel-float64(p.StockBalance), 0)
		row.NeedToOrder = row.QuantityToOrder > 0
		if row.AvgDailySales > 0 {
			d := int(math.RoundToEven(float64(p.StockBalance) / row.AvgDailySales))
			row.DaysToZero = &d
		}
		row.StockPlusIncoming = p.StockBalance + row.IncomingQty
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ProductID != rows[j].ProductID {
			return rows[i].ProductID < rows[j].ProductID
		}
		return rows[i].Size < rows[j].Size
	})
	return rows, nil
}

// Filter keeps the rows matching every set option.
func Filter(rows []Row, opts FilterOptions) []Row {
	suppliers := toSet(opts.Suppliers)
	collections := toSet(opts.Collections)

	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if opts.ActiveOnly && row.Status != "ACTIVE" {
			continue
		}
		if opts.ExcludeBundles && row.IsBundle {
			continue
		}
		if len(suppliers) > 0 && !suppliers[row.Supplier] {
			continue
		}
		if len(collections) > 0 && !anyIn(row.Collections, collections) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func anyIn(values []string, set map[string]bool) bool {
	for _, v := range values {
		if set[v] {
			return true
		}
	}
	return false
}
