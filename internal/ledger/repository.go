package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stockpilot/stockpilot/internal/platform/storage"
)

const (
	tableName  = "active_orders"
	timeLayout = "2006-01-02 15:04:05"
)

var header = []string{
	"LineID", "OrderName", "OrderDate",
	"ProductID", "ProductNumber", "ProductName", "Supplier", "Size",
	"PurchasePrice", "QuantityOrdered", "Active",
	"ReceivedQty", "LandedCost", "Currency", "ExchangeRate", "Shipping", "Customs", "Comment",
}

// Repository persists the full ledger as one table. Every mutation goes
// through ReplaceAll; the backing store owns atomicity.
type Repository struct {
	tables storage.TableStore
}

func NewRepository(tables storage.TableStore) *Repository {
	return &Repository{tables: tables}
}

// All loads every ledger line. A missing table is an empty ledger.
func (r *Repository) All(ctx context.Context) ([]Line, error) {
	rows, err := r.tables.Load(ctx, tableName)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	lines := make([]Line, 0, len(rows)-1)
	for _, row := range rows[1:] {
		line, err := decodeLine(row)
		if err != nil {
			return nil, fmt.Errorf("ledger: decode row: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// ReplaceAll writes the given lines as the complete ledger.
func (r *Repository) ReplaceAll(ctx context.Context, lines []Line) error {
	rows := make([][]string, 0, len(lines)+1)
	rows = append(rows, header)
	for _, line := range lines {
		rows = append(rows, encodeLine(line))
	}
	return r.tables.Save(ctx, tableName, rows)
}

func encodeLine(l Line) []string {
	return []string{
		l.LineID, l.OrderName, l.OrderDate.Format(timeLayout),
		l.ProductID, l.ProductNumber, l.ProductName, l.Supplier, l.Size,
		l.PurchasePrice.String(), strconv.Itoa(l.QuantityOrdered), strconv.FormatBool(l.Active),
		strconv.Itoa(l.ReceivedQty), l.LandedCost.String(), l.Currency,
		l.ExchangeRate.String(), l.Shipping.String(), l.Customs.String(), l.Comment,
	}
}

func decodeLine(row []string) (Line, error) {
	if len(row) < len(header) {
		return Line{}, fmt.Errorf("expected %d columns, got %d", len(header), len(row))
	}
	orderDate, err := time.Parse(timeLayout, row[2])
	if err != nil {
		return Line{}, fmt.Errorf("order date %q: %w", row[2], err)
	}
	qty, err := strconv.Atoi(row[9])
	if err != nil {
		return Line{}, fmt.Errorf("quantity %q: %w", row[9], err)
	}
	active, err := strconv.ParseBool(row[10])
	if err != nil {
		return Line{}, fmt.Errorf("active flag %q: %w", row[10], err)
	}
	received, err := strconv.Atoi(row[11])
	if err != nil {
		return Line{}, fmt.Errorf("received quantity %q: %w", row[11], err)
	}
	return Line{
		LineID:          row[0],
		OrderName:       row[1],
		OrderDate:       orderDate,
		ProductID:       row[3],
		ProductNumber:   row[4],
		ProductName:     row[5],
		Supplier:        row[6],
		Size:            row[7],
		PurchasePrice:   parseDecimal(row[8]),
		QuantityOrdered: qty,
		Active:          active,
		ReceivedQty:     received,
		LandedCost:      parseDecimal(row[12]),
		Currency:        row[13],
		ExchangeRate:    parseDecimal(row[14]),
		Shipping:        parseDecimal(row[15]),
		Customs:         parseDecimal(row[16]),
		Comment:         row[17],
	}, nil
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
