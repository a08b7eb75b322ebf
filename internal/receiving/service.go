// Package receiving handles the arrival of a delivery: landed cost per
// line, a new weighted-average cost per product, and the ledger flip
// from active to received.
package receiving

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stockpilot/stockpilot/internal/costing"
	"github.com/stockpilot/stockpilot/internal/ledger"
	"github.com/stockpilot/stockpilot/internal/pricelist"
)

// LedgerPort is the slice of the order ledger the workflow needs.
type LedgerPort interface {
	VerifyActive(ctx context.Context, orderName string) error
	Lines(ctx context.Context, orderName string, includeInactive bool) ([]ledger.Line, error)
	ApplyReceipt(ctx context.Context, orderName string, updates []ledger.ReceiptUpdate) error
}

// PriceFinder resolves purchase prices for lines uploaded without one.
type PriceFinder interface {
	Find(ctx context.Context, productID, size string) (pricelist.Entry, error)
}

// CostStore reads and writes the rolling average cost per product.
type CostStore interface {
	Get(ctx context.Context, productID string) (decimal.Decimal, error)
	Put(ctx context.Context, productID string, cost decimal.Decimal) error
}

// StockFetcher returns live stock for one product and size.
type StockFetcher interface {
	FetchCurrentStock(ctx context.Context, productID, size string) (int, error)
}

// SnapshotUpdater folds receipts into the cached reorder snapshot.
type SnapshotUpdater interface {
	ApplyReceipt(ctx context.Context, productID, size string, receivedQty int, newCost decimal.Decimal) error
}

// LineInput carries the submitted receipt values for one line. Numeric
// fields arrive as raw strings; anything unparseable counts as zero and
// is reported as a warning rather than failing the whole receipt.
type LineInput struct {
	ProductID    string
	Size         string
	ReceivedQty  string
	Price        string
	Currency     string
	ExchangeRate string
	Shipping     string
	Customs      string
	Comment      string
}

// ReceivedLine is the outcome for one line.
type ReceivedLine struct {
	ProductID   string
	Size        string
	ReceivedQty int
	LandedCost  decimal.Decimal
	NewAvgCost  decimal.Decimal
}

// Result reports what a receipt did.
type Result struct {
	OrderName string
	Lines     []ReceivedLine
	Warnings  []string
}

// LineStock pairs a ledger line with its live stock balance.
type LineStock struct {
	ledger.Line
	CurrentStock int
}

type Service struct {
	ledger   LedgerPort
	prices   PriceFinder
	costs    CostStore
	stock    StockFetcher
	snapshot SnapshotUpdater
	logger   *slog.Logger
}

func NewService(lp LedgerPort, prices PriceFinder, costs CostStore, stock StockFetcher, snapshot SnapshotUpdater, logger *slog.Logger) *Service {
	return &Service{ledger: lp, prices: prices, costs: costs, stock: stock, snapshot: snapshot, logger: logger}
}

// Receive records the arrival of a delivery. Per line it computes the
// landed unit cost, blends it into the product's weighted-average cost and
// marks the line received. The delivery must be active; ledger.ErrNotFound
// and ledger.ErrNotActive pass through unchanged.
func (s *Service) Receive(ctx context.Context, orderName string, inputs []LineInput) (*Result, error) {
	if err := s.ledger.VerifyActive(ctx, orderName); err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("receiving: no lines submitted for %q", orderName)
	}

	result := &Result{OrderName: orderName}
	updates := make([]ledger.ReceiptUpdate, 0, len(inputs))

	for _, in := range inputs {
		productID := strings.ToUpper(strings.TrimSpace(in.ProductID))
		qty := result.parseInt(productID, "received quantity", in.ReceivedQty)
		price := result.parseDecimal(productID, "price", in.Price)
		rate := result.parseDecimal(productID, "exchange rate", in.ExchangeRate)
		shipping := result.parseDecimal(productID, "shipping", in.Shipping)
		customs := result.parseDecimal(productID, "customs", in.Customs)
		currency := strings.TrimSpace(in.Currency)

		if price.IsZero() {
			entry, err := s.prices.Find(ctx, productID, in.Size)
			switch {
			case err == nil:
				price = entry.Price
				if currency == "" {
					currency = entry.Currency
				}
			case errors.Is(err, pricelist.ErrNotFound):
				result.warnf("%s/%s: no price submitted and none in the price list", productID, in.Size)
			default:
				return nil, err
			}
		}
		if rate.IsZero() {
			rate = decimal.NewFromInt(1)
		}

		landed := price.Mul(rate)
		if qty > 0 {
			perUnit := decimal.NewFromInt(int64(qty))
			landed = landed.Add(shipping.Div(perUnit)).Add(customs.Div(perUnit))
		}
		landed = landed.Round(2)

		stock := 0
		if qty > 0 {
			var err error
			stock, err = s.stock.FetchCurrentStock(ctx, productID, in.Size)
			if err != nil {
				result.warnf("%s/%s: stock lookup failed, assuming zero: %v", productID, in.Size, err)
				stock = 0
			}
		}
		currentAvg, err := s.costs.Get(ctx, productID)
		if err != nil {
			return nil, err
		}
		newAvg := costing.WeightedAverage(stock, currentAvg, qty, landed)
		if qty > 0 {
			if err := s.costs.Put(ctx, productID, newAvg); err != nil {
				return nil, err
			}
		}

		updates = append(updates, ledger.ReceiptUpdate{
			Key:          ledger.ItemKey{ProductID: productID, Size: in.Size},
			ReceivedQty:  qty,
			LandedCost:   landed,
			Currency:     currency,
			ExchangeRate: rate,
			Shipping:     shipping,
			Customs:      customs,
			Comment:      strings.TrimSpace(in.Comment),
		})
		result.Lines = append(result.Lines, ReceivedLine{
			ProductID:   productID,
			Size:        in.Size,
			ReceivedQty: qty,
			LandedCost:  landed,
			NewAvgCost:  newAvg,
		})
	}

	if err := s.ledger.ApplyReceipt(ctx, orderName, updates); err != nil {
		return nil, err
	}

	// Snapshot updates are best effort; the next refresh rebuilds it.
	if s.snapshot != nil {
		for _, line := range result.Lines {
			if line.ReceivedQty == 0 {
				continue
			}
			if err := s.snapshot.ApplyReceipt(ctx, line.ProductID, line.Size, line.ReceivedQty, line.NewAvgCost); err != nil {
				s.logger.Warn("snapshot receipt update failed", "product", line.ProductID, "size", line.Size, "error", err)
			}
		}
	}

	s.logger.Info("delivery received", "order", orderName, "lines", len(result.Lines), "warnings", len(result.Warnings))
	return result, nil
}

// RefreshStock returns the active lines of a delivery with live stock
// balances, the figures shown while keying in a receipt. A failed lookup
// degrades to zero with a warning instead of blocking the workflow.
func (s *Service) RefreshStock(ctx context.Context, orderName string) ([]LineStock, []string, error) {
	lines, err := s.ledger.Lines(ctx, orderName, false)
	if err != nil {
		return nil, nil, err
	}
	var warnings []string
	out := make([]LineStock, 0, len(lines))
	for _, line := range lines {
		stock, err := s.stock.FetchCurrentStock(ctx, line.ProductID, line.Size)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s/%s: stock lookup failed: %v", line.ProductID, line.Size, err))
			stock = 0
		}
		out = append(out, LineStock{Line: line, CurrentStock: stock})
	}
	return out, warnings, nil
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Result) parseInt(productID, field, raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		r.warnf("%s: %s %q is not a number, using 0", productID, field, raw)
		return 0
	}
	return n
}

func (r *Result) parseDecimal(productID, field, raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		r.warnf("%s: %s %q is not a number, using 0", productID, field, raw)
		return decimal.Zero
	}
	return d
}
