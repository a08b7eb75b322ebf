// Package ledger is the single source of truth for purchase-order lines.
// A delivery is a named batch of lines created together; lines stay active
// until the delivery is received, and cancellation removes them outright.
package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ItemKey identifies a product/size combination across tables.
type ItemKey struct {
	ProductID string
	Size      string
}

// Line is one (OrderName, ProductID, Size) ledger row. The receipt fields
// stay zero until the delivery is received.
type Line struct {
	LineID          string
	OrderName       string
	OrderDate       time.Time
	ProductID       string
	ProductNumber   string
	ProductName     string
	Supplier        string
	Size            string
	PurchasePrice   decimal.Decimal
	QuantityOrdered int
	Active          bool

	// Populated on receipt.
	ReceivedQty  int
	LandedCost   decimal.Decimal
	Currency     string
	ExchangeRate decimal.Decimal
	Shipping     decimal.Decimal
	Customs      decimal.Decimal
	Comment      string
}

// Key returns the product/size key of the line.
func (l Line) Key() ItemKey {
	return ItemKey{ProductID: l.ProductID, Size: l.Size}
}

// LineInput describes one requested line when creating a delivery.
type LineInput struct {
	ProductID     string `validate:"required"`
	ProductNumber string
	ProductName   string
	Supplier      string `validate:"required"`
	Size          string `validate:"required"`
	PurchasePrice decimal.Decimal
	Quantity      int
}

// Summary is the per-delivery aggregate used by list views.
type Summary struct {
	OrderName    string
	OrderDate    time.Time
	QuantitySum  int
	ProductCount int
}

// ReceiptUpdate carries the received values applied to one line.
type ReceiptUpdate struct {
	Key          ItemKey
	ReceivedQty  int
	LandedCost   decimal.Decimal
	Currency     string
	ExchangeRate decimal.Decimal
	Shipping     decimal.Decimal
	Customs      decimal.Decimal
	Comment      string
}

// ReactivateOptions controls what happens to recorded receipt values when a
// completed delivery is reopened. The default keeps them, matching the
// previous observed behavior; ClearReceipt blanks them to avoid stale
// values being shown as if they were new.
type ReactivateOptions struct {
	ClearReceipt bool
}

var (
	// ErrNotFound indicates the order name is unknown.
	ErrNotFound = errors.New("ledger: delivery not found")
	// ErrNotActive indicates the delivery exists but has no active lines.
	ErrNotActive = errors.New("ledger: delivery is no longer active")
	// ErrNoLines indicates a creation where no valid line remained.
	ErrNoLines = errors.New("ledger: no lines with positive quantity")
	// ErrValidation indicates malformed creation input.
	ErrValidation = errors.New("ledger: invalid input")
)
