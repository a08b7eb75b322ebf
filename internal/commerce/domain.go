// Package commerce is the gateway to the commerce backend's GraphQL API.
// It returns normalized records; callers never see the wire shapes.
package commerce

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Supplier is a normalized supplier record.
type Supplier struct {
	ID     int
	Name   string
	Status string
}

// Variant is one product/size supplied by a supplier.
type Variant struct {
	ProductID     string
	ProductName   string
	ProductNumber string
	Status        string
	IsBundle      bool
	Size          string
	StockQuantity int
}

// ProductStock is one merged row per (ProductID, Size): supplier catalog
// data joined with warehouse stock and unit cost. Immutable per fetch.
type ProductStock struct {
	ProductID     string
	ProductNumber string
	ProductName   string
	Supplier      string
	Status        string
	IsBundle      bool
	Size          string
	StockBalance  int
	PurchasePrice decimal.Decimal
	Collections   []string
}

// SaleLine is one sold order line within the queried window.
type SaleLine struct {
	ProductID string
	Size      string
	Quantity  int
}

// NoSupplier marks warehouse stock rows with no supplying catalog entry.
const NoSupplier = "No Supplier"

// NoSize is the placeholder for products without size variants.
const NoSize = "N/A"

var (
	// ErrNotConfigured indicates a missing endpoint or token.
	ErrNotConfigured = errors.New("commerce: endpoint and token required")
	// ErrGraphQL indicates the backend answered with a GraphQL error array.
	ErrGraphQL = errors.New("commerce: graphql error")
)
