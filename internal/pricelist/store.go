// Package pricelist maintains the supplier price list: one price/currency
// per (ProductID, Size). The table is small enough that every operation is
// a whole-table read and rewrite.
package pricelist

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/stockpilot/stockpilot/internal/platform/storage"
	"github.com/stockpilot/stockpilot/internal/upload"
)

const tableName = "price_lists"

var header = []string{"ProductID", "Size", "Price", "Currency"}

// RequiredColumns names the columns a bulk upload must carry.
var RequiredColumns = []string{"ProductID", "Size", "Price", "Currency"}

var (
	// ErrExists indicates the (ProductID, Size) key is already present.
	ErrExists = errors.New("pricelist: entry already exists")
	// ErrNotFound indicates the key is absent.
	ErrNotFound = errors.New("pricelist: entry not found")
	// ErrValidation indicates a malformed entry or upload.
	ErrValidation = errors.New("pricelist: invalid input")
)

// Entry is one price list row.
type Entry struct {
	ProductID string `validate:"required"`
	Size      string `validate:"required"`
	Price     decimal.Decimal
	Currency  string `validate:"required"`
}

// Store is the price list table.
type Store struct {
	tables   storage.TableStore
	validate *validator.Validate
}

// NewStore builds a Store over the given table backend.
func NewStore(tables storage.TableStore) *Store {
	return &Store{tables: tables, validate: validator.New()}
}

func (s *Store) check(entry Entry) error {
	if err := s.validate.Struct(entry); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if entry.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrValidation)
	}
	return nil
}

// All loads every entry. A never-saved table is an empty list.
func (s *Store) All(ctx context.Context) ([]Entry, error) {
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
	entries := make([]Entry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 4 || row[0] == "" {
			continue
		}
		price, err := decimal.NewFromString(row[2])
		if err != nil {
			price = decimal.Zero
		}
		entries = append(entries, Entry{ProductID: row[0], Size: row[1], Price: price, Currency: row[3]})
	}
	return entries, nil
}

// Find returns the entry for (productID, size) or ErrNotFound.
func (s *Store) Find(ctx context.Context, productID, size string) (Entry, error) {
	entries, err := s.All(ctx)
	if err != nil {
		return Entry{}, err
	}
	for _, entry := range entries {
		if entry.ProductID == productID && entry.Size == size {
			return entry, nil
		}
	}
	return Entry{}, fmt.Errorf("pricelist: %s/%s: %w", productID, size, ErrNotFound)
}

// Add inserts a new entry; the (ProductID, Size) key must not exist yet.
func (s *Store) Add(ctx context.Context, entry Entry) error {
	if err := s.check(entry); err != nil {
		return err
	}
	entries, err := s.All(ctx)
	if err != nil {
		return err
	}
	for _, existing := range entries {
		if existing.ProductID == entry.ProductID && existing.Size == entry.Size {
			return fmt.Errorf("pricelist: %s/%s: %w", entry.ProductID, entry.Size, ErrExists)
		}
	}
	return s.persist(ctx, append(entries, entry))
}

// Update changes price and currency of an existing entry.
func (s *Store) Update(ctx context.Context, productID, size string, price decimal.Decimal, currency string) error {
	if err := s.check(Entry{ProductID: productID, Size: size, Price: price, Currency: currency}); err != nil {
		return err
	}
	entries, err := s.All(ctx)
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].ProductID == productID && entries[i].Size == size {
			entries[i].Price = price
			entries[i].Currency = currency
			return s.persist(ctx, entries)
		}
	}
	return fmt.Errorf("pricelist: %s/%s: %w", productID, size, ErrNotFound)
}

// Delete removes an existing entry.
func (s *Store) Delete(ctx context.Context, productID, size string) error {
	entries, err := s.All(ctx)
	if err != nil {
		return err
	}
	kept := entries[:0]
	removed := false
	for _, entry := range entries {
		if entry.ProductID == productID && entry.Size == size {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	if !removed {
		return fmt.Errorf("pricelist: %s/%s: %w", productID, size, ErrNotFound)
	}
	return s.persist(ctx, kept)
}

// ReplaceAll installs an uploaded price list wholesale. This is full
// overwrite, not a merge: bulk upload semantics.
func (s *Store) ReplaceAll(ctx context.Context, table *upload.Table) (int, error) {
	if missing := table.MissingColumns(RequiredColumns); len(missing) > 0 {
		return 0, fmt.Errorf("%w: missing columns %v", ErrValidation, missing)
	}
	seen := make(map[[2]string]struct{}, len(table.Rows))
	entries := make([]Entry, 0, len(table.Rows))
	for i := range table.Rows {
		entry := Entry{
			ProductID: table.Cell(i, "ProductID"),
			Size:      table.Cell(i, "Size"),
			Currency:  table.Cell(i, "Currency"),
		}
		price, err := decimal.NewFromString(table.Cell(i, "Price"))
		if err != nil {
			return 0, fmt.Errorf("%w: row %d: price %q is not numeric", ErrValidation, i+1, table.Cell(i, "Price"))
		}
		entry.Price = price
		if err := s.check(entry); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		key := [2]string{entry.ProductID, entry.Size}
		if _, dup := seen[key]; dup {
			return 0, fmt.Errorf("%w: row %d: duplicate key %s/%s", ErrValidation, i+1, entry.ProductID, entry.Size)
		}
		seen[key] = struct{}{}
		entries = append(entries, entry)
	}
	if err := s.persist(ctx, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (s *Store) persist(ctx context.Context, entries []Entry) error {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, header)
	for _, entry := range entries {
		rows = append(rows, []string{entry.ProductID, entry.Size, entry.Price.String(), entry.Currency})
	}
	if err := s.tables.Save(ctx, tableName, rows); err != nil {
		return fmt.Errorf("pricelist: persist: %w", err)
	}
	return nil
}
