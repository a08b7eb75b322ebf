// Package storage provides whole-table persistence for the flat tables the
// application owns (order ledger, price list, average costs). Tables are
// snapshots: every save rewrites the full table and the last write wins.
package storage

import (
	"context"
	"errors"
)

// ErrNotExist indicates the named table has never been saved.
var ErrNotExist = errors.New("storage: table does not exist")

// TableStore loads and saves named tables as rows of strings. The first row
// is the header. Implementations must treat Save as a full replacement.
type TableStore interface {
	Load(ctx context.Context, name string) ([][]string, error)
	Save(ctx context.Context, name string, rows [][]string) error
}
