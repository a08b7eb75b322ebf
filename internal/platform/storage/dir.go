package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// DirStore keeps each table as a CSV file in a local directory.
type DirStore struct {
	dir string
}

// NewDirStore creates the directory when missing and returns the store.
func NewDirStore(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create dir: %w", err)
	}
	return &DirStore{dir: dir}, nil
}

func (s *DirStore) path(name string) string {
	return filepath.Join(s.dir, name+".csv")
}

// Load reads the named table. Returns ErrNotExist when the file is missing.
func (s *DirStore) Load(ctx context.Context, name string) ([][]string, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage: load %s: %w", name, ErrNotExist)
		}
		return nil, fmt.Errorf("storage: load %s: %w", name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: load %s: %w", name, err)
	}
	return rows, nil
}

// Save rewrites the named table atomically via a temp file rename.
func (s *DirStore) Save(ctx context.Context, name string, rows [][]string) error {
	tmp, err := os.CreateTemp(s.dir, name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("storage: save %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	writer := csv.NewWriter(tmp)
	if err := writer.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: save %s: %w", name, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("storage: save %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage: save %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return fmt.Errorf("storage: save %s: %w", name, err)
	}
	return nil
}
