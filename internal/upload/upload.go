// Package upload parses the tabular files operators submit when creating a
// delivery or replacing the price list. CSV and XLSX are supported; either
// way the result is a header row plus string cells.
package upload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrEmpty indicates the uploaded file contained no header row.
var ErrEmpty = errors.New("upload: file is empty")

// ErrUnsupportedFormat indicates the file extension is not handled.
var ErrUnsupportedFormat = errors.New("upload: unsupported file format")

// Table is a parsed upload: a header and data rows of equal width.
type Table struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// NewTable builds a Table and its column index.
func NewTable(header []string, rows [][]string) *Table {
	t := &Table{Header: header, Rows: rows}
	t.index = make(map[string]int, len(header))
	for i, name := range header {
		t.index[strings.TrimSpace(name)] = i
	}
	return t
}

// Column returns the index of a named column.
func (t *Table) Column(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Cell returns the named column of a data row, or "" when out of range.
func (t *Table) Cell(row int, column string) string {
	i, ok := t.index[column]
	if !ok || row < 0 || row >= len(t.Rows) || i >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][i])
}

// MissingColumns lists required columns absent from the header.
func (t *Table) MissingColumns(required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := t.index[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Parse dispatches on the file extension.
func Parse(r io.Reader, filename string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(r)
	case ".xlsx":
		return ParseXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

// ParseCSV reads a CSV upload. A UTF-8 byte order mark, common in files
// exported from Excel, is stripped.
func ParseCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.UTF8BOM.NewDecoder()))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("upload: parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	return NewTable(records[0], records[1:]), nil
}

// ParseXLSX reads the first sheet of an XLSX upload.
func ParseXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("upload: parse xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrEmpty
	}
	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("upload: parse xlsx: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	header := records[0]
	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		// excelize trims trailing empty cells; pad back to header width.
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		rows = append(rows, rec)
	}
	return NewTable(header, rows), nil
}
