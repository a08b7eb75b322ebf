package upload

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseCSV(t *testing.T) {
	data := "ProductID,Size,Price\nP1,M,10.5\nP2,L,3\n"
	table, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, []string{"ProductID", "Size", "Price"}, table.Header)
	require.Len(t, table.Rows, 2)
	require.Equal(t, "10.5", table.Cell(0, "Price"))
	require.Equal(t, "P2", table.Cell(1, "ProductID"))
}

func TestParseCSVStripsBOM(t *testing.T) {
	data := "\xef\xbb\xbfProductID,Size\nP1,M\n"
	table, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, "ProductID", table.Header[0])

	_, ok := table.Column("ProductID")
	require.True(t, ok)
}

func TestParseCSVEmpty(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmpty)
}

func TestMissingColumns(t *testing.T) {
	table := NewTable([]string{"ProductID", "Size"}, nil)
	missing := table.MissingColumns([]string{"ProductID", "Size", "Supplier", "PurchasePrice"})
	require.Equal(t, []string{"Supplier", "PurchasePrice"}, missing)
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"ProductID", "Size", "Quantity to Order"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"P1", "M", 5}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"P2", "L", ""}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	table, err := ParseXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, []string{"ProductID", "Size", "Quantity to Order"}, table.Header)
	require.Len(t, table.Rows, 2)
	require.Equal(t, "5", table.Cell(0, "Quantity to Order"))
	// Padded back to header width despite the trailing empty cell.
	require.Len(t, table.Rows[1], 3)
}

func TestParseDispatch(t *testing.T) {
	_, err := Parse(strings.NewReader("a,b\n1,2\n"), "orders.txt")
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	table, err := Parse(strings.NewReader("a,b\n1,2\n"), "orders.CSV")
	require.NoError(t, err)
	require.Equal(t, "1", table.Cell(0, "a"))
}
