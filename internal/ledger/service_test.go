package ledger

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stockpilot/stockpilot/internal/platform/storage"
	"github.com/stockpilot/stockpilot/internal/upload"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.NewDirStore(t.TempDir())
	require.NoError(t, err)
	return NewService(NewRepository(store), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testInputs() []LineInput {
	return []LineInput{
		{ProductID: "P1", ProductNumber: "A-1", ProductName: "Tee", Supplier: "Acme", Size: "M", PurchasePrice: decimal.NewFromInt(4), Quantity: 10},
		{ProductID: "P1", ProductNumber: "A-1", ProductName: "Tee", Supplier: "Acme", Size: "L", PurchasePrice: decimal.NewFromInt(4), Quantity: 5},
		{ProductID: "P2", ProductNumber: "B-2", ProductName: "Cap", Supplier: "Acme", Size: "N/A", PurchasePrice: decimal.NewFromInt(9), Quantity: 3},
	}
}

func TestCreateDeliveryDropsNonPositiveQuantities(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	inputs := append(testInputs(), LineInput{ProductID: "P3", Supplier: "Acme", Size: "S", Quantity: 0})
	n, err := svc.CreateDelivery(ctx, "week-34", inputs)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	lines, err := svc.Lines(ctx, "week-34", false)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	for _, line := range lines {
		require.True(t, line.Active)
		require.NotEmpty(t, line.LineID)
		require.False(t, line.OrderDate.IsZero())
	}
}

func TestCreateDeliveryRequiresLines(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateDelivery(context.Background(), "empty", []LineInput{
		{ProductID: "P1", Supplier: "Acme", Size: "M", Quantity: 0},
		{ProductID: "P2", Supplier: "Acme", Size: "M", Quantity: -2},
	})
	require.ErrorIs(t, err, ErrNoLines)

	_, err = svc.CreateDelivery(context.Background(), "  ", testInputs())
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateDeliveryFromUpload(t *testing.T) {
	svc := newTestService(t)

	csv := "ProductID,Product Number,Product Name,Supplier,PurchasePrice,Quantity to Order,Size\n" +
		"p1,A-1,Tee,Acme,4.50,10,M\n" +
		"P2,B-2,Cap,Acme,9,not-a-number,N/A\n"
	table, err := upload.ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)

	n, err := svc.CreateDeliveryFromUpload(context.Background(), "week-35", table)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	lines, err := svc.Lines(context.Background(), "week-35", false)
	require.NoError(t, err)
	require.Equal(t, "P1", lines[0].ProductID)
	require.True(t, lines[0].PurchasePrice.Equal(decimal.RequireFromString("4.50")))
}

func TestCreateDeliveryFromUploadMissingColumns(t *testing.T) {
	svc := newTestService(t)

	table, err := upload.ParseCSV(strings.NewReader("ProductID,Size\nP1,M\n"))
	require.NoError(t, err)

	_, err = svc.CreateDeliveryFromUpload(context.Background(), "week-36", table)
	require.ErrorIs(t, err, ErrValidation)
	require.Contains(t, err.Error(), "Quantity to Order")
}

func TestCancelDeliveryRemovesLines(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateDelivery(ctx, "week-34", testInputs())
	require.NoError(t, err)
	_, err = svc.CreateDelivery(ctx, "week-35", testInputs()[:1])
	require.NoError(t, err)

	require.NoError(t, svc.CancelDelivery(ctx, "week-34"))

	_, err = svc.Lines(ctx, "week-34", true)
	require.ErrorIs(t, err, ErrNotFound)

	incoming, err := svc.IncomingQuantities(ctx)
	require.NoError(t, err)
	require.Equal(t, map[ItemKey]int{{ProductID: "P1", Size: "M"}: 10}, incoming)

	require.ErrorIs(t, svc.CancelDelivery(ctx, "week-34"), ErrNotFound)
}

func TestVerifyActiveStates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.ErrorIs(t, svc.VerifyActive(ctx, "missing"), ErrNotFound)

	_, err := svc.CreateDelivery(ctx, "week-34", testInputs())
	require.NoError(t, err)
	require.NoError(t, svc.VerifyActive(ctx, "week-34"))

	err = svc.ApplyReceipt(ctx, "week-34", []ReceiptUpdate{
		{Key: ItemKey{ProductID: "P1", Size: "M"}, ReceivedQty: 10, LandedCost: decimal.NewFromInt(5)},
		{Key: ItemKey{ProductID: "P1", Size: "L"}, ReceivedQty: 5, LandedCost: decimal.NewFromInt(5)},
		{Key: ItemKey{ProductID: "P2", Size: "N/A"}, ReceivedQty: 3, LandedCost: decimal.NewFromInt(10)},
	})
	require.NoError(t, err)
	require.ErrorIs(t, svc.VerifyActive(ctx, "week-34"), ErrNotActive)
}

func TestIncomingQuantitiesSumsActiveLines(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateDelivery(ctx, "week-34", testInputs())
	require.NoError(t, err)
	_, err = svc.CreateDelivery(ctx, "week-35", []LineInput{
		{ProductID: "P1", Supplier: "Acme", Size: "M", Quantity: 7},
	})
	require.NoError(t, err)

	incoming, err := svc.IncomingQuantities(ctx)
	require.NoError(t, err)
	require.Equal(t, 17, incoming[ItemKey{ProductID: "P1", Size: "M"}])
	require.Equal(t, 5, incoming[ItemKey{ProductID: "P1", Size: "L"}])
	require.Equal(t, 3, incoming[ItemKey{ProductID: "P2", Size: "N/A"}])

	// Received lines no longer count as incoming.
	err = svc.ApplyReceipt(ctx, "week-35", []ReceiptUpdate{
		{Key: ItemKey{ProductID: "P1", Size: "M"}, ReceivedQty: 7},
	})
	require.NoError(t, err)

	incoming, err = svc.IncomingQuantities(ctx)
	require.NoError(t, err)
	require.Equal(t, 10, incoming[ItemKey{ProductID: "P1", Size: "M"}])
}

func TestSummariesGroupsByOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateDelivery(ctx, "week-34", testInputs())
	require.NoError(t, err)
	_, err = svc.CreateDelivery(ctx, "week-35", testInputs()[:1])
	require.NoError(t, err)

	active, err := svc.Summaries(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	require.Equal(t, "week-34", active[0].OrderName)
	require.Equal(t, 18, active[0].QuantitySum)
	require.Equal(t, 3, active[0].ProductCount)

	completed, err := svc.Summaries(ctx, false)
	require.NoError(t, err)
	require.Empty(t, completed)
}

func TestReactivateRestoresDelivery(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateDelivery(ctx, "week-34", testInputs()[:1])
	require.NoError(t, err)
	err = svc.ApplyReceipt(ctx, "week-34", []ReceiptUpdate{
		{Key: ItemKey{ProductID: "P1", Size: "M"}, ReceivedQty: 10, LandedCost: decimal.NewFromInt(6), Comment: "two cartons"},
	})
	require.NoError(t, err)

	require.NoError(t, svc.Reactivate(ctx, "week-34", ReactivateOptions{}))
	lines, err := svc.Lines(ctx, "week-34", false)
	require.NoError(t, err)
	require.Equal(t, 10, lines[0].ReceivedQty)
	require.Equal(t, "two cartons", lines[0].Comment)

	require.NoError(t, svc.Reactivate(ctx, "week-34", ReactivateOptions{ClearReceipt: true}))
	lines, err = svc.Lines(ctx, "week-34", false)
	require.NoError(t, err)
	require.Zero(t, lines[0].ReceivedQty)
	require.True(t, lines[0].LandedCost.IsZero())
	require.Empty(t, lines[0].Comment)

	require.ErrorIs(t, svc.Reactivate(ctx, "missing", ReactivateOptions{}), ErrNotFound)
}

func TestLedgerSurvivesReload(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewDirStore(dir)
	require.NoError(t, err)
	svc := NewService(NewRepository(store), slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	_, err = svc.CreateDelivery(ctx, "week-34", testInputs())
	require.NoError(t, err)

	store2, err := storage.NewDirStore(dir)
	require.NoError(t, err)
	svc2 := NewService(NewRepository(store2), slog.New(slog.NewTextHandler(io.Discard, nil)))

	lines, err := svc2.Lines(ctx, "week-34", false)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	require.True(t, lines[0].PurchasePrice.Equal(decimal.NewFromInt(4)))
}
