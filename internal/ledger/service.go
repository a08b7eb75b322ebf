package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockpilot/stockpilot/internal/upload"
)

// UploadColumns are the columns a delivery upload must carry.
var UploadColumns = []string{
	"ProductID", "Product Number", "Product Name", "Supplier",
	"PurchasePrice", "Quantity to Order", "Size",
}

// Service implements the delivery lifecycle on top of Repository.
type Service struct {
	repo     *Repository
	validate *validator.Validate
	logger   *slog.Logger
	newID    func() string
	now      func() time.Time
}

func NewService(repo *Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		validate: validator.New(),
		logger:   logger,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// CreateDelivery appends a new batch of lines under the given order name.
// Inputs with quantity <= 0 are dropped without error; if nothing remains
// the delivery is not created and ErrNoLines is returned. Returns the
// number of lines written.
func (s *Service) CreateDelivery(ctx context.Context, orderName string, inputs []LineInput) (int, error) {
	orderName = strings.TrimSpace(orderName)
	if orderName == "" {
		return 0, fmt.Errorf("%w: order name is required", ErrValidation)
	}

	now := s.now()
	lines := make([]Line, 0, len(inputs))
	for _, in := range inputs {
		if in.Quantity <= 0 {
			continue
		}
		if err := s.validate.Struct(in); err != nil {
			return 0, fmt.Errorf("%w: product %q: %v", ErrValidation, in.ProductID, err)
		}
		lines = append(lines, Line{
			LineID:          s.newID(),
			OrderName:       orderName,
			OrderDate:       now,
			ProductID:       in.ProductID,
			ProductNumber:   in.ProductNumber,
			ProductName:     in.ProductName,
			Supplier:        in.Supplier,
			Size:            in.Size,
			PurchasePrice:   in.PurchasePrice,
			QuantityOrdered: in.Quantity,
			Active:          true,
			LandedCost:      decimal.Zero,
			ExchangeRate:    decimal.Zero,
			Shipping:        decimal.Zero,
			Customs:         decimal.Zero,
		})
	}
	if len(lines) == 0 {
		return 0, ErrNoLines
	}

	all, err := s.repo.All(ctx)
	if err != nil {
		return 0, err
	}
	all = append(all, lines...)
	if err := s.repo.ReplaceAll(ctx, all); err != nil {
		return 0, err
	}
	s.logger.Info("delivery created", "order", orderName, "lines", len(lines))
	return len(lines), nil
}

// CreateDeliveryFromUpload parses an uploaded product list into line inputs
// and creates the delivery. Missing required columns fail validation; rows
// whose quantity does not parse count as zero and are dropped.
func (s *Service) CreateDeliveryFromUpload(ctx context.Context, orderName string, table *upload.Table) (int, error) {
	if missing := table.MissingColumns(UploadColumns); len(missing) > 0 {
		return 0, fmt.Errorf("%w: missing columns: %s", ErrValidation, strings.Join(missing, ", "))
	}
	inputs := make([]LineInput, 0, len(table.Rows))
	for i := range table.Rows {
		qty, err := strconv.Atoi(table.Cell(i, "Quantity to Order"))
		if err != nil {
			qty = 0
		}
		price, err := decimal.NewFromString(table.Cell(i, "PurchasePrice"))
		if err != nil {
			price = decimal.Zero
		}
		inputs = append(inputs, LineInput{
			ProductID:     strings.ToUpper(table.Cell(i, "ProductID")),
			ProductNumber: table.Cell(i, "Product Number"),
			ProductName:   table.Cell(i, "Product Name"),
			Supplier:      table.Cell(i, "Supplier"),
			Size:          table.Cell(i, "Size"),
			PurchasePrice: price,
			Quantity:      qty,
		})
	}
	return s.CreateDelivery(ctx, orderName, inputs)
}

// CancelDelivery removes every line of the delivery from the ledger.
// The rows are gone for good; incoming-stock aggregates drop immediately.
func (s *Service) CancelDelivery(ctx context.Context, orderName string) error {
	all, err := s.repo.All(ctx)
	if err != nil {
		return err
	}
	kept := all[:0]
	removed := 0
	for _, line := range all {
		if line.OrderName == orderName {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	if removed == 0 {
		return ErrNotFound
	}
	if err := s.repo.ReplaceAll(ctx, kept); err != nil {
		return err
	}
	s.logger.Info("delivery cancelled", "order", orderName, "lines", removed)
	return nil
}

// VerifyActive reports whether the delivery can be received. It returns nil
// when at least one line is active, ErrNotFound when the order name is
// unknown, and ErrNotActive when the delivery was already received.
func (s *Service) VerifyActive(ctx context.Context, orderName string) error {
	all, err := s.repo.All(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, line := range all {
		if line.OrderName != orderName {
			continue
		}
		found = true
		if line.Active {
			return nil
		}
	}
	if !found {
		return ErrNotFound
	}
	return ErrNotActive
}

// Lines returns the lines of one delivery, active ones only unless
// includeInactive is set. ErrNotFound when nothing matches.
func (s *Service) Lines(ctx context.Context, orderName string, includeInactive bool) ([]Line, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	var lines []Line
	for _, line := range all {
		if line.OrderName != orderName {
			continue
		}
		if !line.Active && !includeInactive {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return nil, ErrNotFound
	}
	return lines, nil
}

// Summaries aggregates deliveries by order name, either the active ones or
// the completed ones. Each summary carries the first line's order date, the
// ordered quantity sum and the line count.
func (s *Service) Summaries(ctx context.Context, active bool) ([]Summary, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	byOrder := make(map[string]*Summary)
	var order []string
	for _, line := range all {
		if line.Active != active {
			continue
		}
		sum, ok := byOrder[line.OrderName]
		if !ok {
			sum = &Summary{OrderName: line.OrderName, OrderDate: line.OrderDate}
			byOrder[line.OrderName] = sum
			order = append(order, line.OrderName)
		}
		sum.QuantitySum += line.QuantityOrdered
		sum.ProductCount++
	}
	out := make([]Summary, 0, len(order))
	for _, name := range order {
		out = append(out, *byOrder[name])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OrderDate.Before(out[j].OrderDate) })
	return out, nil
}

// Reactivate flips a completed delivery back to active so it can be
// received again. With opts.ClearReceipt the recorded receipt values are
// blanked as well.
func (s *Service) Reactivate(ctx context.Context, orderName string, opts ReactivateOptions) error {
	all, err := s.repo.All(ctx)
	if err != nil {
		return err
	}
	found := false
	for i := range all {
		if all[i].OrderName != orderName {
			continue
		}
		found = true
		all[i].Active = true
		if opts.ClearReceipt {
			all[i].ReceivedQty = 0
			all[i].LandedCost = decimal.Zero
			all[i].Currency = ""
			all[i].ExchangeRate = decimal.Zero
			all[i].Shipping = decimal.Zero
			all[i].Customs = decimal.Zero
			all[i].Comment = ""
		}
	}
	if !found {
		return ErrNotFound
	}
	if err := s.repo.ReplaceAll(ctx, all); err != nil {
		return err
	}
	s.logger.Info("delivery reactivated", "order", orderName, "clear_receipt", opts.ClearReceipt)
	return nil
}

// ApplyReceipt records received values on the matching lines and marks
// them inactive. Lines of the delivery without an update stay untouched.
func (s *Service) ApplyReceipt(ctx context.Context, orderName string, updates []ReceiptUpdate) error {
	all, err := s.repo.All(ctx)
	if err != nil {
		return err
	}
	byKey := make(map[ItemKey]ReceiptUpdate, len(updates))
	for _, u := range updates {
		byKey[u.Key] = u
	}
	applied := 0
	for i := range all {
		if all[i].OrderName != orderName || !all[i].Active {
			continue
		}
		u, ok := byKey[all[i].Key()]
		if !ok {
			continue
		}
		all[i].ReceivedQty = u.ReceivedQty
		all[i].LandedCost = u.LandedCost
		all[i].Currency = u.Currency
		all[i].ExchangeRate = u.ExchangeRate
		all[i].Shipping = u.Shipping
		all[i].Customs = u.Customs
		all[i].Comment = u.Comment
		all[i].Active = false
		applied++
	}
	if applied == 0 {
		return ErrNotFound
	}
	return s.repo.ReplaceAll(ctx, all)
}

// IncomingQuantities sums the ordered quantity of every active line per
// product and size. This feeds the incoming-stock columns of the reorder
// snapshot.
func (s *Service) IncomingQuantities(ctx context.Context) (map[ItemKey]int, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	incoming := make(map[ItemKey]int)
	for _, line := range all {
		if !line.Active {
			continue
		}
		incoming[line.Key()] += line.QuantityOrdered
	}
	return incoming, nil
}
