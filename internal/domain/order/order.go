package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("order: not found")
	ErrConflict       = errors.New("order: already exists")
	ErrStatusConflict = errors.New("order: status transition conflict")
	ErrNoLines        = errors.New("order: at least one line is required")
	ErrInvalidLine    = errors.New("order: line quantity and unit price must be positive")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Value returns the numeric mirror of the status used by the payment
// gateway for callback verification.
func (s Status) Value() int {
	switch s {
	case StatusPaid:
		return 1
	case StatusCancelled:
		return 2
	default:
		return 0
	}
}

// Line is a snapshot of a product at order time. UnitPrice is frozen when
// the line is created and must never be recomputed from the catalog.
type Line struct {
	ProductID string
	ShopID    string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Total returns UnitPrice multiplied by Quantity.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	ID         string
	Code       string // external gateway order code; not necessarily numeric
	CustomerID string
	Status     Status
	Lines      []Line
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func New(id, code, customerID string, lines []Line) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	for _, l := range lines {
		if l.Quantity <= 0 || l.UnitPrice.IsNegative() {
			return nil, ErrInvalidLine
		}
	}
	if code == "" {
		code = id
	}

	now := time.Now().UTC()
	return &Order{
		ID:         id,
		Code:       code,
		CustomerID: customerID,
		Status:     StatusPending,
		Lines:      append([]Line(nil), lines...),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Total sums the line totals using the price snapshots.
func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Total())
	}
	return total
}

func (o *Order) MarkCancelled() {
	o.Status = StatusCancelled
	o.touch()
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Lines = append([]Line(nil), o.Lines...)
	return &clone
}
