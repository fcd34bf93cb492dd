package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderSettledEvent is emitted after a paid callback finishes its side
// effects. Other contexts (notification, reporting) subscribe to it.
type OrderSettledEvent struct {
	OrderID     string
	Code        string
	CustomerID  string
	Total       decimal.Decimal
	ShopCredits decimal.Decimal
	Commission  decimal.Decimal
	OccurredAt  time.Time
}

func (OrderSettledEvent) EventName() string { return "order.settled" }

func NewOrderSettledEvent(o *Order, credits, commission decimal.Decimal) OrderSettledEvent {
	return OrderSettledEvent{
		OrderID:     o.ID,
		Code:        o.Code,
		CustomerID:  o.CustomerID,
		Total:       o.Total(),
		ShopCredits: credits,
		Commission:  commission,
		OccurredAt:  time.Now().UTC(),
	}
}

// OrderCancelledEvent is emitted when a cancelled callback is applied.
type OrderCancelledEvent struct {
	OrderID    string
	Code       string
	CustomerID string
	OccurredAt time.Time
}

func (OrderCancelledEvent) EventName() string { return "order.cancelled" }

func NewOrderCancelledEvent(o *Order) OrderCancelledEvent {
	return OrderCancelledEvent{
		OrderID:    o.ID,
		Code:       o.Code,
		CustomerID: o.CustomerID,
		OccurredAt: time.Now().UTC(),
	}
}
