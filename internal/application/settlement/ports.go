package settlement

import "context"

// Inventory is the outbound port for the stock/cart adjustment performed
// when an order is paid. The implementation decrements stock for every
// order line and clears the purchaser's cart as one logical operation
// keyed by the order identifier.
type Inventory interface {
	Adjust(ctx context.Context, orderID string) error
}
