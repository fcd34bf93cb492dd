package inventory

import (
	"context"
	"errors"
	"fmt"

	domcart "github.com/trippeak/tourshop/internal/domain/cart"
	domorder "github.com/trippeak/tourshop/internal/domain/order"
	domproduct "github.com/trippeak/tourshop/internal/domain/product"
	"github.com/trippeak/tourshop/internal/pkg/logging"
	"go.uber.org/zap"
)

// Service adjusts stock and carts when an order is settled. It implements
// the settlement Inventory port.
type Service struct {
	orders   domorder.Repository
	products domproduct.Repository
	carts    domcart.Repository
}

func NewService(orders domorder.Repository, products domproduct.Repository, carts domcart.Repository) *Service {
	return &Service{
		orders:   orders,
		products: products,
		carts:    carts,
	}
}

// Adjust decrements stock for every line of the order and clears the
// purchaser's cart, as one logical operation keyed by the order id.
// Deductions go through the store's atomic DeductStock, since settlements
// of different orders can share a product. Payment has already been
// captured when this runs, so a missing product or a stock shortfall is
// logged and skipped rather than failing the settlement; store failures
// still abort.
func (s *Service) Adjust(ctx context.Context, orderID string) error {
	logger := logging.FromContext(ctx).With(zap.String("component", "inventory_service"))

	if orderID == "" {
		return errors.New("inventory: order id is required")
	}

	ord, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return fmt.Errorf("inventory: order lookup: %w", err)
	}

	for _, line := range ord.Lines {
		err := s.products.DeductStock(ctx, line.ProductID, line.Quantity)
		switch {
		case errors.Is(err, domproduct.ErrNotFound):
			logger.Warn("stock_adjust_skipped_product_missing",
				zap.String("order_id", ord.ID),
				zap.String("product_id", line.ProductID),
			)
		case errors.Is(err, domproduct.ErrInsufficientStock):
			logger.Warn("stock_adjust_shortfall",
				zap.String("order_id", ord.ID),
				zap.String("product_id", line.ProductID),
				zap.Int("requested", line.Quantity),
			)
		case err != nil:
			return fmt.Errorf("inventory: deduct: %w", err)
		}
	}

	if err := s.carts.Delete(ctx, ord.CustomerID); err != nil {
		return fmt.Errorf("inventory: cart clear: %w", err)
	}

	logger.Info("inventory_adjusted",
		zap.String("order_id", ord.ID),
		zap.Int("lines", len(ord.Lines)),
	)
	return nil
}
