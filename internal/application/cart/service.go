package cart

import (
	"context"
	"errors"
	"fmt"

	domcart "github.com/trippeak/tourshop/internal/domain/cart"
	domproduct "github.com/trippeak/tourshop/internal/domain/product"
)

// Service manages per-customer carts. Settlement clears carts through the
// inventory service, not through this one.
type Service struct {
	carts    domcart.Repository
	products domproduct.Repository
}

func NewService(carts domcart.Repository, products domproduct.Repository) *Service {
	return &Service{
		carts:    carts,
		products: products,
	}
}

func (s *Service) AddItem(ctx context.Context, customerID, productID string, quantity int) (*domcart.Cart, error) {
	if customerID == "" {
		return nil, errors.New("cart: customer id is required")
	}
	if quantity <= 0 {
		return nil, domproduct.ErrInvalidQuantity
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, fmt.Errorf("cart: product %s: %w", productID, err)
	}

	c, err := s.carts.FindByCustomer(ctx, customerID)
	if errors.Is(err, domcart.ErrNotFound) {
		c = domcart.New(customerID)
	} else if err != nil {
		return nil, err
	}

	c.Add(productID, quantity)
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("cart: save: %w", err)
	}
	return c, nil
}

func (s *Service) Get(ctx context.Context, customerID string) (*domcart.Cart, error) {
	if customerID == "" {
		return nil, errors.New("cart: customer id is required")
	}
	return s.carts.FindByCustomer(ctx, customerID)
}
