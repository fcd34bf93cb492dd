package cart

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("cart: not found")

type Item struct {
	ProductID string
	Quantity  int
}

// Cart is keyed by customer; settlement clears it after a paid order.
type Cart struct {
	CustomerID string
	Items      []Item
	UpdatedAt  time.Time
}

func New(customerID string) *Cart {
	return &Cart{
		CustomerID: customerID,
		UpdatedAt:  time.Now().UTC(),
	}
}

func (c *Cart) Add(productID string, quantity int) {
	for i, it := range c.Items {
		if it.ProductID == productID {
			c.Items[i].Quantity += quantity
			c.touch()
			return
		}
	}
	c.Items = append(c.Items, Item{ProductID: productID, Quantity: quantity})
	c.touch()
}

func (c *Cart) Clear() {
	c.Items = nil
	c.touch()
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Items = append([]Item(nil), c.Items...)
	return &clone
}

type Repository interface {
	Save(ctx context.Context, c *Cart) error
	FindByCustomer(ctx context.Context, customerID string) (*Cart, error)
	Delete(ctx context.Context, customerID string) error
}
