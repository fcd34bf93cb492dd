package inventory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domcart "github.com/trippeak/tourshop/internal/domain/cart"
	domorder "github.com/trippeak/tourshop/internal/domain/order"
	domproduct "github.com/trippeak/tourshop/internal/domain/product"
	"github.com/trippeak/tourshop/internal/infrastructure/memory"
)

func setup(t *testing.T) (*Service, *memory.OrderRepository, *memory.ProductRepository, *memory.CartRepository) {
	t.Helper()
	orders := memory.NewOrderRepository()
	products := memory.NewProductRepository()
	carts := memory.NewCartRepository()
	return NewService(orders, products, carts), orders, products, carts
}

func seedProduct(t *testing.T, repo *memory.ProductRepository, id, shopID string, price string, stock int) {
	t.Helper()
	p, err := domproduct.New(id, shopID, "tour "+id, decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), p))
}

func seedOrder(t *testing.T, repo *memory.OrderRepository, id, customerID string, lines ...domorder.Line) {
	t.Helper()
	ord, err := domorder.New(id, "", customerID, lines)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), ord))
}

func TestAdjustDeductsStockAndClearsCart(t *testing.T) {
	ctx := context.Background()
	svc, orders, products, carts := setup(t)

	seedProduct(t, products, "prod-1", "shop-1", "100000", 10)
	seedOrder(t, orders, "ord-1", "cust-1", domorder.Line{
		ProductID: "prod-1", ShopID: "shop-1", Quantity: 3,
		UnitPrice: decimal.RequireFromString("100000"),
	})

	c := domcart.New("cust-1")
	c.Add("prod-1", 3)
	require.NoError(t, carts.Save(ctx, c))

	require.NoError(t, svc.Adjust(ctx, "ord-1"))

	p, err := products.Get(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)

	_, err = carts.FindByCustomer(ctx, "cust-1")
	assert.ErrorIs(t, err, domcart.ErrNotFound)
}

func TestAdjustSkipsShortfallAndMissingProduct(t *testing.T) {
	ctx := context.Background()
	svc, orders, products, _ := setup(t)

	seedProduct(t, products, "prod-low", "shop-1", "5000", 1)
	seedOrder(t, orders, "ord-1", "cust-1",
		domorder.Line{ProductID: "prod-low", ShopID: "shop-1", Quantity: 5, UnitPrice: decimal.RequireFromString("5000")},
		domorder.Line{ProductID: "prod-gone", ShopID: "shop-1", Quantity: 1, UnitPrice: decimal.RequireFromString("5000")},
	)

	// payment already captured; shortfall and missing products must not fail the settlement
	require.NoError(t, svc.Adjust(ctx, "ord-1"))

	p, err := products.Get(ctx, "prod-low")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Stock, "shortfall line must leave stock untouched")
}

func TestAdjustUnknownOrderFails(t *testing.T) {
	svc, _, _, _ := setup(t)
	err := svc.Adjust(context.Background(), "nope")
	assert.ErrorIs(t, err, domorder.ErrNotFound)
}
