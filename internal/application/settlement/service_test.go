package settlement

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appInventory "github.com/trippeak/tourshop/internal/application/inventory"
	domcart "github.com/trippeak/tourshop/internal/domain/cart"
	domorder "github.com/trippeak/tourshop/internal/domain/order"
	domoutbox "github.com/trippeak/tourshop/internal/domain/outbox"
	domproduct "github.com/trippeak/tourshop/internal/domain/product"
	domwallet "github.com/trippeak/tourshop/internal/domain/wallet"
	"github.com/trippeak/tourshop/internal/infrastructure/memory"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (p *capturePublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturePublisher) settled() []domorder.OrderSettledEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domorder.OrderSettledEvent
	for _, e := range p.events {
		if evt, ok := e.(domorder.OrderSettledEvent); ok {
			out = append(out, evt)
		}
	}
	return out
}

type fixture struct {
	orders    *memory.OrderRepository
	products  *memory.ProductRepository
	wallets   *memory.WalletRepository
	carts     *memory.CartRepository
	publisher *capturePublisher
	svc       *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		orders:    memory.NewOrderRepository(),
		products:  memory.NewProductRepository(),
		wallets:   memory.NewWalletRepository(),
		carts:     memory.NewCartRepository(),
		publisher: &capturePublisher{},
	}
	inv := appInventory.NewService(f.orders, f.products, f.carts)
	f.svc = NewService(f.orders, f.products, f.wallets, inv, f.publisher, nil)
	return f
}

func (f *fixture) seedWallet(t *testing.T, shopID string) {
	t.Helper()
	require.NoError(t, f.wallets.Insert(context.Background(), domwallet.New("wallet-"+shopID, shopID)))
}

func (f *fixture) seedProduct(t *testing.T, id, shopID, price string, stock int) {
	t.Helper()
	p, err := domproduct.New(id, shopID, "tour "+id, decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	require.NoError(t, f.products.Insert(context.Background(), p))
}

func (f *fixture) seedOrder(t *testing.T, id, code, customerID string, lines ...domorder.Line) *domorder.Order {
	t.Helper()
	ord, err := domorder.New(id, code, customerID, lines)
	require.NoError(t, err)
	require.NoError(t, f.orders.Insert(context.Background(), ord))
	return ord
}

func (f *fixture) balance(t *testing.T, shopID string) decimal.Decimal {
	t.Helper()
	w, err := f.wallets.FindByShop(context.Background(), shopID)
	require.NoError(t, err)
	return w.Balance
}

func (f *fixture) product(t *testing.T, id string) *domproduct.Product {
	t.Helper()
	p, err := f.products.Get(context.Background(), id)
	require.NoError(t, err)
	return p
}

func line(productID, shopID, price string, qty int) domorder.Line {
	return domorder.Line{
		ProductID: productID,
		ShopID:    shopID,
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
	}
}

func TestPaidSettlesPendingOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedWallet(t, "shop-1")
	f.seedProduct(t, "prod-1", "shop-1", "100000", 10)
	f.seedOrder(t, "ord-1", "PAY-001", "cust-1", line("prod-1", "shop-1", "100000", 2))

	c := domcart.New("cust-1")
	c.Add("prod-1", 2)
	require.NoError(t, f.carts.Save(ctx, c))

	result, err := f.svc.Paid(ctx, "PAY-001")
	require.NoError(t, err)

	assert.Equal(t, "ord-1", result.OrderID)
	assert.Equal(t, domorder.StatusPaid, result.Status)
	assert.True(t, result.StockUpdated)
	assert.True(t, result.CartCleared)
	assert.True(t, result.WalletUpdated)
	assert.True(t, result.CommissionApplied)
	assert.False(t, result.AlreadyPaid)

	// 100000 × 2 × 0.90
	assert.True(t, f.balance(t, "shop-1").Equal(decimal.RequireFromString("180000")),
		"wallet balance = %s", f.balance(t, "shop-1"))

	p := f.product(t, "prod-1")
	assert.Equal(t, 2, p.SoldCount)
	assert.Equal(t, 8, p.Stock)

	_, err = f.carts.FindByCustomer(ctx, "cust-1")
	assert.ErrorIs(t, err, domcart.ErrNotFound)

	require.Len(t, f.publisher.settled(), 1)
	evt := f.publisher.settled()[0]
	assert.True(t, evt.ShopCredits.Equal(decimal.RequireFromString("180000")))
	assert.True(t, evt.Commission.Equal(decimal.RequireFromString("20000")))
}

func TestPaidDuplicateCallbackIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedWallet(t, "shop-1")
	f.seedProduct(t, "prod-1", "shop-1", "100000", 10)
	f.seedOrder(t, "ord-1", "PAY-001", "cust-1", line("prod-1", "shop-1", "100000", 2))

	_, err := f.svc.Paid(ctx, "PAY-001")
	require.NoError(t, err)

	result, err := f.svc.Paid(ctx, "PAY-001")
	require.NoError(t, err)
	assert.True(t, result.AlreadyPaid)
	assert.Equal(t, domorder.StatusPaid, result.Status)
	assert.False(t, result.StockUpdated)
	assert.False(t, result.CartCleared)
	assert.False(t, result.WalletUpdated)
	assert.False(t, result.CommissionApplied)

	// side effects applied exactly once
	assert.True(t, f.balance(t, "shop-1").Equal(decimal.RequireFromString("180000")))
	assert.Equal(t, 2, f.product(t, "prod-1").SoldCount)
	assert.Equal(t, 8, f.product(t, "prod-1").Stock)
}

func TestPaidConcurrentCallbacksCreditOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedWallet(t, "shop-1")
	f.seedProduct(t, "prod-1", "shop-1", "100000", 100)
	f.seedOrder(t, "ord-1", "PAY-001", "cust-1", line("prod-1", "shop-1", "100000", 2))

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Paid(ctx, "PAY-001")
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.True(t, f.balance(t, "shop-1").Equal(decimal.RequireFromString("180000")),
		"wallet credited more than once: %s", f.balance(t, "shop-1"))
	assert.Equal(t, 2, f.product(t, "prod-1").SoldCount)
}

func TestConcurrentSettlementsSharingProductAndWallet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedWallet(t, "shop-1")
	f.seedProduct(t, "prod-1", "shop-1", "100000", 100)

	// distinct orders for the same product and shop, settled in parallel
	const orders = 32
	for i := 0; i < orders; i++ {
		id := fmt.Sprintf("ord-%d", i)
		f.seedOrder(t, id, "PAY-"+id, fmt.Sprintf("cust-%d", i),
			line("prod-1", "shop-1", "100000", 1))
	}

	var wg sync.WaitGroup
	errs := make([]error, orders)
	for i := 0; i < orders; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.Paid(ctx, fmt.Sprintf("PAY-ord-%d", i))
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	p := f.product(t, "prod-1")
	assert.Equal(t, orders, p.SoldCount, "a concurrent settlement lost a sold-count update")
	assert.Equal(t, 100-orders, p.Stock, "a concurrent settlement lost a stock deduction")
	// 32 × 100000 × 0.90
	assert.True(t, f.balance(t, "shop-1").Equal(decimal.RequireFromString("2880000")),
		"a concurrent settlement lost a wallet credit: %s", f.balance(t, "shop-1"))
}

func TestPaidUnknownTokenLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedWallet(t, "shop-1")
	f.seedProduct(t, "prod-1", "shop-1", "100000", 10)
	f.seedOrder(t, "ord-1", "PAY-001", "cust-1", line("prod-1", "shop-1", "100000", 2))

	_, err := f.svc.Paid(ctx, "PAY-999")
	assert.ErrorIs(t, err, domorder.ErrNotFound)

	assert.True(t, f.balance(t, "shop-1").IsZero())
	assert.Equal(t, 0, f.product(t, "prod-1").SoldCount)
	assert.Equal(t, 10, f.product(t, "prod-1").Stock)

	ord, err := f.orders.Get(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusPending, ord.Status)
}

// trackingOrderRepo fails the test if the store is touched at all.
type trackingOrderRepo struct {
	t *testing.T
}

func (r trackingOrderRepo) Insert(context.Context, *domorder.Order) error {
	r.t.Error("store queried for an empty token")
	return nil
}

func (r trackingOrderRepo) Get(context.Context, string) (*domorder.Order, error) {
	r.t.Error("store queried for an empty token")
	return nil, domorder.ErrNotFound
}

func (r trackingOrderRepo) FindByCode(context.Context, string) (*domorder.Order, error) {
	r.t.Error("store queried for an empty token")
	return nil, domorder.ErrNotFound
}

func (r trackingOrderRepo) Update(context.Context, *domorder.Order) error {
	r.t.Error("store queried for an empty token")
	return nil
}

func (r trackingOrderRepo) TransitionStatus(context.Context, string, domorder.Status, domorder.Status) error {
	r.t.Error("store queried for an empty token")
	return nil
}

func TestEmptyTokenFailsWithoutStoreAccess(t *testing.T) {
	ctx := context.Background()
	svc := NewService(trackingOrderRepo{t: t}, memory.NewProductRepository(), memory.NewWalletRepository(), nil, nil, nil)

	_, err := svc.Paid(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyToken)

	_, err = svc.Cancel(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyToken)
}

func TestPaidResolvesByInternalID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedWallet(t, "shop-1")
	f.seedProduct(t, "prod-1", "shop-1", "50000", 5)
	f.seedOrder(t, "ord-1", "PAY-001", "cust-1", line("prod-1", "shop-1", "50000", 1))

	result, err := f.svc.Paid(ctx, "ord-1")
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusPaid, result.Status)
	assert.True(t, f.balance(t, "shop-1").Equal(decimal.RequireFromString("45000")))
}

func TestPaidSkipsCreditWhenShopHasNoWallet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedWallet(t, "shop-1")
	f.seedProduct(t, "prod-1", "shop-1", "100000", 10)
	f.seedProduct(t, "prod-2", "shop-ghost", "30000", 10)
	f.seedOrder(t, "ord-1", "PAY-001", "cust-1",
		line("prod-1", "shop-1", "100000", 1),
		line("prod-2", "shop-ghost", "30000", 1),
	)

	result, err := f.svc.Paid(ctx, "PAY-001")
	require.NoError(t, err)

	// the resolvable shop is still credited
	assert.True(t, result.WalletUpdated)
	assert.True(t, f.balance(t, "shop-1").Equal(decimal.RequireFromString("90000")))
	// the ghost line's sold count still advances
	assert.Equal(t, 1, f.product(t, "prod-2").SoldCount)
}

func TestCancelNeverTouchesFunds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedWallet(t, "shop-1")
	f.seedProduct(t, "prod-1", "shop-1", "100000", 10)
	f.seedOrder(t, "ord-1", "PAY-001", "cust-1", line("prod-1", "shop-1", "100000", 2))

	result, err := f.svc.Cancel(ctx, "PAY-001")
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusCancelled, result.Status)
	assert.False(t, result.StockUpdated)
	assert.False(t, result.CartCleared)
	assert.False(t, result.WalletUpdated)

	assert.True(t, f.balance(t, "shop-1").IsZero())
	assert.Equal(t, 0, f.product(t, "prod-1").SoldCount)
	assert.Equal(t, 10, f.product(t, "prod-1").Stock)

	// idempotent: repeated cancels re-persist the same status
	result, err = f.svc.Cancel(ctx, "PAY-001")
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusCancelled, result.Status)
}

func TestCancelAfterPaidKeepsFinancialEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedWallet(t, "shop-1")
	f.seedProduct(t, "prod-1", "shop-1", "100000", 10)
	f.seedOrder(t, "ord-1", "PAY-001", "cust-1", line("prod-1", "shop-1", "100000", 2))

	_, err := f.svc.Paid(ctx, "PAY-001")
	require.NoError(t, err)

	result, err := f.svc.Cancel(ctx, "PAY-001")
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusCancelled, result.Status)

	// cancellation does not reverse the settlement
	assert.True(t, f.balance(t, "shop-1").Equal(decimal.RequireFromString("180000")))
	assert.Equal(t, 2, f.product(t, "prod-1").SoldCount)
}

func TestCreditsPlusCommissionEqualOrderTotal(t *testing.T) {
	cases := []struct {
		name  string
		lines []domorder.Line
	}{
		{"single even line", []domorder.Line{line("p1", "s1", "100000", 2)}},
		{"odd unit price", []domorder.Line{line("p1", "s1", "99999", 1)}},
		{"tiny amounts", []domorder.Line{line("p1", "s1", "1", 1), line("p2", "s2", "3", 3)}},
		{"mixed shops", []domorder.Line{
			line("p1", "s1", "33333", 3),
			line("p2", "s2", "12345", 7),
			line("p3", "s1", "670", 11),
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			seenShops := map[string]bool{}
			for _, l := range tc.lines {
				if !seenShops[l.ShopID] {
					f.seedWallet(t, l.ShopID)
					seenShops[l.ShopID] = true
				}
				f.seedProduct(t, l.ProductID, l.ShopID, l.UnitPrice.String(), 100)
			}
			ord := f.seedOrder(t, "ord-1", "PAY-001", "cust-1", tc.lines...)

			_, err := f.svc.Paid(ctx, "PAY-001")
			require.NoError(t, err)

			events := f.publisher.settled()
			require.Len(t, events, 1)
			sum := events[0].ShopCredits.Add(events[0].Commission)
			assert.True(t, sum.Equal(ord.Total()),
				"credits %s + commission %s != total %s",
				events[0].ShopCredits, events[0].Commission, ord.Total())
		})
	}
}
