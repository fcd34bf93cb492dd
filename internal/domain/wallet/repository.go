package wallet

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	Insert(ctx context.Context, w *Wallet) error
	FindByShop(ctx context.Context, shopID string) (*Wallet, error)

	// Credit adds amount to the stored balance atomically. Wallets are shared
	// across orders of the same shop, so the balance is never written back
	// from a previously read copy.
	Credit(ctx context.Context, shopID string, amount decimal.Decimal) error
}
