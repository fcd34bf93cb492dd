package wallet

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("wallet: not found")
	ErrConflict      = errors.New("wallet: already exists")
	ErrInvalidCredit = errors.New("wallet: credit amount must be positive")
)

// Wallet holds a shop's balance. In the settlement workflow the balance is
// only ever credited; withdrawals live in a different context.
type Wallet struct {
	ID        string
	ShopID    string
	Balance   decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, shopID string) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		ID:        id,
		ShopID:    shopID,
		Balance:   decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (w *Wallet) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidCredit
	}
	w.Balance = w.Balance.Add(amount)
	w.touch()
	return nil
}

func (w *Wallet) touch() {
	w.UpdatedAt = time.Now().UTC()
}

func (w *Wallet) Clone() *Wallet {
	if w == nil {
		return nil
	}
	clone := *w
	return &clone
}
