package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	domain "github.com/trippeak/tourshop/internal/domain/wallet"
)

type WalletRepository struct {
	mu      sync.RWMutex
	wallets map[string]*domain.Wallet
	byShop  map[string]string
}

func NewWalletRepository() *WalletRepository {
	return &WalletRepository{
		wallets: make(map[string]*domain.Wallet),
		byShop:  make(map[string]string),
	}
}

func (r *WalletRepository) Insert(ctx context.Context, w *domain.Wallet) error {
	_ = ctx
	if w == nil || w.ID == "" {
		return fmt.Errorf("wallet repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.wallets[w.ID]; exists {
		return domain.ErrConflict
	}
	if _, exists := r.byShop[w.ShopID]; exists {
		return domain.ErrConflict
	}

	r.wallets[w.ID] = w.Clone()
	r.byShop[w.ShopID] = w.ID
	return nil
}

func (r *WalletRepository) FindByShop(ctx context.Context, shopID string) (*domain.Wallet, error) {
	_ = ctx
	if shopID == "" {
		return nil, domain.ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byShop[shopID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	w, found := r.wallets[id]
	if !found {
		return nil, domain.ErrNotFound
	}
	return w.Clone(), nil
}

// Credit adds amount to the stored balance under the write lock. Several
// orders can settle against the same shop at once, so the balance is only
// ever mutated in place here, never written back from a read copy.
func (r *WalletRepository) Credit(ctx context.Context, shopID string, amount decimal.Decimal) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byShop[shopID]
	if !ok {
		return domain.ErrNotFound
	}
	w, found := r.wallets[id]
	if !found {
		return domain.ErrNotFound
	}
	return w.Credit(amount)
}
