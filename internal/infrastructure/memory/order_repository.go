package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	domain "github.com/trippeak/tourshop/internal/domain/order"
)

type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	byCode map[string]string
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders: make(map[string]*domain.Order),
		byCode: make(map[string]string),
	}
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return domain.ErrConflict
	}
	if code := order.Code; code != "" {
		if _, exists := r.byCode[code]; exists {
			return domain.ErrConflict
		}
	}

	r.orders[order.ID] = order.Clone()
	if order.Code != "" {
		r.byCode[order.Code] = order.ID
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *OrderRepository) FindByCode(ctx context.Context, code string) (*domain.Order, error) {
	_ = ctx
	if code == "" {
		return nil, domain.ErrNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byCode[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	order, found := r.orders[id]
	if !found {
		return nil, domain.ErrNotFound
	}
	return order.Clone(), nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; !exists {
		return domain.ErrNotFound
	}

	// Codes are immutable after Insert, so the byCode index is left alone.
	r.orders[order.ID] = order.Clone()
	return nil
}

// TransitionStatus applies the status change only when the stored order is
// still in the expected state. The whole check-and-set happens under one
// lock, so concurrent gateway callbacks serialize here.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id string, from, to domain.Status) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	if order.Status != from {
		return domain.ErrStatusConflict
	}

	clone := order.Clone()
	clone.Status = to
	clone.UpdatedAt = time.Now().UTC()
	r.orders[id] = clone
	return nil
}
