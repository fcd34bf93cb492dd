package order

import "context"

type Repository interface {
	Insert(ctx context.Context, order *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	FindByCode(ctx context.Context, code string) (*Order, error)
	Update(ctx context.Context, order *Order) error

	// TransitionStatus updates the status only when the current status equals
	// from; otherwise it returns ErrStatusConflict. This is the
	// compare-and-swap that serializes concurrent gateway callbacks.
	TransitionStatus(ctx context.Context, id string, from, to Status) error
}
