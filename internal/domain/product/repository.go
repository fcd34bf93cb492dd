package product

import "context"

type Repository interface {
	Insert(ctx context.Context, p *Product) error
	Get(ctx context.Context, id string) (*Product, error)
	Update(ctx context.Context, p *Product) error

	// DeductStock and AddSold mutate the stored record atomically. Stock and
	// sold-count are shared across orders, so a read-modify-write through Get
	// and Update would lose updates under concurrent settlements.
	DeductStock(ctx context.Context, id string, quantity int) error
	AddSold(ctx context.Context, id string, quantity int) error
}
