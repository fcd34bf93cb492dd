package shop

import "context"

type Repository interface {
	Insert(ctx context.Context, s *Shop) error
	Get(ctx context.Context, id string) (*Shop, error)
}
