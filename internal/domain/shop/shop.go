package shop

import (
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("shop: not found")
	ErrConflict    = errors.New("shop: already exists")
	ErrInvalidName = errors.New("shop: name is required")
)

type Shop struct {
	ID        string
	OwnerID   string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, ownerID, name string) (*Shop, error) {
	if name == "" {
		return nil, ErrInvalidName
	}

	now := time.Now().UTC()
	return &Shop{
		ID:        id,
		OwnerID:   ownerID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *Shop) Clone() *Shop {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}
