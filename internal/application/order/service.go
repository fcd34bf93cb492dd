package order

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/trippeak/tourshop/internal/domain/order"
	domproduct "github.com/trippeak/tourshop/internal/domain/product"
	"github.com/trippeak/tourshop/internal/pkg/logging"
	"go.uber.org/zap"
)

// Service creates and reads orders. Orders are created Pending; the
// settlement service owns every later status change, so there is no
// payment handling here.
type Service struct {
	repo        domain.Repository
	products    domproduct.Repository
	idGenerator IDGenerator
}

func NewService(repo domain.Repository, products domproduct.Repository, idGen IDGenerator) *Service {
	return &Service{
		repo:        repo,
		products:    products,
		idGenerator: idGen,
	}
}

type LineInput struct {
	ProductID string
	Quantity  int
}

type CreateOrderInput struct {
	CustomerID string
	Code       string // external gateway order code; defaults to the order id
	Lines      []LineInput
}

type CreateOrderResult struct {
	OrderID string
	Code    string
	Status  domain.Status
}

// CreateOrder snapshots the current product price and owning shop into
// each line, so later settlement math never consults the live catalog.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "order_service"))

	if input.CustomerID == "" {
		return nil, errors.New("order: customer id is required")
	}
	if len(input.Lines) == 0 {
		return nil, domain.ErrNoLines
	}

	lines := make([]domain.Line, 0, len(input.Lines))
	for _, in := range input.Lines {
		p, err := s.products.Get(ctx, in.ProductID)
		if err != nil {
			return nil, fmt.Errorf("order: product %s: %w", in.ProductID, err)
		}
		lines = append(lines, domain.Line{
			ProductID: p.ID,
			ShopID:    p.ShopID,
			Quantity:  in.Quantity,
			UnitPrice: p.Price,
		})
	}

	orderID := s.idGenerator.NewID()
	entity, err := domain.New(orderID, input.Code, input.CustomerID, lines)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Insert(ctx, entity); err != nil {
		logger.Error("order_insert_failed", zap.String("order_id", entity.ID), zap.Error(err))
		return nil, fmt.Errorf("order: insert: %w", err)
	}

	logger.Info("order_created",
		zap.String("order_id", entity.ID),
		zap.String("code", entity.Code),
		zap.Int("lines", len(entity.Lines)),
	)
	return &CreateOrderResult{
		OrderID: entity.ID,
		Code:    entity.Code,
		Status:  entity.Status,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, errors.New("order: id is required")
	}
	return s.repo.Get(ctx, id)
}
