package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	domproduct "github.com/trippeak/tourshop/internal/domain/product"
	domshop "github.com/trippeak/tourshop/internal/domain/shop"
	"github.com/trippeak/tourshop/internal/pkg/logging"
	"go.uber.org/zap"
)

type IDGenerator interface {
	NewID() string
}

// Service is the thin catalog layer: product CRUD over the product store,
// validating shop ownership on create.
type Service struct {
	products    domproduct.Repository
	shops       domshop.Repository
	idGenerator IDGenerator
}

func NewService(products domproduct.Repository, shops domshop.Repository, idGen IDGenerator) *Service {
	return &Service{
		products:    products,
		shops:       shops,
		idGenerator: idGen,
	}
}

type CreateProductInput struct {
	ShopID string
	Name   string
	Price  decimal.Decimal
	Stock  int
}

func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (*domproduct.Product, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "catalog_service"))

	if input.Name == "" {
		return nil, errors.New("catalog: product name is required")
	}
	if _, err := s.shops.Get(ctx, input.ShopID); err != nil {
		return nil, fmt.Errorf("catalog: shop %s: %w", input.ShopID, err)
	}

	entity, err := domproduct.New(s.idGenerator.NewID(), input.ShopID, input.Name, input.Price, input.Stock)
	if err != nil {
		return nil, err
	}
	if err := s.products.Insert(ctx, entity); err != nil {
		logger.Error("product_insert_failed", zap.String("product_id", entity.ID), zap.Error(err))
		return nil, fmt.Errorf("catalog: insert: %w", err)
	}

	logger.Info("product_created",
		zap.String("product_id", entity.ID),
		zap.String("shop_id", entity.ShopID),
	)
	return entity, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domproduct.Product, error) {
	if id == "" {
		return nil, errors.New("catalog: product id is required")
	}
	return s.products.Get(ctx, id)
}
