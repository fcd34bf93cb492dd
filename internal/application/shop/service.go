package shop

import (
	"context"
	"errors"
	"fmt"

	domshop "github.com/trippeak/tourshop/internal/domain/shop"
	domwallet "github.com/trippeak/tourshop/internal/domain/wallet"
	"github.com/trippeak/tourshop/internal/pkg/logging"
	"go.uber.org/zap"
)

type IDGenerator interface {
	NewID() string
}

// Service registers shops and exposes their wallets. Creating a shop also
// provisions its wallet, keeping the 1:1 shop/wallet ownership in one place.
type Service struct {
	shops       domshop.Repository
	wallets     domwallet.Repository
	idGenerator IDGenerator
}

func NewService(shops domshop.Repository, wallets domwallet.Repository, idGen IDGenerator) *Service {
	return &Service{
		shops:       shops,
		wallets:     wallets,
		idGenerator: idGen,
	}
}

type CreateShopInput struct {
	OwnerID string
	Name    string
}

func (s *Service) CreateShop(ctx context.Context, input CreateShopInput) (*domshop.Shop, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "shop_service"))

	entity, err := domshop.New(s.idGenerator.NewID(), input.OwnerID, input.Name)
	if err != nil {
		return nil, err
	}
	if err := s.shops.Insert(ctx, entity); err != nil {
		return nil, fmt.Errorf("shop: insert: %w", err)
	}

	w := domwallet.New(s.idGenerator.NewID(), entity.ID)
	if err := s.wallets.Insert(ctx, w); err != nil {
		logger.Error("wallet_provision_failed", zap.String("shop_id", entity.ID), zap.Error(err))
		return nil, fmt.Errorf("shop: provision wallet: %w", err)
	}

	logger.Info("shop_created",
		zap.String("shop_id", entity.ID),
		zap.String("wallet_id", w.ID),
	)
	return entity, nil
}

func (s *Service) GetWallet(ctx context.Context, shopID string) (*domwallet.Wallet, error) {
	if shopID == "" {
		return nil, errors.New("shop: id is required")
	}
	if _, err := s.shops.Get(ctx, shopID); err != nil {
		return nil, err
	}
	return s.wallets.FindByShop(ctx, shopID)
}
