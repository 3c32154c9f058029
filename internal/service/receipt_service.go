package service

import (
	"context"

	"github.com/cloud-wave-best-zizon/basket-service/internal/domain"
	"github.com/cloud-wave-best-zizon/basket-service/internal/repository"
	"go.uber.org/zap"
)

// ReceiptService prices a session's basket. It takes no lock; a receipt
// computed during a mutation reflects whichever basket version was read.
type ReceiptService struct {
	basketRepo repository.BasketRepository
	engine     *DiscountEngine
	logger     *zap.Logger
}

func NewReceiptService(basketRepo repository.BasketRepository, engine *DiscountEngine, logger *zap.Logger) *ReceiptService {
	return &ReceiptService{
		basketRepo: basketRepo,
		engine:     engine,
		logger:     logger,
	}
}

func (s *ReceiptService) CalculateReceipt(ctx context.Context, sessionID string) (*domain.Receipt, error) {
	basket, err := s.basketRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return nil, translate(err)
	}

	receipt, err := s.engine.Calculate(ctx, basket)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Receipt calculated",
		zap.String("session_id", sessionID),
		zap.Int("items", len(receipt.Items)),
		zap.Int("applied_deals", len(receipt.AppliedDeals)),
		zap.String("total_price", receipt.TotalPrice.StringFixed(2)))

	return receipt, nil
}
