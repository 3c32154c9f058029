package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloud-wave-best-zizon/basket-service/internal/domain"
	"github.com/cloud-wave-best-zizon/basket-service/internal/locker"
	"github.com/cloud-wave-best-zizon/basket-service/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var minPrice = decimal.New(1, -2)

// AdminService manages the catalog and the deal directory. Products and
// deals are never deleted, only flagged.
type AdminService struct {
	productRepo repository.ProductRepository
	dealRepo    repository.DealRepository
	ledger      *StockLedger
	locker      locker.Locker
	logger      *zap.Logger
	now         func() time.Time
}

func NewAdminService(
	productRepo repository.ProductRepository,
	dealRepo repository.DealRepository,
	ledger *StockLedger,
	lk locker.Locker,
	logger *zap.Logger,
) *AdminService {
	return &AdminService{
		productRepo: productRepo,
		dealRepo:    dealRepo,
		ledger:      ledger,
		locker:      lk,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *AdminService) CreateProduct(ctx context.Context, req domain.CreateProductRequest) (*domain.Product, error) {
	if err := validateProduct(req); err != nil {
		return nil, err
	}

	now := s.now()
	product := &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		Available:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.logger.Error("Failed to save product",
			zap.String("name", product.Name),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Product created successfully",
		zap.Int64("product_id", product.ID),
		zap.Int("initial_stock", product.Stock))

	return product, nil
}

func validateProduct(req domain.CreateProductRequest) error {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case strings.TrimSpace(req.Description) == "":
		return fmt.Errorf("%w: description is required", ErrInvalidProduct)
	case req.Price.LessThan(minPrice):
		return fmt.Errorf("%w: price must be at least 0.01", ErrInvalidProduct)
	case !req.Price.Equal(req.Price.Round(2)):
		return fmt.Errorf("%w: price must have at most 2 decimal places", ErrInvalidProduct)
	case !req.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalidProduct, req.Category)
	case req.Stock < 0:
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
	}
	return nil
}

func (s *AdminService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	return product, nil
}

// RemoveProduct marks the product unavailable. Items already in baskets
// keep their reservation.
func (s *AdminService) RemoveProduct(ctx context.Context, id int64) error {
	unlock := s.locker.Lock(productKey(id))
	defer unlock()

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return translate(err)
	}

	product.Available = false
	product.UpdatedAt = s.now()
	if err := s.productRepo.Save(ctx, product); err != nil {
		return translate(err)
	}

	s.logger.Info("Product removed", zap.Int64("product_id", id))
	return nil
}

// Restock adds quantity to the product's stock. Unavailable products are
// restocked too.
func (s *AdminService) Restock(ctx context.Context, productID int64, quantity int) (*domain.Product, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	unlock := s.locker.Lock(productKey(productID))
	defer unlock()

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, translate(err)
	}

	previous := product.Stock
	if err := s.ledger.Release(ctx, product, quantity); err != nil {
		return nil, err
	}

	s.logger.Info("Product restocked",
		zap.Int64("product_id", productID),
		zap.Int("previous_stock", previous),
		zap.Int("added", quantity),
		zap.Int("new_stock", product.Stock))

	return product, nil
}

func (s *AdminService) CreateDeal(ctx context.Context, req domain.CreateDealRequest) (*domain.Deal, error) {
	if _, err := s.productRepo.FindByID(ctx, req.ProductID); err != nil {
		return nil, translate(err)
	}

	// 저장소는 밀리초 단위로 만료 시각을 보관
	expiresAt := req.ExpiresAt
	if expiresAt != nil {
		t := expiresAt.Truncate(time.Millisecond)
		expiresAt = &t
	}

	deal := &domain.Deal{
		ProductID:          req.ProductID,
		Description:        req.Description,
		BuyQuantity:        req.BuyQuantity,
		DiscountPercentage: req.DiscountPercentage,
		DiscountAmount:     req.DiscountAmount,
		GetQuantity:        req.GetQuantity,
		ExpiresAt:          expiresAt,
		Active:             true,
		CreatedAt:          s.now(),
	}
	if err := deal.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDeal, err)
	}

	if err := s.dealRepo.Create(ctx, deal); err != nil {
		s.logger.Error("Failed to save deal",
			zap.Int64("product_id", deal.ProductID),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Deal created successfully",
		zap.Int64("deal_id", deal.ID),
		zap.Int64("product_id", deal.ProductID),
		zap.String("description", deal.Description))

	return deal, nil
}

// RemoveDeal deactivates the deal.
func (s *AdminService) RemoveDeal(ctx context.Context, id int64) error {
	deal, err := s.dealRepo.FindByID(ctx, id)
	if err != nil {
		return translate(err)
	}

	deal.Active = false
	if err := s.dealRepo.Save(ctx, deal); err != nil {
		return translate(err)
	}

	s.logger.Info("Deal removed", zap.Int64("deal_id", id))
	return nil
}

func (s *AdminService) ListActiveDeals(ctx context.Context) ([]*domain.Deal, error) {
	return s.dealRepo.FindActive(ctx, s.now())
}
