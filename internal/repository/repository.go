package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloud-wave-best-zizon/basket-service/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrDealNotFound    = errors.New("deal not found")
	ErrBasketNotFound  = errors.New("basket not found")
	// ErrProductConflict means the product changed since it was read.
	ErrProductConflict = errors.New("product was modified concurrently")
)

// ProductRepository is the catalog. Create assigns the product id. Save
// succeeds only if product.Version matches the stored version, and then
// advances it; otherwise it returns ErrProductConflict.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	Save(ctx context.Context, product *domain.Product) error
}

// DealRepository is the deal directory. The Find* lookups taking now must
// leave out inactive deals and deals expired at now.
type DealRepository interface {
	Create(ctx context.Context, deal *domain.Deal) error
	FindByID(ctx context.Context, id int64) (*domain.Deal, error)
	Save(ctx context.Context, deal *domain.Deal) error
	FindActiveDealsForProduct(ctx context.Context, productID int64, now time.Time) ([]*domain.Deal, error)
	FindActive(ctx context.Context, now time.Time) ([]*domain.Deal, error)
}

// BasketRepository stores one basket per session. Save assigns an id to a
// basket that has none yet.
type BasketRepository interface {
	FindBySessionID(ctx context.Context, sessionID string) (*domain.Basket, error)
	Save(ctx context.Context, basket *domain.Basket) error
}
