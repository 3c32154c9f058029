package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloud-wave-best-zizon/basket-service/internal/domain"
	"github.com/cloud-wave-best-zizon/basket-service/internal/repository"
)

const (
	DefaultReserveAttempts = 3
	DefaultReserveBackoff  = 10 * time.Millisecond
)

// StockLedger moves stock between the catalog and baskets. Every successful
// Reserve or Release writes the product exactly once. Callers are expected
// to hold the product's lock.
type StockLedger struct {
	productRepo repository.ProductRepository
	maxAttempts int
	backoff     time.Duration
}

func NewStockLedger(productRepo repository.ProductRepository, maxAttempts int, backoff time.Duration) *StockLedger {
	if maxAttempts < 1 {
		maxAttempts = DefaultReserveAttempts
	}
	return &StockLedger{
		productRepo: productRepo,
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

// Reserve takes quantity out of product's stock and persists it. A failed
// decrement, or a save that lost a race with another writer, is retried
// against a freshly loaded product after a short backoff, up to the
// configured number of attempts. Cancelling ctx during the backoff returns
// ErrOperationInterrupted. On success product reflects the persisted state.
func (l *StockLedger) Reserve(ctx context.Context, product *domain.Product, quantity int) error {
	for attempt := 1; ; attempt++ {
		if product.Available && product.DecrementStock(quantity) {
			err := l.productRepo.Save(ctx, product)
			if err == nil {
				return nil
			}
			product.IncrementStock(quantity)
			if !errors.Is(err, repository.ErrProductConflict) || attempt >= l.maxAttempts {
				return translate(err)
			}
		} else if attempt >= l.maxAttempts {
			return &InsufficientStockError{
				ProductID: product.ID,
				Available: product.Stock,
				Requested: quantity,
			}
		}

		if err := l.reload(ctx, product); err != nil {
			return err
		}
	}
}

// Release returns quantity to product's stock and persists it. A save that
// lost a race is retried like in Reserve.
func (l *StockLedger) Release(ctx context.Context, product *domain.Product, quantity int) error {
	for attempt := 1; ; attempt++ {
		product.IncrementStock(quantity)
		err := l.productRepo.Save(ctx, product)
		if err == nil {
			return nil
		}
		product.Stock -= quantity
		if !errors.Is(err, repository.ErrProductConflict) || attempt >= l.maxAttempts {
			return translate(err)
		}

		if err := l.reload(ctx, product); err != nil {
			return err
		}
	}
}

// reload waits out the backoff and replaces product with the stored state.
func (l *StockLedger) reload(ctx context.Context, product *domain.Product) error {
	if err := l.wait(ctx); err != nil {
		return err
	}
	fresh, err := l.productRepo.FindByID(ctx, product.ID)
	if err != nil {
		return translate(err)
	}
	*product = *fresh
	return nil
}

func (l *StockLedger) wait(ctx context.Context) error {
	timer := time.NewTimer(l.backoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrOperationInterrupted, ctx.Err())
	case <-timer.C:
		return nil
	}
}
