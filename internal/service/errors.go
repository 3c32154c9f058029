package service

import (
	"errors"
	"fmt"

	"github.com/cloud-wave-best-zizon/basket-service/internal/repository"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrDealNotFound         = errors.New("deal not found")
	ErrBasketNotFound       = errors.New("basket not found")
	ErrItemNotInBasket      = errors.New("product not found in basket or insufficient quantity")
	ErrOperationInterrupted = errors.New("operation was interrupted")
	ErrInvalidProduct       = errors.New("invalid product")
	ErrInvalidDeal          = errors.New("invalid deal")
	ErrInvalidQuantity      = errors.New("quantity must be positive")
	ErrConcurrentUpdate     = errors.New("product was modified concurrently")
)

// InsufficientStockError carries the stock levels seen when a reservation
// was refused. It matches ErrInsufficientStock under errors.Is.
type InsufficientStockError struct {
	ProductID int64
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: available %d, requested %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// translate maps repository lookup errors onto the service's own kinds.
func translate(err error) error {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return ErrProductNotFound
	case errors.Is(err, repository.ErrDealNotFound):
		return ErrDealNotFound
	case errors.Is(err, repository.ErrBasketNotFound):
		return ErrBasketNotFound
	case errors.Is(err, repository.ErrProductConflict):
		return ErrConcurrentUpdate
	}
	return err
}
