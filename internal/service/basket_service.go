package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/cloud-wave-best-zizon/basket-service/internal/domain"
	"github.com/cloud-wave-best-zizon/basket-service/internal/events"
	"github.com/cloud-wave-best-zizon/basket-service/internal/locker"
	"github.com/cloud-wave-best-zizon/basket-service/internal/repository"
	"go.uber.org/zap"
)

const (
	MsgAddedToBasket     = "Product added to basket successfully"
	MsgRemovedFromBasket = "Product removed from basket successfully"
)

// EventPublisher receives a notification after each committed basket mutation.
type EventPublisher interface {
	PublishBasketEvent(ctx context.Context, event events.BasketEvent) error
}

type nopPublisher struct{}

func (nopPublisher) PublishBasketEvent(context.Context, events.BasketEvent) error { return nil }

// NopPublisher drops every event. Used when Kafka is not configured.
var NopPublisher EventPublisher = nopPublisher{}

func sessionKey(sessionID string) string { return "session:" + sessionID }

func productKey(productID int64) string { return "product:" + strconv.FormatInt(productID, 10) }

// BasketService is the only place where stock and basket contents change
// together. Each add or remove runs inside one lock scope covering the
// session and the product.
type BasketService struct {
	productRepo repository.ProductRepository
	basketRepo  repository.BasketRepository
	ledger      *StockLedger
	locker      locker.Locker
	publisher   EventPublisher
	logger      *zap.Logger
}

func NewBasketService(
	productRepo repository.ProductRepository,
	basketRepo repository.BasketRepository,
	ledger *StockLedger,
	lk locker.Locker,
	publisher EventPublisher,
	logger *zap.Logger,
) *BasketService {
	if publisher == nil {
		publisher = NopPublisher
	}
	return &BasketService{
		productRepo: productRepo,
		basketRepo:  basketRepo,
		ledger:      ledger,
		locker:      lk,
		publisher:   publisher,
		logger:      logger,
	}
}

// AddToBasket reserves quantity units of the product and adds them to the
// session's basket, creating the basket on first use. On any failure
// neither stock nor basket is changed.
func (s *BasketService) AddToBasket(ctx context.Context, sessionID string, productID int64, quantity int) (string, error) {
	event, err := s.addLocked(ctx, sessionID, productID, quantity)
	if err != nil {
		return "", err
	}

	s.publish(ctx, event)
	return MsgAddedToBasket, nil
}

func (s *BasketService) addLocked(ctx context.Context, sessionID string, productID int64, quantity int) (events.BasketEvent, error) {
	unlock := s.locker.Lock(sessionKey(sessionID), productKey(productID))
	defer unlock()

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return events.BasketEvent{}, translate(err)
	}
	if !product.Available {
		return events.BasketEvent{}, ErrProductNotFound
	}
	if product.Stock < quantity {
		return events.BasketEvent{}, &InsufficientStockError{
			ProductID: productID,
			Available: product.Stock,
			Requested: quantity,
		}
	}

	basket, err := s.basketRepo.FindBySessionID(ctx, sessionID)
	switch {
	case errors.Is(err, repository.ErrBasketNotFound):
		basket = domain.NewBasket(sessionID)
	case err != nil:
		return events.BasketEvent{}, err
	}

	if err := s.ledger.Reserve(ctx, product, quantity); err != nil {
		return events.BasketEvent{}, err
	}

	item := basket.AddItem(product, quantity)
	if err := s.basketRepo.Save(ctx, basket); err != nil {
		s.logger.Error("Failed to save basket, releasing reservation",
			zap.String("session_id", sessionID),
			zap.Int64("product_id", productID),
			zap.Error(err))
		if rerr := s.ledger.Release(context.WithoutCancel(ctx), product, quantity); rerr != nil {
			s.logger.Error("Failed to release reservation",
				zap.Int64("product_id", productID),
				zap.Int("quantity", quantity),
				zap.Error(rerr))
		}
		return events.BasketEvent{}, err
	}

	s.logger.Info("Product added to basket",
		zap.String("session_id", sessionID),
		zap.Int64("basket_id", basket.ID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity),
		zap.Int("held_quantity", item.Quantity),
		zap.Int("remaining_stock", product.Stock))

	return events.NewBasketEvent(events.BasketItemAdded, sessionID, basket.ID, productID,
		quantity, item.Quantity, product.Stock), nil
}

// RemoveFromBasket takes quantity units of the product out of the session's
// basket and credits exactly quantity back to stock. Removing at least the
// held quantity drops the item.
func (s *BasketService) RemoveFromBasket(ctx context.Context, sessionID string, productID int64, quantity int) (string, error) {
	event, err := s.removeLocked(ctx, sessionID, productID, quantity)
	if err != nil {
		return "", err
	}

	s.publish(ctx, event)
	return MsgRemovedFromBasket, nil
}

func (s *BasketService) removeLocked(ctx context.Context, sessionID string, productID int64, quantity int) (events.BasketEvent, error) {
	unlock := s.locker.Lock(sessionKey(sessionID), productKey(productID))
	defer unlock()

	basket, err := s.basketRepo.FindBySessionID(ctx, sessionID)
	if err != nil {
		return events.BasketEvent{}, translate(err)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return events.BasketEvent{}, translate(err)
	}

	if !basket.RemoveItem(productID, quantity) {
		return events.BasketEvent{}, ErrItemNotInBasket
	}

	if err := s.ledger.Release(ctx, product, quantity); err != nil {
		return events.BasketEvent{}, err
	}

	if err := s.basketRepo.Save(ctx, basket); err != nil {
		s.logger.Error("Failed to save basket, taking released stock back",
			zap.String("session_id", sessionID),
			zap.Int64("product_id", productID),
			zap.Error(err))
		if rerr := s.ledger.Reserve(context.WithoutCancel(ctx), product, quantity); rerr != nil {
			s.logger.Error("Failed to take released stock back",
				zap.Int64("product_id", productID),
				zap.Int("quantity", quantity),
				zap.Error(rerr))
		}
		return events.BasketEvent{}, err
	}

	held := basket.QuantityOf(productID)
	s.logger.Info("Product removed from basket",
		zap.String("session_id", sessionID),
		zap.Int64("basket_id", basket.ID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", quantity),
		zap.Int("held_quantity", held),
		zap.Int("remaining_stock", product.Stock))

	return events.NewBasketEvent(events.BasketItemRemoved, sessionID, basket.ID, productID,
		quantity, held, product.Stock), nil
}

func (s *BasketService) publish(ctx context.Context, event events.BasketEvent) {
	if err := s.publisher.PublishBasketEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish basket event",
			zap.String("event_id", event.EventID),
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
}
