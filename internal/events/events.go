package events

import (
	"time"

	"github.com/google/uuid"
)

type BasketEventType string

const (
	BasketItemAdded   BasketEventType = "BASKET_ITEM_ADDED"
	BasketItemRemoved BasketEventType = "BASKET_ITEM_REMOVED"
)

// BasketEvent is published after a basket mutation has been committed.
type BasketEvent struct {
	EventID        string          `json:"event_id"`
	Type           BasketEventType `json:"type"`
	SessionID      string          `json:"session_id"`
	BasketID       int64           `json:"basket_id"`
	ProductID      int64           `json:"product_id"`
	Quantity       int             `json:"quantity"`
	HeldQuantity   int             `json:"held_quantity"`
	RemainingStock int             `json:"remaining_stock"`
	Timestamp      time.Time       `json:"timestamp"`
}

func NewBasketEvent(eventType BasketEventType, sessionID string, basketID, productID int64, quantity, held, remaining int) BasketEvent {
	return BasketEvent{
		EventID:        uuid.NewString(),
		Type:           eventType,
		SessionID:      sessionID,
		BasketID:       basketID,
		ProductID:      productID,
		Quantity:       quantity,
		HeldQuantity:   held,
		RemainingStock: remaining,
		Timestamp:      time.Now(),
	}
}

// 창고 입고 이벤트 (inventory-events 토픽)
type StockReplenishedEvent struct {
	EventID   string    `json:"event_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}
