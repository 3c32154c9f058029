package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Receipt struct {
	SessionID     string          `json:"session_id"`
	Items         []ReceiptLine   `json:"items"`
	AppliedDeals  []AppliedDeal   `json:"applied_deals"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

type ReceiptLine struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type AppliedDeal struct {
	DealID         int64           `json:"deal_id"`
	ProductID      int64           `json:"product_id"`
	Description    string          `json:"description"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}
