package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	errDealBuyQuantity = errors.New("buy quantity must be at least 1")
	errDealMode        = errors.New("exactly one of discount percentage or discount amount must be set")
	errDealPercentage  = errors.New("discount percentage must be greater than 0 and at most 100")
	errDealAmount      = errors.New("discount amount must be greater than 0")
	errDealGetQuantity = errors.New("get quantity must be at least 1 and requires a percentage discount")
	errDealDescription = errors.New("deal description is required")
)

var hundred = decimal.NewFromInt(100)

// Deal is a promotion on a single product. Exactly one of DiscountPercentage
// and DiscountAmount is set. GetQuantity turns a percentage deal into
// "buy N, get M at pct off" (M free when pct is 100).
type Deal struct {
	ID                 int64            `json:"id"`
	ProductID          int64            `json:"product_id"`
	Description        string           `json:"description"`
	BuyQuantity        int              `json:"buy_quantity"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	DiscountAmount     *decimal.Decimal `json:"discount_amount,omitempty"`
	GetQuantity        *int             `json:"get_quantity,omitempty"`
	ExpiresAt          *time.Time       `json:"expires_at,omitempty"`
	Active             bool             `json:"active"`
	CreatedAt          time.Time        `json:"created_at"`
}

func (d *Deal) IsExpired(now time.Time) bool {
	return d.ExpiresAt != nil && now.After(*d.ExpiresAt)
}

// ApplicableAt reports whether the deal may be applied at now.
func (d *Deal) ApplicableAt(now time.Time) bool {
	return d.Active && !d.IsExpired(now)
}

func (d *Deal) Validate() error {
	if d.Description == "" {
		return errDealDescription
	}
	if d.BuyQuantity < 1 {
		return errDealBuyQuantity
	}
	if (d.DiscountPercentage == nil) == (d.DiscountAmount == nil) {
		return errDealMode
	}
	if d.DiscountPercentage != nil {
		pct := *d.DiscountPercentage
		if !pct.IsPositive() || pct.GreaterThan(hundred) {
			return errDealPercentage
		}
	}
	if d.DiscountAmount != nil && !d.DiscountAmount.IsPositive() {
		return errDealAmount
	}
	if d.GetQuantity != nil && (*d.GetQuantity < 1 || d.DiscountPercentage == nil) {
		return errDealGetQuantity
	}
	return nil
}

type CreateDealRequest struct {
	ProductID          int64            `json:"product_id"          binding:"required"`
	Description        string           `json:"description"         binding:"required"`
	BuyQuantity        int              `json:"buy_quantity"        binding:"required,min=1"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
	DiscountAmount     *decimal.Decimal `json:"discount_amount"`
	GetQuantity        *int             `json:"get_quantity"`
	ExpiresAt          *time.Time       `json:"expires_at"`
}
