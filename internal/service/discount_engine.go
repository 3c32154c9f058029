package service

import (
	"context"
	"time"

	"github.com/cloud-wave-best-zizon/basket-service/internal/domain"
	"github.com/cloud-wave-best-zizon/basket-service/internal/repository"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountEngine prices a basket snapshot. It never writes anything and is
// safe for concurrent use.
type DiscountEngine struct {
	dealRepo repository.DealRepository
	now      func() time.Time
}

func NewDiscountEngine(dealRepo repository.DealRepository) *DiscountEngine {
	return &DiscountEngine{dealRepo: dealRepo, now: time.Now}
}

// Calculate builds the receipt for basket. Every applicable deal of an item
// is applied and the discounts add up; the total never goes below zero.
func (e *DiscountEngine) Calculate(ctx context.Context, basket *domain.Basket) (*domain.Receipt, error) {
	now := e.now()

	receipt := &domain.Receipt{
		SessionID:     basket.SessionID,
		Items:         make([]domain.ReceiptLine, 0, len(basket.Items)),
		AppliedDeals:  []domain.AppliedDeal{},
		Subtotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
	}

	for _, item := range basket.Items {
		line := item.TotalPrice()
		receipt.Subtotal = receipt.Subtotal.Add(line)
		receipt.Items = append(receipt.Items, domain.ReceiptLine{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
			TotalPrice:  line,
		})
	}

	for _, item := range basket.Items {
		deals, err := e.dealRepo.FindActiveDealsForProduct(ctx, item.ProductID, now)
		if err != nil {
			return nil, err
		}

		for _, deal := range deals {
			if !deal.ApplicableAt(now) {
				continue
			}
			discount := CalculateDiscount(item, deal)
			if !discount.IsPositive() {
				continue
			}
			receipt.TotalDiscount = receipt.TotalDiscount.Add(discount)
			receipt.AppliedDeals = append(receipt.AppliedDeals, domain.AppliedDeal{
				DealID:         deal.ID,
				ProductID:      item.ProductID,
				Description:    deal.Description,
				DiscountAmount: discount,
			})
		}
	}

	receipt.TotalPrice = decimal.Max(decimal.Zero, receipt.Subtotal.Sub(receipt.TotalDiscount))
	receipt.GeneratedAt = now
	return receipt, nil
}

// CalculateDiscount returns what deal takes off item. Nothing is granted
// below the buy threshold. A percentage deal discounts one unit per complete
// set (GetQuantity units per set when set), never more units than are held,
// with the per-unit discount rounded half-up to cents. An amount deal takes
// the amount once per complete set.
func CalculateDiscount(item *domain.BasketItem, deal *domain.Deal) decimal.Decimal {
	if deal.BuyQuantity < 1 || item.Quantity < deal.BuyQuantity {
		return decimal.Zero
	}
	sets := item.Quantity / deal.BuyQuantity

	switch {
	case deal.DiscountPercentage != nil:
		units := sets
		if deal.GetQuantity != nil {
			units = *deal.GetQuantity * sets
		}
		units = min(units, item.Quantity)

		perUnit := item.UnitPrice.Mul(*deal.DiscountPercentage).Div(hundred).Round(2)
		return perUnit.Mul(decimal.NewFromInt(int64(units)))
	case deal.DiscountAmount != nil:
		return deal.DiscountAmount.Mul(decimal.NewFromInt(int64(sets)))
	}
	return decimal.Zero
}
