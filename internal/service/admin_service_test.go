package service

import (
	"context"
	"testing"
	"time"

	"github.com/cloud-wave-best-zizon/basket-service/internal/domain"
	"github.com/cloud-wave-best-zizon/basket-service/internal/locker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_CreateProductValidation(t *testing.T) {
	valid := domain.CreateProductRequest{
		Name:        "Lamp",
		Description: "Desk lamp",
		Price:       money("24.99"),
		Category:    domain.CategoryHome,
		Stock:       3,
	}

	tests := []struct {
		name   string
		mutate func(r *domain.CreateProductRequest)
	}{
		{"blank name", func(r *domain.CreateProductRequest) { r.Name = "  " }},
		{"blank description", func(r *domain.CreateProductRequest) { r.Description = "" }},
		{"zero price", func(r *domain.CreateProductRequest) { r.Price = money("0") }},
		{"three decimals", func(r *domain.CreateProductRequest) { r.Price = money("1.005") }},
		{"unknown category", func(r *domain.CreateProductRequest) { r.Category = "GARDEN" }},
		{"negative stock", func(r *domain.CreateProductRequest) { r.Stock = -1 }},
	}

	f := newFixture(t, locker.NewKeyed())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			_, err := f.admin.CreateProduct(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidProduct)
		})
	}

	p, err := f.admin.CreateProduct(context.Background(), valid)
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.True(t, p.Available)
	assertMoney(t, "24.99", p.Price)
}

func TestAdminService_GetAndRemoveProduct(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, locker.NewKeyed())
	id := f.createProduct(t, "3.00", 5)

	_, err := f.admin.GetProduct(ctx, 404)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.ErrorIs(t, f.admin.RemoveProduct(ctx, 404), ErrProductNotFound)

	require.NoError(t, f.admin.RemoveProduct(ctx, id))
	p, err := f.admin.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.False(t, p.Available)
	assert.Equal(t, 5, p.Stock)
}

func TestAdminService_RemoveProductKeepsBasketsRemovable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, locker.NewKeyed())
	id := f.createProduct(t, "3.00", 5)

	_, err := f.basket.AddToBasket(ctx, "s1", id, 2)
	require.NoError(t, err)
	require.NoError(t, f.admin.RemoveProduct(ctx, id))

	_, err = f.basket.RemoveFromBasket(ctx, "s1", id, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, f.stock(t, id))
}

func TestAdminService_Restock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, locker.NewKeyed())
	id := f.createProduct(t, "3.00", 1)

	p, err := f.admin.Restock(ctx, id, 9)
	require.NoError(t, err)
	assert.Equal(t, 10, p.Stock)
	assert.Equal(t, 10, f.stock(t, id))

	_, err = f.admin.Restock(ctx, id, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = f.admin.Restock(ctx, 404, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestAdminService_Deals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, locker.NewKeyed())
	id := f.createProduct(t, "3.00", 1)

	_, err := f.admin.CreateDeal(ctx, domain.CreateDealRequest{
		ProductID: 404, Description: "x", BuyQuantity: 1, DiscountAmount: pct("1.00"),
	})
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = f.admin.CreateDeal(ctx, domain.CreateDealRequest{
		ProductID: id, Description: "both", BuyQuantity: 1, DiscountAmount: pct("1.00"), DiscountPercentage: pct("5"),
	})
	assert.ErrorIs(t, err, ErrInvalidDeal)

	_, err = f.admin.CreateDeal(ctx, domain.CreateDealRequest{
		ProductID: id, Description: "too much", BuyQuantity: 1, DiscountPercentage: pct("120"),
	})
	assert.ErrorIs(t, err, ErrInvalidDeal)

	first, err := f.admin.CreateDeal(ctx, domain.CreateDealRequest{
		ProductID: id, Description: "first", BuyQuantity: 2, DiscountPercentage: pct("10"),
	})
	require.NoError(t, err)
	assert.True(t, first.Active)

	f.admin.now = func() time.Time { return time.Now().Add(time.Second) }
	second, err := f.admin.CreateDeal(ctx, domain.CreateDealRequest{
		ProductID: id, Description: "second", BuyQuantity: 1, DiscountAmount: pct("0.50"),
	})
	require.NoError(t, err)

	active, err := f.admin.ListActiveDeals(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, second.ID, active[0].ID)
	assert.Equal(t, first.ID, active[1].ID)

	require.NoError(t, f.admin.RemoveDeal(ctx, first.ID))
	assert.ErrorIs(t, f.admin.RemoveDeal(ctx, 404), ErrDealNotFound)

	active, err = f.admin.ListActiveDeals(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	stored, err := f.deals.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
}

func TestAdminService_CreateDealStoresExpiryToTheMillisecond(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, locker.NewKeyed())
	id := f.createProduct(t, "3.00", 1)

	expires := time.Date(2027, 3, 1, 12, 0, 0, 250_600_000, time.UTC)
	deal, err := f.admin.CreateDeal(ctx, domain.CreateDealRequest{
		ProductID: id, Description: "flash", BuyQuantity: 1, DiscountPercentage: pct("10"), ExpiresAt: &expires,
	})
	require.NoError(t, err)

	stored, err := f.deals.FindByID(ctx, deal.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ExpiresAt)
	assert.True(t, stored.ExpiresAt.Equal(time.Date(2027, 3, 1, 12, 0, 0, 250_000_000, time.UTC)))
}
