package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(id int64, price string) *Product {
	return &Product{
		ID:        id,
		Name:      "Product",
		Price:     decimal.RequireFromString(price),
		Category:  CategoryElectronics,
		Stock:     10,
		Available: true,
	}
}

func TestBasket_AddItemMergesSameProduct(t *testing.T) {
	b := NewBasket("s1")
	p := testProduct(1, "100.00")

	b.AddItem(p, 2)
	b.AddItem(p, 1)

	require.Len(t, b.Items, 1)
	assert.Equal(t, 3, b.Items[0].Quantity)
	assert.Equal(t, int64(1), b.Items[0].ID)
}

func TestBasket_AddItemPinsUnitPrice(t *testing.T) {
	b := NewBasket("s1")
	p := testProduct(1, "100.00")

	b.AddItem(p, 1)
	p.Price = decimal.RequireFromString("150.00")
	b.AddItem(p, 1)

	item, ok := b.Item(1)
	require.True(t, ok)
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, item.TotalPrice().Equal(decimal.RequireFromString("200.00")))
}

func TestBasket_RemoveItem(t *testing.T) {
	tests := []struct {
		name     string
		held     int
		remove   int
		wantLeft int
	}{
		{name: "partial", held: 3, remove: 2, wantLeft: 1},
		{name: "exact", held: 2, remove: 2, wantLeft: 0},
		{name: "more than held", held: 2, remove: 5, wantLeft: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBasket("s1")
			b.AddItem(testProduct(1, "10.00"), tt.held)

			assert.True(t, b.RemoveItem(1, tt.remove))
			assert.Equal(t, tt.wantLeft, b.QuantityOf(1))
			if tt.wantLeft == 0 {
				assert.Empty(t, b.Items)
				_, found := b.Item(1)
				assert.False(t, found)
			}
		})
	}
}

func TestBasket_RemoveUnknownProduct(t *testing.T) {
	b := NewBasket("s1")
	b.AddItem(testProduct(1, "10.00"), 1)

	assert.False(t, b.RemoveItem(2, 1))
	assert.Len(t, b.Items, 1)
}

func TestBasket_RemoveKeepsOrderOfOthers(t *testing.T) {
	b := NewBasket("s1")
	b.AddItem(testProduct(1, "1.00"), 1)
	b.AddItem(testProduct(2, "2.00"), 1)
	b.AddItem(testProduct(3, "3.00"), 1)

	require.True(t, b.RemoveItem(2, 1))

	require.Len(t, b.Items, 2)
	assert.Equal(t, int64(1), b.Items[0].ProductID)
	assert.Equal(t, int64(3), b.Items[1].ProductID)
}

func TestBasket_CloneIsIndependent(t *testing.T) {
	b := NewBasket("s1")
	b.AddItem(testProduct(1, "1.00"), 1)

	c := b.Clone()
	c.AddItem(testProduct(1, "1.00"), 4)
	c.AddItem(testProduct(2, "1.00"), 1)

	assert.Equal(t, 1, b.QuantityOf(1))
	assert.Equal(t, 0, b.QuantityOf(2))
	assert.Equal(t, 5, c.QuantityOf(1))
}

func TestBasket_JSONRoundTripRebuildsIndex(t *testing.T) {
	b := NewBasket("s1")
	b.AssignID(7)
	b.AddItem(testProduct(1, "12.50"), 2)

	data, err := json.Marshal(b)
	require.NoError(t, err)

	var decoded Basket
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, int64(7), decoded.ID)
	assert.Equal(t, int64(7), decoded.Items[0].BasketID)
	decoded.AddItem(testProduct(1, "99.00"), 1)
	require.Len(t, decoded.Items, 1)
	assert.Equal(t, 3, decoded.Items[0].Quantity)
	assert.True(t, decoded.Items[0].UnitPrice.Equal(decimal.RequireFromString("12.50")))
}
