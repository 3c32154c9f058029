package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Basket holds the line items of one session. Items keeps insertion order;
// index is derived from it and never serialized.
type Basket struct {
	ID         int64         `json:"id"`
	SessionID  string        `json:"session_id"`
	Items      []*BasketItem `json:"items"`
	NextItemID int64         `json:"next_item_id"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`

	index map[int64]*BasketItem
}

// BasketItem refers to its basket and product by id only. UnitPrice and
// ProductName are captured when the product is first added.
type BasketItem struct {
	ID          int64           `json:"id"`
	BasketID    int64           `json:"basket_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (i *BasketItem) TotalPrice() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func NewBasket(sessionID string) *Basket {
	now := time.Now()
	return &Basket{
		SessionID: sessionID,
		Items:     []*BasketItem{},
		CreatedAt: now,
		UpdatedAt: now,
		index:     make(map[int64]*BasketItem),
	}
}

// AddItem merges quantity into the existing item for the product, keeping
// the unit price it was first added at, or appends a new item priced at
// product.Price.
func (b *Basket) AddItem(product *Product, quantity int) *BasketItem {
	b.ensureIndex()
	b.UpdatedAt = time.Now()

	if existing, ok := b.index[product.ID]; ok {
		existing.Quantity += quantity
		return existing
	}

	b.NextItemID++
	item := &BasketItem{
		ID:          b.NextItemID,
		BasketID:    b.ID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
	}
	b.Items = append(b.Items, item)
	b.index[product.ID] = item
	return item
}

// RemoveItem takes quantity of the product out of the basket. It reports
// false when the basket holds no such product. When the held quantity is
// not larger than quantity the item is dropped entirely.
func (b *Basket) RemoveItem(productID int64, quantity int) bool {
	b.ensureIndex()

	item, found := b.index[productID]
	if !found {
		return false
	}
	b.UpdatedAt = time.Now()

	if item.Quantity <= quantity {
		delete(b.index, productID)
		for i, it := range b.Items {
			if it == item {
				b.Items = append(b.Items[:i], b.Items[i+1:]...)
				break
			}
		}
		return true
	}

	item.Quantity -= quantity
	return true
}

func (b *Basket) Item(productID int64) (*BasketItem, bool) {
	b.ensureIndex()
	item, ok := b.index[productID]
	return item, ok
}

// QuantityOf returns the held quantity of the product, 0 if absent.
func (b *Basket) QuantityOf(productID int64) int {
	if item, ok := b.Item(productID); ok {
		return item.Quantity
	}
	return 0
}

// AssignID sets the basket id and propagates it to the items' back-references.
func (b *Basket) AssignID(id int64) {
	b.ID = id
	for _, item := range b.Items {
		item.BasketID = id
	}
}

// Clone returns a deep copy that shares no items with b.
func (b *Basket) Clone() *Basket {
	c := *b
	c.Items = make([]*BasketItem, len(b.Items))
	for i, item := range b.Items {
		cp := *item
		c.Items[i] = &cp
	}
	c.index = nil
	c.ensureIndex()
	return &c
}

func (b *Basket) UnmarshalJSON(data []byte) error {
	type basketJSON Basket
	var raw basketJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = Basket(raw)
	if b.Items == nil {
		b.Items = []*BasketItem{}
	}
	b.index = nil
	b.ensureIndex()
	return nil
}

func (b *Basket) ensureIndex() {
	if b.index != nil {
		return
	}
	b.index = make(map[int64]*BasketItem, len(b.Items))
	for _, item := range b.Items {
		b.index[item.ProductID] = item
	}
}

type BasketItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"   binding:"required,min=1"`
}

type BasketMutationResponse struct {
	Message string `json:"message"`
}
