package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryElectronics Category = "ELECTRONICS"
	CategoryClothing    Category = "CLOTHING"
	CategoryFood        Category = "FOOD"
	CategoryBooks       Category = "BOOKS"
	CategoryHome        Category = "HOME"
	CategoryToys        Category = "TOYS"
	CategorySports      Category = "SPORTS"
	CategoryOther       Category = "OTHER"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryElectronics, CategoryClothing, CategoryFood, CategoryBooks,
		CategoryHome, CategoryToys, CategorySports, CategoryOther:
		return true
	}
	return false
}

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"category"`
	Stock       int             `json:"stock"`
	Available   bool            `json:"available"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Version counts persisted writes. A Save carrying a stale Version is
	// rejected by the catalog.
	Version int64 `json:"-"`
}

// DecrementStock removes quantity from stock if enough is on hand.
// Stock is left untouched when it is not.
func (p *Product) DecrementStock(quantity int) bool {
	if p.Stock < quantity {
		return false
	}
	p.Stock -= quantity
	return true
}

func (p *Product) IncrementStock(quantity int) {
	p.Stock += quantity
}

type CreateProductRequest struct {
	Name        string          `json:"name"        binding:"required"`
	Description string          `json:"description" binding:"required"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"category"    binding:"required"`
	Stock       int             `json:"stock"       binding:"min=0"`
}

type ProductResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    Category        `json:"category"`
	Stock       int             `json:"stock"`
	Available   bool            `json:"available"`
	CreatedAt   time.Time       `json:"created_at"`
}

func NewProductResponse(p *Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Stock:       p.Stock,
		Available:   p.Available,
		CreatedAt:   p.CreatedAt,
	}
}
