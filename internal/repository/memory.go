package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cloud-wave-best-zizon/basket-service/internal/domain"
)

// The memory repositories hand out copies, so callers never share state
// with the store or with each other.

type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
	nextID   int64
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{products: make(map[int64]domain.Product)}
}

func (r *MemoryProductRepository) Create(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	product.ID = r.nextID
	r.products[product.ID] = *product
	return nil
}

func (r *MemoryProductRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (r *MemoryProductRepository) Save(ctx context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.products[product.ID]
	if !ok {
		return ErrProductNotFound
	}
	if stored.Version != product.Version {
		return ErrProductConflict
	}
	product.Version++
	product.UpdatedAt = time.Now()
	r.products[product.ID] = *product
	return nil
}

type MemoryDealRepository struct {
	mu     sync.RWMutex
	deals  map[int64]domain.Deal
	nextID int64
}

func NewMemoryDealRepository() *MemoryDealRepository {
	return &MemoryDealRepository{deals: make(map[int64]domain.Deal)}
}

func (r *MemoryDealRepository) Create(ctx context.Context, deal *domain.Deal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	deal.ID = r.nextID
	r.deals[deal.ID] = *deal
	return nil
}

func (r *MemoryDealRepository) FindByID(ctx context.Context, id int64) (*domain.Deal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.deals[id]
	if !ok {
		return nil, ErrDealNotFound
	}
	return &d, nil
}

func (r *MemoryDealRepository) Save(ctx context.Context, deal *domain.Deal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.deals[deal.ID]; !ok {
		return ErrDealNotFound
	}
	r.deals[deal.ID] = *deal
	return nil
}

func (r *MemoryDealRepository) FindActiveDealsForProduct(ctx context.Context, productID int64, now time.Time) ([]*domain.Deal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var deals []*domain.Deal
	for _, d := range r.deals {
		if d.ProductID == productID && d.ApplicableAt(now) {
			d := d
			deals = append(deals, &d)
		}
	}
	sort.Slice(deals, func(i, j int) bool { return deals[i].ID < deals[j].ID })
	return deals, nil
}

// FindActive returns the applicable deals, newest first.
func (r *MemoryDealRepository) FindActive(ctx context.Context, now time.Time) ([]*domain.Deal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var deals []*domain.Deal
	for _, d := range r.deals {
		if d.ApplicableAt(now) {
			d := d
			deals = append(deals, &d)
		}
	}
	sortNewestFirst(deals)
	return deals, nil
}

func sortNewestFirst(deals []*domain.Deal) {
	sort.Slice(deals, func(i, j int) bool {
		if !deals[i].CreatedAt.Equal(deals[j].CreatedAt) {
			return deals[i].CreatedAt.After(deals[j].CreatedAt)
		}
		return deals[i].ID > deals[j].ID
	})
}

type MemoryBasketRepository struct {
	mu      sync.RWMutex
	baskets map[string]*domain.Basket
	nextID  int64
}

func NewMemoryBasketRepository() *MemoryBasketRepository {
	return &MemoryBasketRepository{baskets: make(map[string]*domain.Basket)}
}

func (r *MemoryBasketRepository) FindBySessionID(ctx context.Context, sessionID string) (*domain.Basket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.baskets[sessionID]
	if !ok {
		return nil, ErrBasketNotFound
	}
	return b.Clone(), nil
}

func (r *MemoryBasketRepository) Save(ctx context.Context, basket *domain.Basket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if basket.ID == 0 {
		if existing, ok := r.baskets[basket.SessionID]; ok {
			basket.AssignID(existing.ID)
		} else {
			r.nextID++
			basket.AssignID(r.nextID)
		}
	}
	r.baskets[basket.SessionID] = basket.Clone()
	return nil
}
