package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cloud-wave-best-zizon/basket-service/internal/domain"
	"github.com/cloud-wave-best-zizon/basket-service/internal/locker"
	"github.com/cloud-wave-best-zizon/basket-service/internal/repository"
	"github.com/cloud-wave-best-zizon/basket-service/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zap.NewNop()
	products := repository.NewMemoryProductRepository()
	deals := repository.NewMemoryDealRepository()
	baskets := repository.NewMemoryBasketRepository()
	lk := locker.NewKeyed()
	ledger := service.NewStockLedger(products, service.DefaultReserveAttempts, time.Millisecond)

	basketHandler := NewBasketHandler(
		service.NewBasketService(products, baskets, ledger, lk, nil, logger),
		service.NewReceiptService(baskets, service.NewDiscountEngine(deals), logger),
		logger,
	)
	adminHandler := NewAdminHandler(service.NewAdminService(products, deals, ledger, lk, logger), logger)

	router := gin.New()
	v1 := router.Group("/api/v1")
	basketHandler.Register(v1)
	adminHandler.Register(v1)
	return router
}

func do(t *testing.T, r http.Handler, method, path, session string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(SessionIDHeader, session)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func createProduct(t *testing.T, r http.Handler, price string, stock int) int64 {
	t.Helper()
	w := do(t, r, http.MethodPost, "/api/v1/admin/products", "", map[string]any{
		"name":        "Headphones",
		"description": "Over-ear",
		"price":       price,
		"category":    "ELECTRONICS",
		"stock":       stock,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[domain.ProductResponse](t, w).ID
}

func TestBasketFlow(t *testing.T) {
	r := newTestRouter(t)
	id := createProduct(t, r, "100.00", 10)

	w := do(t, r, http.MethodPost, "/api/v1/admin/deals", "", map[string]any{
		"product_id":          id,
		"description":         "10% off pairs",
		"buy_quantity":        2,
		"discount_percentage": "10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/v1/basket/add", "s1", domain.BasketItemRequest{ProductID: id, Quantity: 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, service.MsgAddedToBasket, decode[domain.BasketMutationResponse](t, w).Message)

	w = do(t, r, http.MethodGet, "/api/v1/basket/receipt", "s1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	receipt := decode[domain.Receipt](t, w)
	require.Len(t, receipt.Items, 1)
	assert.Equal(t, "300.00", receipt.Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", receipt.TotalDiscount.StringFixed(2))
	assert.Equal(t, "290.00", receipt.TotalPrice.StringFixed(2))

	w = do(t, r, http.MethodPost, "/api/v1/basket/remove", "s1", domain.BasketItemRequest{ProductID: id, Quantity: 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/admin/products/%d", id), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, decode[domain.ProductResponse](t, w).Stock)
}

func TestBasketErrors(t *testing.T) {
	r := newTestRouter(t)
	id := createProduct(t, r, "5.00", 2)

	tests := []struct {
		name    string
		method  string
		path    string
		session string
		body    any
		status  int
	}{
		{"missing session", http.MethodPost, "/api/v1/basket/add", "", domain.BasketItemRequest{ProductID: id, Quantity: 1}, http.StatusBadRequest},
		{"zero quantity", http.MethodPost, "/api/v1/basket/add", "s1", map[string]any{"product_id": id, "quantity": 0}, http.StatusBadRequest},
		{"unknown product", http.MethodPost, "/api/v1/basket/add", "s1", domain.BasketItemRequest{ProductID: 99, Quantity: 1}, http.StatusNotFound},
		{"no basket", http.MethodPost, "/api/v1/basket/remove", "s1", domain.BasketItemRequest{ProductID: id, Quantity: 1}, http.StatusNotFound},
		{"no receipt", http.MethodGet, "/api/v1/basket/receipt", "s1", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, tt.method, tt.path, tt.session, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestBasketInsufficientStock(t *testing.T) {
	r := newTestRouter(t)
	id := createProduct(t, r, "5.00", 2)

	w := do(t, r, http.MethodPost, "/api/v1/basket/add", "s1", domain.BasketItemRequest{ProductID: id, Quantity: 3})
	require.Equal(t, http.StatusConflict, w.Code)

	body := decode[map[string]any](t, w)
	assert.Equal(t, "Insufficient stock", body["error"])
	assert.EqualValues(t, 2, body["available"])
	assert.EqualValues(t, 3, body["requested"])
}

func TestBasketItemNotInBasket(t *testing.T) {
	r := newTestRouter(t)
	first := createProduct(t, r, "5.00", 2)
	second := createProduct(t, r, "6.00", 2)

	w := do(t, r, http.MethodPost, "/api/v1/basket/add", "s1", domain.BasketItemRequest{ProductID: first, Quantity: 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/basket/remove", "s1", domain.BasketItemRequest{ProductID: second, Quantity: 1})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdminProducts(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/admin/products", "", map[string]any{
		"name": "Ball", "description": "Football", "price": "12.50", "category": "GARDEN", "stock": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/admin/products", "", map[string]any{"name": "Ball"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/v1/admin/products/abc", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/api/v1/admin/products/7", "", nil).Code)

	id := createProduct(t, r, "12.50", 1)
	path := fmt.Sprintf("/api/v1/admin/products/%d", id)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodDelete, path, "", nil).Code)

	w = do(t, r, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[domain.ProductResponse](t, w).Available)

	w = do(t, r, http.MethodPost, "/api/v1/basket/add", "s1", domain.BasketItemRequest{ProductID: id, Quantity: 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminDeals(t *testing.T) {
	r := newTestRouter(t)
	id := createProduct(t, r, "12.50", 1)

	w := do(t, r, http.MethodGet, "/api/v1/admin/deals", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = do(t, r, http.MethodPost, "/api/v1/admin/deals", "", map[string]any{
		"product_id": id, "description": "bad", "buy_quantity": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/admin/deals", "", map[string]any{
		"product_id": 999, "description": "orphan", "buy_quantity": 1, "discount_amount": "1.00",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/admin/deals", "", map[string]any{
		"product_id": id, "description": "1 off", "buy_quantity": 1, "discount_amount": "1.00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	deal := decode[domain.Deal](t, w)

	w = do(t, r, http.MethodGet, "/api/v1/admin/deals", "", nil)
	require.Len(t, decode[[]domain.Deal](t, w), 1)

	assert.Equal(t, http.StatusOK, do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/admin/deals/%d", deal.ID), "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodDelete, "/api/v1/admin/deals/999", "", nil).Code)

	w = do(t, r, http.MethodGet, "/api/v1/admin/deals", "", nil)
	assert.Empty(t, decode[[]domain.Deal](t, w))
}

func TestWriteError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: %w", service.ErrOperationInterrupted, context.Canceled), http.StatusServiceUnavailable},
		{service.ErrInsufficientStock, http.StatusConflict},
		{service.ErrConcurrentUpdate, http.StatusConflict},
		{fmt.Errorf("%w: bad", service.ErrInvalidDeal), http.StatusBadRequest},
		{service.ErrInvalidQuantity, http.StatusBadRequest},
		{service.ErrDealNotFound, http.StatusNotFound},
		{errors.New("dynamodb throttled"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			writeError(c, zap.NewNop(), tt.err, "do thing")
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
