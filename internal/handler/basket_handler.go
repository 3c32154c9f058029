package handler

import (
	"net/http"
	"strings"

	"github.com/cloud-wave-best-zizon/basket-service/internal/domain"
	"github.com/cloud-wave-best-zizon/basket-service/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const SessionIDHeader = "X-Session-ID"

type BasketHandler struct {
	basketService  *service.BasketService
	receiptService *service.ReceiptService
	logger         *zap.Logger
}

func NewBasketHandler(basketService *service.BasketService, receiptService *service.ReceiptService, logger *zap.Logger) *BasketHandler {
	return &BasketHandler{
		basketService:  basketService,
		receiptService: receiptService,
		logger:         logger,
	}
}

func (h *BasketHandler) Register(rg *gin.RouterGroup) {
	basket := rg.Group("/basket")
	basket.POST("/add", h.AddToBasket)
	basket.POST("/remove", h.RemoveFromBasket)
	basket.GET("/receipt", h.GetReceipt)
}

func sessionID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.GetHeader(SessionIDHeader))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": SessionIDHeader + " header is required"})
		return "", false
	}
	return id, true
}

func (h *BasketHandler) AddToBasket(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}

	var req domain.BasketItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	msg, err := h.basketService.AddToBasket(c.Request.Context(), sid, req.ProductID, req.Quantity)
	if err != nil {
		writeError(c, h.logger, err, "add product to basket")
		return
	}

	c.JSON(http.StatusOK, domain.BasketMutationResponse{Message: msg})
}

func (h *BasketHandler) RemoveFromBasket(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}

	var req domain.BasketItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	msg, err := h.basketService.RemoveFromBasket(c.Request.Context(), sid, req.ProductID, req.Quantity)
	if err != nil {
		writeError(c, h.logger, err, "remove product from basket")
		return
	}

	c.JSON(http.StatusOK, domain.BasketMutationResponse{Message: msg})
}

func (h *BasketHandler) GetReceipt(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}

	receipt, err := h.receiptService.CalculateReceipt(c.Request.Context(), sid)
	if err != nil {
		writeError(c, h.logger, err, "calculate receipt")
		return
	}

	c.JSON(http.StatusOK, receipt)
}
