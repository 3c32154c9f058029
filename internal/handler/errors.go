package handler

import (
	"errors"
	"net/http"

	"github.com/cloud-wave-best-zizon/basket-service/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// writeError maps service errors to responses. Anything unrecognised is
// logged and answered with 500 "Failed to <action>".
func writeError(c *gin.Context, logger *zap.Logger, err error, action string) {
	var stockErr *service.InsufficientStockError

	switch {
	case errors.As(err, &stockErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Insufficient stock",
			"available": stockErr.Available,
			"requested": stockErr.Requested,
		})
	case errors.Is(err, service.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": "Insufficient stock"})
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, service.ErrDealNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Deal not found"})
	case errors.Is(err, service.ErrBasketNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Basket not found"})
	case errors.Is(err, service.ErrItemNotInBasket):
		c.JSON(http.StatusConflict, gin.H{"error": "Product not found in basket or insufficient quantity"})
	case errors.Is(err, service.ErrInvalidProduct),
		errors.Is(err, service.ErrInvalidDeal),
		errors.Is(err, service.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": "Product was modified concurrently, please retry"})
	case errors.Is(err, service.ErrOperationInterrupted):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Operation was interrupted, please retry"})
	default:
		logger.Error("Failed to "+action,
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}

func badRequest(c *gin.Context, logger *zap.Logger, err error) {
	logger.Warn("Invalid request", zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
}
