package handler

import (
	"net/http"
	"strconv"

	"github.com/cloud-wave-best-zizon/basket-service/internal/domain"
	"github.com/cloud-wave-best-zizon/basket-service/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	adminService *service.AdminService
	logger       *zap.Logger
}

func NewAdminHandler(adminService *service.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
		logger:       logger,
	}
}

func (h *AdminHandler) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.POST("/products", h.CreateProduct)
	admin.GET("/products/:id", h.GetProduct)
	admin.DELETE("/products/:id", h.RemoveProduct)
	admin.POST("/deals", h.CreateDeal)
	admin.GET("/deals", h.ListActiveDeals)
	admin.DELETE("/deals/:id", h.RemoveDeal)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}

func (h *AdminHandler) CreateProduct(c *gin.Context) {
	var req domain.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	product, err := h.adminService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err, "create product")
		return
	}

	c.JSON(http.StatusCreated, domain.NewProductResponse(product))
}

func (h *AdminHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, err := h.adminService.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.logger, err, "get product")
		return
	}

	c.JSON(http.StatusOK, domain.NewProductResponse(product))
}

func (h *AdminHandler) RemoveProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.adminService.RemoveProduct(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err, "remove product")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product removed successfully"})
}

func (h *AdminHandler) CreateDeal(c *gin.Context) {
	var req domain.CreateDealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	deal, err := h.adminService.CreateDeal(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err, "create deal")
		return
	}

	c.JSON(http.StatusCreated, deal)
}

func (h *AdminHandler) ListActiveDeals(c *gin.Context) {
	deals, err := h.adminService.ListActiveDeals(c.Request.Context())
	if err != nil {
		writeError(c, h.logger, err, "list deals")
		return
	}
	if deals == nil {
		deals = []*domain.Deal{}
	}

	c.JSON(http.StatusOK, deals)
}

func (h *AdminHandler) RemoveDeal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.adminService.RemoveDeal(c.Request.Context(), id); err != nil {
		writeError(c, h.logger, err, "remove deal")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Deal removed successfully"})
}
