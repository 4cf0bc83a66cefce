package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/metao1/online-store-go/internal/product/app"
	"github.com/metao1/online-store-go/internal/product/domain"
	"github.com/metao1/online-store-go/pkg/httpx"
	"github.com/metao1/online-store-go/pkg/money"
)

type Handler struct {
	svc *app.Service
}

func NewHandler(svc *app.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r *gin.Engine) {
	r.POST("/products", h.createProduct)
	r.GET("/products", h.listProducts)
	r.GET("/products/:sku", h.getProduct)
	r.PATCH("/products/:sku/price", h.updatePrice)
	r.PATCH("/products/:sku/name", h.rename)
	r.POST("/products/:sku/stock/reserve", h.reserveStock)
	r.POST("/products/:sku/stock/restock", h.restock)
}

type createProductRequest struct {
	SKU      string `json:"sku" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Price    string `json:"price" binding:"required"`
	Currency string `json:"currency" binding:"required"`
	Stock    string `json:"stock" binding:"required"`
}

type productResponse struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Currency  string `json:"currency"`
	Stock     string `json:"stock"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func (h *Handler) createProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sku, err := domain.ParseProductSKU(req.SKU)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	price, err := money.Parse(req.Price, req.Currency)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	stock, err := money.ParseQuantity(req.Stock)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	p, err := h.svc.Create(c.Request.Context(), sku, req.Name, price, stock)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toResponse(p))
}

func (h *Handler) getProduct(c *gin.Context) {
	sku, err := domain.ParseProductSKU(c.Param("sku"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	p, err := h.svc.Get(c.Request.Context(), sku)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(p))
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.svc.List(c.Request.Context())
	if err != nil {
		mapError(c, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

func (h *Handler) updatePrice(c *gin.Context) {
	sku, err := domain.ParseProductSKU(c.Param("sku"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	var req struct {
		Price    string `json:"price" binding:"required"`
		Currency string `json:"currency" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	price, err := money.Parse(req.Price, req.Currency)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	if err := h.svc.UpdatePrice(c.Request.Context(), sku, price); err != nil {
		mapError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) rename(c *gin.Context) {
	sku, err := domain.ParseProductSKU(c.Param("sku"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.svc.Rename(c.Request.Context(), sku, req.Name); err != nil {
		mapError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) reserveStock(c *gin.Context) {
	h.adjustStock(c, h.svc.ReserveStock)
}

func (h *Handler) restock(c *gin.Context) {
	h.adjustStock(c, h.svc.Restock)
}

func (h *Handler) adjustStock(c *gin.Context, op func(ctx context.Context, sku domain.ProductSKU, qty money.Quantity) error) {
	sku, err := domain.ParseProductSKU(c.Param("sku"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	var req struct {
		Quantity string `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	qty, err := money.ParseQuantity(req.Quantity)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	if err := op(c.Request.Context(), sku, qty); err != nil {
		mapError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func mapError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrProductNotFound):
		httpx.Error(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, app.ErrDuplicateSKU):
		httpx.Error(c, http.StatusConflict, "duplicate_sku", err)
	case errors.Is(err, domain.ErrInsufficientStock):
		httpx.Error(c, http.StatusConflict, "insufficient_stock", err)
	case errors.Is(err, domain.ErrBlankName),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, money.ErrZeroQuantity),
		errors.Is(err, money.ErrNegativeQuantity):
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
	default:
		httpx.Error(c, http.StatusInternalServerError, "internal_error", err)
	}
}

func toResponse(p *domain.Product) productResponse {
	return productResponse{
		SKU:       string(p.SKU),
		Name:      p.Name,
		Price:     p.Price.Amount().String(),
		Currency:  p.Price.Currency(),
		Stock:     p.Stock.String(),
		CreatedAt: p.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339Nano),
	}
}
