package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/metao1/online-store-go/internal/cart/app"
	"github.com/metao1/online-store-go/internal/cart/domain"
	"github.com/metao1/online-store-go/pkg/httpx"
	"github.com/metao1/online-store-go/pkg/money"
)

type Handler struct {
	svc *app.Service
}

func NewHandler(svc *app.Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the cart routes. The cart is addressed by customer, not by
// cart id; the active cart is implicit.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/carts/:customer_id", h.getCart)
	r.PUT("/carts/:customer_id/items", h.addItem)
	r.PATCH("/carts/:customer_id/items/:sku", h.updateItemQuantity)
	r.DELETE("/carts/:customer_id/items/:sku", h.removeItem)
	r.DELETE("/carts/:customer_id/items", h.clear)
	r.POST("/carts/:customer_id/checkout", h.checkout)
}

type itemRequest struct {
	SKU       string `json:"sku" binding:"required"`
	Quantity  string `json:"quantity" binding:"required"`
	UnitPrice string `json:"unit_price" binding:"required"`
	Currency  string `json:"currency" binding:"required"`
}

type cartResponse struct {
	CartID     string         `json:"cart_id"`
	CustomerID string         `json:"customer_id"`
	Status     string         `json:"status"`
	Items      []itemResponse `json:"items"`
	Total      string         `json:"total"`
	Currency   string         `json:"currency"`
	UpdatedAt  string         `json:"updated_at"`
}

type itemResponse struct {
	SKU       string `json:"sku"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Total     string `json:"total"`
}

func (h *Handler) getCart(c *gin.Context) {
	customerID, err := domain.ParseCustomerID(c.Param("customer_id"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	cart, err := h.svc.GetActive(c.Request.Context(), customerID)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(cart))
}

func (h *Handler) addItem(c *gin.Context) {
	customerID, err := domain.ParseCustomerID(c.Param("customer_id"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sku, err := domain.ParseProductSKU(req.SKU)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	qty, err := money.ParseQuantity(req.Quantity)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	price, err := money.Parse(req.UnitPrice, req.Currency)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	cart, err := h.svc.AddItem(c.Request.Context(), customerID, sku, qty, price)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(cart))
}

func (h *Handler) updateItemQuantity(c *gin.Context) {
	customerID, err := domain.ParseCustomerID(c.Param("customer_id"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
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
	if err := h.svc.UpdateItemQuantity(c.Request.Context(), customerID, sku, qty); err != nil {
		mapError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) removeItem(c *gin.Context) {
	customerID, err := domain.ParseCustomerID(c.Param("customer_id"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	sku, err := domain.ParseProductSKU(c.Param("sku"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	if err := h.svc.RemoveItem(c.Request.Context(), customerID, sku); err != nil {
		mapError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) clear(c *gin.Context) {
	customerID, err := domain.ParseCustomerID(c.Param("customer_id"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	if err := h.svc.Clear(c.Request.Context(), customerID); err != nil {
		mapError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) checkout(c *gin.Context) {
	customerID, err := domain.ParseCustomerID(c.Param("customer_id"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	cart, err := h.svc.Checkout(c.Request.Context(), customerID)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(cart))
}

func mapError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrCartNotFound), errors.Is(err, domain.ErrItemNotFound):
		httpx.Error(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, domain.ErrCartNotEditable):
		httpx.Error(c, http.StatusConflict, "cart_checked_out", err)
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrUnitPriceMismatch),
		errors.Is(err, money.ErrZeroQuantity),
		errors.Is(err, money.ErrNegativeQuantity):
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
	default:
		httpx.Error(c, http.StatusInternalServerError, "internal_error", err)
	}
}

func toResponse(cart *domain.Cart) cartResponse {
	items := make([]itemResponse, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, itemResponse{
			SKU:       string(it.SKU),
			Quantity:  it.Quantity.String(),
			UnitPrice: it.UnitPrice.Amount().String(),
			Total:     it.Total().Amount().String(),
		})
	}
	total := cart.Total()
	return cartResponse{
		CartID:     string(cart.ID),
		CustomerID: string(cart.CustomerID),
		Status:     string(cart.Status),
		Items:      items,
		Total:      total.Amount().String(),
		Currency:   total.Currency(),
		UpdatedAt:  cart.UpdatedAt.Format(time.RFC3339Nano),
	}
}
