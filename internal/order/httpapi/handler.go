package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/metao1/online-store-go/internal/order/app"
	"github.com/metao1/online-store-go/internal/order/domain"
	"github.com/metao1/online-store-go/pkg/httpx"
	"github.com/metao1/online-store-go/pkg/idempotency"
	"github.com/metao1/online-store-go/pkg/money"
)

type Handler struct {
	svc *app.Service
}

func NewHandler(svc *app.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r *gin.Engine) {
	r.POST("/orders", h.createOrder)
	r.GET("/orders", h.listOrders)
	r.GET("/orders/:id", h.getOrder)
	r.POST("/orders/:id/items", h.addItem)
	r.PATCH("/orders/:id/items/:sku", h.updateItemQuantity)
	r.DELETE("/orders/:id/items/:sku", h.removeItem)
	r.POST("/orders/:id/submit", h.submit)
	r.POST("/orders/:id/cancel", h.cancel)
	r.PATCH("/orders/:id/status", h.updateStatus)
}

type createOrderRequest struct {
	CustomerID string `json:"customer_id" binding:"required"`
}

type itemRequest struct {
	SKU       string `json:"sku" binding:"required"`
	Quantity  string `json:"quantity" binding:"required"`
	UnitPrice string `json:"unit_price"`
	Currency  string `json:"currency"`
}

type orderResponse struct {
	OrderID    string         `json:"order_id"`
	CustomerID string         `json:"customer_id"`
	Status     string         `json:"status"`
	Items      []itemResponse `json:"items"`
	Total      string         `json:"total"`
	Currency   string         `json:"currency"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

type itemResponse struct {
	SKU       string `json:"sku"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Total     string `json:"total"`
}

func (h *Handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	customerID, err := domain.ParseCustomerID(req.CustomerID)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	order, err := h.svc.CreateOrder(c.Request.Context(), customerID, idempotency.Key(c.Request))
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toResponse(order))
}

func (h *Handler) getOrder(c *gin.Context) {
	id, err := domain.ParseOrderID(c.Param("id"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	order, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(order))
}

func (h *Handler) listOrders(c *gin.Context) {
	customerID, err := domain.ParseCustomerID(c.Query("customer_id"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	orders, err := h.svc.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		mapError(c, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toResponse(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

func (h *Handler) addItem(c *gin.Context) {
	id, err := domain.ParseOrderID(c.Param("id"))
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
	if err := h.svc.AddItem(c.Request.Context(), id, sku, qty, price); err != nil {
		mapError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) updateItemQuantity(c *gin.Context) {
	id, err := domain.ParseOrderID(c.Param("id"))
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
	if err := h.svc.UpdateItemQuantity(c.Request.Context(), id, sku, qty); err != nil {
		mapError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) removeItem(c *gin.Context) {
	id, err := domain.ParseOrderID(c.Param("id"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	sku, err := domain.ParseProductSKU(c.Param("sku"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	if err := h.svc.RemoveItem(c.Request.Context(), id, sku); err != nil {
		mapError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) submit(c *gin.Context) {
	id, err := domain.ParseOrderID(c.Param("id"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	if err := h.svc.Submit(c.Request.Context(), id); err != nil {
		mapError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) cancel(c *gin.Context) {
	id, err := domain.ParseOrderID(c.Param("id"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), id); err != nil {
		mapError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) updateStatus(c *gin.Context) {
	id, err := domain.ParseOrderID(c.Param("id"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.svc.UpdateStatus(c.Request.Context(), id, domain.OrderStatus(req.Status)); err != nil {
		mapError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func mapError(c *gin.Context, err error) {
	var transition domain.InvalidTransitionError
	switch {
	case errors.Is(err, app.ErrOrderNotFound), errors.Is(err, domain.ErrItemNotFound):
		httpx.Error(c, http.StatusNotFound, "not_found", err)
	case errors.As(err, &transition), errors.Is(err, domain.ErrOrderNotEditable):
		httpx.Error(c, http.StatusConflict, "invalid_state_transition", err)
	case errors.Is(err, app.ErrPaymentOutcomeReserved):
		httpx.Error(c, http.StatusConflict, "status_reserved", err)
	case errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrUnitPriceMismatch),
		errors.Is(err, money.ErrZeroQuantity),
		errors.Is(err, money.ErrNegativeQuantity):
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
	default:
		httpx.Error(c, http.StatusInternalServerError, "internal_error", err)
	}
}

func toResponse(o *domain.Order) orderResponse {
	items := make([]itemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, itemResponse{
			SKU:       string(it.SKU),
			Quantity:  it.Quantity.String(),
			UnitPrice: it.UnitPrice.Amount().String(),
			Total:     it.Total().Amount().String(),
		})
	}
	total := o.Total()
	return orderResponse{
		OrderID:    string(o.ID),
		CustomerID: string(o.CustomerID),
		Status:     string(o.Status),
		Items:      items,
		Total:      total.Amount().String(),
		Currency:   total.Currency(),
		CreatedAt:  o.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt:  o.UpdatedAt.Format(time.RFC3339Nano),
	}
}
