package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/metao1/online-store-go/internal/payment/app"
	"github.com/metao1/online-store-go/internal/payment/domain"
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
	r.POST("/payments", h.createPayment)
	r.GET("/payments", h.getByOrder)
	r.GET("/payments/:id", h.getPayment)
	r.POST("/payments/:id/process", h.process)
	r.POST("/payments/:id/retry", h.retry)
	r.POST("/payments/:id/cancel", h.cancel)
}

type createPaymentRequest struct {
	OrderID       string `json:"order_id" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	Currency      string `json:"currency" binding:"required"`
	MethodType    string `json:"method_type" binding:"required"`
	MethodDetails string `json:"method_details"`
}

type paymentResponse struct {
	PaymentID     string `json:"payment_id"`
	OrderID       string `json:"order_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	MethodType    string `json:"method_type"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
	ProcessedAt   string `json:"processed_at,omitempty"`
}

func (h *Handler) createPayment(c *gin.Context) {
	var req createPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	amount, err := money.Parse(req.Amount, req.Currency)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	methodType, err := domain.ParseMethodType(req.MethodType)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	method := domain.PaymentMethod{Type: methodType, Details: req.MethodDetails}
	p, err := h.svc.Create(c.Request.Context(), req.OrderID, amount, method)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toResponse(p))
}

func (h *Handler) getPayment(c *gin.Context) {
	id, err := domain.ParsePaymentID(c.Param("id"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(p))
}

func (h *Handler) getByOrder(c *gin.Context) {
	orderID := c.Query("order_id")
	if orderID == "" {
		httpx.Error(c, http.StatusBadRequest, "validation_error", errors.New("order_id is required"))
		return
	}
	p, err := h.svc.GetByOrderID(c.Request.Context(), orderID)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(p))
}

func (h *Handler) process(c *gin.Context) {
	h.mutate(c, h.svc.Process)
}

func (h *Handler) retry(c *gin.Context) {
	h.mutate(c, h.svc.Retry)
}

func (h *Handler) cancel(c *gin.Context) {
	h.mutate(c, h.svc.Cancel)
}

func (h *Handler) mutate(c *gin.Context, op func(ctx context.Context, id domain.PaymentID) error) {
	id, err := domain.ParsePaymentID(c.Param("id"))
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	if err := op(c.Request.Context(), id); err != nil {
		mapError(c, err)
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(p))
}

func mapError(c *gin.Context, err error) {
	var transition domain.InvalidTransitionError
	switch {
	case errors.Is(err, app.ErrPaymentNotFound):
		httpx.Error(c, http.StatusNotFound, "not_found", err)
	case errors.Is(err, app.ErrDuplicatePayment):
		httpx.Error(c, http.StatusConflict, "duplicate_payment", err)
	case errors.As(err, &transition):
		httpx.Error(c, http.StatusConflict, "invalid_state_transition", err)
	case errors.Is(err, domain.ErrInvalidAmount):
		httpx.Error(c, http.StatusBadRequest, "validation_error", err)
	default:
		httpx.Error(c, http.StatusInternalServerError, "internal_error", err)
	}
}

func toResponse(p *domain.Payment) paymentResponse {
	resp := paymentResponse{
		PaymentID:     string(p.ID),
		OrderID:       p.OrderID,
		Amount:        p.Amount.Amount().String(),
		Currency:      p.Amount.Currency(),
		MethodType:    string(p.Method.Type),
		Status:        string(p.Status),
		FailureReason: p.FailureReason,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339Nano),
	}
	if p.ProcessedAt != nil {
		resp.ProcessedAt = p.ProcessedAt.Format(time.RFC3339Nano)
	}
	return resp
}
