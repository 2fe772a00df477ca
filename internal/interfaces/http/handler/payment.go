package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/tradeflow/backend/internal/application/workflow"
	"github.com/tradeflow/backend/internal/domain/shared"
)

// PaymentService is the payment stage use case
type PaymentService interface {
	ExecutePayment(ctx context.Context, tradeID string) (*workflow.PaymentResponse, error)
	GetByID(ctx context.Context, id string) (*workflow.PaymentResponse, error)
	ListRecent(ctx context.Context, query workflow.PageQuery) ([]workflow.PaymentResponse, int64, error)
}

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	BaseHandler
	payments PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// Execute handles POST /trades/:id/payments. A failed hop is reported in
// the payment body, not as an error status.
func (h *PaymentHandler) Execute(c *gin.Context) {
	tradeID, ok := h.RequireID(c, "id", shared.PrefixTrade)
	if !ok {
		return
	}

	p, err := h.payments.ExecutePayment(c.Request.Context(), tradeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// GetByID handles GET /payments/:id
func (h *PaymentHandler) GetByID(c *gin.Context) {
	id, ok := h.RequireID(c, "id", shared.PrefixPayment)
	if !ok {
		return
	}

	p, err := h.payments.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// ListRecent handles GET /payments
func (h *PaymentHandler) ListRecent(c *gin.Context) {
	var query workflow.PageQuery
	if !h.BindQuery(c, &query) {
		return
	}

	payments, total, err := h.payments.ListRecent(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, payments, total, query)
}
