package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/tradeflow/backend/internal/application/workflow"
	"github.com/tradeflow/backend/internal/domain/shared"
)

// FinanceService is the finance stage use case
type FinanceService interface {
	GenerateOffers(ctx context.Context, tradeID string) ([]workflow.FinanceOfferResponse, error)
	AcceptOffer(ctx context.Context, offerID string) (*workflow.FinanceOfferResponse, error)
	ListByTrade(ctx context.Context, tradeID string) ([]workflow.FinanceOfferResponse, error)
	ListRecent(ctx context.Context, query workflow.PageQuery) ([]workflow.FinanceOfferResponse, int64, error)
}

// FinanceHandler handles finance offer endpoints
type FinanceHandler struct {
	BaseHandler
	finance FinanceService
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(finance FinanceService) *FinanceHandler {
	return &FinanceHandler{finance: finance}
}

// GenerateOffers handles POST /trades/:id/finance/offers
func (h *FinanceHandler) GenerateOffers(c *gin.Context) {
	tradeID, ok := h.RequireID(c, "id", shared.PrefixTrade)
	if !ok {
		return
	}

	offers, err := h.finance.GenerateOffers(c.Request.Context(), tradeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, offers)
}

// ListByTrade handles GET /trades/:id/finance/offers
func (h *FinanceHandler) ListByTrade(c *gin.Context) {
	tradeID, ok := h.RequireID(c, "id", shared.PrefixTrade)
	if !ok {
		return
	}

	offers, err := h.finance.ListByTrade(c.Request.Context(), tradeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, offers)
}

// AcceptOffer handles POST /finance/offers/:offerId/accept
func (h *FinanceHandler) AcceptOffer(c *gin.Context) {
	offerID, ok := h.RequireID(c, "offerId", shared.PrefixOffer)
	if !ok {
		return
	}

	offer, err := h.finance.AcceptOffer(c.Request.Context(), offerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, offer)
}

// ListRecent handles GET /finance/offers
func (h *FinanceHandler) ListRecent(c *gin.Context) {
	var query workflow.PageQuery
	if !h.BindQuery(c, &query) {
		return
	}

	offers, total, err := h.finance.ListRecent(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, offers, total, query)
}
