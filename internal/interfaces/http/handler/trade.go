package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/tradeflow/backend/internal/application/workflow"
	"github.com/tradeflow/backend/internal/domain/shared"
)

// TradeService is the trade intake and listing use case
type TradeService interface {
	Create(ctx context.Context, req workflow.CreateTradeRequest) (*workflow.TradeResponse, error)
	GetByID(ctx context.Context, id string) (*workflow.TradeResponse, error)
	List(ctx context.Context, filter workflow.TradeListFilter) ([]workflow.TradeResponse, int64, error)
	ListEligible(ctx context.Context, stage string, query workflow.PageQuery) ([]workflow.TradeResponse, error)
}

// TradeHandler handles trade endpoints
type TradeHandler struct {
	BaseHandler
	trades TradeService
}

// NewTradeHandler creates a new TradeHandler
func NewTradeHandler(trades TradeService) *TradeHandler {
	return &TradeHandler{trades: trades}
}

// Create handles POST /trades
func (h *TradeHandler) Create(c *gin.Context) {
	var req workflow.CreateTradeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	t, err := h.trades.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, t)
}

// List handles GET /trades
func (h *TradeHandler) List(c *gin.Context) {
	var filter workflow.TradeListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	trades, total, err := h.trades.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, trades, total, filter.PageQuery)
}

// GetByID handles GET /trades/:id
func (h *TradeHandler) GetByID(c *gin.Context) {
	id, ok := h.RequireID(c, "id", shared.PrefixTrade)
	if !ok {
		return
	}

	t, err := h.trades.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, t)
}

// ListEligible handles GET /workflow/:stage/eligible
func (h *TradeHandler) ListEligible(c *gin.Context) {
	var query workflow.PageQuery
	if !h.BindQuery(c, &query) {
		return
	}

	trades, err := h.trades.ListEligible(c.Request.Context(), c.Param("stage"), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, trades)
}
