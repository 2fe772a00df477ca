package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/tradeflow/backend/internal/application/workflow"
	"github.com/tradeflow/backend/internal/domain/shared"
)

// ComplianceService is the compliance stage use case
type ComplianceService interface {
	RunCompliance(ctx context.Context, tradeID string) (*workflow.ComplianceRunResponse, error)
	ListByTrade(ctx context.Context, tradeID string) ([]workflow.ComplianceRunResponse, error)
	ListRecent(ctx context.Context, query workflow.PageQuery) ([]workflow.ComplianceRunResponse, int64, error)
}

// ComplianceHandler handles compliance endpoints
type ComplianceHandler struct {
	BaseHandler
	compliance ComplianceService
}

// NewComplianceHandler creates a new ComplianceHandler
func NewComplianceHandler(compliance ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{compliance: compliance}
}

// Run handles POST /trades/:id/compliance
func (h *ComplianceHandler) Run(c *gin.Context) {
	tradeID, ok := h.RequireID(c, "id", shared.PrefixTrade)
	if !ok {
		return
	}

	run, err := h.compliance.RunCompliance(c.Request.Context(), tradeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, run)
}

// ListByTrade handles GET /trades/:id/compliance
func (h *ComplianceHandler) ListByTrade(c *gin.Context) {
	tradeID, ok := h.RequireID(c, "id", shared.PrefixTrade)
	if !ok {
		return
	}

	runs, err := h.compliance.ListByTrade(c.Request.Context(), tradeID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, runs)
}

// ListRecent handles GET /compliance/runs
func (h *ComplianceHandler) ListRecent(c *gin.Context) {
	var query workflow.PageQuery
	if !h.BindQuery(c, &query) {
		return
	}

	runs, total, err := h.compliance.ListRecent(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, runs, total, query)
}
