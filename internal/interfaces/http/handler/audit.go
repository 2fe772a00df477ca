package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/tradeflow/backend/internal/application/workflow"
)

// AuditService lists the audit trail
type AuditService interface {
	List(ctx context.Context, filter workflow.AuditListFilter) ([]workflow.AuditEventResponse, int64, error)
}

// AuditHandler handles audit trail endpoints
type AuditHandler struct {
	BaseHandler
	audit AuditService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(audit AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List handles GET /audit-events
func (h *AuditHandler) List(c *gin.Context) {
	var filter workflow.AuditListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	events, total, err := h.audit.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, events, total, filter.PageQuery)
}
