package workflow

import (
	"context"

	"github.com/tradeflow/backend/internal/domain/audit"
)

// AuditService serves the audit trail
type AuditService struct {
	repo audit.Repository
}

// NewAuditService creates a new AuditService
func NewAuditService(repo audit.Repository) *AuditService {
	return &AuditService{repo: repo}
}

// List returns audit events newest first, optionally for one trade
func (s *AuditService) List(ctx context.Context, filter AuditListFilter) ([]AuditEventResponse, int64, error) {
	domainFilter := filter.toFilter()
	if filter.TradeID != "" {
		domainFilter.Filters["trade_id"] = filter.TradeID
	}
	events, total, err := s.repo.List(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToAuditEventResponses(events), total, nil
}
