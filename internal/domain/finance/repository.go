package finance

import (
	"context"

	"github.com/tradeflow/backend/internal/domain/shared"
)

// OfferRepository defines the interface for finance offer persistence
type OfferRepository interface {
	// CreateBatch inserts the offers of one generation call
	CreateBatch(ctx context.Context, offers []FinanceOffer) error

	// FindByID finds an offer by ID
	FindByID(ctx context.Context, id string) (*FinanceOffer, error)

	// FindByTrade returns every offer of a trade, newest first
	FindByTrade(ctx context.Context, tradeID string) ([]FinanceOffer, error)

	// UpdateStatus persists the status change of an offer
	UpdateStatus(ctx context.Context, offer *FinanceOffer) error

	// List returns offers across all trades, newest first
	List(ctx context.Context, filter shared.Filter) ([]FinanceOffer, int64, error)
}
