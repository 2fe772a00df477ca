package trade

import (
	"context"

	"github.com/tradeflow/backend/internal/domain/shared"
)

// TradeRepository defines the interface for trade persistence
type TradeRepository interface {
	// Create inserts a new trade
	Create(ctx context.Context, t *Trade) error

	// FindByID finds a trade by ID, returning shared.ErrNotFound when missing
	FindByID(ctx context.Context, id string) (*Trade, error)

	// Save updates a trade using optimistic locking on Version.
	// Returns shared.ErrConcurrencyConflict when the stored version moved on.
	Save(ctx context.Context, t *Trade) error

	// List returns trades ordered by filter (newest first by default).
	// Filters["status"] narrows to a single TradeStatus.
	List(ctx context.Context, filter shared.Filter) ([]Trade, int64, error)

	// FindEligible returns trades that may enter the given stage, newest first
	FindEligible(ctx context.Context, stage Stage, filter shared.Filter) ([]Trade, error)
}
