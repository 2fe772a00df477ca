package compliance

import (
	"context"

	"github.com/tradeflow/backend/internal/domain/shared"
)

// RunRepository defines the interface for compliance run persistence.
// Runs are immutable so there is no update.
type RunRepository interface {
	// Create inserts a new run
	Create(ctx context.Context, run *ComplianceRun) error

	// FindByID finds a run by ID
	FindByID(ctx context.Context, id string) (*ComplianceRun, error)

	// FindLatestByTrade returns the most recent run of a trade
	FindLatestByTrade(ctx context.Context, tradeID string) (*ComplianceRun, error)

	// ListByTrade returns the runs of a trade, newest first
	ListByTrade(ctx context.Context, tradeID string) ([]ComplianceRun, error)

	// List returns runs across all trades, newest first
	List(ctx context.Context, filter shared.Filter) ([]ComplianceRun, int64, error)
}
