package payment

import (
	"context"

	"github.com/tradeflow/backend/internal/domain/shared"
)

// PaymentRepository defines the interface for payment persistence
type PaymentRepository interface {
	// Create inserts a new payment with its route
	Create(ctx context.Context, p *Payment) error

	// Save persists status, hop progress and completion fields.
	// Returns shared.ErrConcurrencyConflict when the stored version moved on.
	Save(ctx context.Context, p *Payment) error

	// FindByID finds a payment by ID
	FindByID(ctx context.Context, id string) (*Payment, error)

	// FindByTrade returns the payments of a trade, newest first
	FindByTrade(ctx context.Context, tradeID string) ([]Payment, error)

	// List returns payments across all trades, newest first
	List(ctx context.Context, filter shared.Filter) ([]Payment, int64, error)
}
