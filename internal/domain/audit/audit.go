package audit

import (
	"context"
	"time"

	"github.com/tradeflow/backend/internal/domain/shared"
)

// Event is an append-only audit record. One is written per state changing
// operation.
type Event struct {
	ID        string
	TradeID   string
	EventType string
	Details   map[string]any
	CreatedAt time.Time
}

// NewEvent creates an audit event stamped now
func NewEvent(tradeID, eventType string, details map[string]any) *Event {
	if details == nil {
		details = map[string]any{}
	}
	return &Event{
		ID:        shared.NewID(shared.PrefixEvent),
		TradeID:   tradeID,
		EventType: eventType,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
}

// FromDomainEvent converts a domain event into its audit record
func FromDomainEvent(e shared.DomainEvent) *Event {
	return &Event{
		ID:        e.EventID(),
		TradeID:   e.AggregateID(),
		EventType: e.EventType(),
		Details:   e.Details(),
		CreatedAt: e.OccurredAt(),
	}
}

// Emitter is the fire-and-forget audit side channel. Emit never blocks
// the caller and never reports failure.
type Emitter interface {
	Emit(ctx context.Context, tradeID, eventType string, details map[string]any)
}

// Repository is the append-only audit store
type Repository interface {
	// Append stores a batch of events
	Append(ctx context.Context, events ...*Event) error

	// List returns events newest first. Filters["trade_id"] narrows to one trade.
	List(ctx context.Context, filter shared.Filter) ([]Event, int64, error)
}
