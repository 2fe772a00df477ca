package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tradeflow/backend/internal/domain/shared"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func (e *testEvent) Details() map[string]any {
	return map[string]any{"k": "v"}
}

func TestNewEvent(t *testing.T) {
	e := NewEvent("TRD-1", "compliance.completed", nil)
	assert.True(t, shared.HasPrefix(e.ID, shared.PrefixEvent))
	assert.NotNil(t, e.Details)
	assert.False(t, e.CreatedAt.IsZero())
}

func TestFromDomainEvent(t *testing.T) {
	de := &testEvent{BaseDomainEvent: shared.NewBaseDomainEvent("ledger.bundle.ready", "Trade", "TRD-9")}

	e := FromDomainEvent(de)

	assert.Equal(t, de.EventID(), e.ID)
	assert.Equal(t, "TRD-9", e.TradeID)
	assert.Equal(t, "ledger.bundle.ready", e.EventType)
	assert.Equal(t, map[string]any{"k": "v"}, e.Details)
	assert.Equal(t, de.OccurredAt(), e.CreatedAt)
}
