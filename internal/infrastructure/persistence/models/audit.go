package models

import (
	"time"

	"github.com/tradeflow/backend/internal/domain/audit"
)

// AuditEventModel is the persistence model for an append-only audit record.
type AuditEventModel struct {
	ID        string         `gorm:"type:varchar(40);primaryKey"`
	TradeID   string         `gorm:"type:varchar(40);index"`
	EventType string         `gorm:"type:varchar(100);not null;index"`
	Details   map[string]any `gorm:"serializer:json;type:jsonb"`
	CreatedAt time.Time      `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (AuditEventModel) TableName() string {
	return "audit_events"
}

// ToDomain converts the persistence model to a domain audit Event.
func (m *AuditEventModel) ToDomain() *audit.Event {
	details := m.Details
	if details == nil {
		details = map[string]any{}
	}
	return &audit.Event{
		ID:        m.ID,
		TradeID:   m.TradeID,
		EventType: m.EventType,
		Details:   details,
		CreatedAt: m.CreatedAt,
	}
}

// AuditEventModelFromDomain creates a new persistence model from a domain audit Event.
func AuditEventModelFromDomain(e *audit.Event) *AuditEventModel {
	return &AuditEventModel{
		ID:        e.ID,
		TradeID:   e.TradeID,
		EventType: e.EventType,
		Details:   e.Details,
		CreatedAt: e.CreatedAt,
	}
}
