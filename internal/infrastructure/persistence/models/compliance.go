package models

import (
	"time"

	"github.com/tradeflow/backend/internal/domain/compliance"
)

// ComplianceRunModel is the persistence model for an immutable compliance run.
type ComplianceRunModel struct {
	BaseModel
	TradeID     string                   `gorm:"type:varchar(40);not null;index"`
	Checks      []compliance.CheckResult `gorm:"serializer:json;type:jsonb;not null"`
	Status      compliance.Status        `gorm:"type:varchar(20);not null"`
	RiskScore   int                      `gorm:"not null"`
	CompletedAt time.Time                `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ComplianceRunModel) TableName() string {
	return "compliance_runs"
}

// ToDomain converts the persistence model to a domain ComplianceRun.
func (m *ComplianceRunModel) ToDomain() *compliance.ComplianceRun {
	return &compliance.ComplianceRun{
		BaseEntity:  m.entity(),
		TradeID:     m.TradeID,
		Checks:      m.Checks,
		Status:      m.Status,
		RiskScore:   m.RiskScore,
		CompletedAt: m.CompletedAt,
	}
}

// ComplianceRunModelFromDomain creates a new persistence model from a domain ComplianceRun.
func ComplianceRunModelFromDomain(r *compliance.ComplianceRun) *ComplianceRunModel {
	m := &ComplianceRunModel{
		TradeID:     r.TradeID,
		Checks:      r.Checks,
		Status:      r.Status,
		RiskScore:   r.RiskScore,
		CompletedAt: r.CompletedAt,
	}
	m.setEntity(r.BaseEntity)
	return m
}
