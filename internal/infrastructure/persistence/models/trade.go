package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeflow/backend/internal/domain/trade"
)

// TradeModel is the persistence model for the Trade aggregate root.
type TradeModel struct {
	AggregateModel
	ExporterName     string                 `gorm:"type:varchar(200);not null"`
	ExporterCountry  string                 `gorm:"type:varchar(100);not null"`
	ImporterName     string                 `gorm:"type:varchar(200);not null"`
	ImporterCountry  string                 `gorm:"type:varchar(100);not null"`
	Product          string                 `gorm:"type:varchar(200);not null"`
	EstimatedAmount  decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	Currency         string                 `gorm:"type:varchar(3);not null"`
	Incoterm         string                 `gorm:"type:varchar(3);not null"`
	Status           trade.TradeStatus      `gorm:"type:varchar(30);not null;index"`
	ComplianceStatus trade.ComplianceStatus `gorm:"type:varchar(20);not null;default:''"`
	ComplianceRunID  string                 `gorm:"type:varchar(40)"`
	FinanceOfferID   string                 `gorm:"type:varchar(40)"`
	PaymentID        string                 `gorm:"type:varchar(40)"`
	ProofBundleID    string                 `gorm:"type:varchar(40)"`
	FailureReason    string                 `gorm:"type:varchar(500)"`
	CompletedAt      *time.Time
}

// TableName returns the table name for GORM
func (TradeModel) TableName() string {
	return "trades"
}

// ToDomain converts the persistence model to a domain Trade.
func (m *TradeModel) ToDomain() *trade.Trade {
	return &trade.Trade{
		BaseAggregateRoot: m.root(),
		Exporter:          trade.Party{Name: m.ExporterName, Country: m.ExporterCountry},
		Importer:          trade.Party{Name: m.ImporterName, Country: m.ImporterCountry},
		Product:           m.Product,
		EstimatedAmount:   m.EstimatedAmount,
		Currency:          m.Currency,
		Incoterm:          m.Incoterm,
		Status:            m.Status,
		ComplianceStatus:  m.ComplianceStatus,
		ComplianceRunID:   m.ComplianceRunID,
		FinanceOfferID:    m.FinanceOfferID,
		PaymentID:         m.PaymentID,
		ProofBundleID:     m.ProofBundleID,
		FailureReason:     m.FailureReason,
		CompletedAt:       m.CompletedAt,
	}
}

// FromDomain populates the persistence model from a domain Trade.
func (m *TradeModel) FromDomain(t *trade.Trade) {
	m.setRoot(t.BaseAggregateRoot)
	m.ExporterName = t.Exporter.Name
	m.ExporterCountry = t.Exporter.Country
	m.ImporterName = t.Importer.Name
	m.ImporterCountry = t.Importer.Country
	m.Product = t.Product
	m.EstimatedAmount = t.EstimatedAmount
	m.Currency = t.Currency
	m.Incoterm = t.Incoterm
	m.Status = t.Status
	m.ComplianceStatus = t.ComplianceStatus
	m.ComplianceRunID = t.ComplianceRunID
	m.FinanceOfferID = t.FinanceOfferID
	m.PaymentID = t.PaymentID
	m.ProofBundleID = t.ProofBundleID
	m.FailureReason = t.FailureReason
	m.CompletedAt = t.CompletedAt
}

// TradeModelFromDomain creates a new persistence model from a domain Trade.
func TradeModelFromDomain(t *trade.Trade) *TradeModel {
	m := &TradeModel{}
	m.FromDomain(t)
	return m
}
