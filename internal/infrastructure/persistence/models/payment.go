package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeflow/backend/internal/domain/payment"
)

// PaymentModel is the persistence model for a routed payment.
// The route carries per-hop progress so execution can resume.
type PaymentModel struct {
	BaseModel
	TradeID            string          `gorm:"type:varchar(40);not null;index"`
	FinanceOfferID     string          `gorm:"type:varchar(40);not null"`
	Amount             decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency           string          `gorm:"type:varchar(3);not null"`
	Sender             payment.Account `gorm:"serializer:json;type:jsonb;not null"`
	Recipient          payment.Account `gorm:"serializer:json;type:jsonb;not null"`
	Route              []payment.Hop   `gorm:"serializer:json;type:jsonb;not null"`
	CorrespondentCount int             `gorm:"not null"`
	Fee                decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	EstimatedDuration  string          `gorm:"type:varchar(50)"`
	Status             payment.Status  `gorm:"type:varchar(20);not null;index"`
	ConfirmationCode   string          `gorm:"type:varchar(20)"`
	FailureReason      string          `gorm:"type:varchar(500)"`
	ExecutedAt         *time.Time
	Version            int `gorm:"not null;default:1"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment.
func (m *PaymentModel) ToDomain() *payment.Payment {
	return &payment.Payment{
		BaseEntity:         m.entity(),
		TradeID:            m.TradeID,
		FinanceOfferID:     m.FinanceOfferID,
		Amount:             m.Amount,
		Currency:           m.Currency,
		Sender:             m.Sender,
		Recipient:          m.Recipient,
		Route:              m.Route,
		CorrespondentCount: m.CorrespondentCount,
		Fee:                m.Fee,
		EstimatedDuration:  m.EstimatedDuration,
		Status:             m.Status,
		ConfirmationCode:   m.ConfirmationCode,
		FailureReason:      m.FailureReason,
		ExecutedAt:         m.ExecutedAt,
		Version:            m.Version,
	}
}

// FromDomain populates the persistence model from a domain Payment.
func (m *PaymentModel) FromDomain(p *payment.Payment) {
	m.setEntity(p.BaseEntity)
	m.TradeID = p.TradeID
	m.FinanceOfferID = p.FinanceOfferID
	m.Amount = p.Amount
	m.Currency = p.Currency
	m.Sender = p.Sender
	m.Recipient = p.Recipient
	m.Route = p.Route
	m.CorrespondentCount = p.CorrespondentCount
	m.Fee = p.Fee
	m.EstimatedDuration = p.EstimatedDuration
	m.Status = p.Status
	m.ConfirmationCode = p.ConfirmationCode
	m.FailureReason = p.FailureReason
	m.ExecutedAt = p.ExecutedAt
	m.Version = p.Version
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment.
func PaymentModelFromDomain(p *payment.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}
