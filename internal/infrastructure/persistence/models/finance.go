package models

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeflow/backend/internal/domain/finance"
)

// FinanceOfferModel is the persistence model for a provider quote.
type FinanceOfferModel struct {
	BaseModel
	TradeID      string              `gorm:"type:varchar(40);not null;index"`
	ProviderID   string              `gorm:"type:varchar(50);not null"`
	ProviderName string              `gorm:"type:varchar(200);not null"`
	FinanceType  finance.FinanceType `gorm:"type:varchar(40);not null"`
	Amount       decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Currency     string              `gorm:"type:varchar(3);not null"`
	InterestRate decimal.Decimal     `gorm:"type:decimal(9,4);not null"`
	TermDays     int                 `gorm:"not null"`
	Fees         finance.Fees        `gorm:"serializer:json;type:jsonb;not null"`
	TotalCost    decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	STFCertified bool                `gorm:"not null;default:false"`
	STFDetails   *finance.STFDetails `gorm:"serializer:json;type:jsonb"`
	ValidUntil   time.Time           `gorm:"not null"`
	Terms        string              `gorm:"type:text"`
	Status       finance.OfferStatus `gorm:"type:varchar(20);not null;index"`
	AcceptedAt   *time.Time
}

// TableName returns the table name for GORM
func (FinanceOfferModel) TableName() string {
	return "finance_offers"
}

// ToDomain converts the persistence model to a domain FinanceOffer.
func (m *FinanceOfferModel) ToDomain() *finance.FinanceOffer {
	return &finance.FinanceOffer{
		BaseEntity:   m.entity(),
		TradeID:      m.TradeID,
		ProviderID:   m.ProviderID,
		ProviderName: m.ProviderName,
		FinanceType:  m.FinanceType,
		Amount:       m.Amount,
		Currency:     m.Currency,
		InterestRate: m.InterestRate,
		TermDays:     m.TermDays,
		Fees:         m.Fees,
		TotalCost:    m.TotalCost,
		STFCertified: m.STFCertified,
		STFDetails:   m.STFDetails,
		ValidUntil:   m.ValidUntil,
		Terms:        m.Terms,
		Status:       m.Status,
		AcceptedAt:   m.AcceptedAt,
	}
}

// FromDomain populates the persistence model from a domain FinanceOffer.
func (m *FinanceOfferModel) FromDomain(o *finance.FinanceOffer) {
	m.setEntity(o.BaseEntity)
	m.TradeID = o.TradeID
	m.ProviderID = o.ProviderID
	m.ProviderName = o.ProviderName
	m.FinanceType = o.FinanceType
	m.Amount = o.Amount
	m.Currency = o.Currency
	m.InterestRate = o.InterestRate
	m.TermDays = o.TermDays
	m.Fees = o.Fees
	m.TotalCost = o.TotalCost
	m.STFCertified = o.STFCertified
	m.STFDetails = o.STFDetails
	m.ValidUntil = o.ValidUntil
	m.Terms = o.Terms
	m.Status = o.Status
	m.AcceptedAt = o.AcceptedAt
}

// FinanceOfferModelFromDomain creates a new persistence model from a domain FinanceOffer.
func FinanceOfferModelFromDomain(o *finance.FinanceOffer) *FinanceOfferModel {
	m := &FinanceOfferModel{}
	m.FromDomain(o)
	return m
}
