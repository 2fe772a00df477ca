package finance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeflow/backend/internal/domain/shared"
)

// OfferStatus is the lifecycle state of a finance offer
type OfferStatus string

const (
	OfferStatusAvailable OfferStatus = "available"
	OfferStatusAccepted  OfferStatus = "accepted"
	OfferStatusRejected  OfferStatus = "rejected"
)

// Fees is the fee breakdown of an offer
type Fees struct {
	Arrangement decimal.Decimal `json:"arrangement"`
	Commitment  decimal.Decimal `json:"commitment"`
	Other       decimal.Decimal `json:"other"`
}

// Total returns the sum of all fees
func (f Fees) Total() decimal.Decimal {
	return f.Arrangement.Add(f.Commitment).Add(f.Other)
}

// STFDetails describes the sustainability certification of an offer
type STFDetails struct {
	Standard      string `json:"standard"`
	CO2OffsetTons int    `json:"co2_offset_tons"`
}

// FinanceOffer is a quote from one provider for one trade
type FinanceOffer struct {
	shared.BaseEntity
	TradeID      string
	ProviderID   string
	ProviderName string
	FinanceType  FinanceType
	Amount       decimal.Decimal
	Currency     string
	InterestRate decimal.Decimal
	TermDays     int
	Fees         Fees
	TotalCost    decimal.Decimal
	STFCertified bool
	STFDetails   *STFDetails
	ValidUntil   time.Time
	Terms        string
	Status       OfferStatus
	AcceptedAt   *time.Time
}

// IsOpen reports whether the offer can still be accepted
func (o *FinanceOffer) IsOpen() bool {
	return o.Status == OfferStatusAvailable
}

func (o *FinanceOffer) accept(now time.Time) error {
	if o.Status == OfferStatusRejected {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Offer %s has been rejected", o.ID))
	}
	o.Status = OfferStatusAccepted
	o.AcceptedAt = &now
	o.UpdatedAt = now
	return nil
}

func (o *FinanceOffer) reject(now time.Time) {
	o.Status = OfferStatusRejected
	o.UpdatedAt = now
}

// AcceptOffer marks the chosen offer accepted and every sibling rejected.
// offers must be all the offers of one trade; the returned slice holds
// every offer whose status changed.
func AcceptOffer(offers []FinanceOffer, offerID string) (*FinanceOffer, []*FinanceOffer, error) {
	var chosen *FinanceOffer
	for i := range offers {
		if offers[i].ID == offerID {
			chosen = &offers[i]
			continue
		}
		if offers[i].Status == OfferStatusAccepted {
			return nil, nil, shared.NewDomainError("INVALID_STATE",
				fmt.Sprintf("Trade %s already accepted offer %s", offers[i].TradeID, offers[i].ID))
		}
	}
	if chosen == nil {
		return nil, nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Offer %s not found", offerID))
	}
	if chosen.Status == OfferStatusAccepted {
		return chosen, nil, nil
	}

	now := time.Now().UTC()
	if err := chosen.accept(now); err != nil {
		return nil, nil, err
	}
	changed := []*FinanceOffer{chosen}
	for i := range offers {
		if &offers[i] == chosen || offers[i].Status == OfferStatusRejected {
			continue
		}
		offers[i].reject(now)
		changed = append(changed, &offers[i])
	}
	return chosen, changed, nil
}

// AcceptedOffer returns the accepted offer among offers, if any
func AcceptedOffer(offers []FinanceOffer) *FinanceOffer {
	for i := range offers {
		if offers[i].Status == OfferStatusAccepted {
			return &offers[i]
		}
	}
	return nil
}
