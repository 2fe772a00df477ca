package finance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeflow/backend/internal/domain/shared"
)

// Quoting constants
const (
	minTermDays       = 60
	termSpreadDays    = 60
	offerValidity     = 7 * 24 * time.Hour
	stfStandard       = "Green Trade Finance Standard"
	minCO2OffsetTons  = 10
	co2OffsetSpread   = 50
	moneyDecimalPlace = 2
)

var (
	// DefaultFinancedAmount is used when a trade carries no estimate
	DefaultFinancedAmount = decimal.NewFromInt(100000)

	rateSpread        = decimal.RequireFromString("1.5")
	arrangementFeePct = decimal.RequireFromString("0.002")
	commitmentFeePct  = decimal.RequireFromString("0.001")
	daysPerYear       = decimal.NewFromInt(365)
	hundred           = decimal.NewFromInt(100)
)

// QuoteRequest is the trade view used for pricing
type QuoteRequest struct {
	TradeID  string
	Amount   decimal.Decimal
	Currency string
}

// Quoter prices offers against a provider roster
type Quoter struct {
	providers []Provider
	random    shared.RandomSource
	now       func() time.Time
}

// NewQuoter creates a quoter. A nil roster uses DefaultProviders.
func NewQuoter(providers []Provider, random shared.RandomSource) *Quoter {
	if providers == nil {
		providers = DefaultProviders()
	}
	return &Quoter{
		providers: providers,
		random:    random,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Providers returns the roster the quoter prices against
func (q *Quoter) Providers() []Provider {
	return q.providers
}

// Quote produces exactly one available offer per provider
func (q *Quoter) Quote(req QuoteRequest) ([]FinanceOffer, error) {
	if req.TradeID == "" {
		return nil, shared.NewDomainError("INVALID_TRADE", "Trade ID cannot be empty")
	}
	amount := req.Amount
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount cannot be negative")
	}
	if amount.IsZero() {
		amount = DefaultFinancedAmount
	}

	now := q.now()
	offers := make([]FinanceOffer, 0, len(q.providers))
	for _, p := range q.providers {
		offers = append(offers, q.quoteOne(p, req, amount, now))
	}
	return offers, nil
}

func (q *Quoter) quoteOne(p Provider, req QuoteRequest, amount decimal.Decimal, now time.Time) FinanceOffer {
	term := minTermDays + int(q.random.Float64()*termSpreadDays)
	rate := p.BaseRate.Add(rateSpread.Mul(decimal.NewFromFloat(q.random.Float64()))).Round(moneyDecimalPlace)

	// fees are quoted in cents and the total sums the quoted figures
	fees := Fees{
		Arrangement: amount.Mul(arrangementFeePct).Mul(p.FeeMultiplier).Round(moneyDecimalPlace),
		Commitment:  amount.Mul(commitmentFeePct).Mul(p.FeeMultiplier).Round(moneyDecimalPlace),
		Other:       decimal.Zero,
	}

	offer := FinanceOffer{
		BaseEntity:   shared.NewBaseEntity(shared.NewID(shared.PrefixOffer)),
		TradeID:      req.TradeID,
		ProviderID:   p.ID,
		ProviderName: p.Name,
		FinanceType:  p.FinanceType(),
		Amount:       amount,
		Currency:     req.Currency,
		InterestRate: rate,
		TermDays:     term,
		Fees:         fees,
		TotalCost:    TotalCost(amount, rate, term, fees),
		STFCertified: p.STFCertified,
		ValidUntil:   now.Add(offerValidity),
		Terms:        fmt.Sprintf("Standard %s trade finance terms apply.", p.Name),
		Status:       OfferStatusAvailable,
	}
	// One quote round shares a timestamp so offers group by generation.
	offer.CreatedAt = now
	offer.UpdatedAt = now
	if p.STFCertified {
		offer.STFDetails = &STFDetails{
			Standard:      stfStandard,
			CO2OffsetTons: minCO2OffsetTons + int(q.random.Float64()*co2OffsetSpread),
		}
	}
	return offer
}

// TotalCost = amount × rate/100 × term/365 + fees, rounded to cents
func TotalCost(amount, rate decimal.Decimal, termDays int, fees Fees) decimal.Decimal {
	interest := amount.Mul(rate).Mul(decimal.NewFromInt(int64(termDays))).Div(hundred.Mul(daysPerYear))
	return interest.Add(fees.Total()).Round(moneyDecimalPlace)
}
