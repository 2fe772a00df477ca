package payment

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tradeflow/backend/internal/domain/shared"
)

var (
	routingFeeRate       = decimal.RequireFromString("0.001")
	correspondentSurplus = decimal.NewFromInt(25)
)

const (
	minCorrespondents = 1
	maxCorrespondents = 2
)

// RouteRequest carries what the planner needs from the trade and offer
type RouteRequest struct {
	TradeID         string
	FinanceOfferID  string
	Amount          decimal.Decimal
	Currency        string
	ExporterName    string
	ExporterCountry string
	ImporterName    string
	ImporterCountry string
}

// Planner composes payment routes from a correspondent roster
type Planner struct {
	correspondents []CorrespondentBank
	random         shared.RandomSource
}

// NewPlanner creates a planner. A nil roster uses DefaultCorrespondents.
func NewPlanner(correspondents []CorrespondentBank, random shared.RandomSource) *Planner {
	if correspondents == nil {
		correspondents = DefaultCorrespondents()
	}
	return &Planner{correspondents: correspondents, random: random}
}

// Plan builds an executing payment with every hop pending:
// origin bank, 1-2 shuffled correspondents, destination bank.
func (p *Planner) Plan(req RouteRequest) (*Payment, error) {
	if req.TradeID == "" || req.FinanceOfferID == "" {
		return nil, shared.NewDomainError("INVALID_ROUTE", "Trade and finance offer are required")
	}
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if len(p.correspondents) < minCorrespondents {
		return nil, shared.NewDomainError("NO_CORRESPONDENTS", "Correspondent roster is empty")
	}

	count := minCorrespondents + p.random.IntN(maxCorrespondents-minCorrespondents+1)
	if count > len(p.correspondents) {
		count = len(p.correspondents)
	}
	chosen := p.shuffled()[:count]

	route := make([]Hop, 0, count+2)
	route = append(route, Hop{
		Type:     HopTypeOrigin,
		BankName: req.ExporterName + " Bank",
		Country:  req.ExporterCountry,
	})
	for _, b := range chosen {
		route = append(route, Hop{
			Type:      HopTypeCorrespondent,
			BankName:  b.Name,
			SWIFTCode: b.SWIFTCode,
			Country:   b.Country,
		})
	}
	route = append(route, Hop{
		Type:     HopTypeDestination,
		BankName: req.ImporterName + " Bank",
		Country:  req.ImporterCountry,
	})
	for i := range route {
		route[i].Step = i + 1
		route[i].Status = HopStatusPending
	}

	return &Payment{
		BaseEntity:         shared.NewBaseEntity(shared.NewID(shared.PrefixPayment)),
		Version:            1,
		TradeID:            req.TradeID,
		FinanceOfferID:     req.FinanceOfferID,
		Amount:             req.Amount,
		Currency:           req.Currency,
		Sender:             NewAccount(req.ExporterName, req.ExporterCountry),
		Recipient:          NewAccount(req.ImporterName, req.ImporterCountry),
		Route:              route,
		CorrespondentCount: count,
		Fee:                RoutingFee(req.Amount, count),
		EstimatedDuration:  EstimatedDuration(count),
		Status:             StatusExecuting,
	}, nil
}

// shuffled returns a Fisher-Yates permutation of the roster
func (p *Planner) shuffled() []CorrespondentBank {
	out := append([]CorrespondentBank(nil), p.correspondents...)
	for i := len(out) - 1; i > 0; i-- {
		j := p.random.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// RoutingFee = 0.1% of amount + 25 per correspondent, rounded to cents
func RoutingFee(amount decimal.Decimal, correspondents int) decimal.Decimal {
	return amount.Mul(routingFeeRate).Add(correspondentSurplus.Mul(decimal.NewFromInt(int64(correspondents)))).Round(2)
}

// EstimatedDuration is one business day plus one per correspondent
func EstimatedDuration(correspondents int) string {
	return fmt.Sprintf("%d business days", 1+correspondents)
}
