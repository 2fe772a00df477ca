package workflow

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backend/internal/domain/compliance"
	"github.com/tradeflow/backend/internal/domain/finance"
	"github.com/tradeflow/backend/internal/domain/payment"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
)

// Test helpers
var (
	testExporter = trade.Party{Name: "Hamburg Tools", Country: "Germany"}
	testImporter = trade.Party{Name: "Nairobi Imports", Country: "Kenya"}
)

func newTestTrade(t *testing.T, importer trade.Party) *trade.Trade {
	t.Helper()
	tr, err := trade.NewTrade(trade.NewTradeParams{
		Exporter:        testExporter,
		Importer:        importer,
		Product:         "Coffee",
		EstimatedAmount: decimal.NewFromInt(250000),
		Currency:        "USD",
		Incoterm:        "FOB",
	})
	require.NoError(t, err)
	tr.ClearDomainEvents()
	return tr
}

// fixture carries a trade together with the stage records behind it
type fixture struct {
	trade   *trade.Trade
	run     *compliance.ComplianceRun
	offers  []finance.FinanceOffer
	payment *payment.Payment
}

func newFixture(t *testing.T) *fixture {
	return &fixture{trade: newTestTrade(t, testImporter)}
}

// complianceChecked runs the default checklist and records it
func (f *fixture) complianceChecked(t *testing.T) *fixture {
	t.Helper()
	subject := compliance.Subject{
		ExporterCountry: f.trade.Exporter.Country,
		ImporterCountry: f.trade.Importer.Country,
		Product:         f.trade.Product,
		Amount:          f.trade.EstimatedAmount,
	}
	run, err := compliance.NewComplianceRun(f.trade.ID, compliance.DefaultPolicy().Evaluate(subject))
	require.NoError(t, err)
	require.NoError(t, f.trade.RecordCompliance(run.ID, trade.ComplianceStatus(run.Status), run.RiskScore))
	f.run = run
	f.trade.ClearDomainEvents()
	return f
}

// financePending quotes offers and marks the trade finance_pending
func (f *fixture) financePending(t *testing.T) *fixture {
	t.Helper()
	f.complianceChecked(t)
	offers, err := finance.NewQuoter(nil, &shared.FixedRandomSource{Floats: []float64{0.5}}).
		Quote(finance.QuoteRequest{TradeID: f.trade.ID, Amount: f.trade.EstimatedAmount, Currency: f.trade.Currency})
	require.NoError(t, err)
	require.NoError(t, f.trade.MarkFinancePending(len(offers)))
	f.offers = offers
	f.trade.ClearDomainEvents()
	return f
}

// financeAccepted accepts the first offer
func (f *fixture) financeAccepted(t *testing.T) *fixture {
	t.Helper()
	f.financePending(t)
	chosen, _, err := finance.AcceptOffer(f.offers, f.offers[0].ID)
	require.NoError(t, err)
	require.NoError(t, f.trade.AcceptFinanceOffer(chosen.ID, chosen.ProviderName, chosen.Amount))
	f.trade.ClearDomainEvents()
	return f
}

// acceptedOffer returns the accepted offer
func (f *fixture) acceptedOffer() *finance.FinanceOffer {
	return finance.AcceptedOffer(f.offers)
}

// paymentExecuting plans a single-correspondent route and starts it
func (f *fixture) paymentExecuting(t *testing.T) *fixture {
	t.Helper()
	f.financeAccepted(t)
	offer := f.acceptedOffer()
	p, err := payment.NewPlanner(nil, &shared.FixedRandomSource{Ints: []int{0}}).Plan(payment.RouteRequest{
		TradeID:         f.trade.ID,
		FinanceOfferID:  offer.ID,
		Amount:          offer.Amount,
		Currency:        offer.Currency,
		ExporterName:    f.trade.Exporter.Name,
		ExporterCountry: f.trade.Exporter.Country,
		ImporterName:    f.trade.Importer.Name,
		ImporterCountry: f.trade.Importer.Country,
	})
	require.NoError(t, err)
	require.NoError(t, f.trade.StartPayment(p.ID))
	f.payment = p
	f.trade.ClearDomainEvents()
	return f
}

// paymentCompleted settles every hop
func (f *fixture) paymentCompleted(t *testing.T) *fixture {
	t.Helper()
	f.paymentExecuting(t)
	for i := range f.payment.Route {
		require.NoError(t, f.payment.CompleteHop(i))
	}
	require.NoError(t, f.payment.Complete("ABCDEFGHIJKL"))
	require.NoError(t, f.trade.CompletePayment(f.payment.ID, f.payment.Amount, f.payment.ConfirmationCode))
	f.trade.ClearDomainEvents()
	return f
}
