package persistence

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tradeflow/backend/internal/domain/compliance"
	"github.com/tradeflow/backend/internal/domain/finance"
	"github.com/tradeflow/backend/internal/domain/payment"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
	"github.com/tradeflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a migrated in-memory sqlite database
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func newStoredTrade(t *testing.T, db *gorm.DB, importerCountry string) *trade.Trade {
	t.Helper()
	tr, err := trade.NewTrade(trade.NewTradeParams{
		Exporter:        trade.Party{Name: "Hamburg Tools", Country: "Germany"},
		Importer:        trade.Party{Name: "Nairobi Imports", Country: importerCountry},
		Product:         "Coffee",
		EstimatedAmount: decimal.NewFromInt(250000),
		Currency:        "USD",
		Incoterm:        "FOB",
	})
	require.NoError(t, err)
	tr.ClearDomainEvents()
	require.NoError(t, NewGormTradeRepository(db).Create(t.Context(), tr))
	return tr
}

func newTestRun(t *testing.T, tr *trade.Trade) *compliance.ComplianceRun {
	t.Helper()
	run, err := compliance.NewComplianceRun(tr.ID, compliance.DefaultPolicy().Evaluate(compliance.Subject{
		ExporterCountry: tr.Exporter.Country,
		ImporterCountry: tr.Importer.Country,
		Product:         tr.Product,
		Amount:          tr.EstimatedAmount,
	}))
	require.NoError(t, err)
	return run
}

func newTestOffers(t *testing.T, tr *trade.Trade) []finance.FinanceOffer {
	t.Helper()
	offers, err := finance.NewQuoter(nil, &shared.FixedRandomSource{Floats: []float64{0.5}}).
		Quote(finance.QuoteRequest{TradeID: tr.ID, Amount: tr.EstimatedAmount, Currency: tr.Currency})
	require.NoError(t, err)
	return offers
}

func newTestPayment(t *testing.T, tr *trade.Trade, offerID string) *payment.Payment {
	t.Helper()
	p, err := payment.NewPlanner(nil, &shared.FixedRandomSource{Ints: []int{1}}).Plan(payment.RouteRequest{
		TradeID:         tr.ID,
		FinanceOfferID:  offerID,
		Amount:          decimal.NewFromInt(200000),
		Currency:        tr.Currency,
		ExporterName:    tr.Exporter.Name,
		ExporterCountry: tr.Exporter.Country,
		ImporterName:    tr.Importer.Name,
		ImporterCountry: tr.Importer.Country,
	})
	require.NoError(t, err)
	return p
}
