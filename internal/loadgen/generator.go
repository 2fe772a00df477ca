package loadgen

import (
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/tradeflow/backend/internal/application/workflow"
)

var (
	lowRiskCountries = []string{
		"Germany", "France", "Netherlands", "Kenya", "Brazil", "Japan",
		"Canada", "Australia", "India", "Vietnam", "Mexico", "South Africa",
	}
	highRiskCountries = []string{"Iran", "Syria", "North Korea", "Russia"}
	currencies        = []string{"USD", "EUR", "GBP", "JPY", "CNY", "KES"}
	incoterms         = []string{"EXW", "FOB", "CIF", "DAP", "DDP"}
)

// TradeGenerator produces plausible trade intake requests
type TradeGenerator struct {
	mu            sync.Mutex
	faker         *gofakeit.Faker
	highRiskShare float64
}

// NewTradeGenerator creates a generator. A zero seed is random.
func NewTradeGenerator(seed uint64, highRiskShare float64) *TradeGenerator {
	return &TradeGenerator{faker: gofakeit.New(seed), highRiskShare: highRiskShare}
}

// Next returns a new trade request
func (g *TradeGenerator) Next() workflow.CreateTradeRequest {
	g.mu.Lock()
	defer g.mu.Unlock()

	f := g.faker
	exporter := f.RandomString(lowRiskCountries)
	importer := f.RandomString(lowRiskCountries)
	for importer == exporter {
		importer = f.RandomString(lowRiskCountries)
	}
	if f.Float64() < g.highRiskShare {
		importer = f.RandomString(highRiskCountries)
	}

	return workflow.CreateTradeRequest{
		ExporterName:    f.Company(),
		ExporterCountry: exporter,
		ImporterName:    f.Company(),
		ImporterCountry: importer,
		Product:         f.ProductName(),
		EstimatedAmount: decimal.NewFromFloat(f.Float64Range(5000, 900000)).Round(2),
		Currency:        f.RandomString(currencies),
		Incoterm:        f.RandomString(incoterms),
	}
}
