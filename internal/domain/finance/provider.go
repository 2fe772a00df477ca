package finance

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FinanceType is the instrument family an offer belongs to
type FinanceType string

const (
	FinanceTypeLetterOfCredit     FinanceType = "letter_of_credit"
	FinanceTypeSupplyChainFinance FinanceType = "supply_chain_finance"
	FinanceTypeTradeCredit        FinanceType = "trade_credit"
)

// Provider is one entry of the finance provider roster
type Provider struct {
	ID            string
	Name          string
	BaseRate      decimal.Decimal
	FeeMultiplier decimal.Decimal
	STFCertified  bool
	Specialty     string
}

// FinanceType maps the provider specialty to an instrument family
func (p Provider) FinanceType() FinanceType {
	for _, m := range financeTypeMappings {
		if strings.Contains(p.Specialty, m.keyword) {
			return m.financeType
		}
	}
	return FinanceTypeTradeCredit
}

// financeTypeMappings is evaluated in order; the first keyword found wins
var financeTypeMappings = []struct {
	keyword     string
	financeType FinanceType
}{
	{"Letter of Credit", FinanceTypeLetterOfCredit},
	{"Supply Chain", FinanceTypeSupplyChainFinance},
}

// DefaultProviders returns the built-in roster
func DefaultProviders() []Provider {
	return []Provider{
		{
			ID:            "global_trade_bank",
			Name:          "Global Trade Bank",
			BaseRate:      decimal.RequireFromString("4.5"),
			FeeMultiplier: decimal.RequireFromString("1.0"),
			STFCertified:  true,
			Specialty:     "Letter of Credit",
		},
		{
			ID:            "trade_finance_corp",
			Name:          "Trade Finance Corp",
			BaseRate:      decimal.RequireFromString("5.2"),
			FeeMultiplier: decimal.RequireFromString("0.9"),
			STFCertified:  true,
			Specialty:     "Supply Chain Finance",
		},
		{
			ID:            "meridian_capital",
			Name:          "Meridian Capital",
			BaseRate:      decimal.RequireFromString("5.8"),
			FeeMultiplier: decimal.RequireFromString("0.85"),
			STFCertified:  false,
			Specialty:     "Factoring",
		},
	}
}
