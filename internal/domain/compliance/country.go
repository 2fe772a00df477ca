package compliance

import (
	"strings"

	"golang.org/x/text/cases"
)

// RiskTier classifies a jurisdiction
type RiskTier string

const (
	RiskTierLow    RiskTier = "low"
	RiskTierMedium RiskTier = "medium"
	RiskTierHigh   RiskTier = "high"
)

// CountryRiskTable is a two-tier static membership classification.
// Lookups are case-insensitive; anything not listed is low risk.
type CountryRiskTable struct {
	high   map[string]struct{}
	medium map[string]struct{}
}

// NewCountryRiskTable builds a table from high and medium risk country names
func NewCountryRiskTable(high, medium []string) CountryRiskTable {
	t := CountryRiskTable{
		high:   make(map[string]struct{}, len(high)),
		medium: make(map[string]struct{}, len(medium)),
	}
	for _, c := range high {
		t.high[foldCountry(c)] = struct{}{}
	}
	for _, c := range medium {
		t.medium[foldCountry(c)] = struct{}{}
	}
	return t
}

// DefaultCountryRiskTable returns the built-in classification
func DefaultCountryRiskTable() CountryRiskTable {
	return NewCountryRiskTable(
		[]string{"North Korea", "Iran", "Syria", "Cuba", "Venezuela", "Russia", "Belarus"},
		[]string{"China", "Myanmar", "Afghanistan", "Iraq", "Libya", "Yemen"},
	)
}

// Tier returns the risk tier of a country. High membership wins over medium.
func (t CountryRiskTable) Tier(country string) RiskTier {
	key := foldCountry(country)
	if _, ok := t.high[key]; ok {
		return RiskTierHigh
	}
	if _, ok := t.medium[key]; ok {
		return RiskTierMedium
	}
	return RiskTierLow
}

func foldCountry(name string) string {
	return cases.Fold().String(strings.Join(strings.Fields(name), " "))
}
