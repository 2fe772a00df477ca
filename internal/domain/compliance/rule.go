package compliance

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CheckStatus is the outcome of a single check
type CheckStatus string

const (
	CheckStatusPassed  CheckStatus = "passed"
	CheckStatusWarning CheckStatus = "warning"
	CheckStatusFailed  CheckStatus = "failed"
)

// Severity returns the severity associated with a check outcome
func (s CheckStatus) Severity() Severity {
	switch s {
	case CheckStatusFailed:
		return SeverityCritical
	case CheckStatusWarning:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Severity of a check result
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityCritical Severity = "critical"
)

// Subject is the view of a trade the checks evaluate
type Subject struct {
	ExporterCountry string
	ImporterCountry string
	Product         string
	Amount          decimal.Decimal
}

// Context gives rules access to shared reference data
type Context struct {
	Countries    CountryRiskTable
	KYCThreshold decimal.Decimal
}

// Rule is one entry of the compliance checklist
type Rule struct {
	ID       string
	Name     string
	Category string
	// Evaluate decides the outcome; nil means the check always passes
	Evaluate func(s Subject, c Context) CheckStatus
	Messages map[CheckStatus]string
}

// Check runs the rule against the subject
func (r Rule) Check(s Subject, c Context) CheckResult {
	status := CheckStatusPassed
	if r.Evaluate != nil {
		status = r.Evaluate(s, c)
	}
	return CheckResult{
		CheckID:  r.ID,
		Name:     r.Name,
		Category: r.Category,
		Status:   status,
		Message:  r.Messages[status],
		Severity: status.Severity(),
	}
}

// DefaultKYCThreshold is the amount above which enhanced due diligence is flagged
var DefaultKYCThreshold = decimal.NewFromInt(500000)

// exportControlKeywords flag products that may need an export licence
var exportControlKeywords = []string{"electronic", "tech"}

// DefaultRules returns the ordered checklist
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:       "sanctions",
			Name:     "Sanctions Screening",
			Category: "sanctions",
			Evaluate: func(s Subject, c Context) CheckStatus {
				if c.Countries.Tier(s.ExporterCountry) == RiskTierHigh || c.Countries.Tier(s.ImporterCountry) == RiskTierHigh {
					return CheckStatusFailed
				}
				return CheckStatusPassed
			},
			Messages: map[CheckStatus]string{
				CheckStatusPassed: "No sanctions matches found for involved parties.",
				CheckStatusFailed: "Party located in sanctioned jurisdiction.",
			},
		},
		{
			ID:       "export_control",
			Name:     "Export Control",
			Category: "export_control",
			Evaluate: func(s Subject, _ Context) CheckStatus {
				product := strings.ToLower(s.Product)
				for _, kw := range exportControlKeywords {
					if strings.Contains(product, kw) {
						return CheckStatusWarning
					}
				}
				return CheckStatusPassed
			},
			Messages: map[CheckStatus]string{
				CheckStatusPassed:  "Product not subject to export control restrictions.",
				CheckStatusWarning: "Product may require export license verification.",
			},
		},
		{
			ID:       "country_risk",
			Name:     "Country Risk Assessment",
			Category: "country_risk",
			Evaluate: func(s Subject, c Context) CheckStatus {
				exporter, importer := c.Countries.Tier(s.ExporterCountry), c.Countries.Tier(s.ImporterCountry)
				switch {
				case exporter == RiskTierHigh || importer == RiskTierHigh:
					return CheckStatusFailed
				case exporter == RiskTierMedium || importer == RiskTierMedium:
					return CheckStatusWarning
				default:
					return CheckStatusPassed
				}
			},
			Messages: map[CheckStatus]string{
				CheckStatusPassed:  "Countries assessed as low risk.",
				CheckStatusWarning: "Medium risk jurisdiction involved.",
				CheckStatusFailed:  "High risk jurisdiction involved.",
			},
		},
		{
			ID:       "product_restrictions",
			Name:     "Product Restrictions",
			Category: "product",
			Messages: map[CheckStatus]string{
				CheckStatusPassed: "No product restrictions apply.",
			},
		},
		{
			ID:       "documentation",
			Name:     "Documentation Review",
			Category: "documentation",
			Messages: map[CheckStatus]string{
				CheckStatusPassed: "Required documentation is complete.",
			},
		},
		{
			ID:       "kyc_aml",
			Name:     "KYC/AML Verification",
			Category: "kyc",
			Evaluate: func(s Subject, c Context) CheckStatus {
				if s.Amount.GreaterThan(c.KYCThreshold) {
					return CheckStatusWarning
				}
				return CheckStatusPassed
			},
			Messages: map[CheckStatus]string{
				CheckStatusPassed:  "KYC/AML checks passed.",
				CheckStatusWarning: "Enhanced due diligence recommended for high-value transaction.",
			},
		},
	}
}
