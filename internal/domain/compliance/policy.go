package compliance

// Policy bundles the checklist with the reference data it evaluates against
type Policy struct {
	Rules   []Rule
	Context Context
}

// DefaultPolicy returns the built-in checklist and country classification
func DefaultPolicy() Policy {
	return Policy{
		Rules: DefaultRules(),
		Context: Context{
			Countries:    DefaultCountryRiskTable(),
			KYCThreshold: DefaultKYCThreshold,
		},
	}
}

// Evaluate runs every rule in order. Callers that need suspension points
// between checks iterate Rules and call Rule.Check themselves.
func (p Policy) Evaluate(s Subject) []CheckResult {
	results := make([]CheckResult, 0, len(p.Rules))
	for _, r := range p.Rules {
		results = append(results, r.Check(s, p.Context))
	}
	return results
}
