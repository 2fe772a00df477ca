package proof

import "time"

// Evidence gathers the payloads of the stages a trade completed. Only the
// trade snapshot is mandatory, so a bundle holds one to four artifacts.
type Evidence struct {
	TradeID    string
	Trade      TradeDetails
	Compliance *ComplianceResults
	Finance    *FinanceTerms
	Payment    *PaymentConfirmation
}

// Artifacts hashes the evidence in stage order
func (e Evidence) Artifacts(h Hasher, at time.Time) ([]Artifact, error) {
	type entry struct {
		typ     ArtifactType
		payload any
	}
	entries := []entry{{ArtifactTypeTradeDetails, e.Trade}}
	if e.Compliance != nil {
		entries = append(entries, entry{ArtifactTypeComplianceResults, e.Compliance})
	}
	if e.Finance != nil {
		entries = append(entries, entry{ArtifactTypeFinanceTerms, e.Finance})
	}
	if e.Payment != nil {
		entries = append(entries, entry{ArtifactTypePaymentConfirmation, e.Payment})
	}

	artifacts := make([]Artifact, 0, len(entries))
	for _, en := range entries {
		a, err := NewArtifact(h, e.TradeID, en.typ, en.payload, at)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}
