package trade

import (
	"fmt"

	"github.com/tradeflow/backend/internal/domain/shared"
)

// Stage identifies one phase of the trade lifecycle
type Stage string

const (
	StageCompliance Stage = "compliance"
	StageFinance    Stage = "finance"
	StagePayment    Stage = "payment"
	StageProof      Stage = "proof"
)

// ParseStage converts a string to a Stage
func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case StageCompliance, StageFinance, StagePayment, StageProof:
		return Stage(s), nil
	default:
		return "", shared.NewDomainError("INVALID_STAGE", fmt.Sprintf("Unknown stage %q", s))
	}
}

// Statuses returns the trade statuses from which the stage may run.
// Finance additionally requires a passed compliance status, see RequiresPassedCompliance.
func (s Stage) Statuses() []TradeStatus {
	switch s {
	case StageCompliance:
		return []TradeStatus{TradeStatusPlanning, TradeStatusComplianceCheck}
	case StageFinance:
		return []TradeStatus{TradeStatusComplianceCheck, TradeStatusFinancePending}
	case StagePayment:
		return []TradeStatus{TradeStatusFinanceAccepted, TradeStatusPaymentPending}
	case StageProof:
		return []TradeStatus{TradeStatusPaymentCompleted, TradeStatusCompleted}
	default:
		return nil
	}
}

// RequiresPassedCompliance reports whether the stage gates on compliance_status
func (s Stage) RequiresPassedCompliance() bool {
	return s == StageFinance
}

// IsEligible reports whether a trade in the given state may enter the stage
func (s Stage) IsEligible(status TradeStatus, compliance ComplianceStatus) bool {
	if s.RequiresPassedCompliance() && compliance != ComplianceStatusPassed {
		return false
	}
	for _, st := range s.Statuses() {
		if st == status {
			return true
		}
	}
	return false
}
