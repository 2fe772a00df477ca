package compliance

import (
	"time"

	"github.com/tradeflow/backend/internal/domain/shared"
)

// Status is the aggregate outcome of a run
type Status string

const (
	StatusPassed   Status = "passed"
	StatusWarnings Status = "warnings"
	StatusFailed   Status = "failed"
)

// Risk score weights
const (
	maxRiskScore       = 100
	failedCheckPenalty = 30
	warningPenalty     = 10
)

// CheckResult is the outcome of one checklist entry
type CheckResult struct {
	CheckID  string      `json:"check_id"`
	Name     string      `json:"name"`
	Category string      `json:"category"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Severity Severity    `json:"severity"`
}

// ComplianceRun is the immutable record of one screening of a trade
type ComplianceRun struct {
	shared.BaseEntity
	TradeID     string
	Checks      []CheckResult
	Status      Status
	RiskScore   int
	CompletedAt time.Time
}

// NewComplianceRun aggregates check results into a run
func NewComplianceRun(tradeID string, checks []CheckResult) (*ComplianceRun, error) {
	if tradeID == "" {
		return nil, shared.NewDomainError("INVALID_TRADE", "Trade ID cannot be empty")
	}
	if len(checks) == 0 {
		return nil, shared.NewDomainError("NO_CHECKS", "A compliance run needs at least one check")
	}

	run := &ComplianceRun{
		BaseEntity: shared.NewBaseEntity(shared.NewID(shared.PrefixCompliance)),
		TradeID:    tradeID,
		Checks:     append([]CheckResult(nil), checks...),
		Status:     AggregateStatus(checks),
		RiskScore:  RiskScore(checks),
	}
	run.CompletedAt = run.CreatedAt
	return run, nil
}

// AggregateStatus applies worst-of precedence: failed > warnings > passed
func AggregateStatus(checks []CheckResult) Status {
	status := StatusPassed
	for _, c := range checks {
		switch c.Status {
		case CheckStatusFailed:
			return StatusFailed
		case CheckStatusWarning:
			status = StatusWarnings
		}
	}
	return status
}

// RiskScore starts at 100 and deducts 30 per failure and 10 per warning, floored at 0
func RiskScore(checks []CheckResult) int {
	score := maxRiskScore
	for _, c := range checks {
		switch c.Status {
		case CheckStatusFailed:
			score -= failedCheckPenalty
		case CheckStatusWarning:
			score -= warningPenalty
		}
	}
	if score < 0 {
		return 0
	}
	return score
}

// Counts returns the number of passed, warning and failed checks
func (r *ComplianceRun) Counts() (passed, warnings, failed int) {
	for _, c := range r.Checks {
		switch c.Status {
		case CheckStatusPassed:
			passed++
		case CheckStatusWarning:
			warnings++
		case CheckStatusFailed:
			failed++
		}
	}
	return passed, warnings, failed
}
