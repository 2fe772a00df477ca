package trade

// TradeStatus represents the lifecycle stage of a trade
type TradeStatus string

const (
	TradeStatusPlanning         TradeStatus = "planning"
	TradeStatusComplianceCheck  TradeStatus = "compliance_check"
	TradeStatusFinancePending   TradeStatus = "finance_pending"
	TradeStatusFinanceAccepted  TradeStatus = "finance_accepted"
	TradeStatusPaymentPending   TradeStatus = "payment_pending"
	TradeStatusPaymentExecuting TradeStatus = "payment_executing"
	TradeStatusPaymentCompleted TradeStatus = "payment_completed"
	TradeStatusCompleted        TradeStatus = "completed"
	TradeStatusFailed           TradeStatus = "failed"
)

// statusOrder is the required forward order of the lifecycle
var statusOrder = map[TradeStatus]int{
	TradeStatusPlanning:         0,
	TradeStatusComplianceCheck:  1,
	TradeStatusFinancePending:   2,
	TradeStatusFinanceAccepted:  3,
	TradeStatusPaymentPending:   4,
	TradeStatusPaymentExecuting: 5,
	TradeStatusPaymentCompleted: 6,
	TradeStatusCompleted:        7,
}

// IsValid checks if the status is a valid TradeStatus
func (s TradeStatus) IsValid() bool {
	if s == TradeStatusFailed {
		return true
	}
	_, ok := statusOrder[s]
	return ok
}

// String returns the string representation of TradeStatus
func (s TradeStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible
func (s TradeStatus) IsTerminal() bool {
	return s == TradeStatusCompleted || s == TradeStatusFailed
}

// CanTransitionTo checks if the status can transition to the target status.
// Moves are forward only; a stage that re-enters its own state (compliance
// re-run, offer regeneration, payment resume) is allowed to stay put.
func (s TradeStatus) CanTransitionTo(target TradeStatus) bool {
	if !s.IsValid() || !target.IsValid() || s.IsTerminal() {
		return false
	}
	if target == TradeStatusFailed {
		return true
	}
	if s == target {
		switch s {
		case TradeStatusComplianceCheck, TradeStatusFinancePending, TradeStatusPaymentExecuting:
			return true
		default:
			return false
		}
	}
	return statusOrder[target] > statusOrder[s]
}

// AllStatuses returns every status in lifecycle order, failure last
func AllStatuses() []TradeStatus {
	return []TradeStatus{
		TradeStatusPlanning,
		TradeStatusComplianceCheck,
		TradeStatusFinancePending,
		TradeStatusFinanceAccepted,
		TradeStatusPaymentPending,
		TradeStatusPaymentExecuting,
		TradeStatusPaymentCompleted,
		TradeStatusCompleted,
		TradeStatusFailed,
	}
}

// ComplianceStatus is the aggregate outcome of the latest compliance run
type ComplianceStatus string

const (
	ComplianceStatusNone     ComplianceStatus = ""
	ComplianceStatusPassed   ComplianceStatus = "passed"
	ComplianceStatusWarnings ComplianceStatus = "warnings"
	ComplianceStatusFailed   ComplianceStatus = "failed"
)

// IsValid checks if the compliance status is known
func (c ComplianceStatus) IsValid() bool {
	switch c {
	case ComplianceStatusNone, ComplianceStatusPassed, ComplianceStatusWarnings, ComplianceStatusFailed:
		return true
	default:
		return false
	}
}
