package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeflow/backend/internal/domain/shared"
	"golang.org/x/text/currency"
)

// incoterms is the Incoterms 2020 rule set
var incoterms = map[string]struct{}{
	"EXW": {}, "FCA": {}, "CPT": {}, "CIP": {}, "DAP": {}, "DPU": {},
	"DDP": {}, "FAS": {}, "FOB": {}, "CFR": {}, "CIF": {},
}

// Party is one counterparty of a trade
type Party struct {
	Name    string
	Country string
}

// NewTradeParams carries the intake fields of a trade
type NewTradeParams struct {
	Exporter        Party
	Importer        Party
	Product         string
	EstimatedAmount decimal.Decimal
	Currency        string
	Incoterm        string
}

// Trade is the aggregate root tracking a cross-border trade through the
// compliance, finance, payment and proof stages.
// Stage records are referenced by id, never embedded.
type Trade struct {
	shared.BaseAggregateRoot
	Exporter         Party
	Importer         Party
	Product          string
	EstimatedAmount  decimal.Decimal
	Currency         string
	Incoterm         string
	Status           TradeStatus
	ComplianceStatus ComplianceStatus
	ComplianceRunID  string
	FinanceOfferID   string
	PaymentID        string
	ProofBundleID    string
	FailureReason    string
	CompletedAt      *time.Time
}

// NewTrade creates a trade in planning status
func NewTrade(p NewTradeParams) (*Trade, error) {
	if strings.TrimSpace(p.Exporter.Name) == "" || strings.TrimSpace(p.Exporter.Country) == "" {
		return nil, shared.NewDomainError("INVALID_EXPORTER", "Exporter name and country are required")
	}
	if strings.TrimSpace(p.Importer.Name) == "" || strings.TrimSpace(p.Importer.Country) == "" {
		return nil, shared.NewDomainError("INVALID_IMPORTER", "Importer name and country are required")
	}
	if strings.TrimSpace(p.Product) == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product cannot be empty")
	}
	if p.EstimatedAmount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Estimated amount cannot be negative")
	}
	code := strings.ToUpper(strings.TrimSpace(p.Currency))
	if _, err := currency.ParseISO(code); err != nil {
		return nil, shared.NewDomainError("INVALID_CURRENCY", fmt.Sprintf("Unknown currency %q", p.Currency))
	}
	incoterm := strings.ToUpper(strings.TrimSpace(p.Incoterm))
	if _, ok := incoterms[incoterm]; !ok {
		return nil, shared.NewDomainError("INVALID_INCOTERM", fmt.Sprintf("Unknown Incoterm %q", p.Incoterm))
	}

	t := &Trade{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(shared.NewID(shared.PrefixTrade)),
		Exporter:          p.Exporter,
		Importer:          p.Importer,
		Product:           strings.TrimSpace(p.Product),
		EstimatedAmount:   p.EstimatedAmount,
		Currency:          code,
		Incoterm:          incoterm,
		Status:            TradeStatusPlanning,
		ComplianceStatus:  ComplianceStatusNone,
	}

	t.AddDomainEvent(NewTradeCreatedEvent(t))

	return t, nil
}

// EligibleFor reports whether the trade may enter the given stage
func (t *Trade) EligibleFor(stage Stage) bool {
	return stage.IsEligible(t.Status, t.ComplianceStatus)
}

// Route returns the human readable corridor, e.g. "Germany → Kenya"
func (t *Trade) Route() string {
	return t.Exporter.Country + " → " + t.Importer.Country
}

// EnsureEligible returns a NOT_ELIGIBLE error when the trade may not enter stage
func (t *Trade) EnsureEligible(stage Stage) error {
	if !t.EligibleFor(stage) {
		return t.ineligible(stage)
	}
	return nil
}

func (t *Trade) ineligible(stage Stage) error {
	return shared.NewDomainError("NOT_ELIGIBLE",
		fmt.Sprintf("Trade %s in %s status (compliance %q) is not eligible for %s", t.ID, t.Status, t.ComplianceStatus, stage))
}

func (t *Trade) transitionTo(target TradeStatus) error {
	if !t.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot move trade from %s to %s", t.Status, target))
	}
	t.Status = target
	t.Touch()
	return nil
}

// RecordCompliance stores the outcome of a compliance run.
// The trade moves to compliance_check whatever the outcome; a failed
// outcome only blocks the finance stage through ComplianceStatus.
func (t *Trade) RecordCompliance(runID string, status ComplianceStatus, riskScore int) error {
	if !t.EligibleFor(StageCompliance) {
		return t.ineligible(StageCompliance)
	}
	if status == ComplianceStatusNone || !status.IsValid() {
		return shared.NewDomainError("INVALID_COMPLIANCE_STATUS", fmt.Sprintf("Invalid compliance status %q", status))
	}
	if err := t.transitionTo(TradeStatusComplianceCheck); err != nil {
		return err
	}
	t.ComplianceStatus = status
	t.ComplianceRunID = runID

	t.AddDomainEvent(NewComplianceCompletedEvent(t, runID, riskScore))

	return nil
}

// MarkFinancePending records that finance offers are available
func (t *Trade) MarkFinancePending(offerCount int) error {
	if !t.EligibleFor(StageFinance) {
		return t.ineligible(StageFinance)
	}
	if offerCount <= 0 {
		return shared.NewDomainError("NO_OFFERS", "At least one finance offer is required")
	}
	if err := t.transitionTo(TradeStatusFinancePending); err != nil {
		return err
	}

	t.AddDomainEvent(NewFinanceOffersReadyEvent(t, offerCount))

	return nil
}

// AcceptFinanceOffer records the chosen finance offer
func (t *Trade) AcceptFinanceOffer(offerID, provider string, amount decimal.Decimal) error {
	if t.Status != TradeStatusFinancePending || t.ComplianceStatus != ComplianceStatusPassed {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot accept a finance offer for trade in %s status", t.Status))
	}
	if offerID == "" {
		return shared.NewDomainError("INVALID_OFFER", "Offer ID cannot be empty")
	}
	if err := t.transitionTo(TradeStatusFinanceAccepted); err != nil {
		return err
	}
	t.FinanceOfferID = offerID

	t.AddDomainEvent(NewFinanceOfferAcceptedEvent(t, offerID, provider, amount))

	return nil
}

// StartPayment binds a payment to the trade and moves it to payment_executing.
// Calling it again with the same payment id resumes an interrupted payment.
func (t *Trade) StartPayment(paymentID string) error {
	resuming := t.Status == TradeStatusPaymentExecuting && t.PaymentID == paymentID
	if !resuming && !t.EligibleFor(StagePayment) {
		return t.ineligible(StagePayment)
	}
	if paymentID == "" {
		return shared.NewDomainError("INVALID_PAYMENT", "Payment ID cannot be empty")
	}
	if t.FinanceOfferID == "" {
		return shared.NewDomainError("NO_FINANCE_OFFER", "Trade has no accepted finance offer")
	}
	if err := t.transitionTo(TradeStatusPaymentExecuting); err != nil {
		return err
	}
	t.PaymentID = paymentID

	if !resuming {
		t.AddDomainEvent(NewPaymentStartedEvent(t, paymentID))
	}

	return nil
}

// CompletePayment records a fully executed payment
func (t *Trade) CompletePayment(paymentID string, amount decimal.Decimal, confirmationCode string) error {
	if t.Status != TradeStatusPaymentExecuting || t.PaymentID != paymentID {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete payment %s for trade in %s status", paymentID, t.Status))
	}
	if err := t.transitionTo(TradeStatusPaymentCompleted); err != nil {
		return err
	}

	t.AddDomainEvent(NewPaymentExecutedEvent(t, paymentID, amount, confirmationCode))

	return nil
}

// FailPayment moves the trade into the failure substate
func (t *Trade) FailPayment(paymentID, reason string) error {
	if t.Status != TradeStatusPaymentExecuting || t.PaymentID != paymentID {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fail payment %s for trade in %s status", paymentID, t.Status))
	}
	if err := t.transitionTo(TradeStatusFailed); err != nil {
		return err
	}
	t.FailureReason = reason

	t.AddDomainEvent(NewPaymentFailedEvent(t, paymentID, reason))

	return nil
}

// AttachProofBundle completes the trade with its evidence bundle
func (t *Trade) AttachProofBundle(bundleID, merkleRoot string, artifactCount int) error {
	if !t.EligibleFor(StageProof) {
		return t.ineligible(StageProof)
	}
	if t.ProofBundleID != "" {
		return shared.NewDomainError("ALREADY_EXISTS", fmt.Sprintf("Trade already has proof bundle %s", t.ProofBundleID))
	}
	if t.Status != TradeStatusCompleted {
		if err := t.transitionTo(TradeStatusCompleted); err != nil {
			return err
		}
	}
	now := time.Now().UTC()
	t.ProofBundleID = bundleID
	t.CompletedAt = &now
	t.UpdatedAt = now

	t.AddDomainEvent(NewBundleReadyEvent(t, bundleID, merkleRoot, artifactCount))

	return nil
}
