package trade

import (
	"github.com/shopspring/decimal"
	"github.com/tradeflow/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeTrade = "Trade"

// Event type constants. These double as the audit event types.
const (
	EventTypeTradeCreated         = "trade.created"
	EventTypeComplianceCompleted  = "compliance.completed"
	EventTypeFinanceOffersReady   = "finance.offers.ready"
	EventTypeFinanceOfferAccepted = "finance.offer.accepted"
	EventTypePaymentStarted       = "payment.started"
	EventTypePaymentHopCompleted  = "payment.hop.completed"
	EventTypePaymentExecuted      = "payment.executed"
	EventTypePaymentFailed        = "payment.failed"
	EventTypeBundleReady          = "ledger.bundle.ready"
	EventTypeBundleVerified       = "ledger.bundle.verified"
)

// TradeCreatedEvent is raised when a trade is taken in
type TradeCreatedEvent struct {
	shared.BaseDomainEvent
	Route    string          `json:"route"`
	Product  string          `json:"product"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewTradeCreatedEvent creates a new TradeCreatedEvent
func NewTradeCreatedEvent(t *Trade) *TradeCreatedEvent {
	return &TradeCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTradeCreated, AggregateTypeTrade, t.ID),
		Route:           t.Route(),
		Product:         t.Product,
		Amount:          t.EstimatedAmount,
		Currency:        t.Currency,
	}
}

// Details returns the audit payload
func (e *TradeCreatedEvent) Details() map[string]any {
	return map[string]any{
		"route":    e.Route,
		"product":  e.Product,
		"amount":   e.Amount.String(),
		"currency": e.Currency,
	}
}

// ComplianceCompletedEvent is raised when a compliance run finishes
type ComplianceCompletedEvent struct {
	shared.BaseDomainEvent
	RunID     string           `json:"run_id"`
	Status    ComplianceStatus `json:"status"`
	RiskScore int              `json:"risk_score"`
}

// NewComplianceCompletedEvent creates a new ComplianceCompletedEvent
func NewComplianceCompletedEvent(t *Trade, runID string, riskScore int) *ComplianceCompletedEvent {
	return &ComplianceCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeComplianceCompleted, AggregateTypeTrade, t.ID),
		RunID:           runID,
		Status:          t.ComplianceStatus,
		RiskScore:       riskScore,
	}
}

// Details returns the audit payload
func (e *ComplianceCompletedEvent) Details() map[string]any {
	return map[string]any{
		"run_id":     e.RunID,
		"status":     string(e.Status),
		"risk_score": e.RiskScore,
	}
}

// FinanceOffersReadyEvent is raised when offers have been generated
type FinanceOffersReadyEvent struct {
	shared.BaseDomainEvent
	OfferCount int `json:"offer_count"`
}

// NewFinanceOffersReadyEvent creates a new FinanceOffersReadyEvent
func NewFinanceOffersReadyEvent(t *Trade, offerCount int) *FinanceOffersReadyEvent {
	return &FinanceOffersReadyEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFinanceOffersReady, AggregateTypeTrade, t.ID),
		OfferCount:      offerCount,
	}
}

// Details returns the audit payload
func (e *FinanceOffersReadyEvent) Details() map[string]any {
	return map[string]any{"offer_count": e.OfferCount}
}

// FinanceOfferAcceptedEvent is raised when an offer is accepted
type FinanceOfferAcceptedEvent struct {
	shared.BaseDomainEvent
	OfferID  string          `json:"offer_id"`
	Provider string          `json:"provider"`
	Amount   decimal.Decimal `json:"amount"`
}

// NewFinanceOfferAcceptedEvent creates a new FinanceOfferAcceptedEvent
func NewFinanceOfferAcceptedEvent(t *Trade, offerID, provider string, amount decimal.Decimal) *FinanceOfferAcceptedEvent {
	return &FinanceOfferAcceptedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFinanceOfferAccepted, AggregateTypeTrade, t.ID),
		OfferID:         offerID,
		Provider:        provider,
		Amount:          amount,
	}
}

// Details returns the audit payload
func (e *FinanceOfferAcceptedEvent) Details() map[string]any {
	return map[string]any{
		"offer_id": e.OfferID,
		"provider": e.Provider,
		"amount":   e.Amount.String(),
	}
}

// PaymentStartedEvent is raised when route execution begins
type PaymentStartedEvent struct {
	shared.BaseDomainEvent
	PaymentID string `json:"payment_id"`
}

// NewPaymentStartedEvent creates a new PaymentStartedEvent
func NewPaymentStartedEvent(t *Trade, paymentID string) *PaymentStartedEvent {
	return &PaymentStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentStarted, AggregateTypeTrade, t.ID),
		PaymentID:       paymentID,
	}
}

// Details returns the audit payload
func (e *PaymentStartedEvent) Details() map[string]any {
	return map[string]any{"payment_id": e.PaymentID}
}

// PaymentHopCompletedEvent is raised as each route hop settles
type PaymentHopCompletedEvent struct {
	shared.BaseDomainEvent
	PaymentID string `json:"payment_id"`
	Step      int    `json:"step"`
	BankName  string `json:"bank_name"`
}

// NewPaymentHopCompletedEvent creates a new PaymentHopCompletedEvent
func NewPaymentHopCompletedEvent(tradeID, paymentID string, step int, bankName string) *PaymentHopCompletedEvent {
	return &PaymentHopCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentHopCompleted, AggregateTypeTrade, tradeID),
		PaymentID:       paymentID,
		Step:            step,
		BankName:        bankName,
	}
}

// Details returns the audit payload
func (e *PaymentHopCompletedEvent) Details() map[string]any {
	return map[string]any{
		"payment_id": e.PaymentID,
		"step":       e.Step,
		"bank_name":  e.BankName,
	}
}

// PaymentExecutedEvent is raised when every hop has completed
type PaymentExecutedEvent struct {
	shared.BaseDomainEvent
	PaymentID        string          `json:"payment_id"`
	Amount           decimal.Decimal `json:"amount"`
	ConfirmationCode string          `json:"confirmation_code"`
}

// NewPaymentExecutedEvent creates a new PaymentExecutedEvent
func NewPaymentExecutedEvent(t *Trade, paymentID string, amount decimal.Decimal, code string) *PaymentExecutedEvent {
	return &PaymentExecutedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypePaymentExecuted, AggregateTypeTrade, t.ID),
		PaymentID:        paymentID,
		Amount:           amount,
		ConfirmationCode: code,
	}
}

// Details returns the audit payload
func (e *PaymentExecutedEvent) Details() map[string]any {
	return map[string]any{
		"payment_id":        e.PaymentID,
		"amount":            e.Amount.String(),
		"confirmation_code": e.ConfirmationCode,
	}
}

// PaymentFailedEvent is raised when a hop cannot be completed
type PaymentFailedEvent struct {
	shared.BaseDomainEvent
	PaymentID string `json:"payment_id"`
	Reason    string `json:"reason"`
}

// NewPaymentFailedEvent creates a new PaymentFailedEvent
func NewPaymentFailedEvent(t *Trade, paymentID, reason string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentFailed, AggregateTypeTrade, t.ID),
		PaymentID:       paymentID,
		Reason:          reason,
	}
}

// Details returns the audit payload
func (e *PaymentFailedEvent) Details() map[string]any {
	return map[string]any{
		"payment_id": e.PaymentID,
		"reason":     e.Reason,
	}
}

// BundleReadyEvent is raised when the proof bundle has been sealed
type BundleReadyEvent struct {
	shared.BaseDomainEvent
	BundleID      string `json:"bundle_id"`
	MerkleRoot    string `json:"merkle_root"`
	ArtifactCount int    `json:"artifact_count"`
}

// NewBundleReadyEvent creates a new BundleReadyEvent
func NewBundleReadyEvent(t *Trade, bundleID, merkleRoot string, artifactCount int) *BundleReadyEvent {
	return &BundleReadyEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBundleReady, AggregateTypeTrade, t.ID),
		BundleID:        bundleID,
		MerkleRoot:      merkleRoot,
		ArtifactCount:   artifactCount,
	}
}

// Details returns the audit payload
func (e *BundleReadyEvent) Details() map[string]any {
	return map[string]any{
		"bundle_id":      e.BundleID,
		"merkle_root":    e.MerkleRoot,
		"artifact_count": e.ArtifactCount,
	}
}

// BundleVerifiedEvent records the outcome of a verification request
type BundleVerifiedEvent struct {
	shared.BaseDomainEvent
	BundleID string `json:"bundle_id"`
	Result   string `json:"result"`
}

// NewBundleVerifiedEvent creates a new BundleVerifiedEvent
func NewBundleVerifiedEvent(tradeID, bundleID, result string) *BundleVerifiedEvent {
	return &BundleVerifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBundleVerified, AggregateTypeTrade, tradeID),
		BundleID:        bundleID,
		Result:          result,
	}
}

// Details returns the audit payload
func (e *BundleVerifiedEvent) Details() map[string]any {
	return map[string]any{
		"bundle_id": e.BundleID,
		"result":    e.Result,
	}
}
