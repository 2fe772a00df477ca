package proof

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ArtifactType tags the stage an artifact snapshots
type ArtifactType string

const (
	ArtifactTypeTradeDetails        ArtifactType = "trade_details"
	ArtifactTypeComplianceResults   ArtifactType = "compliance_results"
	ArtifactTypeFinanceTerms        ArtifactType = "finance_terms"
	ArtifactTypePaymentConfirmation ArtifactType = "payment_confirmation"
)

// artifactPrefixes maps each type to its id prefix
var artifactPrefixes = map[ArtifactType]string{
	ArtifactTypeTradeDetails:        "ART-TRADE-",
	ArtifactTypeComplianceResults:   "ART-COMP-",
	ArtifactTypeFinanceTerms:        "ART-FIN-",
	ArtifactTypePaymentConfirmation: "ART-PAY-",
}

// CanonicalTimeFormat is the timestamp layout inside hashed payloads
const CanonicalTimeFormat = "2006-01-02T15:04:05.000Z"

// CanonicalTime formats t for hashing
func CanonicalTime(t time.Time) string {
	return t.UTC().Format(CanonicalTimeFormat)
}

// Artifact is a hashed snapshot of one stage output
type Artifact struct {
	ID        string          `json:"artifact_id"`
	Type      ArtifactType    `json:"type"`
	Hash      string          `json:"hash"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Payload field order is the canonical order. Do not reorder fields.

// TradeDetails snapshots the trade
type TradeDetails struct {
	TradeID   string          `json:"trade_id"`
	Status    string          `json:"status"`
	Route     string          `json:"route"`
	Product   string          `json:"product"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Incoterm  string          `json:"incoterm"`
	CreatedAt string          `json:"created_at"`
}

// ComplianceResults summarises the latest compliance run
type ComplianceResults struct {
	RunID       string `json:"run_id"`
	Status      string `json:"status"`
	RiskScore   int    `json:"risk_score"`
	ChecksCount int    `json:"checks_count"`
	CompletedAt string `json:"completed_at"`
}

// FinanceTerms captures the accepted finance offer
type FinanceTerms struct {
	OfferID      string          `json:"offer_id"`
	Provider     string          `json:"provider"`
	Amount       decimal.Decimal `json:"amount"`
	Rate         decimal.Decimal `json:"rate"`
	TermDays     int             `json:"term_days"`
	STFCertified bool            `json:"stf_certified"`
}

// PaymentConfirmation captures the settled payment
type PaymentConfirmation struct {
	PaymentID        string          `json:"payment_id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	ConfirmationCode string          `json:"confirmation_code"`
	SenderHash       string          `json:"sender_hash"`
	RecipientHash    string          `json:"recipient_hash"`
	ExecutedAt       string          `json:"executed_at"`
}

// Canonicalize returns the stable byte encoding of a payload. Payloads are
// structs, so encoding/json emits fields in declaration order and decimals
// as quoted strings.
func Canonicalize(payload any) ([]byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("canonicalize payload: %w", err)
	}
	return b, nil
}

// NewArtifact hashes a payload into an artifact owned by tradeID
func NewArtifact(h Hasher, tradeID string, typ ArtifactType, payload any, at time.Time) (Artifact, error) {
	prefix, ok := artifactPrefixes[typ]
	if !ok {
		return Artifact{}, fmt.Errorf("unknown artifact type %q", typ)
	}
	data, err := Canonicalize(payload)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{
		ID:        prefix + tradeID,
		Type:      typ,
		Hash:      h.Sum(data),
		Timestamp: at.UTC(),
		Data:      data,
	}, nil
}
