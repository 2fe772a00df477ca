package workflow

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeflow/backend/internal/domain/audit"
	"github.com/tradeflow/backend/internal/domain/compliance"
	"github.com/tradeflow/backend/internal/domain/finance"
	"github.com/tradeflow/backend/internal/domain/payment"
	"github.com/tradeflow/backend/internal/domain/proof"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
)

// ==================== Query DTOs ====================

// PageQuery is the pagination part of list requests
type PageQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// toFilter converts the query into a newest-first domain filter
func (q PageQuery) toFilter() shared.Filter {
	f := shared.DefaultFilter()
	if q.Page > 0 {
		f.Page = q.Page
	}
	if q.PageSize > 0 {
		f.PageSize = q.PageSize
	}
	return f
}

// Paging returns the effective page and page size of the query
func (q PageQuery) Paging() (int, int) {
	f := q.toFilter()
	return f.Page, f.PageSize
}

// TradeListFilter represents filter options for listing trades
type TradeListFilter struct {
	PageQuery
	Status string `form:"status" binding:"omitempty,oneof=planning compliance_check finance_pending finance_accepted payment_pending payment_executing payment_completed completed failed"`
}

// AuditListFilter represents filter options for listing audit events
type AuditListFilter struct {
	PageQuery
	TradeID string `form:"trade_id"`
}

// VerifyQuery represents a verification request
type VerifyQuery struct {
	Query string `form:"q" binding:"required"`
	Deep  bool   `form:"deep"`
}

// ==================== Trade DTOs ====================

// CreateTradeRequest represents a request to take in a trade
type CreateTradeRequest struct {
	ExporterName    string          `json:"exporter_name" binding:"required,min=1,max=200"`
	ExporterCountry string          `json:"exporter_country" binding:"required,min=2,max=100"`
	ImporterName    string          `json:"importer_name" binding:"required,min=1,max=200"`
	ImporterCountry string          `json:"importer_country" binding:"required,min=2,max=100"`
	Product         string          `json:"product" binding:"required,min=1,max=200"`
	EstimatedAmount decimal.Decimal `json:"estimated_amount"`
	Currency        string          `json:"currency" binding:"required,iso4217"`
	Incoterm        string          `json:"incoterm" binding:"required,len=3"`
}

// TradeResponse represents a trade in API responses
type TradeResponse struct {
	ID               string          `json:"id"`
	ExporterName     string          `json:"exporter_name"`
	ExporterCountry  string          `json:"exporter_country"`
	ImporterName     string          `json:"importer_name"`
	ImporterCountry  string          `json:"importer_country"`
	Route            string          `json:"route"`
	Product          string          `json:"product"`
	EstimatedAmount  decimal.Decimal `json:"estimated_amount"`
	Currency         string          `json:"currency"`
	Incoterm         string          `json:"incoterm"`
	Status           string          `json:"status"`
	ComplianceStatus string          `json:"compliance_status"`
	ComplianceRunID  string          `json:"compliance_run_id,omitempty"`
	FinanceOfferID   string          `json:"finance_offer_id,omitempty"`
	PaymentID        string          `json:"payment_id,omitempty"`
	ProofBundleID    string          `json:"proof_bundle_id,omitempty"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	Version          int             `json:"version"`
}

// ToTradeResponse converts a domain trade to a response DTO
func ToTradeResponse(t *trade.Trade) TradeResponse {
	return TradeResponse{
		ID:               t.ID,
		ExporterName:     t.Exporter.Name,
		ExporterCountry:  t.Exporter.Country,
		ImporterName:     t.Importer.Name,
		ImporterCountry:  t.Importer.Country,
		Route:            t.Route(),
		Product:          t.Product,
		EstimatedAmount:  t.EstimatedAmount,
		Currency:         t.Currency,
		Incoterm:         t.Incoterm,
		Status:           string(t.Status),
		ComplianceStatus: string(t.ComplianceStatus),
		ComplianceRunID:  t.ComplianceRunID,
		FinanceOfferID:   t.FinanceOfferID,
		PaymentID:        t.PaymentID,
		ProofBundleID:    t.ProofBundleID,
		FailureReason:    t.FailureReason,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		CompletedAt:      t.CompletedAt,
		Version:          t.Version,
	}
}

// ToTradeResponses converts a slice of trades
func ToTradeResponses(trades []trade.Trade) []TradeResponse {
	out := make([]TradeResponse, len(trades))
	for i := range trades {
		out[i] = ToTradeResponse(&trades[i])
	}
	return out
}

// ==================== Compliance DTOs ====================

// ComplianceRunResponse represents a compliance run in API responses
type ComplianceRunResponse struct {
	ID          string                   `json:"id"`
	TradeID     string                   `json:"trade_id"`
	Status      string                   `json:"status"`
	RiskScore   int                      `json:"risk_score"`
	Checks      []compliance.CheckResult `json:"checks"`
	Passed      int                      `json:"passed"`
	Warnings    int                      `json:"warnings"`
	Failed      int                      `json:"failed"`
	CompletedAt time.Time                `json:"completed_at"`
}

// ToComplianceRunResponse converts a domain run to a response DTO
func ToComplianceRunResponse(r *compliance.ComplianceRun) ComplianceRunResponse {
	passed, warnings, failed := r.Counts()
	return ComplianceRunResponse{
		ID:          r.ID,
		TradeID:     r.TradeID,
		Status:      string(r.Status),
		RiskScore:   r.RiskScore,
		Checks:      r.Checks,
		Passed:      passed,
		Warnings:    warnings,
		Failed:      failed,
		CompletedAt: r.CompletedAt,
	}
}

// ToComplianceRunResponses converts a slice of runs
func ToComplianceRunResponses(runs []compliance.ComplianceRun) []ComplianceRunResponse {
	out := make([]ComplianceRunResponse, len(runs))
	for i := range runs {
		out[i] = ToComplianceRunResponse(&runs[i])
	}
	return out
}

// ==================== Finance DTOs ====================

// FinanceOfferResponse represents a finance offer in API responses
type FinanceOfferResponse struct {
	ID           string              `json:"id"`
	TradeID      string              `json:"trade_id"`
	ProviderID   string              `json:"provider_id"`
	ProviderName string              `json:"provider_name"`
	FinanceType  string              `json:"finance_type"`
	Amount       decimal.Decimal     `json:"amount"`
	Currency     string              `json:"currency"`
	InterestRate decimal.Decimal     `json:"interest_rate"`
	TermDays     int                 `json:"term_days"`
	Fees         finance.Fees        `json:"fees"`
	TotalCost    decimal.Decimal     `json:"total_cost"`
	STFCertified bool                `json:"stf_certified"`
	STFDetails   *finance.STFDetails `json:"stf_details,omitempty"`
	ValidUntil   time.Time           `json:"valid_until"`
	Terms        string              `json:"terms"`
	Status       string              `json:"status"`
	AcceptedAt   *time.Time          `json:"accepted_at,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// ToFinanceOfferResponse converts a domain offer to a response DTO
func ToFinanceOfferResponse(o *finance.FinanceOffer) FinanceOfferResponse {
	return FinanceOfferResponse{
		ID:           o.ID,
		TradeID:      o.TradeID,
		ProviderID:   o.ProviderID,
		ProviderName: o.ProviderName,
		FinanceType:  string(o.FinanceType),
		Amount:       o.Amount,
		Currency:     o.Currency,
		InterestRate: o.InterestRate,
		TermDays:     o.TermDays,
		Fees:         o.Fees,
		TotalCost:    o.TotalCost,
		STFCertified: o.STFCertified,
		STFDetails:   o.STFDetails,
		ValidUntil:   o.ValidUntil,
		Terms:        o.Terms,
		Status:       string(o.Status),
		AcceptedAt:   o.AcceptedAt,
		CreatedAt:    o.CreatedAt,
	}
}

// ToFinanceOfferResponses converts a slice of offers
func ToFinanceOfferResponses(offers []finance.FinanceOffer) []FinanceOfferResponse {
	out := make([]FinanceOfferResponse, len(offers))
	for i := range offers {
		out[i] = ToFinanceOfferResponse(&offers[i])
	}
	return out
}

// ==================== Payment DTOs ====================

// HopResponse represents one route hop
type HopResponse struct {
	Step        int        `json:"step"`
	Type        string     `json:"type"`
	BankName    string     `json:"bank_name"`
	SWIFTCode   string     `json:"swift_code,omitempty"`
	Country     string     `json:"country"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// AccountResponse represents a payment party
type AccountResponse struct {
	Name        string `json:"name"`
	Country     string `json:"country"`
	AccountHash string `json:"account_hash"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID                 string          `json:"id"`
	TradeID            string          `json:"trade_id"`
	FinanceOfferID     string          `json:"finance_offer_id"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	Sender             AccountResponse `json:"sender"`
	Recipient          AccountResponse `json:"recipient"`
	Route              []HopResponse   `json:"route"`
	CorrespondentCount int             `json:"correspondent_count"`
	Fee                decimal.Decimal `json:"fee"`
	EstimatedDuration  string          `json:"estimated_duration"`
	Status             string          `json:"status"`
	ConfirmationCode   string          `json:"confirmation_code,omitempty"`
	FailureReason      string          `json:"failure_reason,omitempty"`
	ExecutedAt         *time.Time      `json:"executed_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

// ToPaymentResponse converts a domain payment to a response DTO
func ToPaymentResponse(p *payment.Payment) PaymentResponse {
	route := make([]HopResponse, len(p.Route))
	for i, h := range p.Route {
		route[i] = HopResponse{
			Step:        h.Step,
			Type:        string(h.Type),
			BankName:    h.BankName,
			SWIFTCode:   h.SWIFTCode,
			Country:     h.Country,
			Status:      string(h.Status),
			CompletedAt: h.CompletedAt,
		}
	}
	return PaymentResponse{
		ID:                 p.ID,
		TradeID:            p.TradeID,
		FinanceOfferID:     p.FinanceOfferID,
		Amount:             p.Amount,
		Currency:           p.Currency,
		Sender:             AccountResponse(p.Sender),
		Recipient:          AccountResponse(p.Recipient),
		Route:              route,
		CorrespondentCount: p.CorrespondentCount,
		Fee:                p.Fee,
		EstimatedDuration:  p.EstimatedDuration,
		Status:             string(p.Status),
		ConfirmationCode:   p.ConfirmationCode,
		FailureReason:      p.FailureReason,
		ExecutedAt:         p.ExecutedAt,
		CreatedAt:          p.CreatedAt,
	}
}

// ToPaymentResponses converts a slice of payments
func ToPaymentResponses(payments []payment.Payment) []PaymentResponse {
	out := make([]PaymentResponse, len(payments))
	for i := range payments {
		out[i] = ToPaymentResponse(&payments[i])
	}
	return out
}

// ==================== Proof DTOs ====================

// ArtifactResponse represents a bundle artifact. Data is only included in
// archived documents.
type ArtifactResponse struct {
	ID        string          `json:"artifact_id"`
	Type      string          `json:"type"`
	Hash      string          `json:"hash"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MerkleTreeResponse carries the tree levels of a bundle
type MerkleTreeResponse struct {
	Leaves []string   `json:"leaves"`
	Levels [][]string `json:"levels"`
}

// ProofBundleResponse is the external shape of a proof bundle
type ProofBundleResponse struct {
	BundleID      string             `json:"bundle_id"`
	TradeID       string             `json:"trade_id"`
	Status        string             `json:"status"`
	HashAlgorithm string             `json:"hash_algorithm"`
	MerkleRoot    string             `json:"merkle_root"`
	Artifacts     []ArtifactResponse `json:"artifacts"`
	Manifest      proof.Manifest     `json:"manifest"`
	MerkleTree    MerkleTreeResponse `json:"merkle_tree"`
	AnchorInfo    proof.AnchorInfo   `json:"anchor_info"`
	BundleHash    string             `json:"bundle_hash"`
	ArchiveKey    string             `json:"archive_key,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
}

// ArchiveLinkResponse is a time-limited link to an archived bundle document
type ArchiveLinkResponse struct {
	BundleID   string    `json:"bundle_id"`
	ArchiveKey string    `json:"archive_key"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// InclusionProofResponse is the Merkle path of one artifact. Siblings are
// folded from the leaf upwards; a left sibling is hashed before the running hash.
type InclusionProofResponse struct {
	BundleID      string          `json:"bundle_id"`
	ArtifactID    string          `json:"artifact_id"`
	ArtifactType  string          `json:"artifact_type"`
	HashAlgorithm string          `json:"hash_algorithm"`
	MerkleRoot    string          `json:"merkle_root"`
	LeafIndex     int             `json:"leaf_index"`
	LeafHash      string          `json:"leaf_hash"`
	Siblings      []proof.Sibling `json:"siblings"`
	Verified      bool            `json:"verified"`
}

// ToProofBundleResponse converts a bundle to its external shape. withData
// includes the canonical artifact payloads.
func ToProofBundleResponse(b *proof.ProofBundle, withData bool) ProofBundleResponse {
	artifacts := make([]ArtifactResponse, len(b.Artifacts))
	for i, a := range b.Artifacts {
		artifacts[i] = ArtifactResponse{
			ID:        a.ID,
			Type:      string(a.Type),
			Hash:      a.Hash,
			Timestamp: proof.CanonicalTime(a.Timestamp),
		}
		if withData {
			artifacts[i].Data = a.Data
		}
	}
	return ProofBundleResponse{
		BundleID:      b.ID,
		TradeID:       b.TradeID,
		Status:        b.Status,
		HashAlgorithm: b.HashAlgorithm,
		MerkleRoot:    b.MerkleRoot,
		Artifacts:     artifacts,
		Manifest:      b.Manifest,
		MerkleTree:    MerkleTreeResponse{Leaves: b.Tree.Leaves, Levels: b.Tree.Levels},
		AnchorInfo:    b.Anchor,
		BundleHash:    b.BundleHash,
		ArchiveKey:    b.ArchiveKey,
		CreatedAt:     b.CreatedAt,
	}
}

// ToProofBundleResponses converts a slice of bundles without payloads
func ToProofBundleResponses(bundles []proof.ProofBundle) []ProofBundleResponse {
	out := make([]ProofBundleResponse, len(bundles))
	for i := range bundles {
		out[i] = ToProofBundleResponse(&bundles[i], false)
	}
	return out
}

// ==================== Audit DTOs ====================

// AuditEventResponse represents an audit event in API responses
type AuditEventResponse struct {
	ID        string         `json:"id"`
	TradeID   string         `json:"trade_id"`
	EventType string         `json:"event_type"`
	Details   map[string]any `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}

// ToAuditEventResponses converts a slice of audit events
func ToAuditEventResponses(events []audit.Event) []AuditEventResponse {
	out := make([]AuditEventResponse, len(events))
	for i, e := range events {
		out[i] = AuditEventResponse{
			ID:        e.ID,
			TradeID:   e.TradeID,
			EventType: e.EventType,
			Details:   e.Details,
			CreatedAt: e.CreatedAt,
		}
	}
	return out
}
