package payment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tradeflow/backend/internal/domain/shared"
)

// Status is the lifecycle state of a payment
type Status string

const (
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// HopType is the role of a hop in the route
type HopType string

const (
	HopTypeOrigin        HopType = "origin"
	HopTypeCorrespondent HopType = "correspondent"
	HopTypeDestination   HopType = "destination"
)

// HopStatus is the settlement state of one hop
type HopStatus string

const (
	HopStatusPending   HopStatus = "pending"
	HopStatusCompleted HopStatus = "completed"
)

// Hop is one bank the funds pass through
type Hop struct {
	Step        int        `json:"step"`
	Type        HopType    `json:"type"`
	BankName    string     `json:"bank_name"`
	SWIFTCode   string     `json:"swift_code,omitempty"`
	Country     string     `json:"country"`
	Status      HopStatus  `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Account describes a payment party. The raw account is never kept, only
// its fingerprint.
type Account struct {
	Name        string `json:"name"`
	Country     string `json:"country"`
	AccountHash string `json:"account_hash"`
}

// NewAccount derives the account fingerprint from the party descriptor
func NewAccount(name, country string) Account {
	return Account{
		Name:        name,
		Country:     country,
		AccountHash: Fingerprint(name, country),
	}
}

// Fingerprint returns sha256("<name>|<country>") as hex
func Fingerprint(name, country string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(name) + "|" + strings.TrimSpace(country)))
	return hex.EncodeToString(sum[:])
}

// Payment is the execution record of a routed transfer
type Payment struct {
	shared.BaseEntity
	// Version guards hop progress against a concurrent resume
	Version            int
	TradeID            string
	FinanceOfferID     string
	Amount             decimal.Decimal
	Currency           string
	Sender             Account
	Recipient          Account
	Route              []Hop
	CorrespondentCount int
	Fee                decimal.Decimal
	EstimatedDuration  string
	Status             Status
	ConfirmationCode   string
	FailureReason      string
	ExecutedAt         *time.Time
}

// NextPendingHop returns the index of the first pending hop, or -1 when
// every hop has completed. Hops complete strictly in order so this is also
// the resume point of an interrupted execution.
func (p *Payment) NextPendingHop() int {
	for i := range p.Route {
		if p.Route[i].Status != HopStatusCompleted {
			return i
		}
	}
	return -1
}

// CompleteHop marks hop idx completed. It refuses to complete a hop whose
// predecessor is still pending.
func (p *Payment) CompleteHop(idx int) error {
	if p.Status != StatusExecuting {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete hop of payment in %s status", p.Status))
	}
	if idx < 0 || idx >= len(p.Route) {
		return shared.NewDomainError("INVALID_HOP", fmt.Sprintf("Hop %d out of range", idx))
	}
	if next := p.NextPendingHop(); next != idx {
		return shared.NewDomainError("HOP_OUT_OF_ORDER", fmt.Sprintf("Hop %d cannot complete before hop %d", idx, next))
	}
	now := time.Now().UTC()
	p.Route[idx].Status = HopStatusCompleted
	p.Route[idx].CompletedAt = &now
	p.UpdatedAt = now
	return nil
}

// Complete finalises the payment once every hop has settled
func (p *Payment) Complete(confirmationCode string) error {
	if p.Status != StatusExecuting {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete payment in %s status", p.Status))
	}
	if next := p.NextPendingHop(); next != -1 {
		return shared.NewDomainError("HOPS_PENDING", fmt.Sprintf("Hop %d is still pending", next))
	}
	if confirmationCode == "" {
		return shared.NewDomainError("INVALID_CONFIRMATION", "Confirmation code cannot be empty")
	}
	now := time.Now().UTC()
	p.Status = StatusCompleted
	p.ConfirmationCode = confirmationCode
	p.ExecutedAt = &now
	p.UpdatedAt = now
	return nil
}

// Fail marks the payment failed
func (p *Payment) Fail(reason string) error {
	if p.Status != StatusExecuting {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fail payment in %s status", p.Status))
	}
	p.Status = StatusFailed
	p.FailureReason = reason
	p.Touch()
	return nil
}

const (
	confirmationAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	confirmationLength   = 12
)

// NewConfirmationCode draws a 12 character [A-Z0-9] code
func NewConfirmationCode(random shared.RandomSource) string {
	var sb strings.Builder
	sb.Grow(confirmationLength)
	for i := 0; i < confirmationLength; i++ {
		sb.WriteByte(confirmationAlphabet[random.IntN(len(confirmationAlphabet))])
	}
	return sb.String()
}
