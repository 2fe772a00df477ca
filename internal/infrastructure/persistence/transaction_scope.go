package persistence

import (
	"context"

	"github.com/tradeflow/backend/internal/application/workflow"
	"gorm.io/gorm"
)

// GormTransactionScope implements workflow.UnitOfWork using GORM transactions.
// Every repository handed to fn shares the same transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Do runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Do(ctx context.Context, fn func(ctx context.Context, repos workflow.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewRepositories(tx))
	})
}

// NewRepositories builds the stage repositories on top of db, which may be
// a transaction handle.
func NewRepositories(db *gorm.DB) workflow.Repositories {
	return workflow.Repositories{
		Trades:     NewGormTradeRepository(db),
		Compliance: NewGormComplianceRunRepository(db),
		Offers:     NewGormFinanceOfferRepository(db),
		Payments:   NewGormPaymentRepository(db),
		Bundles:    NewGormProofBundleRepository(db),
	}
}

// Ensure GormTransactionScope implements UnitOfWork
var _ workflow.UnitOfWork = (*GormTransactionScope)(nil)
