package persistence

import (
	"context"
	"errors"

	"github.com/tradeflow/backend/internal/domain/payment"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormPaymentRepository implements payment.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create inserts a new payment with its route
func (r *GormPaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	return r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(p)).Error
}

// Save persists status, hop progress and completion fields under the same
// optimistic version check as trades.
func (r *GormPaymentRepository) Save(ctx context.Context, p *payment.Payment) error {
	expected := p.Version
	p.Version++
	p.Touch()

	model := models.PaymentModelFromDomain(p)
	result := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("id = ? AND version = ?", p.ID, expected).
		Select("route", "status", "confirmation_code", "failure_reason", "executed_at", "updated_at", "version").
		Updates(model)
	if result.Error != nil {
		p.Version = expected
		return result.Error
	}
	if result.RowsAffected == 0 {
		p.Version = expected
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.PaymentModel{}).Where("id = ?", p.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id string) (*payment.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTrade returns the payments of a trade, newest first
func (r *GormPaymentRepository) FindByTrade(ctx context.Context, tradeID string) ([]payment.Payment, error) {
	var rows []models.PaymentModel
	err := r.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return paymentsToDomain(rows), nil
}

// List returns payments across all trades
func (r *GormPaymentRepository) List(ctx context.Context, filter shared.Filter) ([]payment.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{})
	if status := filter.Match("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.PaymentModel
	if err := paginate(query, filter, paymentSort).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return paymentsToDomain(rows), total, nil
}

func paymentsToDomain(rows []models.PaymentModel) []payment.Payment {
	payments := make([]payment.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ payment.PaymentRepository = (*GormPaymentRepository)(nil)
