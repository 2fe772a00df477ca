package persistence

import (
	"context"
	"errors"

	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/domain/trade"
	"github.com/tradeflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTradeRepository implements trade.TradeRepository using GORM
type GormTradeRepository struct {
	db *gorm.DB
}

// NewGormTradeRepository creates a new GormTradeRepository
func NewGormTradeRepository(db *gorm.DB) *GormTradeRepository {
	return &GormTradeRepository{db: db}
}

// Create inserts a new trade
func (r *GormTradeRepository) Create(ctx context.Context, t *trade.Trade) error {
	return r.db.WithContext(ctx).Create(models.TradeModelFromDomain(t)).Error
}

// FindByID finds a trade by its ID
func (r *GormTradeRepository) FindByID(ctx context.Context, id string) (*trade.Trade, error) {
	var model models.TradeModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save updates a trade with optimistic locking (version check).
// On success the in-memory version is advanced to match the stored row.
func (r *GormTradeRepository) Save(ctx context.Context, t *trade.Trade) error {
	expected := t.Version
	t.Version++
	t.Touch()

	model := models.TradeModelFromDomain(t)
	result := r.db.WithContext(ctx).
		Model(&models.TradeModel{}).
		Where("id = ? AND version = ?", t.ID, expected).
		Updates(map[string]any{
			"status":            model.Status,
			"compliance_status": model.ComplianceStatus,
			"compliance_run_id": model.ComplianceRunID,
			"finance_offer_id":  model.FinanceOfferID,
			"payment_id":        model.PaymentID,
			"proof_bundle_id":   model.ProofBundleID,
			"failure_reason":    model.FailureReason,
			"completed_at":      model.CompletedAt,
			"updated_at":        model.UpdatedAt,
			"version":           model.Version,
		})
	if result.Error != nil {
		t.Version = expected
		return result.Error
	}
	if result.RowsAffected == 0 {
		t.Version = expected
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.TradeModel{}).Where("id = ?", t.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// List returns trades matching the filter and the total count before paging
func (r *GormTradeRepository) List(ctx context.Context, filter shared.Filter) ([]trade.Trade, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TradeModel{})
	if status := filter.Match("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.TradeModel
	if err := paginate(query, filter, tradeSort).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return tradesToDomain(rows), total, nil
}

// FindEligible returns trades that may enter the given stage, newest first.
// The status set and compliance gate mirror trade.Stage.IsEligible.
func (r *GormTradeRepository) FindEligible(ctx context.Context, stage trade.Stage, filter shared.Filter) ([]trade.Trade, error) {
	statuses := stage.Statuses()
	if len(statuses) == 0 {
		return []trade.Trade{}, nil
	}
	query := r.db.WithContext(ctx).Model(&models.TradeModel{}).Where("status IN ?", statuses)
	if stage.RequiresPassedCompliance() {
		query = query.Where("compliance_status = ?", trade.ComplianceStatusPassed)
	}

	var rows []models.TradeModel
	if err := paginate(query, filter, tradeSort).Find(&rows).Error; err != nil {
		return nil, err
	}
	return tradesToDomain(rows), nil
}

func tradesToDomain(rows []models.TradeModel) []trade.Trade {
	trades := make([]trade.Trade, len(rows))
	for i := range rows {
		trades[i] = *rows[i].ToDomain()
	}
	return trades
}

// Ensure GormTradeRepository implements TradeRepository
var _ trade.TradeRepository = (*GormTradeRepository)(nil)
