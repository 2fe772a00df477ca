package persistence

import (
	"context"
	"errors"

	"github.com/tradeflow/backend/internal/domain/compliance"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormComplianceRunRepository implements compliance.RunRepository using GORM
type GormComplianceRunRepository struct {
	db *gorm.DB
}

// NewGormComplianceRunRepository creates a new GormComplianceRunRepository
func NewGormComplianceRunRepository(db *gorm.DB) *GormComplianceRunRepository {
	return &GormComplianceRunRepository{db: db}
}

// Create inserts a new run
func (r *GormComplianceRunRepository) Create(ctx context.Context, run *compliance.ComplianceRun) error {
	return r.db.WithContext(ctx).Create(models.ComplianceRunModelFromDomain(run)).Error
}

// FindByID finds a run by its ID
func (r *GormComplianceRunRepository) FindByID(ctx context.Context, id string) (*compliance.ComplianceRun, error) {
	var model models.ComplianceRunModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLatestByTrade returns the most recent run of a trade
func (r *GormComplianceRunRepository) FindLatestByTrade(ctx context.Context, tradeID string) (*compliance.ComplianceRun, error) {
	var model models.ComplianceRunModel
	err := r.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("created_at DESC").
		Order("id DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ListByTrade returns the runs of a trade, newest first
func (r *GormComplianceRunRepository) ListByTrade(ctx context.Context, tradeID string) ([]compliance.ComplianceRun, error) {
	var rows []models.ComplianceRunModel
	err := r.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return runsToDomain(rows), nil
}

// List returns runs across all trades
func (r *GormComplianceRunRepository) List(ctx context.Context, filter shared.Filter) ([]compliance.ComplianceRun, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ComplianceRunModel{})
	if status := filter.Match("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ComplianceRunModel
	if err := paginate(query, filter, complianceSort).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return runsToDomain(rows), total, nil
}

func runsToDomain(rows []models.ComplianceRunModel) []compliance.ComplianceRun {
	runs := make([]compliance.ComplianceRun, len(rows))
	for i := range rows {
		runs[i] = *rows[i].ToDomain()
	}
	return runs
}

// Ensure GormComplianceRunRepository implements RunRepository
var _ compliance.RunRepository = (*GormComplianceRunRepository)(nil)
