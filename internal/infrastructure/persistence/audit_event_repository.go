package persistence

import (
	"context"

	"github.com/tradeflow/backend/internal/domain/audit"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAuditEventRepository implements audit.Repository using GORM.
// Rows are only ever inserted.
type GormAuditEventRepository struct {
	db *gorm.DB
}

// NewGormAuditEventRepository creates a new GormAuditEventRepository
func NewGormAuditEventRepository(db *gorm.DB) *GormAuditEventRepository {
	return &GormAuditEventRepository{db: db}
}

// Append stores a batch of events. Replayed events with a known id are skipped.
func (r *GormAuditEventRepository) Append(ctx context.Context, events ...*audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]*models.AuditEventModel, len(events))
	for i, e := range events {
		rows[i] = models.AuditEventModelFromDomain(e)
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&rows).Error
}

// List returns events newest first
func (r *GormAuditEventRepository) List(ctx context.Context, filter shared.Filter) ([]audit.Event, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditEventModel{})
	if tradeID := filter.Match("trade_id"); tradeID != "" {
		query = query.Where("trade_id = ?", tradeID)
	}
	if eventType := filter.Match("event_type"); eventType != "" {
		query = query.Where("event_type = ?", eventType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.AuditEventModel
	if err := paginate(query, filter, auditSort).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	events := make([]audit.Event, len(rows))
	for i := range rows {
		events[i] = *rows[i].ToDomain()
	}
	return events, total, nil
}

// Ensure GormAuditEventRepository implements Repository
var _ audit.Repository = (*GormAuditEventRepository)(nil)
