package persistence

import (
	"context"
	"errors"

	"github.com/tradeflow/backend/internal/domain/finance"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormFinanceOfferRepository implements finance.OfferRepository using GORM
type GormFinanceOfferRepository struct {
	db *gorm.DB
}

// NewGormFinanceOfferRepository creates a new GormFinanceOfferRepository
func NewGormFinanceOfferRepository(db *gorm.DB) *GormFinanceOfferRepository {
	return &GormFinanceOfferRepository{db: db}
}

// CreateBatch inserts the offers of one generation call
func (r *GormFinanceOfferRepository) CreateBatch(ctx context.Context, offers []finance.FinanceOffer) error {
	if len(offers) == 0 {
		return nil
	}
	rows := make([]*models.FinanceOfferModel, len(offers))
	for i := range offers {
		rows[i] = models.FinanceOfferModelFromDomain(&offers[i])
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// FindByID finds an offer by its ID
func (r *GormFinanceOfferRepository) FindByID(ctx context.Context, id string) (*finance.FinanceOffer, error) {
	var model models.FinanceOfferModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByTrade returns every offer of a trade, newest generation first and
// cheapest first within a generation
func (r *GormFinanceOfferRepository) FindByTrade(ctx context.Context, tradeID string) ([]finance.FinanceOffer, error) {
	var rows []models.FinanceOfferModel
	err := r.db.WithContext(ctx).
		Where("trade_id = ?", tradeID).
		Order("created_at DESC").
		Order("total_cost ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return offersToDomain(rows), nil
}

// UpdateStatus persists the status change of an offer
func (r *GormFinanceOfferRepository) UpdateStatus(ctx context.Context, offer *finance.FinanceOffer) error {
	offer.Touch()
	result := r.db.WithContext(ctx).
		Model(&models.FinanceOfferModel{}).
		Where("id = ?", offer.ID).
		Updates(map[string]any{
			"status":      offer.Status,
			"accepted_at": offer.AcceptedAt,
			"updated_at":  offer.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// List returns offers across all trades
func (r *GormFinanceOfferRepository) List(ctx context.Context, filter shared.Filter) ([]finance.FinanceOffer, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FinanceOfferModel{})
	if status := filter.Match("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.FinanceOfferModel
	if err := paginate(query, filter, offerSort).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return offersToDomain(rows), total, nil
}

func offersToDomain(rows []models.FinanceOfferModel) []finance.FinanceOffer {
	offers := make([]finance.FinanceOffer, len(rows))
	for i := range rows {
		offers[i] = *rows[i].ToDomain()
	}
	return offers
}

// Ensure GormFinanceOfferRepository implements OfferRepository
var _ finance.OfferRepository = (*GormFinanceOfferRepository)(nil)
