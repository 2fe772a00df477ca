package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/tradeflow/backend/internal/domain/proof"
	"github.com/tradeflow/backend/internal/domain/shared"
	"github.com/tradeflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProofBundleRepository implements proof.BundleRepository using GORM
type GormProofBundleRepository struct {
	db *gorm.DB
}

// NewGormProofBundleRepository creates a new GormProofBundleRepository
func NewGormProofBundleRepository(db *gorm.DB) *GormProofBundleRepository {
	return &GormProofBundleRepository{db: db}
}

// Create inserts a sealed bundle
func (r *GormProofBundleRepository) Create(ctx context.Context, b *proof.ProofBundle) error {
	return r.db.WithContext(ctx).Create(models.ProofBundleModelFromDomain(b)).Error
}

// FindByID finds a bundle by its ID
func (r *GormProofBundleRepository) FindByID(ctx context.Context, id string) (*proof.ProofBundle, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByMerkleRoot finds a bundle by its stored root
func (r *GormProofBundleRepository) FindByMerkleRoot(ctx context.Context, root string) (*proof.ProofBundle, error) {
	return r.findOne(ctx, "merkle_root = ?", root)
}

// FindByTrade returns the bundle of a trade
func (r *GormProofBundleRepository) FindByTrade(ctx context.Context, tradeID string) (*proof.ProofBundle, error) {
	return r.findOne(ctx, "trade_id = ?", tradeID)
}

func (r *GormProofBundleRepository) findOne(ctx context.Context, cond string, arg any) (*proof.ProofBundle, error) {
	var model models.ProofBundleModel
	if err := r.db.WithContext(ctx).First(&model, cond, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SetArchiveKey records where the bundle document was archived
func (r *GormProofBundleRepository) SetArchiveKey(ctx context.Context, id, key string) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProofBundleModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"archive_key": key,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// List returns bundles matching the filter
func (r *GormProofBundleRepository) List(ctx context.Context, filter shared.Filter) ([]proof.ProofBundle, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ProofBundleModel{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProofBundleModel
	if err := paginate(query, filter, bundleSort).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	bundles := make([]proof.ProofBundle, len(rows))
	for i := range rows {
		bundles[i] = *rows[i].ToDomain()
	}
	return bundles, total, nil
}

// Ensure GormProofBundleRepository implements BundleRepository
var _ proof.BundleRepository = (*GormProofBundleRepository)(nil)
