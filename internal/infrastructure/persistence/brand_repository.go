package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/splitfin/syncpipe/internal/domain/pipeline"
	"github.com/splitfin/syncpipe/internal/infrastructure/persistence/models"
)

// GormBrandRepository implements the brand target store using GORM.
type GormBrandRepository struct {
	db *gorm.DB
}

// NewGormBrandRepository creates a new GormBrandRepository
func NewGormBrandRepository(db *gorm.DB) *GormBrandRepository {
	return &GormBrandRepository{db: db}
}

// ExistsByLegacyID reports whether the brand has already been migrated.
func (r *GormBrandRepository) ExistsByLegacyID(ctx context.Context, legacyID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BrandModel{}).
		Where("legacy_brand_id = ?", legacyID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert writes a single brand row with classified write errors.
func (r *GormBrandRepository) Insert(ctx context.Context, row pipeline.TargetCandidate) error {
	model, ok := row.(*models.BrandModel)
	if !ok {
		return fmt.Errorf("persistence: brand insert: unexpected candidate type %T", row)
	}
	return translateWriteError(r.db.WithContext(ctx).Create(model).Error)
}

// BuildIndex loads every brand into the reconciliation index, keyed by
// remote id and by normalized name.
func (r *GormBrandRepository) BuildIndex(ctx context.Context, idx *pipeline.Index) error {
	var rows []models.BrandModel
	if err := r.db.WithContext(ctx).
		Select("id", "legacy_brand_id", "normalized_name").
		Find(&rows).Error; err != nil {
		return fmt.Errorf("load brand index: %w", err)
	}
	for _, row := range rows {
		idx.Put(pipeline.SpaceBrandLegacyID, row.LegacyBrandID, row.ID)
		idx.Put(pipeline.SpaceBrandName, row.NormalizedName, row.ID)
	}
	return nil
}

var (
	_ pipeline.TargetWriter = (*GormBrandRepository)(nil)
	_ pipeline.IndexSource  = (*GormBrandRepository)(nil)
)
