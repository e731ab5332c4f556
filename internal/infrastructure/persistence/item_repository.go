package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/splitfin/syncpipe/internal/domain/pipeline"
	"github.com/splitfin/syncpipe/internal/infrastructure/persistence/models"
)

// GormItemRepository implements the item target store using GORM.
type GormItemRepository struct {
	db *gorm.DB
}

// NewGormItemRepository creates a new GormItemRepository
func NewGormItemRepository(db *gorm.DB) *GormItemRepository {
	return &GormItemRepository{db: db}
}

// ExistsByLegacyID reports whether the item has already been migrated.
func (r *GormItemRepository) ExistsByLegacyID(ctx context.Context, legacyID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.ItemModel{}).
		Where("legacy_item_id = ?", legacyID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert writes a single item row with classified write errors.
func (r *GormItemRepository) Insert(ctx context.Context, row pipeline.TargetCandidate) error {
	model, ok := row.(*models.ItemModel)
	if !ok {
		return fmt.Errorf("persistence: item insert: unexpected candidate type %T", row)
	}
	return translateWriteError(r.db.WithContext(ctx).Create(model).Error)
}

// BuildIndex loads every item into the reconciliation index keyed by remote
// id. Line-item mapping resolves items by that id only; item names are far
// too ambiguous for fuzzy matching.
func (r *GormItemRepository) BuildIndex(ctx context.Context, idx *pipeline.Index) error {
	var rows []models.ItemModel
	if err := r.db.WithContext(ctx).
		Select("id", "legacy_item_id").
		Find(&rows).Error; err != nil {
		return fmt.Errorf("load item index: %w", err)
	}
	for _, row := range rows {
		idx.Put(pipeline.SpaceItemLegacyID, row.LegacyItemID, row.ID)
	}
	return nil
}

var (
	_ pipeline.TargetWriter = (*GormItemRepository)(nil)
	_ pipeline.IndexSource  = (*GormItemRepository)(nil)
)
