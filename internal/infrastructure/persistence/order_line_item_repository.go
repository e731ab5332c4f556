package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/splitfin/syncpipe/internal/domain/pipeline"
	"github.com/splitfin/syncpipe/internal/infrastructure/persistence/models"
)

// GormOrderLineItemRepository implements the line-item target store using GORM.
type GormOrderLineItemRepository struct {
	db *gorm.DB
}

// NewGormOrderLineItemRepository creates a new GormOrderLineItemRepository
func NewGormOrderLineItemRepository(db *gorm.DB) *GormOrderLineItemRepository {
	return &GormOrderLineItemRepository{db: db}
}

// ExistsByLegacyID reports whether the line item has already been migrated.
func (r *GormOrderLineItemRepository) ExistsByLegacyID(ctx context.Context, legacyID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderLineItemModel{}).
		Where("legacy_line_item_id = ?", legacyID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert writes a single line-item row with classified write errors.
func (r *GormOrderLineItemRepository) Insert(ctx context.Context, row pipeline.TargetCandidate) error {
	model, ok := row.(*models.OrderLineItemModel)
	if !ok {
		return fmt.Errorf("persistence: line item insert: unexpected candidate type %T", row)
	}
	return translateWriteError(r.db.WithContext(ctx).Create(model).Error)
}

var _ pipeline.TargetWriter = (*GormOrderLineItemRepository)(nil)
