package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/splitfin/syncpipe/internal/domain/pipeline"
	"github.com/splitfin/syncpipe/internal/infrastructure/persistence/models"
)

// GormCustomerRepository implements the customer target store using GORM.
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// ExistsByLegacyID reports whether the customer has already been migrated.
func (r *GormCustomerRepository) ExistsByLegacyID(ctx context.Context, legacyID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("legacy_customer_id = ?", legacyID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert writes a single customer row with classified write errors.
func (r *GormCustomerRepository) Insert(ctx context.Context, row pipeline.TargetCandidate) error {
	model, ok := row.(*models.CustomerModel)
	if !ok {
		return fmt.Errorf("persistence: customer insert: unexpected candidate type %T", row)
	}
	return translateWriteError(r.db.WithContext(ctx).Create(model).Error)
}

// BuildIndex loads every customer into the reconciliation index, keyed by
// remote id, normalized name and email.
func (r *GormCustomerRepository) BuildIndex(ctx context.Context, idx *pipeline.Index) error {
	var rows []models.CustomerModel
	if err := r.db.WithContext(ctx).
		Select("id", "legacy_customer_id", "normalized_name", "email").
		Find(&rows).Error; err != nil {
		return fmt.Errorf("load customer index: %w", err)
	}
	for _, row := range rows {
		idx.Put(pipeline.SpaceCustomerLegacyID, row.LegacyCustomerID, row.ID)
		idx.Put(pipeline.SpaceCustomerName, row.NormalizedName, row.ID)
		if row.Email != nil {
			idx.Put(pipeline.SpaceCustomerEmail, pipeline.NormalizeEmail(*row.Email), row.ID)
		}
	}
	return nil
}

var (
	_ pipeline.TargetWriter = (*GormCustomerRepository)(nil)
	_ pipeline.IndexSource  = (*GormCustomerRepository)(nil)
)
