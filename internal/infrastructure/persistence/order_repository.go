package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/splitfin/syncpipe/internal/domain/pipeline"
	"github.com/splitfin/syncpipe/internal/infrastructure/persistence/models"
)

// GormOrderRepository implements the order target store using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// ExistsByLegacyID reports whether the order has already been migrated.
func (r *GormOrderRepository) ExistsByLegacyID(ctx context.Context, legacyID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("legacy_order_id = ?", legacyID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert writes a single order row with classified write errors.
func (r *GormOrderRepository) Insert(ctx context.Context, row pipeline.TargetCandidate) error {
	model, ok := row.(*models.OrderModel)
	if !ok {
		return fmt.Errorf("persistence: order insert: unexpected candidate type %T", row)
	}
	return translateWriteError(r.db.WithContext(ctx).Create(model).Error)
}

// BuildIndex loads every order into the reconciliation index, keyed by
// remote id and registered for per-customer date/amount matching.
func (r *GormOrderRepository) BuildIndex(ctx context.Context, idx *pipeline.Index) error {
	var rows []models.OrderModel
	if err := r.db.WithContext(ctx).
		Select("id", "legacy_order_id", "customer_id", "order_date", "total").
		Find(&rows).Error; err != nil {
		return fmt.Errorf("load order index: %w", err)
	}
	for _, row := range rows {
		idx.Put(pipeline.SpaceOrderLegacyID, row.LegacyOrderID, row.ID)
		idx.PutOrderRef(pipeline.OrderRef{
			ID:         row.ID,
			CustomerID: row.CustomerID,
			Date:       row.OrderDate,
			Total:      row.Total,
		})
	}
	return nil
}

var (
	_ pipeline.TargetWriter = (*GormOrderRepository)(nil)
	_ pipeline.IndexSource  = (*GormOrderRepository)(nil)
)
