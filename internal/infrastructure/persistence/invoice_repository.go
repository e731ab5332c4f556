package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/splitfin/syncpipe/internal/domain/pipeline"
	"github.com/splitfin/syncpipe/internal/infrastructure/persistence/models"
)

// GormInvoiceRepository implements the invoice target store using GORM.
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// ExistsByLegacyID reports whether the invoice has already been migrated.
func (r *GormInvoiceRepository) ExistsByLegacyID(ctx context.Context, legacyID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("legacy_invoice_id = ?", legacyID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Insert writes a single invoice row with classified write errors.
func (r *GormInvoiceRepository) Insert(ctx context.Context, row pipeline.TargetCandidate) error {
	model, ok := row.(*models.InvoiceModel)
	if !ok {
		return fmt.Errorf("persistence: invoice insert: unexpected candidate type %T", row)
	}
	return translateWriteError(r.db.WithContext(ctx).Create(model).Error)
}

var _ pipeline.TargetWriter = (*GormInvoiceRepository)(nil)
