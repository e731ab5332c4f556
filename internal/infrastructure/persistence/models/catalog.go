package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BrandModel is a manufacturer brand migrated from the remote catalog.
// NormalizedName is the diacritic-folded comparison key; it is unique so the
// legacy spelling variants of one brand collapse into a single row.
type BrandModel struct {
	BaseModel
	LegacyBrandID  string `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name           string `gorm:"type:varchar(200);not null"`
	NormalizedName string `gorm:"type:varchar(200);not null;uniqueIndex"`
}

// TableName returns the table name for GORM
func (BrandModel) TableName() string {
	return "brands"
}

// SourceKey returns the remote identifier this row was built from.
func (m *BrandModel) SourceKey() string { return m.LegacyBrandID }

// ItemModel is a sellable inventory item. BrandID is nullable: the remote
// carries items with free-text manufacturer fields that resolve to no brand.
type ItemModel struct {
	BaseModel
	LegacyItemID string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	BrandID      *uuid.UUID      `gorm:"type:uuid;index"`
	Name         string          `gorm:"type:varchar(300);not null"`
	SKU          string          `gorm:"type:varchar(100);index"`
	Rate         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status       string          `gorm:"type:varchar(20);not null;default:'active'"`

	Brand *BrandModel `gorm:"foreignKey:BrandID"`
}

// TableName returns the table name for GORM
func (ItemModel) TableName() string {
	return "items"
}

// SourceKey returns the remote identifier this row was built from.
func (m *ItemModel) SourceKey() string { return m.LegacyItemID }
