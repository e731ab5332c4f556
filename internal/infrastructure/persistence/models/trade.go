package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel is a sales order. CustomerID is a hard foreign key: an order
// whose customer did not resolve is never written.
type OrderModel struct {
	BaseModel
	LegacyOrderID string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	Number        string          `gorm:"type:varchar(100);index"`
	CustomerID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderDate     time.Time       `gorm:"not null;index"`
	Total         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status        string          `gorm:"type:varchar(30);not null;default:'confirmed'"`

	Customer *CustomerModel `gorm:"foreignKey:CustomerID"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// SourceKey returns the remote identifier this row was built from.
func (m *OrderModel) SourceKey() string { return m.LegacyOrderID }

// OrderLineItemModel is one line of a sales order, pulled from the order
// detail payload. ItemID is nullable: legacy orders reference items that were
// deleted from the catalog long before the migration.
type OrderLineItemModel struct {
	BaseModel
	LegacyLineItemID string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemID           *uuid.UUID      `gorm:"type:uuid;index"`
	Name             string          `gorm:"type:varchar(300);not null"`
	Quantity         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Rate             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	Order *OrderModel `gorm:"foreignKey:OrderID"`
	Item  *ItemModel  `gorm:"foreignKey:ItemID"`
}

// TableName returns the table name for GORM
func (OrderLineItemModel) TableName() string {
	return "order_line_items"
}

// SourceKey returns the remote identifier this row was built from.
func (m *OrderLineItemModel) SourceKey() string { return m.LegacyLineItemID }

// InvoiceModel is a customer invoice. OrderID is nullable because the remote
// rarely links invoices to orders directly; the date/amount heuristic fills
// it when a confident match exists, and MatchedBy records which strategy
// produced the link for later audit.
type InvoiceModel struct {
	BaseModel
	LegacyInvoiceID string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	Number          string          `gorm:"type:varchar(100);index"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID         *uuid.UUID      `gorm:"type:uuid;index"`
	InvoiceDate     time.Time       `gorm:"not null;index"`
	Total           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Status          string          `gorm:"type:varchar(30);not null;default:'sent'"`
	MatchedBy       string          `gorm:"type:varchar(100)"`

	Customer *CustomerModel `gorm:"foreignKey:CustomerID"`
	Order    *OrderModel    `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// SourceKey returns the remote identifier this row was built from.
func (m *InvoiceModel) SourceKey() string { return m.LegacyInvoiceID }

// ShipmentModel is an outbound package for a sales order.
type ShipmentModel struct {
	BaseModel
	LegacyShipmentID string     `gorm:"type:varchar(64);not null;uniqueIndex"`
	Number           string     `gorm:"type:varchar(100);index"`
	OrderID          uuid.UUID  `gorm:"type:uuid;not null;index"`
	ShipmentDate     *time.Time `gorm:""`
	Carrier          string     `gorm:"type:varchar(100)"`
	TrackingNumber   string     `gorm:"type:varchar(100)"`
	Status           string     `gorm:"type:varchar(30);not null;default:'shipped'"`

	Order *OrderModel `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "shipments"
}

// SourceKey returns the remote identifier this row was built from.
func (m *ShipmentModel) SourceKey() string { return m.LegacyShipmentID }
