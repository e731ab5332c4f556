package models

// CustomerModel is a customer migrated from the remote contact list. Email is
// a nullable business key: the mapper stores nil for blank addresses so the
// unique index only binds rows that actually carry one.
type CustomerModel struct {
	BaseModel
	LegacyCustomerID string  `gorm:"type:varchar(64);not null;uniqueIndex"`
	Name             string  `gorm:"type:varchar(200);not null"`
	NormalizedName   string  `gorm:"type:varchar(200);not null;index"`
	Email            *string `gorm:"type:varchar(200);uniqueIndex"`
	Phone            string  `gorm:"type:varchar(50)"`
	BillingAddress   string  `gorm:"type:text"`
	ShippingAddress  string  `gorm:"type:text"`
	Status           string  `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// SourceKey returns the remote identifier this row was built from.
func (m *CustomerModel) SourceKey() string { return m.LegacyCustomerID }
