package pipeline

import "context"

// Key spaces used by the reconciliation index. A key space pairs a target
// collection with the business key it is addressed by.
const (
	SpaceBrandLegacyID    = "brands.legacy_id"
	SpaceBrandName        = "brands.name"
	SpaceCustomerLegacyID = "customers.legacy_id"
	SpaceCustomerName     = "customers.name"
	SpaceCustomerEmail    = "customers.email"
	SpaceItemLegacyID     = "items.legacy_id"
	SpaceOrderLegacyID    = "orders.legacy_id"
)

// TargetWriter is the write side of one target collection. Insert failures
// are classified: ErrDuplicateKey for an already-migrated row,
// ErrConstraintViolation for referential failures. Both stay record-local.
type TargetWriter interface {
	// ExistsByLegacyID reports whether a row with the given remote
	// identifier has already been migrated.
	ExistsByLegacyID(ctx context.Context, legacyID string) (bool, error)
	// Insert writes a single candidate row.
	Insert(ctx context.Context, row TargetCandidate) error
}

// IndexSource feeds a collection's rows into the reconciliation index before
// a dependent stage runs.
type IndexSource interface {
	BuildIndex(ctx context.Context, idx *Index) error
}
