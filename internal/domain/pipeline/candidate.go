package pipeline

// TargetCandidate is a target-store row constructed from a source record with
// its foreign keys resolved, ready for the idempotent batch writer.
// Implementations live in the persistence layer; the pipeline only needs the
// originating source id for outcome reporting.
type TargetCandidate interface {
	// SourceKey returns the remote identifier the candidate was built from,
	// used in batch outcomes and failure reports.
	SourceKey() string
}
