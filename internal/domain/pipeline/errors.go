package pipeline

import "errors"

// Error taxonomy shared by every pipeline stage. Propagation policy:
// record-level errors never cross a batch boundary, batch-level errors never
// cross a collection boundary; only checkpoint I/O failures and total
// credential-refresh failure abort a run.
var (
	// ErrTransient marks a network or timeout failure that was retried up to
	// the configured bound and still failed.
	ErrTransient = errors.New("pipeline: transient failure")

	// ErrRateLimited marks a remote throttling response (HTTP 429) that
	// persisted beyond the bounded retry attempts.
	ErrRateLimited = errors.New("pipeline: rate limit exceeded")

	// ErrNotFound marks a missing remote resource. Expected for detail
	// fetches on items that disappeared between the list and detail calls;
	// callers skip the record instead of failing the run.
	ErrNotFound = errors.New("pipeline: not found")

	// ErrUnresolved marks a record whose strategy chain exhausted without a
	// match. The caller decides policy: skip, or persist with a null foreign
	// key and flag for review.
	ErrUnresolved = errors.New("pipeline: reconciliation unresolved")

	// ErrConstraintViolation marks a per-record constraint failure at the
	// writer (foreign key, check constraint). Never aborts the batch.
	ErrConstraintViolation = errors.New("pipeline: constraint violation")

	// ErrDuplicateKey marks an insert that lost the race with an already
	// migrated row. The writer records it as skipped, not failed.
	ErrDuplicateKey = errors.New("pipeline: duplicate key")

	// ErrCheckpointCorrupt marks an unreadable or torn checkpoint. Fatal for
	// that collection only; independent collections proceed.
	ErrCheckpointCorrupt = errors.New("pipeline: checkpoint corrupt")

	// ErrCheckpointRegression is returned when a save would move a
	// checkpoint backwards. Checkpoint advancement is strictly monotonic.
	ErrCheckpointRegression = errors.New("pipeline: checkpoint regression")
)
