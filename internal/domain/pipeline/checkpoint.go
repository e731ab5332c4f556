package pipeline

import "time"

// Cursor is an opaque resumable position within a paginated remote
// collection: the page being processed and the number of items on that page
// already committed. A resumed run re-fetches the cursor's page and discards
// the first Offset items.
type Cursor struct {
	Page   int `json:"page"`
	Offset int `json:"offset"`
}

// IsZero reports whether the cursor points at the start of the collection.
func (c Cursor) IsZero() bool {
	return c.Page == 0 && c.Offset == 0
}

// Checkpoint is the durable record of how far a (pipeline, collection) pair
// has progressed. Created on first run, advanced after every committed batch,
// cleared on clean end-of-collection.
//
// Invariant: ItemsProcessed never exceeds the count of records durably
// written or explicitly skipped. A crash between "batch written" and
// "checkpoint advanced" is safe to replay because writes are idempotent.
type Checkpoint struct {
	PipelineID     string    `json:"pipeline_id"`
	Collection     string    `json:"collection"`
	Cursor         Cursor    `json:"cursor"`
	ItemsProcessed int       `json:"items_processed"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CheckpointStore is the durable persistence port for checkpoints. Saves must
// be atomic: a torn write must never leave a checkpoint referencing a cursor
// that was never reached.
type CheckpointStore interface {
	// Load returns the checkpoint for the pair, or nil when none exists
	// (the pipeline starts from the beginning). An unreadable checkpoint
	// returns ErrCheckpointCorrupt.
	Load(pipelineID, collection string) (*Checkpoint, error)

	// Save atomically replaces the stored checkpoint. Saving a checkpoint
	// with fewer processed items than the stored one returns
	// ErrCheckpointRegression.
	Save(cp *Checkpoint) error

	// Clear removes the checkpoint. Called only after the extractor signals
	// clean end-of-collection.
	Clear(pipelineID, collection string) error
}
