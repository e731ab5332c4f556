// Package syncapp orchestrates sync runs: it drives each collection stage
// through extract, reconcile and write, checkpointing after every committed
// batch so a killed run resumes where it left off.
package syncapp

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/splitfin/syncpipe/internal/domain/pipeline"
)

// Extractor is the record source for one stage. Implemented by the remote
// API extractor; tests substitute in-memory fakes.
type Extractor interface {
	// Next returns the next record, or io.EOF at clean end-of-collection.
	Next(ctx context.Context) (*pipeline.SourceRecord, error)
	// Cursor returns the position after the last consumed record.
	Cursor() pipeline.Cursor
	// Skipped returns records the extractor dropped per item (vanished or
	// unfetchable detail); they are folded into the stage summary.
	Skipped() []pipeline.BatchOutcome
}

// Mapper builds write candidates from one source record, resolving foreign
// keys against the index. A record may fan out into several candidates (an
// order detail yields one row per line). A returned error fails the record,
// never the batch.
type Mapper func(rec *pipeline.SourceRecord, idx *pipeline.Index) ([]pipeline.TargetCandidate, error)

// Stage binds one remote collection to its mapper and target store.
type Stage struct {
	// Name is the collection name, also used as the checkpoint key.
	Name string
	// DependsOn lists stages whose rows this stage's mapper resolves
	// against. A halted prerequisite skips this stage.
	DependsOn []string
	// Open creates an extractor positioned at resume.
	Open func(resume pipeline.Cursor) Extractor
	// Map builds candidates from a record.
	Map Mapper
	// Store is the write side of the target collection.
	Store pipeline.TargetWriter
	// IndexSources feed the reconciliation index before the stage runs.
	IndexSources []pipeline.IndexSource
}

// Writer runs one stage as a sequence of bounded batches. After each batch it
// advances the checkpoint, whatever the per-record outcomes were; a record
// that failed is accounted for, not retried. Cooperative stop is checked at
// batch boundaries only, so a cancelled run never leaves a half-committed
// batch ahead of its checkpoint.
type Writer struct {
	checkpoints pipeline.CheckpointStore
	pipelineID  string
	batchSize   int
	logger      *zap.Logger
}

// defaultBatchSize bounds records written between checkpoints when the
// configuration does not say otherwise.
const defaultBatchSize = 100

// NewWriter creates a batch writer for the given pipeline identity.
func NewWriter(checkpoints pipeline.CheckpointStore, pipelineID string, batchSize int, logger *zap.Logger) *Writer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Writer{
		checkpoints: checkpoints,
		pipelineID:  pipelineID,
		batchSize:   batchSize,
		logger:      logger.Named("writer"),
	}
}

// Run executes one stage to completion or halt and returns its summary. The
// index must already contain the rows of every prerequisite collection.
func (w *Writer) Run(ctx context.Context, stage Stage, idx *pipeline.Index) pipeline.CollectionSummary {
	summary := pipeline.CollectionSummary{Collection: stage.Name}
	log := w.logger.Named(stage.Name)

	cp, err := w.checkpoints.Load(w.pipelineID, stage.Name)
	if err != nil {
		// Corrupt checkpoints halt this collection; independent
		// collections still run.
		summary.Halt(fmt.Sprintf("load checkpoint: %v", err))
		return summary
	}

	var resume pipeline.Cursor
	processed := 0
	if cp != nil {
		resume = cp.Cursor
		processed = cp.ItemsProcessed
		log.Info("resuming from checkpoint",
			zap.Int("page", resume.Page),
			zap.Int("offset", resume.Offset),
			zap.Int("items_processed", processed),
		)
	}

	ext := stage.Open(resume)
	foldSkips := func() {
		for _, o := range ext.Skipped() {
			summary.Extracted++
			summary.Record(o)
		}
	}

	done := false
	for !done {
		if err := ctx.Err(); err != nil {
			summary.Halt("stopped: " + err.Error())
			foldSkips()
			return summary
		}

		batch := make([]*pipeline.SourceRecord, 0, w.batchSize)
		for len(batch) < w.batchSize {
			rec, err := ext.Next(ctx)
			if errors.Is(err, io.EOF) {
				done = true
				break
			}
			if err != nil {
				// The uncommitted remainder of this batch is replayed
				// on the next run; writes are idempotent.
				summary.Halt(fmt.Sprintf("extract: %v", err))
				foldSkips()
				return summary
			}
			batch = append(batch, rec)
		}
		if len(batch) == 0 {
			break
		}

		summary.Extracted += len(batch)
		for _, rec := range batch {
			w.process(ctx, stage, idx, rec, &summary)
		}

		processed += len(batch)
		save := &pipeline.Checkpoint{
			PipelineID:     w.pipelineID,
			Collection:     stage.Name,
			Cursor:         ext.Cursor(),
			ItemsProcessed: processed,
		}
		if err := w.checkpoints.Save(save); err != nil {
			summary.Halt(fmt.Sprintf("save checkpoint: %v", err))
			foldSkips()
			return summary
		}
		log.Debug("batch committed",
			zap.Int("batch", len(batch)),
			zap.Int("items_processed", processed),
		)
	}

	foldSkips()

	// Clean end-of-collection: the checkpoint has served its purpose.
	if err := w.checkpoints.Clear(w.pipelineID, stage.Name); err != nil {
		log.Warn("clear checkpoint", zap.Error(err))
	}
	log.Info("collection complete",
		zap.Int("extracted", summary.Extracted),
		zap.Int("written", summary.Written),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary
}

// process maps and writes one record, folding each candidate's outcome into
// the summary.
func (w *Writer) process(ctx context.Context, stage Stage, idx *pipeline.Index, rec *pipeline.SourceRecord, summary *pipeline.CollectionSummary) {
	candidates, err := stage.Map(rec, idx)
	if err != nil {
		summary.Record(pipeline.Failed(rec.SourceID, err.Error()))
		return
	}
	summary.Reconciled++

	for _, cand := range candidates {
		exists, err := stage.Store.ExistsByLegacyID(ctx, cand.SourceKey())
		if err != nil {
			summary.Record(pipeline.Failed(cand.SourceKey(), "existence check: "+err.Error()))
			continue
		}
		if exists {
			summary.Record(pipeline.SkippedDuplicate(cand.SourceKey()))
			continue
		}
		if err := stage.Store.Insert(ctx, cand); err != nil {
			if errors.Is(err, pipeline.ErrDuplicateKey) {
				summary.Record(pipeline.SkippedDuplicate(cand.SourceKey()))
			} else {
				summary.Record(pipeline.Failed(cand.SourceKey(), err.Error()))
			}
			continue
		}
		summary.Record(pipeline.Success(cand.SourceKey()))
	}
}
