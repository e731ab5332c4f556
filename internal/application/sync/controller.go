package syncapp

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/splitfin/syncpipe/internal/domain/pipeline"
)

// Controller runs a set of stages in declared order, honouring their
// dependencies. A halted stage takes its dependents down with it, but stages
// on independent branches still run: a broken invoice feed must not stop the
// item catalog from syncing.
type Controller struct {
	writer     *Writer
	pipelineID string
	logger     *zap.Logger
}

// NewController creates a run controller.
func NewController(writer *Writer, pipelineID string, logger *zap.Logger) *Controller {
	return &Controller{
		writer:     writer,
		pipelineID: pipelineID,
		logger:     logger.Named("controller"),
	}
}

// Run executes the stages and returns the aggregated summary. The
// reconciliation index is rebuilt from the target store before each stage,
// so rows written by earlier stages of this same run are visible to later
// ones. Cancellation is cooperative: every stage stops at its next batch
// boundary and reports itself halted.
func (c *Controller) Run(ctx context.Context, stages []Stage) *pipeline.RunSummary {
	summary := &pipeline.RunSummary{PipelineID: c.pipelineID}
	halted := make(map[string]bool)

	for _, stage := range stages {
		if dep := haltedDependency(stage, halted); dep != "" {
			c.logger.Warn("skipping stage, prerequisite halted",
				zap.String("stage", stage.Name),
				zap.String("prerequisite", dep),
			)
			cs := pipeline.CollectionSummary{Collection: stage.Name}
			cs.Halt(fmt.Sprintf("skipped: prerequisite %s halted", dep))
			summary.Add(cs)
			halted[stage.Name] = true
			continue
		}

		idx, err := c.buildIndex(ctx, stage)
		if err != nil {
			cs := pipeline.CollectionSummary{Collection: stage.Name}
			cs.Halt(fmt.Sprintf("build index: %v", err))
			summary.Add(cs)
			halted[stage.Name] = true
			continue
		}

		c.logger.Info("running stage", zap.String("stage", stage.Name))
		cs := c.writer.Run(ctx, stage, idx)
		summary.Add(cs)
		if cs.Halted {
			halted[stage.Name] = true
		}
	}
	return summary
}

// buildIndex assembles the reconciliation index for one stage from its
// declared sources.
func (c *Controller) buildIndex(ctx context.Context, stage Stage) (*pipeline.Index, error) {
	idx := pipeline.NewIndex()
	for _, src := range stage.IndexSources {
		if err := src.BuildIndex(ctx, idx); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// haltedDependency returns the first halted prerequisite of the stage, or "".
func haltedDependency(stage Stage, halted map[string]bool) string {
	for _, dep := range stage.DependsOn {
		if halted[dep] {
			return dep
		}
	}
	return ""
}
