package pipeline

import (
	"fmt"
	"strings"
)

// OutcomeStatus is the terminal status of one record within a batch.
type OutcomeStatus string

const (
	OutcomeSuccess          OutcomeStatus = "success"
	OutcomeSkippedDuplicate OutcomeStatus = "skipped_duplicate"
	// OutcomeSkippedMissing marks a record that vanished upstream between
	// the list and detail calls. Expected with a live remote; reported for
	// inspection but never fails the run.
	OutcomeSkippedMissing OutcomeStatus = "skipped_missing"
	OutcomeFailed         OutcomeStatus = "failed"
)

// BatchOutcome is the per-record result of a batch write. Outcomes are never
// discarded: they aggregate into the run summary, and failures carry enough
// context (source id plus reason) for an operator to retry manually.
type BatchOutcome struct {
	SourceID string        `json:"source_id"`
	Status   OutcomeStatus `json:"status"`
	Reason   string        `json:"reason,omitempty"`
}

// Success constructs a success outcome.
func Success(sourceID string) BatchOutcome {
	return BatchOutcome{SourceID: sourceID, Status: OutcomeSuccess}
}

// SkippedDuplicate constructs a skipped-duplicate outcome.
func SkippedDuplicate(sourceID string) BatchOutcome {
	return BatchOutcome{SourceID: sourceID, Status: OutcomeSkippedDuplicate, Reason: "already migrated"}
}

// SkippedMissing constructs a skipped-missing outcome for a record that no
// longer exists upstream.
func SkippedMissing(sourceID, reason string) BatchOutcome {
	return BatchOutcome{SourceID: sourceID, Status: OutcomeSkippedMissing, Reason: reason}
}

// Failed constructs a failed outcome with the given reason.
func Failed(sourceID, reason string) BatchOutcome {
	return BatchOutcome{SourceID: sourceID, Status: OutcomeFailed, Reason: reason}
}

// CollectionSummary aggregates outcomes for one collection stage.
type CollectionSummary struct {
	Collection string         `json:"collection"`
	Extracted  int            `json:"extracted"`
	Reconciled int            `json:"reconciled"`
	Written    int            `json:"written"`
	Skipped    int            `json:"skipped_duplicate"`
	Missing    int            `json:"skipped_missing,omitempty"`
	Failed     int            `json:"failed"`
	Halted     bool           `json:"halted,omitempty"`
	HaltReason string         `json:"halt_reason,omitempty"`
	Failures   []BatchOutcome `json:"failures,omitempty"`
	Skips      []BatchOutcome `json:"skips,omitempty"`
}

// maxReportedFailures bounds the failure detail kept per collection. The
// counts are always exact; only the per-record detail is truncated.
const maxReportedFailures = 25

// Record folds a batch outcome into the summary.
func (s *CollectionSummary) Record(o BatchOutcome) {
	switch o.Status {
	case OutcomeSuccess:
		s.Written++
	case OutcomeSkippedDuplicate:
		s.Skipped++
	case OutcomeSkippedMissing:
		s.Missing++
		if len(s.Skips) < maxReportedFailures {
			s.Skips = append(s.Skips, o)
		}
	case OutcomeFailed:
		s.Failed++
		if len(s.Failures) < maxReportedFailures {
			s.Failures = append(s.Failures, o)
		}
	}
}

// Halt marks the collection stage as halted by an unrecoverable error.
func (s *CollectionSummary) Halt(reason string) {
	s.Halted = true
	s.HaltReason = reason
}

// RunSummary is the operator-facing result of a full pipeline run. It is the
// sole human-facing contract of the pipeline.
type RunSummary struct {
	PipelineID  string              `json:"pipeline_id"`
	Collections []CollectionSummary `json:"collections"`
}

// Add appends a collection summary.
func (r *RunSummary) Add(cs CollectionSummary) {
	r.Collections = append(r.Collections, cs)
}

// OK reports whether the run completed with no failed records and no halted
// collections. Skipped-missing records do not fail the run: a record that
// disappeared upstream mid-run is an expected condition, not a defect.
func (r *RunSummary) OK() bool {
	for _, cs := range r.Collections {
		if cs.Halted || cs.Failed > 0 {
			return false
		}
	}
	return true
}

// String renders the summary as an operator-readable table.
func (r *RunSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pipeline %s\n", r.PipelineID)
	fmt.Fprintf(&b, "%-16s %9s %10s %8s %8s %8s %7s\n", "collection", "extracted", "reconciled", "written", "skipped", "missing", "failed")
	for _, cs := range r.Collections {
		fmt.Fprintf(&b, "%-16s %9d %10d %8d %8d %8d %7d", cs.Collection, cs.Extracted, cs.Reconciled, cs.Written, cs.Skipped, cs.Missing, cs.Failed)
		if cs.Halted {
			fmt.Fprintf(&b, "  HALTED: %s", cs.HaltReason)
		}
		b.WriteByte('\n')
		for _, f := range cs.Failures {
			fmt.Fprintf(&b, "  failed %s: %s\n", f.SourceID, f.Reason)
		}
		for _, sk := range cs.Skips {
			fmt.Fprintf(&b, "  missing %s: %s\n", sk.SourceID, sk.Reason)
		}
	}
	return b.String()
}
