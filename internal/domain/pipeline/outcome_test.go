package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCollectionSummary_Record(t *testing.T) {
	var s CollectionSummary

	s.Record(Success("a"))
	s.Record(Success("b"))
	s.Record(SkippedDuplicate("c"))
	s.Record(SkippedMissing("d", "detail fetch: record no longer exists upstream"))
	s.Record(Failed("e", "customer unresolved"))

	assert.Equal(t, 2, s.Written)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 1, s.Missing)
	assert.Equal(t, 1, s.Failed)
	assert.Len(t, s.Failures, 1)
	assert.Equal(t, "e", s.Failures[0].SourceID)
	assert.Len(t, s.Skips, 1)
	assert.Equal(t, "d", s.Skips[0].SourceID)
}

func TestCollectionSummary_FailureDetailIsBounded(t *testing.T) {
	var s CollectionSummary
	for i := 0; i < maxReportedFailures+10; i++ {
		s.Record(Failed(fmt.Sprintf("src-%d", i), "boom"))
	}

	assert.Equal(t, maxReportedFailures+10, s.Failed, "counts stay exact")
	assert.Len(t, s.Failures, maxReportedFailures, "detail is truncated")
}

func TestRunSummary_OK(t *testing.T) {
	t.Run("clean run", func(t *testing.T) {
		r := RunSummary{PipelineID: "default"}
		r.Add(CollectionSummary{Collection: "brands", Written: 3})
		assert.True(t, r.OK())
	})

	t.Run("missing records do not fail the run", func(t *testing.T) {
		r := RunSummary{PipelineID: "default"}
		cs := CollectionSummary{Collection: "line_items", Written: 5}
		cs.Record(SkippedMissing("so-7", "detail fetch: record no longer exists upstream"))
		r.Add(cs)
		assert.True(t, r.OK(), "a record that vanished upstream is expected")
	})

	t.Run("failed records fail the run", func(t *testing.T) {
		r := RunSummary{PipelineID: "default"}
		r.Add(CollectionSummary{Collection: "orders", Written: 3, Failed: 1})
		assert.False(t, r.OK())
	})

	t.Run("halted collection fails the run", func(t *testing.T) {
		r := RunSummary{PipelineID: "default"}
		cs := CollectionSummary{Collection: "orders"}
		cs.Halt("extract: boom")
		r.Add(cs)
		assert.False(t, r.OK())
	})
}

func TestRunSummary_String(t *testing.T) {
	r := RunSummary{PipelineID: "nightly"}
	r.Add(CollectionSummary{Collection: "brands", Extracted: 3, Reconciled: 3, Written: 3})
	cs := CollectionSummary{Collection: "orders", Extracted: 2}
	cs.Record(Failed("so-9", "customer unresolved"))
	cs.Record(SkippedMissing("so-10", "detail fetch: record no longer exists upstream"))
	cs.Halt("extract: rate limited")
	r.Add(cs)

	out := r.String()
	assert.Contains(t, out, "pipeline nightly")
	assert.Contains(t, out, "brands")
	assert.Contains(t, out, "HALTED: extract: rate limited")
	assert.Contains(t, out, "failed so-9: customer unresolved")
	assert.Contains(t, out, "missing so-10: detail fetch")
}
