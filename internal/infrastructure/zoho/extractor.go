package zoho

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/splitfin/syncpipe/internal/domain/pipeline"
)

// Collection describes one paginated remote collection.
type Collection struct {
	// Name is the pipeline-facing collection name, e.g. "invoices".
	Name string
	// Path is the list endpoint, e.g. "/invoices".
	Path string
	// ItemsKey is the JSON key of the list array in the response.
	ItemsKey string
	// IDField is the field holding the remote identifier, e.g. "invoice_id".
	IDField string
	// PerPage is the page size requested from the remote.
	PerPage int
	// DetailPath, when set, is the per-item detail endpoint. The summary
	// list is cheap; the full record is fetched lazily per item so a detail
	// failure affects only that record.
	DetailPath func(id string) string
	// DetailKey is the JSON key of the detail object in the response.
	DetailKey string
}

// Extractor yields a collection's records as a lazy sequence, restartable
// from any previously issued cursor. Resume is page-granular: the resumed run
// re-fetches the cursor's page and discards the items already committed on
// it. The sequence ends with io.EOF when the remote reports no further pages;
// any other error aborts the sequence.
type Extractor struct {
	client *Client
	col    Collection
	logger *zap.Logger

	nextPage    int
	pendingSkip int
	page        int
	offset      int
	buf         []pipeline.SourceRecord
	exhausted   bool

	extracted int
	skipped   []pipeline.BatchOutcome
}

// NewExtractor creates an extractor positioned at resume, or at the start of
// the collection when resume is zero.
func NewExtractor(client *Client, col Collection, resume pipeline.Cursor) *Extractor {
	e := &Extractor{
		client:   client,
		col:      col,
		logger:   client.logger.Named(col.Name),
		nextPage: 1,
	}
	if col.PerPage <= 0 {
		e.col.PerPage = 200
	}
	if !resume.IsZero() {
		e.nextPage = resume.Page
		e.pendingSkip = resume.Offset
	}
	return e
}

// Next returns the next record, or io.EOF at clean end-of-collection. Detail
// fetch errors cost only the record they belong to: a not-found detail is
// recorded as skipped-missing, any other post-retry detail failure as a
// failed outcome, both retrievable via Skipped. Only list-page errors and
// cancellation abort the sequence.
func (e *Extractor) Next(ctx context.Context) (*pipeline.SourceRecord, error) {
	for {
		if e.offset < len(e.buf) {
			rec := e.buf[e.offset]
			e.offset++

			if e.col.DetailPath != nil {
				full, err := e.fetchDetail(ctx, rec.SourceID)
				if errors.Is(err, pipeline.ErrNotFound) {
					e.logger.Info("detail vanished between list and fetch, skipping",
						zap.String("source_id", rec.SourceID))
					e.skipped = append(e.skipped, pipeline.SkippedMissing(rec.SourceID, "detail fetch: record no longer exists upstream"))
					continue
				}
				if err != nil {
					// Cancellation still aborts the sequence; anything
					// else costs only this record.
					if ctx.Err() != nil {
						return nil, err
					}
					e.logger.Warn("detail fetch failed, recording record as failed",
						zap.String("source_id", rec.SourceID),
						zap.Error(err))
					e.skipped = append(e.skipped, pipeline.Failed(rec.SourceID, fmt.Sprintf("detail fetch: %v", err)))
					continue
				}
				rec = *full
			}

			e.extracted++
			return &rec, nil
		}

		if e.exhausted {
			return nil, io.EOF
		}
		if err := e.fetchPage(ctx); err != nil {
			return nil, err
		}
	}
}

// Cursor returns the position immediately after the last record consumed,
// suitable for checkpointing at a batch boundary.
func (e *Extractor) Cursor() pipeline.Cursor {
	if e.page == 0 {
		// Nothing fetched yet; the resume position stands.
		return pipeline.Cursor{Page: e.nextPage, Offset: e.pendingSkip}
	}
	return pipeline.Cursor{Page: e.page, Offset: e.offset}
}

// Extracted returns the count of records yielded so far.
func (e *Extractor) Extracted() int { return e.extracted }

// Skipped returns the records dropped per-item during extraction (vanished
// or unfetchable detail), so the run summary can report them.
func (e *Extractor) Skipped() []pipeline.BatchOutcome { return e.skipped }

// fetchPage pulls the next page into the buffer and applies any pending
// within-page skip from a resumed cursor.
func (e *Extractor) fetchPage(ctx context.Context) error {
	q := url.Values{}
	q.Set("page", strconv.Itoa(e.nextPage))
	q.Set("per_page", strconv.Itoa(e.col.PerPage))

	body, err := e.client.Get(ctx, e.col.Path, q)
	if err != nil {
		return fmt.Errorf("list %s page %d: %w", e.col.Name, e.nextPage, err)
	}

	records, pc, err := parseListPage(body, e.col.ItemsKey, e.col.IDField)
	if err != nil {
		return err
	}

	e.page = e.nextPage
	e.nextPage++
	e.buf = records
	e.offset = min(e.pendingSkip, len(records))
	e.pendingSkip = 0

	if pc != nil {
		e.exhausted = !pc.HasMorePage
	} else {
		e.exhausted = len(records) < e.col.PerPage
	}
	e.logger.Debug("fetched page",
		zap.Int("page", e.page),
		zap.Int("records", len(records)),
		zap.Bool("exhausted", e.exhausted),
	)
	return nil
}

// fetchDetail pulls the full record for one summary item.
func (e *Extractor) fetchDetail(ctx context.Context, id string) (*pipeline.SourceRecord, error) {
	body, err := e.client.Get(ctx, e.col.DetailPath(id), nil)
	if err != nil {
		return nil, err
	}
	return parseDetail(body, e.col.DetailKey, e.col.IDField)
}
