package zoho

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitfin/syncpipe/internal/domain/pipeline"
)

// newListServer serves /items as a paginated collection of total items with
// the given page size, reporting continuation via page_context.
func newListServer(t *testing.T, total, perPage int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		require.GreaterOrEqual(t, page, 1)
		require.Equal(t, strconv.Itoa(perPage), r.URL.Query().Get("per_page"))

		start := (page - 1) * perPage
		var items []string
		for i := start; i < start+perPage && i < total; i++ {
			items = append(items, fmt.Sprintf(`{"item_id":"it-%d","name":"item %d"}`, i+1, i+1))
		}
		hasMore := start+perPage < total
		fmt.Fprintf(w, `{"code":0,"items":[%s],"page_context":{"page":%d,"per_page":%d,"has_more_page":%t}}`,
			strings.Join(items, ","), page, perPage, hasMore)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func itemsCollection(perPage int) Collection {
	return Collection{
		Name:     "items",
		Path:     "/items",
		ItemsKey: "items",
		IDField:  "item_id",
		PerPage:  perPage,
	}
}

func drain(t *testing.T, ext *Extractor) []string {
	t.Helper()
	var ids []string
	for {
		rec, err := ext.Next(context.Background())
		if err == io.EOF {
			return ids
		}
		require.NoError(t, err)
		ids = append(ids, rec.SourceID)
	}
}

func TestExtractor_YieldsAllPagesInOrder(t *testing.T) {
	var grants atomic.Int64
	auth := newAuthServer(t, &grants)
	api := newListServer(t, 6, 2)

	client := newTestClient(t, api.URL, auth.URL)
	ext := NewExtractor(client, itemsCollection(2), pipeline.Cursor{})

	ids := drain(t, ext)
	assert.Equal(t, []string{"it-1", "it-2", "it-3", "it-4", "it-5", "it-6"}, ids)
	assert.Equal(t, 6, ext.Extracted())
	assert.Empty(t, ext.Skipped())

	// EOF is sticky.
	_, err := ext.Next(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestExtractor_CursorResumesAfterLastConsumed(t *testing.T) {
	var grants atomic.Int64
	auth := newAuthServer(t, &grants)
	api := newListServer(t, 6, 2)

	client := newTestClient(t, api.URL, auth.URL)
	ext := NewExtractor(client, itemsCollection(2), pipeline.Cursor{})

	// Consume four of six, as if the run died after committing two batches.
	for i := 0; i < 4; i++ {
		_, err := ext.Next(context.Background())
		require.NoError(t, err)
	}
	cur := ext.Cursor()
	assert.Equal(t, pipeline.Cursor{Page: 2, Offset: 2}, cur)

	// A fresh extractor resumed from that cursor sees only the remainder.
	resumed := NewExtractor(newTestClient(t, api.URL, auth.URL), itemsCollection(2), cur)
	assert.Equal(t, []string{"it-5", "it-6"}, drain(t, resumed))
}

func TestExtractor_ResumeMidPageSkipsCommittedItems(t *testing.T) {
	var grants atomic.Int64
	auth := newAuthServer(t, &grants)
	api := newListServer(t, 6, 2)

	client := newTestClient(t, api.URL, auth.URL)
	ext := NewExtractor(client, itemsCollection(2), pipeline.Cursor{Page: 2, Offset: 1})

	assert.Equal(t, []string{"it-4", "it-5", "it-6"}, drain(t, ext))
}

func TestExtractor_CursorBeforeFirstFetchIsResumePosition(t *testing.T) {
	var grants atomic.Int64
	auth := newAuthServer(t, &grants)
	api := newListServer(t, 6, 2)

	client := newTestClient(t, api.URL, auth.URL)
	resume := pipeline.Cursor{Page: 3, Offset: 1}
	ext := NewExtractor(client, itemsCollection(2), resume)

	assert.Equal(t, resume, ext.Cursor(), "an untouched extractor must not move the cursor backwards")
}

func TestExtractor_ShortPageEndsCollectionWithoutPageContext(t *testing.T) {
	var grants atomic.Int64
	auth := newAuthServer(t, &grants)

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		if page == "1" {
			fmt.Fprint(w, `{"code":0,"brands":[{"brand_id":"b-1"},{"brand_id":"b-2"}]}`)
			return
		}
		fmt.Fprint(w, `{"code":0,"brands":[{"brand_id":"b-3"}]}`)
	}))
	defer api.Close()

	client := newTestClient(t, api.URL, auth.URL)
	ext := NewExtractor(client, Collection{
		Name: "brands", Path: "/brands", ItemsKey: "brands", IDField: "brand_id", PerPage: 2,
	}, pipeline.Cursor{})

	assert.Equal(t, []string{"b-1", "b-2", "b-3"}, drain(t, ext))
}

func TestExtractor_DetailFetch(t *testing.T) {
	var grants atomic.Int64
	auth := newAuthServer(t, &grants)

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/salesorders":
			fmt.Fprint(w, `{"code":0,"salesorders":[{"salesorder_id":"so-1"},{"salesorder_id":"so-2"},{"salesorder_id":"so-3"}]}`)
		case r.URL.Path == "/salesorders/so-2":
			// Deleted upstream between the list and detail calls.
			w.WriteHeader(http.StatusNotFound)
		default:
			id := strings.TrimPrefix(r.URL.Path, "/salesorders/")
			fmt.Fprintf(w, `{"code":0,"salesorder":{"salesorder_id":%q,"total":120.5}}`, id)
		}
	}))
	defer api.Close()

	client := newTestClient(t, api.URL, auth.URL)
	ext := NewExtractor(client, Collection{
		Name:       "orders",
		Path:       "/salesorders",
		ItemsKey:   "salesorders",
		IDField:    "salesorder_id",
		PerPage:    10,
		DetailPath: func(id string) string { return "/salesorders/" + id },
		DetailKey:  "salesorder",
	}, pipeline.Cursor{})

	rec, err := ext.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "so-1", rec.SourceID)
	assert.Equal(t, "120.5", rec.Decimal("total").String())

	// so-2 vanished; the extractor records the loss and moves on.
	rec, err = ext.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "so-3", rec.SourceID)

	_, err = ext.Next(context.Background())
	assert.Equal(t, io.EOF, err)

	require.Len(t, ext.Skipped(), 1)
	skip := ext.Skipped()[0]
	assert.Equal(t, "so-2", skip.SourceID)
	assert.Equal(t, pipeline.OutcomeSkippedMissing, skip.Status, "a vanished detail is expected, not a failure")
	assert.Equal(t, 2, ext.Extracted())
}

func TestExtractor_DetailFetchErrorCostsOnlyThatRecord(t *testing.T) {
	var grants atomic.Int64
	auth := newAuthServer(t, &grants)

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/salesorders":
			fmt.Fprint(w, `{"code":0,"salesorders":[{"salesorder_id":"so-1"},{"salesorder_id":"so-2"},{"salesorder_id":"so-3"}]}`)
		case r.URL.Path == "/salesorders/so-2":
			w.WriteHeader(http.StatusBadGateway)
		default:
			id := strings.TrimPrefix(r.URL.Path, "/salesorders/")
			fmt.Fprintf(w, `{"code":0,"salesorder":{"salesorder_id":%q}}`, id)
		}
	}))
	defer api.Close()

	client := newTestClient(t, api.URL, auth.URL)
	client.cfg.MaxRetries = 1
	ext := NewExtractor(client, Collection{
		Name:       "orders",
		Path:       "/salesorders",
		ItemsKey:   "salesorders",
		IDField:    "salesorder_id",
		PerPage:    10,
		DetailPath: func(id string) string { return "/salesorders/" + id },
		DetailKey:  "salesorder",
	}, pipeline.Cursor{})

	// so-2's detail keeps failing after retries; the sequence carries on.
	assert.Equal(t, []string{"so-1", "so-3"}, drain(t, ext))

	require.Len(t, ext.Skipped(), 1)
	skip := ext.Skipped()[0]
	assert.Equal(t, "so-2", skip.SourceID)
	assert.Equal(t, pipeline.OutcomeFailed, skip.Status)
	assert.Contains(t, skip.Reason, "detail fetch")
}
