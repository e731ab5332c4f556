package zoho

import (
	"encoding/json"
	"fmt"

	"github.com/splitfin/syncpipe/internal/domain/pipeline"
)

// pageContext is Zoho's pagination envelope. Older endpoints omit it, in
// which case a short page signals the end of the collection.
type pageContext struct {
	Page        int  `json:"page"`
	PerPage     int  `json:"per_page"`
	HasMorePage bool `json:"has_more_page"`
}

// apiEnvelope is the code/message wrapper every inventory response carries.
type apiEnvelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// parseListPage decodes one list-endpoint response: the item array under
// itemsKey, each item keyed by idField, plus the optional page context.
func parseListPage(body []byte, itemsKey, idField string) ([]pipeline.SourceRecord, *pageContext, error) {
	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, nil, fmt.Errorf("zoho: parse list envelope: %w", err)
	}
	if env.Code != 0 {
		return nil, nil, fmt.Errorf("zoho: API error %d: %s", env.Code, env.Message)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, nil, fmt.Errorf("zoho: parse list body: %w", err)
	}

	var pc *pageContext
	if pcRaw, ok := raw["page_context"]; ok {
		pc = &pageContext{}
		if err := json.Unmarshal(pcRaw, pc); err != nil {
			return nil, nil, fmt.Errorf("zoho: parse page context: %w", err)
		}
	}

	itemsRaw, ok := raw[itemsKey]
	if !ok {
		// An empty collection response may omit the array entirely.
		return nil, pc, nil
	}
	var items []map[string]any
	if err := json.Unmarshal(itemsRaw, &items); err != nil {
		return nil, nil, fmt.Errorf("zoho: parse %q items: %w", itemsKey, err)
	}

	records := make([]pipeline.SourceRecord, 0, len(items))
	for _, fields := range items {
		records = append(records, pipeline.SourceRecord{
			SourceID: stringField(fields, idField),
			Fields:   fields,
		})
	}
	return records, pc, nil
}

// parseDetail decodes one detail-endpoint response: the full object under
// detailKey.
func parseDetail(body []byte, detailKey, idField string) (*pipeline.SourceRecord, error) {
	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("zoho: parse detail envelope: %w", err)
	}
	if env.Code != 0 {
		return nil, fmt.Errorf("zoho: API error %d: %s", env.Code, env.Message)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("zoho: parse detail body: %w", err)
	}
	objRaw, ok := raw[detailKey]
	if !ok {
		return nil, fmt.Errorf("zoho: detail response missing %q", detailKey)
	}
	var fields map[string]any
	if err := json.Unmarshal(objRaw, &fields); err != nil {
		return nil, fmt.Errorf("zoho: parse %q detail: %w", detailKey, err)
	}
	return &pipeline.SourceRecord{
		SourceID: stringField(fields, idField),
		Fields:   fields,
	}, nil
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
