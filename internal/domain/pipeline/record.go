package pipeline

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceRecord is an opaque, source-system-shaped record pulled from the
// remote platform. Fields holds the raw decoded payload; SourceID is the
// remote system's stable identifier. Immutable once fetched.
type SourceRecord struct {
	SourceID string
	Fields   map[string]any
}

// String returns the named field as a string. Remote payloads are stringly
// typed, so numbers and booleans are not coerced; absent or non-string values
// return "".
func (r *SourceRecord) String(key string) string {
	if v, ok := r.Fields[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Decimal returns the named field as a decimal amount. The remote API emits
// monetary values as JSON numbers or strings depending on the endpoint, so
// both are accepted. Absent or unparseable values return zero.
func (r *SourceRecord) Decimal(key string) decimal.Decimal {
	switch v := r.Fields[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		d, err := decimal.NewFromString(v)
		if err == nil {
			return d
		}
	case int64:
		return decimal.NewFromInt(v)
	}
	return decimal.Zero
}

// Time returns the named field parsed as a date or timestamp. The remote API
// uses both "2006-01-02" dates and RFC3339 timestamps. Returns the zero time
// when absent or unparseable.
func (r *SourceRecord) Time(key string) time.Time {
	s := r.String(key)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05-0700"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
