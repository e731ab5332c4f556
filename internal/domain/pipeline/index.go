package pipeline

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Index is the in-memory reconciliation lookup, built once from the current
// state of the target store before a collection stage runs. It is read-only
// for the duration of a stage and never persisted across runs: rows written
// during a stage become visible to reconciliation only when the index is next
// rebuilt.
type Index struct {
	entries map[string]map[string]uuid.UUID
	orders  map[uuid.UUID][]OrderRef
}

// OrderRef is the slice of an order row the date/amount heuristic needs.
type OrderRef struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	Date       time.Time
	Total      decimal.Decimal
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		entries: make(map[string]map[string]uuid.UUID),
		orders:  make(map[uuid.UUID][]OrderRef),
	}
}

// Put records a mapping from a key within a key space (for example
// "customers.legacy_id") to a target identifier. Empty keys are ignored.
func (i *Index) Put(space, key string, id uuid.UUID) {
	if key == "" || id == uuid.Nil {
		return
	}
	m, ok := i.entries[space]
	if !ok {
		m = make(map[string]uuid.UUID)
		i.entries[space] = m
	}
	m[key] = id
}

// Get looks up a key within a key space.
func (i *Index) Get(space, key string) (uuid.UUID, bool) {
	if key == "" {
		return uuid.Nil, false
	}
	id, ok := i.entries[space][key]
	return id, ok
}

// Len returns the number of keys in a key space.
func (i *Index) Len(space string) int {
	return len(i.entries[space])
}

// PutOrderRef records an order row for date/amount proximity matching.
func (i *Index) PutOrderRef(ref OrderRef) {
	if ref.CustomerID == uuid.Nil {
		return
	}
	i.orders[ref.CustomerID] = append(i.orders[ref.CustomerID], ref)
}

// OrderRefs returns the known orders for a target customer.
func (i *Index) OrderRefs(customerID uuid.UUID) []OrderRef {
	return i.orders[customerID]
}

// stripMarks removes combining diacritical marks after NFD decomposition, so
// "Räder" and "Rader" normalize to the same key.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName folds a display name into a stable comparison key: diacritics
// removed, lowercased, runs of non-alphanumeric characters collapsed to a
// single space. The legacy data carries variants like "Räder", "rader" and
// "r-der" for the same brand; all three fold to "rader" / "r der" families
// that the alias-free normalizer can match.
func NormalizeName(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	inGap := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if inGap && b.Len() > 0 {
				b.WriteByte(' ')
			}
			inGap = false
			b.WriteRune(r)
		} else {
			inGap = true
		}
	}
	return b.String()
}

// NormalizeEmail folds an email address into a comparison key.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
