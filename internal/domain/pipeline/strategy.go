package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Strategy resolves a source record to a target identifier through one
// specific matching rule. Strategies are deterministic and side-effect free;
// ordering between them is owned by the Chain.
type Strategy interface {
	// Name identifies the strategy in audit output.
	Name() string

	// Resolve returns the target id and true on a match.
	Resolve(rec *SourceRecord, idx *Index) (uuid.UUID, bool)
}

// ---------------------------------------------------------------------------
// Exact identifier match
// ---------------------------------------------------------------------------

// ExactID matches a source field verbatim against an index key space of
// remote identifiers. Exact-identifier match always outranks heuristics, so
// chains list an ExactID strategy first.
type ExactID struct {
	// Space is the index key space, e.g. "orders.legacy_id".
	Space string
	// Field is the source record field holding the remote identifier.
	Field string
}

func (s ExactID) Name() string { return "exact_id:" + s.Space }

func (s ExactID) Resolve(rec *SourceRecord, idx *Index) (uuid.UUID, bool) {
	return idx.Get(s.Space, rec.String(s.Field))
}

// ---------------------------------------------------------------------------
// Normalized name match
// ---------------------------------------------------------------------------

// NormalizedName matches a source field against a key space of normalized
// display names. Diacritics and punctuation variants fold to the same key.
type NormalizedName struct {
	Space string
	Field string
}

func (s NormalizedName) Name() string { return "normalized_name:" + s.Space }

func (s NormalizedName) Resolve(rec *SourceRecord, idx *Index) (uuid.UUID, bool) {
	return idx.Get(s.Space, NormalizeName(rec.String(s.Field)))
}

// ---------------------------------------------------------------------------
// Email match
// ---------------------------------------------------------------------------

// Email matches a source field against a key space of lowercased emails.
type Email struct {
	Space string
	Field string
}

func (s Email) Name() string { return "email:" + s.Space }

func (s Email) Resolve(rec *SourceRecord, idx *Index) (uuid.UUID, bool) {
	return idx.Get(s.Space, NormalizeEmail(rec.String(s.Field)))
}

// ---------------------------------------------------------------------------
// Date/amount proximity match
// ---------------------------------------------------------------------------

// TieBreak selects among multiple orders that pass the date window and amount
// tolerance. The historical scripts used an undocumented "first match"; the
// policy is explicit and configurable here.
type TieBreak string

const (
	// TieBreakClosestDate prefers the smallest date distance, then the
	// smallest amount delta, then the lowest target id. Fully deterministic.
	TieBreakClosestDate TieBreak = "closest_date"
	// TieBreakLowestID prefers the lowest target id among all candidates in
	// the window. Deterministic but date-blind; kept for parity runs against
	// historical migrations.
	TieBreakLowestID TieBreak = "lowest_id"
)

// DateAmount matches an invoice-shaped record to an order by customer, date
// proximity and amount tolerance. It is the weakest strategy and belongs at
// the end of a chain.
type DateAmount struct {
	// CustomerSpace maps the record's remote customer id to a target
	// customer, scoping the candidate set.
	CustomerSpace string
	// CustomerField is the source field holding the remote customer id.
	CustomerField string
	// DateField is the source field holding the document date.
	DateField string
	// AmountField is the source field holding the document total.
	AmountField string
	// WindowDays is the maximum date distance, inclusive. Zero means
	// same-day only.
	WindowDays int
	// Tolerance is the maximum absolute amount difference. Zero means
	// exact amounts only.
	Tolerance decimal.Decimal
	// TieBreak selects among candidates; empty defaults to closest date.
	TieBreak TieBreak
}

func (s DateAmount) Name() string {
	return fmt.Sprintf("date_amount:%dd", s.WindowDays)
}

func (s DateAmount) Resolve(rec *SourceRecord, idx *Index) (uuid.UUID, bool) {
	customerID, ok := idx.Get(s.CustomerSpace, rec.String(s.CustomerField))
	if !ok {
		return uuid.Nil, false
	}
	date := rec.Time(s.DateField)
	if date.IsZero() {
		return uuid.Nil, false
	}
	amount := rec.Decimal(s.AmountField)

	var (
		best      uuid.UUID
		bestDays  int
		bestDelta decimal.Decimal
		found     bool
	)
	for _, ref := range idx.OrderRefs(customerID) {
		days := dateDistanceDays(date, ref.Date)
		if days > s.WindowDays {
			continue
		}
		delta := ref.Total.Sub(amount).Abs()
		if delta.GreaterThan(s.Tolerance) {
			continue
		}
		if !found || s.better(ref.ID, days, delta, best, bestDays, bestDelta) {
			best, bestDays, bestDelta, found = ref.ID, days, delta, true
		}
	}
	return best, found
}

// better reports whether the candidate beats the current best under the
// configured tie-break.
func (s DateAmount) better(id uuid.UUID, days int, delta decimal.Decimal, bestID uuid.UUID, bestDays int, bestDelta decimal.Decimal) bool {
	if s.TieBreak == TieBreakLowestID {
		return id.String() < bestID.String()
	}
	if days != bestDays {
		return days < bestDays
	}
	if !delta.Equal(bestDelta) {
		return delta.LessThan(bestDelta)
	}
	return id.String() < bestID.String()
}

// dateDistanceDays returns the absolute calendar distance in days.
func dateDistanceDays(a, b time.Time) int {
	au := a.UTC().Truncate(24 * time.Hour)
	bu := b.UTC().Truncate(24 * time.Hour)
	d := int(au.Sub(bu).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d
}

// ---------------------------------------------------------------------------
// Strategy chain
// ---------------------------------------------------------------------------

// Resolution records which strategy produced a match, keeping reconciliation
// auditable.
type Resolution struct {
	TargetID uuid.UUID
	Strategy string
}

// Chain is an ordered list of strategies tried first to last. The order is a
// design decision, not an accident: callers must list exact-identifier
// strategies before heuristics.
type Chain struct {
	strategies []Strategy
}

// NewChain builds a chain from the given strategies, in order.
func NewChain(strategies ...Strategy) Chain {
	return Chain{strategies: strategies}
}

// Resolve tries each strategy in order and returns the first hit. When the
// chain exhausts it returns ErrUnresolved; the chain never guesses silently.
func (c Chain) Resolve(rec *SourceRecord, idx *Index) (Resolution, error) {
	for _, s := range c.strategies {
		if id, ok := s.Resolve(rec, idx); ok {
			return Resolution{TargetID: id, Strategy: s.Name()}, nil
		}
	}
	return Resolution{}, fmt.Errorf("%w: source %s", ErrUnresolved, rec.SourceID)
}
