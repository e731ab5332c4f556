package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExactID_Resolve(t *testing.T) {
	idx := NewIndex()
	target := uuid.New()
	idx.Put("orders.legacy_id", "zoho-123", target)

	s := ExactID{Space: "orders.legacy_id", Field: "salesorder_id"}

	rec := &SourceRecord{SourceID: "inv-1", Fields: map[string]any{"salesorder_id": "zoho-123"}}
	got, ok := s.Resolve(rec, idx)
	require.True(t, ok)
	assert.Equal(t, target, got)

	miss := &SourceRecord{SourceID: "inv-2", Fields: map[string]any{"salesorder_id": "zoho-999"}}
	_, ok = s.Resolve(miss, idx)
	assert.False(t, ok)

	empty := &SourceRecord{SourceID: "inv-3", Fields: map[string]any{}}
	_, ok = s.Resolve(empty, idx)
	assert.False(t, ok, "empty source field must not match anything")
}

func TestNormalizedName_Resolve(t *testing.T) {
	idx := NewIndex()
	target := uuid.New()
	idx.Put("brands.name", NormalizeName("Räder"), target)

	s := NormalizedName{Space: "brands.name", Field: "manufacturer"}

	for _, variant := range []string{"Räder", "rader", "RADER", "räder"} {
		rec := &SourceRecord{SourceID: "item-1", Fields: map[string]any{"manufacturer": variant}}
		got, ok := s.Resolve(rec, idx)
		require.True(t, ok, "variant %q should resolve", variant)
		assert.Equal(t, target, got)
	}
}

func TestChain_ExactIDOutranksHeuristics(t *testing.T) {
	idx := NewIndex()
	exactTarget := uuid.New()
	fuzzyTarget := uuid.New()

	// The same record is matchable both ways, to different targets.
	idx.Put("brands.legacy_id", "b-42", exactTarget)
	idx.Put("brands.name", NormalizeName("Räder"), fuzzyTarget)

	chain := NewChain(
		ExactID{Space: "brands.legacy_id", Field: "brand_id"},
		NormalizedName{Space: "brands.name", Field: "brand_name"},
	)

	rec := &SourceRecord{SourceID: "b-42", Fields: map[string]any{
		"brand_id":   "b-42",
		"brand_name": "Räder",
	}}

	res, err := chain.Resolve(rec, idx)
	require.NoError(t, err)
	assert.Equal(t, exactTarget, res.TargetID, "exact-id match must win over the fuzzy match")
	assert.Equal(t, "exact_id:brands.legacy_id", res.Strategy)
}

func TestChain_FallsThroughInOrder(t *testing.T) {
	idx := NewIndex()
	fuzzyTarget := uuid.New()
	idx.Put("brands.name", NormalizeName("Räder"), fuzzyTarget)

	chain := NewChain(
		ExactID{Space: "brands.legacy_id", Field: "brand_id"},
		NormalizedName{Space: "brands.name", Field: "brand_name"},
	)

	rec := &SourceRecord{SourceID: "b-7", Fields: map[string]any{
		"brand_id":   "unknown",
		"brand_name": "rader",
	}}

	res, err := chain.Resolve(rec, idx)
	require.NoError(t, err)
	assert.Equal(t, fuzzyTarget, res.TargetID)
	assert.Equal(t, "normalized_name:brands.name", res.Strategy)
}

func TestChain_Unresolved(t *testing.T) {
	chain := NewChain(ExactID{Space: "customers.legacy_id", Field: "customer_id"})
	rec := &SourceRecord{SourceID: "c-1", Fields: map[string]any{"customer_id": "nope"}}

	_, err := chain.Resolve(rec, NewIndex())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolved))
	assert.Contains(t, err.Error(), "c-1")
}

func TestDateAmount_SelectsMatchingTotal(t *testing.T) {
	idx := NewIndex()
	customer := uuid.New()
	idx.Put("customers.legacy_id", "cust-1", customer)

	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	wrongOrder := OrderRef{ID: uuid.New(), CustomerID: customer, Date: date, Total: decimal.NewFromFloat(10.00)}
	rightOrder := OrderRef{ID: uuid.New(), CustomerID: customer, Date: date, Total: decimal.NewFromFloat(42.50)}
	idx.PutOrderRef(wrongOrder)
	idx.PutOrderRef(rightOrder)

	s := DateAmount{
		CustomerSpace: "customers.legacy_id",
		CustomerField: "customer_id",
		DateField:     "date",
		AmountField:   "total",
		WindowDays:    7,
		Tolerance:     decimal.NewFromFloat(0.01),
	}

	rec := &SourceRecord{SourceID: "inv-9", Fields: map[string]any{
		"customer_id": "cust-1",
		"date":        "2024-03-10",
		"total":       42.50,
	}}

	got, ok := s.Resolve(rec, idx)
	require.True(t, ok)
	assert.Equal(t, rightOrder.ID, got, "must pick the order whose total matches, not the first on the date")
}

func TestDateAmount_WindowAndTolerance(t *testing.T) {
	customer := uuid.New()
	inWindow := uuid.New()

	newIndex := func() *Index {
		idx := NewIndex()
		idx.Put("customers.legacy_id", "cust-1", customer)
		return idx
	}

	s := DateAmount{
		CustomerSpace: "customers.legacy_id",
		CustomerField: "customer_id",
		DateField:     "date",
		AmountField:   "total",
		WindowDays:    7,
		Tolerance:     decimal.NewFromFloat(0.01),
	}
	rec := &SourceRecord{SourceID: "inv-1", Fields: map[string]any{
		"customer_id": "cust-1",
		"date":        "2024-03-10",
		"total":       100.00,
	}}

	t.Run("order outside day window is ignored", func(t *testing.T) {
		idx := newIndex()
		idx.PutOrderRef(OrderRef{ID: uuid.New(), CustomerID: customer,
			Date: time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(100)})
		_, ok := s.Resolve(rec, idx)
		assert.False(t, ok)
	})

	t.Run("order inside window within tolerance matches", func(t *testing.T) {
		idx := newIndex()
		idx.PutOrderRef(OrderRef{ID: inWindow, CustomerID: customer,
			Date: time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), Total: decimal.NewFromFloat(100.01)})
		got, ok := s.Resolve(rec, idx)
		require.True(t, ok)
		assert.Equal(t, inWindow, got)
	})

	t.Run("amount outside tolerance is ignored", func(t *testing.T) {
		idx := newIndex()
		idx.PutOrderRef(OrderRef{ID: uuid.New(), CustomerID: customer,
			Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), Total: decimal.NewFromFloat(100.05)})
		_, ok := s.Resolve(rec, idx)
		assert.False(t, ok)
	})
}

func TestDateAmount_TieBreakClosestDate(t *testing.T) {
	idx := NewIndex()
	customer := uuid.New()
	idx.Put("customers.legacy_id", "cust-1", customer)

	near := OrderRef{ID: uuid.New(), CustomerID: customer,
		Date: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(50)}
	far := OrderRef{ID: uuid.New(), CustomerID: customer,
		Date: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(50)}
	idx.PutOrderRef(far)
	idx.PutOrderRef(near)

	s := DateAmount{
		CustomerSpace: "customers.legacy_id",
		CustomerField: "customer_id",
		DateField:     "date",
		AmountField:   "total",
		WindowDays:    7,
		Tolerance:     decimal.NewFromFloat(0.01),
		TieBreak:      TieBreakClosestDate,
	}
	rec := &SourceRecord{SourceID: "inv-2", Fields: map[string]any{
		"customer_id": "cust-1",
		"date":        "2024-03-10",
		"total":       50,
	}}

	got, ok := s.Resolve(rec, idx)
	require.True(t, ok)
	assert.Equal(t, near.ID, got)
}

func TestSourceRecord_FieldHelpers(t *testing.T) {
	rec := &SourceRecord{SourceID: "x", Fields: map[string]any{
		"name":   "Blue Vase",
		"total":  "42.50",
		"count":  float64(3),
		"date":   "2024-01-05",
		"stamp":  "2024-01-05T10:30:00Z",
		"badnum": "not-a-number",
	}}

	assert.Equal(t, "Blue Vase", rec.String("name"))
	assert.Equal(t, "", rec.String("missing"))
	assert.True(t, rec.Decimal("total").Equal(decimal.NewFromFloat(42.50)))
	assert.True(t, rec.Decimal("count").Equal(decimal.NewFromInt(3)))
	assert.True(t, rec.Decimal("badnum").IsZero())
	assert.Equal(t, 2024, rec.Time("date").Year())
	assert.Equal(t, 10, rec.Time("stamp").Hour())
	assert.True(t, rec.Time("missing").IsZero())
}
