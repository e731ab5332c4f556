package pipeline

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stretchr/testify/assert"
)

func TestIndex_PutGet(t *testing.T) {
	idx := NewIndex()
	id := uuid.New()

	idx.Put(SpaceCustomerLegacyID, "c-1", id)

	got, ok := idx.Get(SpaceCustomerLegacyID, "c-1")
	assert.True(t, ok)
	assert.Equal(t, id, got)

	t.Run("key spaces are independent", func(t *testing.T) {
		_, ok := idx.Get(SpaceBrandLegacyID, "c-1")
		assert.False(t, ok)
	})

	t.Run("empty keys are never stored or found", func(t *testing.T) {
		idx.Put(SpaceCustomerLegacyID, "", uuid.New())
		_, ok := idx.Get(SpaceCustomerLegacyID, "")
		assert.False(t, ok)
		assert.Equal(t, 1, idx.Len(SpaceCustomerLegacyID))
	})

	t.Run("nil ids are ignored", func(t *testing.T) {
		idx.Put(SpaceCustomerLegacyID, "c-nil", uuid.Nil)
		_, ok := idx.Get(SpaceCustomerLegacyID, "c-nil")
		assert.False(t, ok)
	})
}

func TestIndex_OrderRefs(t *testing.T) {
	idx := NewIndex()
	customer := uuid.New()

	idx.PutOrderRef(OrderRef{
		ID:         uuid.New(),
		CustomerID: customer,
		Date:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Total:      decimal.RequireFromString("10.00"),
	})
	idx.PutOrderRef(OrderRef{
		ID:         uuid.New(),
		CustomerID: customer,
		Date:       time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC),
		Total:      decimal.RequireFromString("20.00"),
	})
	idx.PutOrderRef(OrderRef{ID: uuid.New(), Date: time.Now()}) // no customer, dropped

	assert.Len(t, idx.OrderRefs(customer), 2)
	assert.Empty(t, idx.OrderRefs(uuid.New()))
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "My Flame Lifestyle", "my flame lifestyle"},
		{"folds diacritics", "Räder", "rader"},
		{"already folded", "rader", "rader"},
		{"collapses punctuation", "my-flame--lifestyle", "my flame lifestyle"},
		{"trims surrounding noise", "  Räder GmbH. ", "rader gmbh"},
		{"drops symbols between words", "Müller & Söhne", "muller sohne"},
		{"single accented word", "café", "cafe"},
		{"only punctuation", "---", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "sales@acme.example", NormalizeEmail("  Sales@ACME.example "))
	assert.Equal(t, "", NormalizeEmail("   "))
}
