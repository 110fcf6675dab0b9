package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []Item {
	return []Item{
		{Code: 101, Brand: "Toyota", Model: "Corolla", Category: "Sedán", Type: "Gasolina ⛽", SalePrice: decimal.NewFromInt(25000)},
		{Code: 202, Brand: "Ford", Model: "Ranger", Category: "Camioneta", Type: "Diésel", SalePrice: decimal.NewFromInt(40000)},
		{Code: 303, Brand: "Toyota", Model: "RAV4", Category: "SUV", Type: "Híbrido 🔋", SalePrice: decimal.RequireFromString("38999.99")},
	}
}

func TestLookupResolvesFirstOccurrence(t *testing.T) {
	items := append(sampleItems(), Item{Code: 101, Brand: "Duplicate", Model: "Entry"})
	cat := New(items)

	item, ok := cat.Lookup(101)
	require.True(t, ok)
	assert.Equal(t, "Toyota Corolla", item.Title())
	assert.Equal(t, 4, cat.Len())

	_, ok = cat.Lookup(999)
	assert.False(t, ok)
}

func TestSearch(t *testing.T) {
	cat := New(sampleItems())

	tests := []struct {
		name  string
		query string
		codes []int64
	}{
		{name: "blank returns all", query: "   ", codes: []int64{101, 202, 303}},
		{name: "brand is case insensitive", query: "TOYOTA", codes: []int64{101, 303}},
		{name: "brand and model joined by a space", query: "ford ran", codes: []int64{202}},
		{name: "category", query: "suv", codes: []int64{303}},
		{name: "type is not searched", query: "diésel", codes: []int64{}},
		{name: "no match", query: "tesla", codes: []int64{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := cat.Search(tc.query)
			codes := make([]int64, 0, len(got))
			for _, item := range got {
				codes = append(codes, item.Code)
			}
			assert.Equal(t, tc.codes, codes)
		})
	}
}

func TestItemsReturnsCopy(t *testing.T) {
	cat := New(sampleItems())
	items := cat.Items()
	items[0].Brand = "mutated"

	item, _ := cat.Lookup(101)
	assert.Equal(t, "Toyota", item.Brand)
}

func TestNilCatalogIsEmpty(t *testing.T) {
	var cat *Catalog
	assert.Equal(t, 0, cat.Len())
	assert.Empty(t, cat.Search("toyota"))
	_, ok := cat.Lookup(101)
	assert.False(t, ok)
}
