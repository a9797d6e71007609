package filter

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/product"
)

// --- Helpers ---

func newTestProduct(id int, category string, price string, stock int) product.Product {
	return product.Product{
		ID:       id,
		Title:    "Product",
		Category: category,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
	}
}

func ids(products []product.Product) []int {
	out := make([]int, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func testCatalog() []product.Product {
	return []product.Product{
		{ID: 1, Title: "Essence Mascara", Description: "Volumizing mascara", Category: "beauty", Brand: "Essence",
			Price: decimal.RequireFromString("9.99"), Rating: 4.9, DiscountPercentage: 7.2, Stock: 5, Tags: []string{"beauty", "mascara"}},
		{ID: 2, Title: "Eyeshadow Palette", Description: "Shades for every look", Category: "beauty", Brand: "Glamour Beauty",
			Price: decimal.RequireFromString("19.99"), Rating: 3.2, DiscountPercentage: 18.2, Stock: 0, Tags: []string{"beauty", "eyeshadow"}},
		{ID: 3, Title: "Apple", Description: "Fresh green apple", Category: "groceries",
			Price: decimal.RequireFromString("1.99"), Rating: 4.1, DiscountPercentage: 1.5, Stock: 9, Tags: []string{"fruits"}},
		{ID: 4, Title: "Lipstick", Description: "Long lasting ESSENCE color", Category: "beauty", Brand: "Chic Cosmetics",
			Price: decimal.RequireFromString("12.99"), Rating: 4.9, DiscountPercentage: 18.2, Stock: 2, Tags: []string{"beauty", "lipstick"}},
	}
}

// --- Tests ---

func TestApply_EmptySpecPreservesOrder(t *testing.T) {
	products := testCatalog()

	got := Apply(products, Spec{})
	assert.Equal(t, products, got)
}

func TestApply_Subset(t *testing.T) {
	products := testCatalog()
	specs := []Spec{
		{},
		{Category: "beauty"},
		{Brand: "essence"},
		{SearchTerm: "a"},
		{MinPrice: price("5"), MaxPrice: price("15")},
		{InStock: true, SortBy: SortPriceDesc},
		{Category: "nothing"},
	}

	for _, spec := range specs {
		got := Apply(products, spec)
		assert.LessOrEqual(t, len(got), len(products))
		for _, p := range got {
			assert.Contains(t, products, p)
		}
	}
}

func TestApply_CategoryInStockScenario(t *testing.T) {
	products := []product.Product{
		newTestProduct(1, "a", "10", 0),
		newTestProduct(2, "a", "20", 5),
	}

	got := Apply(products, Spec{Category: "a", InStock: true})
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)
}

func TestApply_Filters(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want []int
	}{
		{name: "category", spec: Spec{Category: "beauty"}, want: []int{1, 2, 4}},
		{name: "subcategory matches tag", spec: Spec{Subcategory: "lipstick"}, want: []int{4}},
		{name: "brand case insensitive", spec: Spec{Brand: "ESSENCE"}, want: []int{1}},
		{name: "brand excludes unbranded", spec: Spec{Brand: "apple"}, want: []int{}},
		{name: "search title", spec: Spec{SearchTerm: "apple"}, want: []int{3}},
		{name: "search description and brand", spec: Spec{SearchTerm: "essence"}, want: []int{1, 4}},
		{name: "min price inclusive", spec: Spec{MinPrice: price("12.99")}, want: []int{2, 4}},
		{name: "max price inclusive", spec: Spec{MaxPrice: price("9.99")}, want: []int{1, 3}},
		{name: "price range", spec: Spec{MinPrice: price("5"), MaxPrice: price("15")}, want: []int{1, 4}},
		{name: "in stock", spec: Spec{InStock: true}, want: []int{1, 3, 4}},
		{name: "combined", spec: Spec{Category: "beauty", InStock: true, MaxPrice: price("10")}, want: []int{1}},
		{name: "no match", spec: Spec{Category: "furniture"}, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(testCatalog(), tt.spec)))
		})
	}
}

func TestApply_Sort(t *testing.T) {
	tests := []struct {
		sortBy SortBy
		want   []int
	}{
		{sortBy: SortNone, want: []int{1, 2, 3, 4}},
		{sortBy: SortPriceAsc, want: []int{3, 1, 4, 2}},
		{sortBy: SortPriceDesc, want: []int{2, 4, 1, 3}},
		// 1 and 4 share a rating and keep their catalog order.
		{sortBy: SortRatingDesc, want: []int{1, 4, 3, 2}},
		// 2 and 4 share a discount and keep their catalog order.
		{sortBy: SortDiscountDesc, want: []int{2, 4, 1, 3}},
		{sortBy: SortBy("bogus"), want: []int{1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sortBy), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(testCatalog(), Spec{SortBy: tt.sortBy})))
		})
	}
}

func TestApply_SortStableOnEqualPrice(t *testing.T) {
	products := []product.Product{
		newTestProduct(7, "a", "5", 1),
		newTestProduct(3, "a", "10", 1),
		newTestProduct(9, "a", "10", 1),
		newTestProduct(1, "a", "1", 1),
	}

	asc := ids(Apply(products, Spec{SortBy: SortPriceAsc}))
	desc := ids(Apply(products, Spec{SortBy: SortPriceDesc}))

	assert.Equal(t, []int{1, 7, 3, 9}, asc)
	assert.Equal(t, []int{3, 9, 7, 1}, desc)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	products := testCatalog()
	before := testCatalog()

	_ = Apply(products, Spec{SortBy: SortPriceAsc, InStock: true})
	assert.Equal(t, before, products)
}

func TestApply_Idempotent(t *testing.T) {
	spec := Spec{Category: "beauty", SortBy: SortPriceDesc}

	once := Apply(testCatalog(), spec)
	twice := Apply(once, spec)
	assert.Equal(t, once, twice)
}

func TestApply_Empty(t *testing.T) {
	assert.Empty(t, Apply(nil, Spec{Category: "beauty"}))
}

func TestParseSortBy(t *testing.T) {
	tests := map[string]SortBy{
		"price-asc":     SortPriceAsc,
		"asc":           SortPriceAsc,
		"PRICE-DESC":    SortPriceDesc,
		"desc":          SortPriceDesc,
		"rating-desc":   SortRatingDesc,
		"rating":        SortRatingDesc,
		" discount ":    SortDiscountDesc,
		"discount-desc": SortDiscountDesc,
		"none":          SortNone,
		"":              SortNone,
		"title":         SortNone,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseSortBy(in), "input %q", in)
	}
}
