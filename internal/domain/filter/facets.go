package filter

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

// Facets summarizes a product list for a filter panel.
type Facets struct {
	InStock    int
	OutOfStock int
	// MinPrice and MaxPrice are zero for an empty list.
	MinPrice   decimal.Decimal
	MaxPrice   decimal.Decimal
	Brands     []Option
	Categories []Option
	Tags       []Option
}

// Option is a facet value with the number of products carrying it.
type Option struct {
	Value string
	Count int
}

// ComputeFacets counts availability, brands, categories and tags and finds
// the price range of products. Options are sorted by value.
func ComputeFacets(products []product.Product) Facets {
	var (
		f          Facets
		brands     = map[string]int{}
		categories = map[string]int{}
		tags       = map[string]int{}
	)
	for i := range products {
		p := &products[i]
		if p.InStock() {
			f.InStock++
		} else {
			f.OutOfStock++
		}
		if i == 0 || p.Price.LessThan(f.MinPrice) {
			f.MinPrice = p.Price
		}
		if i == 0 || p.Price.GreaterThan(f.MaxPrice) {
			f.MaxPrice = p.Price
		}
		if p.HasBrand() {
			brands[p.Brand]++
		}
		categories[p.Category]++
		for _, t := range p.Tags {
			tags[t]++
		}
	}
	f.Brands = options(brands)
	f.Categories = options(categories)
	f.Tags = options(tags)
	return f
}

func options(counts map[string]int) []Option {
	out := make([]Option, 0, len(counts))
	for v, n := range counts {
		out = append(out, Option{Value: v, Count: n})
	}
	slices.SortFunc(out, func(a, b Option) int {
		return strings.Compare(a.Value, b.Value)
	})
	return out
}
