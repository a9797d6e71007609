// Package filter derives the visible product list from the catalog and the
// filter and sort criteria a shopper has selected.
package filter

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

// SortBy enumerates the supported orderings of a product list.
type SortBy string

const (
	// SortNone keeps the catalog order.
	SortNone SortBy = "none"
	// SortPriceAsc orders by ascending price.
	SortPriceAsc SortBy = "price-asc"
	// SortPriceDesc orders by descending price.
	SortPriceDesc SortBy = "price-desc"
	// SortRatingDesc orders by descending rating.
	SortRatingDesc SortBy = "rating-desc"
	// SortDiscountDesc orders by descending discount percentage.
	SortDiscountDesc SortBy = "discount-desc"
)

// ParseSortBy maps a user supplied sort name to a SortBy. The short names
// used by older storefront clients are accepted as aliases. Anything else
// yields SortNone.
func ParseSortBy(s string) SortBy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(SortPriceAsc), "asc":
		return SortPriceAsc
	case string(SortPriceDesc), "desc":
		return SortPriceDesc
	case string(SortRatingDesc), "rating":
		return SortRatingDesc
	case string(SortDiscountDesc), "discount":
		return SortDiscountDesc
	default:
		return SortNone
	}
}

// Spec is the combination of filter and sort criteria. The zero value
// places no constraint on the result.
type Spec struct {
	Category    string
	Subcategory string
	Brand       string
	SearchTerm  string
	MinPrice    decimal.NullDecimal
	MaxPrice    decimal.NullDecimal
	InStock     bool
	SortBy      SortBy
}

// Apply returns the products matching spec, ordered by spec.SortBy. The
// input slice is never modified and ties keep their input order.
func Apply(products []product.Product, spec Spec) []product.Product {
	m := newMatcher(spec)

	out := make([]product.Product, 0, len(products))
	for i := range products {
		if m.match(&products[i]) {
			out = append(out, products[i])
		}
	}

	if less := comparator(spec.SortBy); less != nil {
		slices.SortStableFunc(out, less)
	}
	return out
}

// matcher holds the lowercased forms of the spec so they are computed once
// per Apply call.
type matcher struct {
	spec   Spec
	brand  string
	search string
}

func newMatcher(spec Spec) matcher {
	return matcher{
		spec:   spec,
		brand:  strings.ToLower(spec.Brand),
		search: strings.ToLower(spec.SearchTerm),
	}
}

func (m matcher) match(p *product.Product) bool {
	s := m.spec
	if s.Category != "" && p.Category != s.Category {
		return false
	}
	if s.Subcategory != "" && !slices.Contains(p.Tags, s.Subcategory) {
		return false
	}
	if m.brand != "" && (!p.HasBrand() || strings.ToLower(p.Brand) != m.brand) {
		return false
	}
	if m.search != "" && !m.matchSearch(p) {
		return false
	}
	if s.MinPrice.Valid && p.Price.LessThan(s.MinPrice.Decimal) {
		return false
	}
	if s.MaxPrice.Valid && p.Price.GreaterThan(s.MaxPrice.Decimal) {
		return false
	}
	if s.InStock && !p.InStock() {
		return false
	}
	return true
}

func (m matcher) matchSearch(p *product.Product) bool {
	if strings.Contains(strings.ToLower(p.Title), m.search) ||
		strings.Contains(strings.ToLower(p.Description), m.search) {
		return true
	}
	return p.HasBrand() && strings.Contains(strings.ToLower(p.Brand), m.search)
}

func comparator(by SortBy) func(a, b product.Product) int {
	switch by {
	case SortPriceAsc:
		return func(a, b product.Product) int { return a.Price.Cmp(b.Price) }
	case SortPriceDesc:
		return func(a, b product.Product) int { return b.Price.Cmp(a.Price) }
	case SortRatingDesc:
		return func(a, b product.Product) int { return cmp.Compare(b.Rating, a.Rating) }
	case SortDiscountDesc:
		return func(a, b product.Product) int { return cmp.Compare(b.DiscountPercentage, a.DiscountPercentage) }
	default:
		return nil
	}
}
