package filter

import (
	"github.com/shopspring/decimal"
)

// Patch is a partial update of a Spec. Nil fields leave the corresponding
// Spec field untouched; an empty string or an invalid decimal clears it.
type Patch struct {
	Category    *string
	Subcategory *string
	Brand       *string
	SearchTerm  *string
	MinPrice    *decimal.NullDecimal
	MaxPrice    *decimal.NullDecimal
	InStock     *bool
	SortBy      *SortBy
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Merge returns a copy of s with every non-nil field of p applied.
func (s Spec) Merge(p Patch) Spec {
	if p.Category != nil {
		s.Category = *p.Category
	}
	if p.Subcategory != nil {
		s.Subcategory = *p.Subcategory
	}
	if p.Brand != nil {
		s.Brand = *p.Brand
	}
	if p.SearchTerm != nil {
		s.SearchTerm = *p.SearchTerm
	}
	if p.MinPrice != nil {
		s.MinPrice = *p.MinPrice
	}
	if p.MaxPrice != nil {
		s.MaxPrice = *p.MaxPrice
	}
	if p.InStock != nil {
		s.InStock = *p.InStock
	}
	if p.SortBy != nil {
		s.SortBy = ParseSortBy(string(*p.SortBy))
	}
	return s
}

// Active is one constraint currently narrowing the product list.
type Active struct {
	Key   string
	Value string
}

// Active lists the constraints of s in a fixed order. Sorting is not a
// constraint and is never listed.
func (s Spec) Active() []Active {
	var out []Active
	add := func(key, value string) {
		if value != "" {
			out = append(out, Active{Key: key, Value: value})
		}
	}
	add("category", s.Category)
	add("subcategory", s.Subcategory)
	add("brand", s.Brand)
	add("searchTerm", s.SearchTerm)
	if s.MinPrice.Valid {
		add("minPrice", s.MinPrice.Decimal.String())
	}
	if s.MaxPrice.Valid {
		add("maxPrice", s.MaxPrice.Decimal.String())
	}
	if s.InStock {
		add("inStock", "true")
	}
	return out
}
