package catalog

import (
	"github.com/xenking/storefront/internal/domain/product"
)

// Group is a category together with its products.
type Group struct {
	Category product.Category
	Products []product.Product
}

// GroupByCategory buckets products under their category, keeping category
// order and the catalog order of products. Categories without products are
// omitted, as are products whose category is unknown.
func GroupByCategory(categories []product.Category, products []product.Product) []Group {
	bySlug := make(map[string][]product.Product, len(categories))
	for _, p := range products {
		bySlug[p.Category] = append(bySlug[p.Category], p)
	}

	groups := make([]Group, 0, len(categories))
	for _, c := range categories {
		ps := bySlug[c.Slug]
		if len(ps) == 0 {
			continue
		}
		groups = append(groups, Group{Category: c, Products: ps})
	}
	return groups
}
