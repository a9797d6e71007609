package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/filter"
	"github.com/xenking/storefront/internal/domain/product"
)

func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	var e jx.Encoder
	fn(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

func encodeMoney(e *jx.Encoder, d decimal.Decimal) {
	e.Raw([]byte(d.StringFixed(2)))
}

func encodeStrings(e *jx.Encoder, ss []string) {
	e.Arr(func(e *jx.Encoder) {
		for _, s := range ss {
			e.Str(s)
		}
	})
}

// imageURL prefixes relative image paths with the configured base URL.
func (h *Handler) imageURL(path string) string {
	if path == "" || h.imageBaseURL == "" || strings.Contains(path, "://") {
		return path
	}
	return strings.TrimRight(h.imageBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

func (h *Handler) encodeProduct(e *jx.Encoder, p *product.Product) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int(p.ID) })
		e.Field("title", func(e *jx.Encoder) { e.Str(p.Title) })
		e.Field("description", func(e *jx.Encoder) { e.Str(p.Description) })
		e.Field("category", func(e *jx.Encoder) { e.Str(p.Category) })
		if p.HasBrand() {
			e.Field("brand", func(e *jx.Encoder) { e.Str(p.Brand) })
		}
		e.Field("price", func(e *jx.Encoder) { encodeMoney(e, p.Price) })
		e.Field("discountPercentage", func(e *jx.Encoder) { e.Float64(p.DiscountPercentage) })
		e.Field("rating", func(e *jx.Encoder) { e.Float64(p.Rating) })
		e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
		e.Field("tags", func(e *jx.Encoder) { encodeStrings(e, p.Tags) })
		e.Field("thumbnail", func(e *jx.Encoder) { e.Str(h.imageURL(p.Thumbnail)) })
		e.Field("images", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, img := range p.Images {
					e.Str(h.imageURL(img))
				}
			})
		})
		e.Field("details", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("weight", func(e *jx.Encoder) { e.Str(p.Details.Weight) })
				e.Field("dimensions", func(e *jx.Encoder) { e.Str(p.Details.Dimensions) })
				e.Field("warranty", func(e *jx.Encoder) { e.Str(p.Details.Warranty) })
				e.Field("shipping", func(e *jx.Encoder) { e.Str(p.Details.Shipping) })
				e.Field("returnPolicy", func(e *jx.Encoder) { e.Str(p.Details.ReturnPolicy) })
			})
		})
	})
}

func (h *Handler) encodeProducts(e *jx.Encoder, ps []product.Product) {
	e.Arr(func(e *jx.Encoder) {
		for i := range ps {
			h.encodeProduct(e, &ps[i])
		}
	})
}

func encodeCategory(e *jx.Encoder, c product.Category) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("slug", func(e *jx.Encoder) { e.Str(c.Slug) })
		e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
		e.Field("url", func(e *jx.Encoder) { e.Str(c.URL) })
	})
}

func (h *Handler) encodeGroups(e *jx.Encoder, groups []catalog.Group) {
	e.Arr(func(e *jx.Encoder) {
		for _, g := range groups {
			e.Obj(func(e *jx.Encoder) {
				e.Field("category", func(e *jx.Encoder) { encodeCategory(e, g.Category) })
				e.Field("products", func(e *jx.Encoder) { h.encodeProducts(e, g.Products) })
			})
		}
	})
}

func encodeSpec(e *jx.Encoder, s filter.Spec) {
	optDecimal := func(e *jx.Encoder, d decimal.NullDecimal) {
		if !d.Valid {
			e.Null()
			return
		}
		e.Raw([]byte(d.Decimal.String()))
	}
	e.Obj(func(e *jx.Encoder) {
		e.Field("category", func(e *jx.Encoder) { e.Str(s.Category) })
		e.Field("subcategory", func(e *jx.Encoder) { e.Str(s.Subcategory) })
		e.Field("brand", func(e *jx.Encoder) { e.Str(s.Brand) })
		e.Field("searchTerm", func(e *jx.Encoder) { e.Str(s.SearchTerm) })
		e.Field("minPrice", func(e *jx.Encoder) { optDecimal(e, s.MinPrice) })
		e.Field("maxPrice", func(e *jx.Encoder) { optDecimal(e, s.MaxPrice) })
		e.Field("inStock", func(e *jx.Encoder) { e.Bool(s.InStock) })
		e.Field("sortBy", func(e *jx.Encoder) { e.Str(string(filter.ParseSortBy(string(s.SortBy)))) })
	})
}

func encodeActive(e *jx.Encoder, active []filter.Active) {
	e.Arr(func(e *jx.Encoder) {
		for _, a := range active {
			e.Obj(func(e *jx.Encoder) {
				e.Field("key", func(e *jx.Encoder) { e.Str(a.Key) })
				e.Field("value", func(e *jx.Encoder) { e.Str(a.Value) })
			})
		}
	})
}

func encodeOptions(e *jx.Encoder, opts []filter.Option) {
	e.Arr(func(e *jx.Encoder) {
		for _, o := range opts {
			e.Obj(func(e *jx.Encoder) {
				e.Field("value", func(e *jx.Encoder) { e.Str(o.Value) })
				e.Field("count", func(e *jx.Encoder) { e.Int(o.Count) })
			})
		}
	})
}

func encodeFacets(e *jx.Encoder, f filter.Facets) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("availability", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("inStock", func(e *jx.Encoder) { e.Int(f.InStock) })
				e.Field("outOfStock", func(e *jx.Encoder) { e.Int(f.OutOfStock) })
			})
		})
		e.Field("priceRange", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("min", func(e *jx.Encoder) { encodeMoney(e, f.MinPrice) })
				e.Field("max", func(e *jx.Encoder) { encodeMoney(e, f.MaxPrice) })
			})
		})
		e.Field("brands", func(e *jx.Encoder) { encodeOptions(e, f.Brands) })
		e.Field("categories", func(e *jx.Encoder) { encodeOptions(e, f.Categories) })
		e.Field("tags", func(e *jx.Encoder) { encodeOptions(e, f.Tags) })
	})
}

func encodeState(e *jx.Encoder, s catalog.State) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(string(s.Status)) })
		if s.Err != "" {
			e.Field("error", func(e *jx.Encoder) { e.Str(s.Err) })
		}
		e.Field("products", func(e *jx.Encoder) { e.Int(len(s.Products)) })
		e.Field("categories", func(e *jx.Encoder) { e.Int(len(s.Categories)) })
		if !s.FetchedAt.IsZero() {
			e.Field("fetchedAt", func(e *jx.Encoder) { e.Str(s.FetchedAt.UTC().Format(time.RFC3339)) })
		}
	})
}

func encodeLines(e *jx.Encoder, lines []cart.Line) {
	e.Arr(func(e *jx.Encoder) {
		for _, l := range lines {
			e.Obj(func(e *jx.Encoder) {
				e.Field("productId", func(e *jx.Encoder) { e.Int(l.ProductID) })
				e.Field("title", func(e *jx.Encoder) { e.Str(l.Title) })
				e.Field("thumbnail", func(e *jx.Encoder) { e.Str(l.Thumbnail) })
				e.Field("unitPrice", func(e *jx.Encoder) { encodeMoney(e, l.UnitPrice) })
				e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
				e.Field("subtotal", func(e *jx.Encoder) { encodeMoney(e, l.Subtotal()) })
			})
		}
	})
}

func encodeCart(e *jx.Encoder, c *cart.Cart) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("lines", func(e *jx.Encoder) { encodeLines(e, c.Lines()) })
		e.Field("itemCount", func(e *jx.Encoder) { e.Int(c.ItemCount()) })
		e.Field("total", func(e *jx.Encoder) { encodeMoney(e, c.Total()) })
	})
}

func encodeReceipt(e *jx.Encoder, r *checkout.Receipt) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(r.ID) })
		e.Field("customer", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("name", func(e *jx.Encoder) { e.Str(r.Customer.Name) })
				e.Field("email", func(e *jx.Encoder) { e.Str(r.Customer.Email) })
				e.Field("address", func(e *jx.Encoder) { e.Str(r.Customer.Address) })
				e.Field("city", func(e *jx.Encoder) { e.Str(r.Customer.City) })
				e.Field("postalCode", func(e *jx.Encoder) { e.Str(r.Customer.PostalCode) })
			})
		})
		e.Field("lines", func(e *jx.Encoder) { encodeLines(e, r.Lines) })
		e.Field("itemCount", func(e *jx.Encoder) { e.Int(r.ItemCount) })
		e.Field("total", func(e *jx.Encoder) { encodeMoney(e, r.Total) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(r.CreatedAt.UTC().Format(time.RFC3339)) })
	})
}
