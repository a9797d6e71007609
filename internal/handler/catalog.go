package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/filter"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/session"
)

// CatalogStatus reports the fetch state of the catalog.
func (h *Handler) CatalogStatus(w http.ResponseWriter, _ *http.Request) {
	state := h.catalog.Snapshot()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeState(e, state) })
}

// RefreshCatalog re-fetches the catalog. A failed fetch answers 502 with
// the resulting state; previously loaded products stay available.
func (h *Handler) RefreshCatalog(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	if err := h.catalog.Fetch(r.Context()); err != nil {
		zctx.From(r.Context()).Warn("Catalog refresh failed", zap.Error(err))
		status = http.StatusBadGateway
	}
	state := h.catalog.Snapshot()
	writeJSON(w, status, func(e *jx.Encoder) { encodeState(e, state) })
}

// ListCategories returns all categories.
func (h *Handler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	state := h.catalog.Snapshot()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, c := range state.Categories {
				encodeCategory(e, c)
			}
		})
	})
}

// Home returns every category that has products, with its products.
func (h *Handler) Home(w http.ResponseWriter, _ *http.Request) {
	state := h.catalog.Snapshot()
	groups := catalog.GroupByCategory(state.Categories, state.Products)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) { e.Str(string(state.Status)) })
			if state.Err != "" {
				e.Field("error", func(e *jx.Encoder) { e.Str(state.Err) })
			}
			e.Field("groups", func(e *jx.Encoder) { h.encodeGroups(e, groups) })
		})
	})
}

// requestSpec combines the session filter spec with query overrides. The
// overrides apply to this request only.
func (h *Handler) requestSpec(r *http.Request) filter.Spec {
	var spec filter.Spec
	if s, ok := h.existingSession(r); ok {
		s.Do(func(s *session.Session) { spec = s.Filters })
	}
	if p := queryPatch(r.URL.Query()); !p.IsEmpty() {
		spec = spec.Merge(p)
	}
	return spec
}

// ListProducts returns the filtered and sorted product list.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	spec := h.requestSpec(r)
	state := h.catalog.Snapshot()
	products := filter.Apply(state.Products, spec)

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("status", func(e *jx.Encoder) { e.Str(string(state.Status)) })
			if state.Err != "" {
				e.Field("error", func(e *jx.Encoder) { e.Str(state.Err) })
			}
			e.Field("count", func(e *jx.Encoder) { e.Int(len(products)) })
			e.Field("filters", func(e *jx.Encoder) { encodeSpec(e, spec) })
			e.Field("active", func(e *jx.Encoder) { encodeActive(e, spec.Active()) })
			e.Field("products", func(e *jx.Encoder) { h.encodeProducts(e, products) })
		})
	})
}

// ProductFacets summarizes the products of the selected category so a
// client can offer brand, tag, price and availability filters.
func (h *Handler) ProductFacets(w http.ResponseWriter, r *http.Request) {
	spec := h.requestSpec(r)
	scoped := filter.Apply(h.catalog.Snapshot().Products, filter.Spec{Category: spec.Category})
	facets := filter.ComputeFacets(scoped)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeFacets(e, facets) })
}

// GetProduct returns a single product.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	p, err := h.catalog.Product(r.Context(), id)
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { h.encodeProduct(e, p) })
}

func (h *Handler) writeProductError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, product.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	var (
		netErr *product.NetworkError
		decErr *product.DecodeError
	)
	if errors.As(err, &netErr) || errors.As(err, &decErr) {
		zctx.From(r.Context()).Warn("Catalog lookup failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "catalog unavailable")
		return
	}

	zctx.From(r.Context()).Error("Product lookup failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
