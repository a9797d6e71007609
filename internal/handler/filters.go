package handler

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/filter"
	"github.com/xenking/storefront/internal/session"
)

// queryPatch reads filter overrides from query parameters. Only parameters
// that are present are applied. Malformed numbers and booleans lift the
// corresponding constraint instead of failing the request.
func queryPatch(q url.Values) filter.Patch {
	var p filter.Patch
	str := func(key string) *string {
		if !q.Has(key) {
			return nil
		}
		v := q.Get(key)
		return &v
	}
	price := func(key string) *decimal.NullDecimal {
		if !q.Has(key) {
			return nil
		}
		d, err := decimal.NewFromString(q.Get(key))
		return &decimal.NullDecimal{Decimal: d, Valid: err == nil}
	}

	p.Category = str("category")
	p.Subcategory = str("subcategory")
	p.Brand = str("brand")
	p.SearchTerm = str("q")
	p.MinPrice = price("minPrice")
	p.MaxPrice = price("maxPrice")
	if q.Has("inStock") {
		v, _ := strconv.ParseBool(q.Get("inStock"))
		p.InStock = &v
	}
	if q.Has("sortBy") {
		v := filter.SortBy(q.Get("sortBy"))
		p.SortBy = &v
	}
	return p
}

// decodePatch reads a JSON filter patch. Absent keys are left nil; null or
// malformed prices clear the bound.
func decodePatch(d *jx.Decoder) (filter.Patch, error) {
	var p filter.Patch
	str := func(d *jx.Decoder) (*string, error) {
		if d.Next() == jx.Null {
			v := ""
			return &v, d.Null()
		}
		v, err := d.Str()
		return &v, err
	}
	price := func(d *jx.Decoder) (*decimal.NullDecimal, error) {
		var raw string
		switch d.Next() {
		case jx.Number:
			n, err := d.Num()
			if err != nil {
				return nil, err
			}
			raw = string(n)
		case jx.String:
			s, err := d.Str()
			if err != nil {
				return nil, err
			}
			raw = s
		default:
			return &decimal.NullDecimal{}, d.Skip()
		}
		v, err := decimal.NewFromString(raw)
		return &decimal.NullDecimal{Decimal: v, Valid: err == nil}, nil
	}

	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "category":
			p.Category, err = str(d)
		case "subcategory":
			p.Subcategory, err = str(d)
		case "brand":
			p.Brand, err = str(d)
		case "searchTerm":
			p.SearchTerm, err = str(d)
		case "minPrice":
			p.MinPrice, err = price(d)
		case "maxPrice":
			p.MaxPrice, err = price(d)
		case "inStock":
			var v bool
			if d.Next() == jx.Bool {
				v, err = d.Bool()
			} else {
				err = d.Skip()
			}
			p.InStock = &v
		case "sortBy":
			var s *string
			s, err = str(d)
			if s != nil {
				v := filter.SortBy(*s)
				p.SortBy = &v
			}
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	return p, err
}

// GetFilters returns the session's filter spec.
func (h *Handler) GetFilters(w http.ResponseWriter, r *http.Request) {
	var spec filter.Spec
	if s, ok := h.existingSession(r); ok {
		s.Do(func(s *session.Session) { spec = s.Filters })
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSpec(e, spec) })
}

// PatchFilters merges the request body into the session's filter spec.
func (h *Handler) PatchFilters(w http.ResponseWriter, r *http.Request) {
	d, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := decodePatch(d)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter: "+err.Error())
		return
	}

	var spec filter.Spec
	h.session(w, r).Do(func(s *session.Session) {
		s.Filters = s.Filters.Merge(patch)
		spec = s.Filters
	})
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSpec(e, spec) })
}

// ResetFilters clears the session's filter spec. Without a session there is
// nothing to clear.
func (h *Handler) ResetFilters(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.existingSession(r); ok {
		s.Do(func(s *session.Session) { s.Filters = filter.Spec{} })
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeSpec(e, filter.Spec{}) })
}
