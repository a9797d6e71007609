package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/session"
)

const maxBodySize = 1 << 16

func readBody(w http.ResponseWriter, r *http.Request) (*jx.Decoder, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return jx.DecodeBytes(body), nil
}

// decodeIntField reads the integer value of key from a JSON object.
func decodeIntField(d *jx.Decoder, key string) (int, bool, error) {
	var (
		v     int
		found bool
	)
	err := d.Obj(func(d *jx.Decoder, k string) error {
		if k != key {
			return d.Skip()
		}
		n, err := d.Int()
		if err != nil {
			return errors.Wrap(err, k)
		}
		v, found = n, true
		return nil
	})
	return v, found, err
}

func pathID(r *http.Request) (int, error) {
	return strconv.Atoi(r.PathValue("id"))
}

func (h *Handler) writeCart(w http.ResponseWriter, status int, s *session.Session) {
	writeJSON(w, status, func(e *jx.Encoder) {
		s.Do(func(s *session.Session) { encodeCart(e, s.Cart) })
	})
}

// GetCart returns the session's cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.existingSession(r)
	if !ok {
		writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, cart.New()) })
		return
	}
	h.writeCart(w, http.StatusOK, s)
}

// AddCartItem adds one unit of the product in {"productId": n}.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	d, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, ok, err := decodeIntField(d, "productId")
	if err != nil || !ok {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	p, err := h.catalog.Product(r.Context(), id)
	if err != nil {
		h.writeProductError(w, r, err)
		return
	}

	s := h.session(w, r)
	s.Do(func(s *session.Session) { s.Cart.Add(*p) })
	h.writeCart(w, http.StatusOK, s)
}

// SetCartItemQuantity sets the quantity of a line from {"quantity": n}. A
// quantity of zero or less removes the line.
func (h *Handler) SetCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	d, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	qty, ok, err := decodeIntField(d, "quantity")
	if err != nil || !ok {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return
	}

	s := h.session(w, r)
	s.Do(func(s *session.Session) { s.Cart.SetQuantity(id, qty) })
	h.writeCart(w, http.StatusOK, s)
}

// RemoveCartItem removes one unit of a product, or the whole line with
// ?all=true.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	s := h.session(w, r)
	s.Do(func(s *session.Session) { s.Cart.Remove(id, all) })
	h.writeCart(w, http.StatusOK, s)
}

func decodeCustomer(d *jx.Decoder) (checkout.Customer, error) {
	var c checkout.Customer
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "name":
			c.Name, err = d.Str()
		case "email":
			c.Email, err = d.Str()
		case "address":
			c.Address, err = d.Str()
		case "city":
			c.City, err = d.Str()
		case "postalCode":
			c.PostalCode, err = d.Str()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	return c, err
}

// Checkout places an order for the session's cart and empties it.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	d, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	customer, err := decodeCustomer(d)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer: "+err.Error())
		return
	}

	var receipt *checkout.Receipt
	s := h.session(w, r)
	s.Do(func(s *session.Session) {
		receipt, err = h.checkout.PlaceOrder(s.Cart, customer)
	})
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		zctx.From(r.Context()).Error("Checkout failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	zctx.From(r.Context()).Info("Order placed",
		zap.String("receipt_id", receipt.ID),
		zap.Int("items", receipt.ItemCount),
		zap.String("total", receipt.Total.StringFixed(2)),
	)
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeReceipt(e, receipt) })
}
