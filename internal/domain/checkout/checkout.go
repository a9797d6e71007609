// Package checkout turns a cart into an order receipt.
package checkout

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
)

// ErrEmptyCart is returned when placing an order for a cart with no lines.
var ErrEmptyCart = errors.New("cart is empty")

// Customer holds the shipping details entered at checkout.
type Customer struct {
	Name       string
	Email      string
	Address    string
	City       string
	PostalCode string
}

// Receipt describes a placed order.
type Receipt struct {
	ID        string
	Customer  Customer
	Lines     []cart.Line
	ItemCount int
	Total     decimal.Decimal
	CreatedAt time.Time
}

// Service places orders. Orders are not sent anywhere; the receipt is the
// only record.
type Service struct {
	now   func() time.Time
	newID func() string
}

// NewService creates a checkout Service.
func NewService() *Service {
	return &Service{
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
}

// PlaceOrder builds a receipt from c and empties it.
func (s *Service) PlaceOrder(c *cart.Cart, customer Customer) (*Receipt, error) {
	if c.Len() == 0 {
		return nil, ErrEmptyCart
	}

	r := &Receipt{
		ID:        s.newID(),
		Customer:  customer,
		Lines:     c.Lines(),
		ItemCount: c.ItemCount(),
		Total:     c.Total().Round(2),
		CreatedAt: s.now(),
	}
	c.Clear()
	return r, nil
}
