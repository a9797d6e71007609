package product

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item as returned by the catalog API.
// Products are never mutated after they are fetched.
type Product struct {
	ID                 int
	Title              string
	Description        string
	Category           string
	Brand              string // empty when the catalog has no brand for the item
	Price              decimal.Decimal
	DiscountPercentage float64
	Rating             float64
	Stock              int
	Tags               []string
	Thumbnail          string
	Images             []string
	Details            Details
}

// Details holds descriptive metadata that is only ever displayed.
type Details struct {
	Weight       string
	Dimensions   string
	Warranty     string
	Shipping     string
	ReturnPolicy string
}

// HasBrand reports whether the product carries a brand.
func (p *Product) HasBrand() bool {
	return p.Brand != ""
}

// InStock reports whether at least one unit is available.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// Category is a product category keyed by its slug.
type Category struct {
	Slug string
	Name string
	URL  string
}

// Source fetches the catalog from wherever it lives.
type Source interface {
	FetchProducts(ctx context.Context) ([]Product, error)
	FetchCategories(ctx context.Context) ([]Category, error)
	FetchProduct(ctx context.Context, id int) (*Product, error)
}

// NetworkError indicates the catalog could not be reached or answered with
// an unexpected status.
type NetworkError struct {
	Op     string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// DecodeError indicates the catalog answered with a payload that could not
// be parsed.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
