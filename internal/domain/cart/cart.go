// Package cart keeps the quantity of each product a shopper intends to buy.
//
// A Cart is owned by a single caller and is not safe for concurrent use.
package cart

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

// Line is one product's aggregated quantity in the cart. Title, Thumbnail
// and UnitPrice are captured when the product is first added.
type Line struct {
	ProductID int
	Title     string
	Thumbnail string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal returns Quantity * UnitPrice.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds at most one line per product, in the order products were
// first added. A line never has a quantity below 1.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

func (c *Cart) index(id int) int {
	return slices.IndexFunc(c.lines, func(l Line) bool { return l.ProductID == id })
}

// Add puts one unit of p into the cart. An existing line keeps the unit
// price it was created with.
func (c *Cart) Add(p product.Product) {
	if i := c.index(p.ID); i >= 0 {
		c.lines[i].Quantity++
		return
	}
	c.lines = append(c.lines, Line{
		ProductID: p.ID,
		Title:     p.Title,
		Thumbnail: p.Thumbnail,
		UnitPrice: p.Price,
		Quantity:  1,
	})
}

// Remove takes one unit of product id out of the cart, or the whole line
// when removeAll is set. A line left with no units is deleted. Removing a
// product that is not in the cart does nothing.
func (c *Cart) Remove(id int, removeAll bool) {
	i := c.index(id)
	if i < 0 {
		return
	}
	if !removeAll && c.lines[i].Quantity > 1 {
		c.lines[i].Quantity--
		return
	}
	c.lines = slices.Delete(c.lines, i, i+1)
}

// SetQuantity corrects the quantity of an existing line. A quantity of zero
// or less deletes the line. Products not in the cart are not added.
func (c *Cart) SetQuantity(id, quantity int) {
	if quantity <= 0 {
		c.Remove(id, true)
		return
	}
	if i := c.index(id); i >= 0 {
		c.lines[i].Quantity = quantity
	}
}

// Line returns the line for product id.
func (c *Cart) Line(id int) (Line, bool) {
	if i := c.index(id); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

// Lines returns a copy of all lines in insertion order.
func (c *Cart) Lines() []Line {
	return slices.Clone(c.lines)
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

// Total returns the sum of all line subtotals.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount returns the number of units across all lines.
func (c *Cart) ItemCount() int {
	var n int
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = nil
}
