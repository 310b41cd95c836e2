// Package cart implements the shopping cart store: one line per product with
// derived subtotal, tax and total.
package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

const (
	// MinQuantity and MaxQuantity bound the quantity of a single cart line.
	MinQuantity = 1
	MaxQuantity = 10

	// Currency is the only currency the storefront prices in.
	Currency = "USD"
)

// TaxRate is the flat sales tax applied to the subtotal.
var TaxRate = decimal.RequireFromString("0.08")

// ProductLookup resolves product ids against the catalog.
type ProductLookup interface {
	Get(id string) (domain.Product, bool)
}

// Option configures a Cart.
type Option func(*Cart)

// WithClock overrides the clock used to stamp new lines.
func WithClock(now func() time.Time) Option {
	return func(c *Cart) { c.now = now }
}

// Cart is the cart store. It is not safe for concurrent use; the owning
// storefront state serializes access.
type Cart struct {
	products ProductLookup
	lines    []domain.CartLine
	now      func() time.Time
}

// New creates an empty cart backed by the given product lookup.
func New(products ProductLookup, opts ...Option) *Cart {
	c := &Cart{products: products, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClampQuantity bounds q to [MinQuantity, MaxQuantity].
func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}

func (c *Cart) find(productID string) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Add puts quantity units of a product into the cart, merging with an
// existing line. The merged quantity is capped at MaxQuantity. Unknown or
// out-of-stock products and quantities below one are ignored. Add reports
// whether the cart changed.
func (c *Cart) Add(productID string, quantity int) bool {
	if quantity < MinQuantity {
		return false
	}
	p, ok := c.products.Get(productID)
	if !ok || !p.InStock {
		return false
	}

	if i := c.find(productID); i >= 0 {
		next := ClampQuantity(c.lines[i].Quantity + quantity)
		if next == c.lines[i].Quantity {
			return false
		}
		c.lines[i].Quantity = next
		return true
	}

	c.lines = append(c.lines, domain.CartLine{
		ProductID: productID,
		Quantity:  ClampQuantity(quantity),
		AddedAt:   c.now(),
	})
	return true
}

// Remove deletes the line for productID if present.
func (c *Cart) Remove(productID string) bool {
	i := c.find(productID)
	if i < 0 {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return true
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero or
// less removes the line; anything above MaxQuantity is capped.
func (c *Cart) UpdateQuantity(productID string, quantity int) bool {
	if quantity <= 0 {
		return c.Remove(productID)
	}
	i := c.find(productID)
	if i < 0 {
		return false
	}
	next := ClampQuantity(quantity)
	if next == c.lines[i].Quantity {
		return false
	}
	c.lines[i].Quantity = next
	return true
}

// Increment raises a line's quantity by one, up to MaxQuantity.
func (c *Cart) Increment(productID string) bool {
	i := c.find(productID)
	if i < 0 || c.lines[i].Quantity >= MaxQuantity {
		return false
	}
	c.lines[i].Quantity++
	return true
}

// Decrement lowers a line's quantity by one. A line at MinQuantity is left as
// is; removal goes through Remove.
func (c *Cart) Decrement(productID string) bool {
	i := c.find(productID)
	if i < 0 || c.lines[i].Quantity <= MinQuantity {
		return false
	}
	c.lines[i].Quantity--
	return true
}

// Clear empties the cart.
func (c *Cart) Clear() bool {
	if len(c.lines) == 0 {
		return false
	}
	c.lines = nil
	return true
}

// Replace swaps the cart contents for hydrated lines. Lines with a quantity of
// zero or less are dropped, larger quantities are capped and duplicate
// products keep their first line. Lines for products missing from the catalog
// are kept and contribute nothing to the totals.
func (c *Cart) Replace(lines []domain.CartLine) {
	c.lines = make([]domain.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity <= 0 || c.find(l.ProductID) >= 0 {
			continue
		}
		l.Quantity = ClampQuantity(l.Quantity)
		c.lines = append(c.lines, l)
	}
}

// Line returns the line for productID.
func (c *Cart) Line(productID string) (domain.CartLine, bool) {
	if i := c.find(productID); i >= 0 {
		return c.lines[i], true
	}
	return domain.CartLine{}, false
}

// Contains reports whether the cart has a line for productID.
func (c *Cart) Contains(productID string) bool {
	return c.find(productID) >= 0
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// ItemCount returns the total number of units across all lines.
func (c *Cart) ItemCount() int {
	var n int
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// LineTotal returns price * quantity for a line, or zero when the product is
// no longer in the catalog.
func (c *Cart) LineTotal(l domain.CartLine) decimal.Decimal {
	p, ok := c.products.Get(l.ProductID)
	if !ok {
		return decimal.Zero
	}
	return p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Subtotal is the sum of all line totals at current catalog prices.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(c.LineTotal(l))
	}
	return sum
}

// Tax is Subtotal * TaxRate, unrounded.
func (c *Cart) Tax() decimal.Decimal {
	return c.Subtotal().Mul(TaxRate)
}

// Total is Subtotal + Tax, unrounded.
func (c *Cart) Total() decimal.Decimal {
	sub := c.Subtotal()
	return sub.Add(sub.Mul(TaxRate))
}

// FormatAmount renders an amount for display, rounded half away from zero to
// two places.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
