// Package catalog holds the immutable product catalog a storefront is built on.
package catalog

import (
	"fmt"

	"github.com/utafrali/storefront/internal/domain"
)

// Catalog is an ordered, read-only sequence of products indexed by id.
// Catalog order is the "featured" order and its reverse is the "newest" order.
type Catalog struct {
	products []domain.Product
	index    map[string]int
}

// New builds a catalog from the given products. Product ids must be unique,
// prices positive and ratings within [0, 5].
func New(products []domain.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]domain.Product, len(products)),
		index:    make(map[string]int, len(products)),
	}
	copy(c.products, products)

	for i := range c.products {
		p := &c.products[i]
		if p.ID == "" {
			return nil, fmt.Errorf("product at position %d: missing id", i)
		}
		if _, dup := c.index[p.ID]; dup {
			return nil, fmt.Errorf("product %s: duplicate id", p.ID)
		}
		if !p.Price.IsPositive() {
			return nil, fmt.Errorf("product %s: price must be positive", p.ID)
		}
		if p.OriginalPrice != nil && !p.OriginalPrice.GreaterThan(p.Price) {
			return nil, fmt.Errorf("product %s: original price must exceed price", p.ID)
		}
		if p.Rating < 0 || p.Rating > domain.MaxRating {
			return nil, fmt.Errorf("product %s: rating %v out of range", p.ID, p.Rating)
		}
		if p.Reviews < 0 {
			return nil, fmt.Errorf("product %s: negative review count", p.ID)
		}
		c.index[p.ID] = i
	}
	return c, nil
}

// Get returns the product with the given id.
func (c *Catalog) Get(id string) (domain.Product, bool) {
	i, ok := c.index[id]
	if !ok {
		return domain.Product{}, false
	}
	return c.products[i], true
}

// Contains reports whether a product with the given id exists.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}

// All returns the products in catalog order. The returned slice is a copy.
func (c *Catalog) All() []domain.Product {
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

// Len returns the number of products.
func (c *Catalog) Len() int {
	return len(c.products)
}

// Categories returns "all" followed by every category in first-appearance order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	out := []string{domain.CategoryAll}
	for _, p := range c.products {
		if _, ok := seen[p.Category]; ok || p.Category == "" {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}
