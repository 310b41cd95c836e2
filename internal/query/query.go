// Package query derives the visible product list from a catalog and the
// current selection.
package query

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/utafrali/storefront/internal/domain"
)

// DeriveView returns the products matching sel, in the order sel asks for.
// The input slice is never modified and the result is always a fresh slice.
// An empty result is returned as a non-nil, zero-length slice.
func DeriveView(products []domain.Product, sel domain.Selection) []domain.Product {
	sel = sel.Normalize()

	// Casers are stateful, so each call gets its own.
	fold := cases.Fold()
	term := fold.String(strings.TrimSpace(sel.SearchTerm))

	matched := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if !matchesCategory(p, sel.Category) {
			continue
		}
		if term != "" && !matchesTerm(fold, p, term) {
			continue
		}
		matched = append(matched, p)
	}

	sortProducts(matched, sel.Sort)
	return matched
}

func matchesCategory(p domain.Product, category string) bool {
	return category == domain.CategoryAll || p.Category == category
}

// matchesTerm checks for a case-insensitive substring hit in the name,
// description or category label. Products without a label match on the slug.
func matchesTerm(fold cases.Caser, p domain.Product, term string) bool {
	category := p.CategoryLabel
	if category == "" {
		category = p.Category
	}
	for _, field := range []string{p.Name, p.Description, category} {
		if strings.Contains(fold.String(field), term) {
			return true
		}
	}
	return false
}

// sortProducts orders matched in place. All sorts are stable so ties keep
// catalog order.
func sortProducts(products []domain.Product, mode domain.SortMode) {
	switch mode {
	case domain.SortPriceLow:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.LessThan(products[j].Price)
		})
	case domain.SortPriceHigh:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.GreaterThan(products[j].Price)
		})
	case domain.SortRating:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Rating > products[j].Rating
		})
	case domain.SortNewest:
		for i, j := 0, len(products)-1; i < j; i, j = i+1, j-1 {
			products[i], products[j] = products[j], products[i]
		}
	default:
		// featured: catalog order
	}
}
