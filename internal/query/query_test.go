package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
)

func ids(products []domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func seed(t *testing.T) []domain.Product {
	t.Helper()
	c, err := catalog.Seed()
	require.NoError(t, err)
	return c.All()
}

// ============================================================================
// Filter Tests
// ============================================================================

func TestDeriveView_DefaultIsCatalogOrder(t *testing.T) {
	products := seed(t)
	got := DeriveView(products, domain.DefaultSelection())
	assert.Equal(t, ids(products), ids(got))
}

func TestDeriveView_CategoryFilter(t *testing.T) {
	got := DeriveView(seed(t), domain.Selection{Category: "electronics"})
	assert.Equal(t, []string{"1", "2", "4", "9"}, ids(got))
}

func TestDeriveView_EmptyCategoryMeansAll(t *testing.T) {
	products := seed(t)
	got := DeriveView(products, domain.Selection{})
	assert.Len(t, got, len(products))
}

func TestDeriveView_SearchIsCaseInsensitive(t *testing.T) {
	products := seed(t)

	got := DeriveView(products, domain.Selection{SearchTerm: "WIRELESS"})
	assert.Equal(t, []string{"1", "9"}, ids(got))

	// category text is searched too
	got = DeriveView(products, domain.Selection{SearchTerm: "Beauty"})
	assert.Equal(t, []string{"7"}, ids(got))
}

func TestDeriveView_SearchMatchesCategoryLabel(t *testing.T) {
	c, err := catalog.Parse([]byte(`[
		{"id": "r", "name": "Rake", "category": "Home & Garden", "price": 12, "rating": 4},
		{"id": "m", "name": "Mug", "category": "Kitchen", "price": 8, "rating": 4}
	]`), catalog.FormatJSON)
	require.NoError(t, err)
	products := c.All()

	assert.Equal(t, []string{"r"}, ids(DeriveView(products, domain.Selection{SearchTerm: "home & garden"})))
	assert.Equal(t, []string{"r"}, ids(DeriveView(products, domain.Selection{SearchTerm: "& Gar"})))
	assert.Empty(t, DeriveView(products, domain.Selection{SearchTerm: "home-garden"}))
	assert.Equal(t, []string{"r"}, ids(DeriveView(products, domain.Selection{Category: "home-garden"})))
}

func TestDeriveView_SearchFallsBackToCategorySlug(t *testing.T) {
	products := []domain.Product{{ID: "a", Name: "Lamp", Category: "lighting"}}
	assert.Equal(t, []string{"a"}, ids(DeriveView(products, domain.Selection{SearchTerm: "light"})))
}

func TestDeriveView_SearchAndCategoryCombine(t *testing.T) {
	got := DeriveView(seed(t), domain.Selection{Category: "clothing", SearchTerm: "cotton"})
	assert.Equal(t, []string{"3"}, ids(got))
}

func TestDeriveView_NoMatches(t *testing.T) {
	got := DeriveView(seed(t), domain.Selection{SearchTerm: "zzz-no-such-product"})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

// ============================================================================
// Sort Tests
// ============================================================================

func TestDeriveView_PriceLow(t *testing.T) {
	got := DeriveView(seed(t), domain.Selection{Sort: domain.SortPriceLow})
	require.Len(t, got, 12)
	assert.Equal(t, "19.99", got[0].Price.StringFixed(2))
	assert.Equal(t, "599.99", got[len(got)-1].Price.StringFixed(2))
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Price.LessThan(got[i-1].Price))
	}
}

func TestDeriveView_PriceHighIsReverseOfPriceLow(t *testing.T) {
	products := seed(t)
	low := ids(DeriveView(products, domain.Selection{Sort: domain.SortPriceLow}))
	high := ids(DeriveView(products, domain.Selection{Sort: domain.SortPriceHigh}))

	// all seed prices are distinct, so the orders are exact mirrors
	for i := range low {
		assert.Equal(t, low[i], high[len(high)-1-i])
	}
}

func TestDeriveView_RatingIsStable(t *testing.T) {
	got := DeriveView(seed(t), domain.Selection{Sort: domain.SortRating})
	assert.Equal(t, "4", got[0].ID)
	// 1, 8 and 12 share 4.8 and keep catalog order
	assert.Equal(t, []string{"1", "8", "12"}, ids(got[1:4]))
}

func TestDeriveView_NewestIsReverseCatalogOrder(t *testing.T) {
	got := DeriveView(seed(t), domain.Selection{Category: "electronics", Sort: domain.SortNewest})
	assert.Equal(t, []string{"9", "4", "2", "1"}, ids(got))
}

func TestDeriveView_UnknownSortIsFeatured(t *testing.T) {
	products := seed(t)
	got := DeriveView(products, domain.Selection{Sort: "cheapest-first"})
	assert.Equal(t, ids(products), ids(got))
}

func TestDeriveView_DoesNotMutateInput(t *testing.T) {
	products := seed(t)
	before := ids(products)
	_ = DeriveView(products, domain.Selection{Sort: domain.SortPriceHigh})
	_ = DeriveView(products, domain.Selection{Sort: domain.SortNewest})
	assert.Equal(t, before, ids(products))
}
