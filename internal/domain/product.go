package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// MaxRating is the upper bound of a product rating.
const MaxRating = 5

// Product is an immutable catalog record. Category is the slug used for
// filtering; CategoryLabel is the name as written in the catalog.
type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Category      string           `json:"category"`
	CategoryLabel string           `json:"categoryLabel,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Rating        float64          `json:"rating"`
	Reviews       int              `json:"reviews"`
	InStock       bool             `json:"inStock"`
	Image         string           `json:"image"`
	Images        []string         `json:"images,omitempty"`
	Features      []string         `json:"features,omitempty"`
}

// HasDiscount reports whether the product carries an original price above its
// current price.
func (p *Product) HasDiscount() bool {
	return p.OriginalPrice != nil && p.OriginalPrice.GreaterThan(p.Price)
}

// DiscountPercent returns round((1 - price/originalPrice) * 100), or 0 when the
// product is not discounted.
func (p *Product) DiscountPercent() int {
	if !p.HasDiscount() {
		return 0
	}
	ratio := p.Price.Div(*p.OriginalPrice)
	pct := decimal.NewFromInt(1).Sub(ratio).Mul(decimal.NewFromInt(100)).Round(0)
	return int(pct.IntPart())
}

// Stars is the star-rating breakdown shown next to a product.
type Stars struct {
	Full  int `json:"full"`
	Half  int `json:"half"`
	Empty int `json:"empty"`
}

// Stars splits the rating into full, half and empty stars. A half star is
// shown when the fractional part is at least 0.5.
func (p *Product) Stars() Stars {
	r := math.Max(0, math.Min(p.Rating, MaxRating))
	full := int(math.Floor(r))
	half := 0
	if r-math.Floor(r) >= 0.5 {
		half = 1
	}
	return Stars{Full: full, Half: half, Empty: MaxRating - full - half}
}

// Gallery returns the detail images, falling back to the primary image.
func (p *Product) Gallery() []string {
	if len(p.Images) > 0 {
		return p.Images
	}
	if p.Image == "" {
		return nil
	}
	return []string{p.Image}
}
