package domain

import "time"

// CartLine is a single product line in the cart. A cart holds at most one
// line per product.
type CartLine struct {
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}
