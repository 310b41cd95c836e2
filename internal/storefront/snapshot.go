package storefront

import (
	"slices"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/checkout"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/query"
)

// CartItem is a cart line joined with its product.
type CartItem struct {
	Line      domain.CartLine
	Product   domain.Product
	Known     bool
	LineTotal decimal.Decimal
}

// CheckoutSnapshot is the checkout part of a Snapshot.
type CheckoutSnapshot struct {
	State     checkout.State
	Values    checkout.Form
	Errors    map[checkout.Field]string
	LastOrder *checkout.Order
}

// Snapshot is a consistent copy of a session's state, taken under the lock.
type Snapshot struct {
	SessionID     string
	Selection     domain.Selection
	PendingSearch string
	Categories    []string
	Products      []domain.Product

	CartItems []CartItem
	ItemCount int
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Total     decimal.Decimal

	Wishlist []string

	Surfaces     Surfaces
	ModalProduct *domain.Product
	ModalAdded   bool

	Checkout CheckoutSnapshot

	Toasts     []Toast
	CardLabels []string
}

// Wishlisted reports whether id is in the snapshot's wishlist.
func (s Snapshot) Wishlisted(id string) bool {
	return slices.Contains(s.Wishlist, id)
}

// CardAdded reports whether the product card is showing its "added" label.
func (s Snapshot) CardAdded(id string) bool {
	return slices.Contains(s.CardLabels, id)
}

// Snapshot captures the current state.
func (s *State) Snapshot() Snapshot {
	s.lock()
	defer s.unlock()

	snap := Snapshot{
		SessionID:     s.id,
		Selection:     s.selection,
		PendingSearch: s.pendingSearch,
		Categories:    s.catalog.Categories(),
		Products:      query.DeriveView(s.catalog.All(), s.selection),
		ItemCount:     s.cart.ItemCount(),
		Subtotal:      s.cart.Subtotal(),
		Tax:           s.cart.Tax(),
		Total:         s.cart.Total(),
		Wishlist:      s.wishlist.IDs(),
		Surfaces:      s.surfaces,
		ModalAdded:    s.modalLabel != nil,
		Checkout: CheckoutSnapshot{
			State:  s.checkout.State(),
			Values: s.checkout.Values(),
			Errors: s.checkout.Errors(),
		},
	}

	lines := s.cart.Lines()
	snap.CartItems = make([]CartItem, 0, len(lines))
	for _, l := range lines {
		p, ok := s.catalog.Get(l.ProductID)
		snap.CartItems = append(snap.CartItems, CartItem{
			Line:      l,
			Product:   p,
			Known:     ok,
			LineTotal: s.cart.LineTotal(l),
		})
	}

	if id := s.surfaces.ModalProductID; id != "" {
		if p, ok := s.catalog.Get(id); ok {
			snap.ModalProduct = &p
		}
	}
	if order, ok := s.checkout.LastOrder(); ok {
		snap.Checkout.LastOrder = &order
	}

	snap.Toasts = make([]Toast, 0, len(s.toasts))
	for _, t := range s.toasts {
		snap.Toasts = append(snap.Toasts, t.Toast)
	}

	snap.CardLabels = make([]string, 0, len(s.cardLabels))
	for id := range s.cardLabels {
		snap.CardLabels = append(snap.CardLabels, id)
	}
	sort.Strings(snap.CardLabels)

	return snap
}
