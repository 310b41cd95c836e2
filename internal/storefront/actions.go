package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/cart"
	"github.com/utafrali/storefront/internal/checkout"
	"github.com/utafrali/storefront/internal/domain"
)

// ---------------------------------------------------------------------------
// Selection
// ---------------------------------------------------------------------------

// SetSelection replaces the whole selection at once. Any pending debounced
// search is dropped.
func (s *State) SetSelection(sel domain.Selection) {
	s.lock()
	defer s.unlock()

	s.cancelSearch()
	sel = sel.Normalize()
	s.pendingSearch = sel.SearchTerm
	if sel == s.selection {
		return
	}
	s.selection = sel
	s.emit(Change{Kind: ChangeSelection})
}

// SetCategory changes the category filter.
func (s *State) SetCategory(category string) {
	s.lock()
	defer s.unlock()

	sel := s.selection
	sel.Category = category
	s.applySelection(sel.Normalize())
}

// SetSort changes the sort mode. Unknown modes fall back to featured.
func (s *State) SetSort(mode domain.SortMode) {
	s.lock()
	defer s.unlock()

	sel := s.selection
	sel.Sort = mode
	s.applySelection(sel.Normalize())
}

func (s *State) applySelection(sel domain.Selection) {
	if sel == s.selection {
		return
	}
	s.selection = sel
	s.emit(Change{Kind: ChangeSelection})
}

// SearchInput records a keystroke in the search box. The term is applied
// once input has been quiet for the debounce period; a newer keystroke
// supersedes an older one.
func (s *State) SearchInput(term string) {
	s.lock()
	defer s.unlock()

	s.pendingSearch = term
	s.searchSeq++
	seq := s.searchSeq
	s.search.Trigger(func() {
		s.lock()
		defer s.unlock()

		// a timer that fired while a later call held the lock is stale
		if s.closed || s.searchSeq != seq {
			return
		}
		sel := s.selection
		sel.SearchTerm = term
		s.applySelection(sel)
	})
}

// SubmitSearch applies a search term immediately, as the search button does.
func (s *State) SubmitSearch(term string) {
	s.lock()
	defer s.unlock()

	s.cancelSearch()
	s.pendingSearch = term
	sel := s.selection
	sel.SearchTerm = term
	s.applySelection(sel)
}

// cancelSearch drops the pending debounced search, including one whose timer
// has already fired and is waiting for the lock. Callers hold the lock.
func (s *State) cancelSearch() {
	s.searchSeq++
	s.search.Cancel()
}

// ---------------------------------------------------------------------------
// Cart
// ---------------------------------------------------------------------------

// AddToCart adds quantity units of a product. Unknown and out-of-stock
// products are ignored. It reports whether the cart changed.
func (s *State) AddToCart(ctx context.Context, productID string, quantity int) bool {
	s.lock()
	defer s.unlock()

	if !s.addToCart(ctx, productID, quantity) {
		return false
	}
	s.flashCardLabel(productID)
	return true
}

func (s *State) addToCart(ctx context.Context, productID string, quantity int) bool {
	p, ok := s.catalog.Get(productID)
	if !ok || !p.InStock || quantity < cart.MinQuantity {
		return false
	}

	if !s.cart.Add(productID, quantity) {
		// only reachable when the line is already at the cap
		s.notify("Quantity Limit",
			fmt.Sprintf("You can add at most %d of %s", cart.MaxQuantity, p.Name), ToastWarning)
		return false
	}

	s.persistCart(ctx)
	s.emit(s.cartChange(productID))
	s.notify("Added to Cart", p.Name+" has been added to your cart", ToastSuccess)

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)
	return true
}

// RemoveFromCart deletes a cart line.
func (s *State) RemoveFromCart(ctx context.Context, productID string) bool {
	s.lock()
	defer s.unlock()
	return s.removeFromCart(ctx, productID)
}

func (s *State) removeFromCart(ctx context.Context, productID string) bool {
	if !s.cart.Remove(productID) {
		return false
	}
	s.persistCart(ctx)
	s.emit(s.cartChange(productID))
	s.notify("Removed from Cart", "Item has been removed from your cart", ToastSuccess)

	s.logger.InfoContext(ctx, "item removed from cart", slog.String("product_id", productID))
	return true
}

// UpdateQuantity sets a line's quantity. Zero or less removes the line;
// anything above the cap is clamped.
func (s *State) UpdateQuantity(ctx context.Context, productID string, quantity int) bool {
	s.lock()
	defer s.unlock()

	if quantity <= 0 {
		return s.removeFromCart(ctx, productID)
	}
	if !s.cart.UpdateQuantity(productID, quantity) {
		return false
	}
	s.persistCart(ctx)
	s.emit(s.cartChange(productID))
	return true
}

// IncrementLine raises a line's quantity by one, up to the cap.
func (s *State) IncrementLine(ctx context.Context, productID string) bool {
	s.lock()
	defer s.unlock()

	if !s.cart.Increment(productID) {
		return false
	}
	s.persistCart(ctx)
	s.emit(s.cartChange(productID))
	return true
}

// DecrementLine lowers a line's quantity by one. It never removes the line.
func (s *State) DecrementLine(ctx context.Context, productID string) bool {
	s.lock()
	defer s.unlock()

	if !s.cart.Decrement(productID) {
		return false
	}
	s.persistCart(ctx)
	s.emit(s.cartChange(productID))
	return true
}

// OpenCart shows the cart sidebar.
func (s *State) OpenCart() {
	s.lock()
	defer s.unlock()
	s.setCartOpen(true)
}

// CloseCart hides the cart sidebar.
func (s *State) CloseCart() {
	s.lock()
	defer s.unlock()
	s.setCartOpen(false)
}

func (s *State) setCartOpen(open bool) {
	if s.surfaces.CartOpen == open {
		return
	}
	s.surfaces.CartOpen = open
	s.emit(Change{Kind: ChangeSurfaces})
}

// ---------------------------------------------------------------------------
// Wishlist
// ---------------------------------------------------------------------------

// ToggleWishlist flips a product's wishlist membership and returns the new
// membership. ok is false when the product is unknown.
func (s *State) ToggleWishlist(ctx context.Context, productID string) (member, ok bool) {
	s.lock()
	defer s.unlock()

	p, found := s.catalog.Get(productID)
	if !found && !s.wishlist.Contains(productID) {
		return false, false
	}

	member = s.wishlist.Toggle(productID)
	s.persistWishlist(ctx)
	s.emit(Change{Kind: ChangeWishlist, ProductID: productID, Wishlisted: member})

	name := p.Name
	if name == "" {
		name = "Item"
	}
	if member {
		s.notify("Added to Wishlist", name+" has been added to your wishlist", ToastSuccess)
	} else {
		s.notify("Removed from Wishlist", name+" has been removed from your wishlist", ToastSuccess)
	}

	s.logger.InfoContext(ctx, "wishlist toggled",
		slog.String("product_id", productID),
		slog.Bool("wishlisted", member),
	)
	return member, true
}

// ShowWishlistSummary raises the toast the header wishlist button shows.
func (s *State) ShowWishlistSummary() {
	s.lock()
	defer s.unlock()

	s.notify("Wishlist", fmt.Sprintf("You have %d items in your wishlist", s.wishlist.Count()), ToastSuccess)
}

// ---------------------------------------------------------------------------
// Product modal
// ---------------------------------------------------------------------------

// OpenProduct shows the detail modal for a product with the quantity reset
// to one. It reports false for unknown products.
func (s *State) OpenProduct(productID string) bool {
	s.lock()
	defer s.unlock()

	if !s.catalog.Contains(productID) {
		return false
	}
	if s.modalLabel != nil {
		s.modalLabel.Cancel()
		s.modalLabel = nil
	}
	s.surfaces.ModalProductID = productID
	s.surfaces.ModalQuantity = cart.MinQuantity
	s.emit(Change{Kind: ChangeSurfaces, ProductID: productID})
	return true
}

// CloseProduct hides the detail modal.
func (s *State) CloseProduct() {
	s.lock()
	defer s.unlock()

	if s.surfaces.ModalProductID == "" {
		return
	}
	s.surfaces.ModalProductID = ""
	s.emit(Change{Kind: ChangeSurfaces})
}

// SetModalQuantity sets the modal stepper, clamped to [1, 10].
func (s *State) SetModalQuantity(q int) {
	s.lock()
	defer s.unlock()
	s.setModalQuantity(q)
}

// ModalIncrease steps the modal quantity up.
func (s *State) ModalIncrease() {
	s.lock()
	defer s.unlock()
	s.setModalQuantity(s.surfaces.ModalQuantity + 1)
}

// ModalDecrease steps the modal quantity down.
func (s *State) ModalDecrease() {
	s.lock()
	defer s.unlock()
	s.setModalQuantity(s.surfaces.ModalQuantity - 1)
}

func (s *State) setModalQuantity(q int) {
	q = cart.ClampQuantity(q)
	if q == s.surfaces.ModalQuantity {
		return
	}
	s.surfaces.ModalQuantity = q
	s.emit(Change{Kind: ChangeSurfaces})
}

// AddModalToCart adds the modal's product at the modal quantity.
func (s *State) AddModalToCart(ctx context.Context) bool {
	s.lock()
	defer s.unlock()

	id := s.surfaces.ModalProductID
	if id == "" || !s.addToCart(ctx, id, s.surfaces.ModalQuantity) {
		return false
	}
	s.flashModalLabel()
	return true
}

// ---------------------------------------------------------------------------
// Checkout
// ---------------------------------------------------------------------------

// OpenCheckout shows the checkout form. It is refused while the cart is
// empty, matching the disabled checkout button.
func (s *State) OpenCheckout() error {
	s.lock()
	defer s.unlock()

	if s.cart.IsEmpty() && s.checkout.State() != checkout.StateProcessing {
		return checkout.ErrEmptyCart
	}
	s.checkout.Open()
	if !s.surfaces.CheckoutOpen {
		s.surfaces.CheckoutOpen = true
		s.emit(Change{Kind: ChangeSurfaces})
	}
	return nil
}

// CloseCheckout hides the checkout form. Processing continues.
func (s *State) CloseCheckout() {
	s.lock()
	defer s.unlock()

	if !s.surfaces.CheckoutOpen {
		return
	}
	s.surfaces.CheckoutOpen = false
	s.emit(Change{Kind: ChangeSurfaces})
}

// BlurField validates one checkout field and returns its message.
func (s *State) BlurField(field checkout.Field, value string) (string, error) {
	s.lock()
	defer s.unlock()

	msg, err := s.checkout.Blur(field, value)
	if err == nil {
		s.emit(Change{Kind: ChangeCheckout})
	}
	return msg, err
}

// EditField records an edit and clears the field's error.
func (s *State) EditField(field checkout.Field, value string) error {
	s.lock()
	defer s.unlock()

	if err := s.checkout.Edit(field, value); err != nil {
		return err
	}
	s.emit(Change{Kind: ChangeCheckout})
	return nil
}

// SubmitCheckout validates the form and starts processing. A validation
// failure raises the error toast and returns a *checkout.ValidationError.
func (s *State) SubmitCheckout(ctx context.Context, form checkout.Form) error {
	s.lock()
	defer s.unlock()

	err := s.checkout.Submit(form)
	if err == nil {
		s.emit(Change{Kind: ChangeCheckout})
		s.logger.InfoContext(ctx, "checkout processing",
			slog.Int("item_count", s.cart.ItemCount()),
			slog.String("total", cart.FormatAmount(s.cart.Total())),
		)
		return nil
	}

	var verr *checkout.ValidationError
	if errors.As(err, &verr) {
		s.emit(Change{Kind: ChangeCheckout})
		s.notify("Validation Error", "Please correct the errors in the form", ToastError)
	}
	return err
}

// orderPlaced runs under the lock once the simulated processing finishes and
// the cart has been cleared.
func (s *State) orderPlaced(order checkout.Order) {
	ctx := context.Background()
	s.persistCart(ctx)

	s.surfaces.CheckoutOpen = false
	s.surfaces.CartOpen = false

	s.emit(Change{Kind: ChangeCartCleared})
	s.emit(Change{Kind: ChangeOrderPlaced, Order: &order, ItemCount: order.Items, Subtotal: order.Total})
	s.emit(Change{Kind: ChangeSurfaces})
	s.emit(Change{Kind: ChangeCheckout})
	s.notify("Order Placed!", "Your order has been successfully placed", ToastSuccess)

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.Int("item_count", order.Items),
		slog.String("total", cart.FormatAmount(order.Total)),
	)
}
