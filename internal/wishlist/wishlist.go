// Package wishlist implements the wishlist store, a set of product ids.
package wishlist

// ProductChecker reports whether a product id exists in the catalog.
type ProductChecker interface {
	Contains(id string) bool
}

// Wishlist is a set of product ids. Insertion order is kept so the persisted
// form is deterministic; it carries no other meaning.
type Wishlist struct {
	products ProductChecker
	ids      []string
	members  map[string]struct{}
}

// New creates an empty wishlist.
func New(products ProductChecker) *Wishlist {
	return &Wishlist{
		products: products,
		members:  make(map[string]struct{}),
	}
}

// Toggle adds the product if absent and removes it if present, returning the
// new membership. Unknown products are ignored and report false.
func (w *Wishlist) Toggle(productID string) bool {
	if _, ok := w.members[productID]; ok {
		w.remove(productID)
		return false
	}
	if !w.products.Contains(productID) {
		return false
	}
	w.members[productID] = struct{}{}
	w.ids = append(w.ids, productID)
	return true
}

func (w *Wishlist) remove(productID string) {
	delete(w.members, productID)
	for i, id := range w.ids {
		if id == productID {
			w.ids = append(w.ids[:i], w.ids[i+1:]...)
			return
		}
	}
}

// Contains reports whether productID is on the wishlist.
func (w *Wishlist) Contains(productID string) bool {
	_, ok := w.members[productID]
	return ok
}

// Count returns the number of wishlisted products.
func (w *Wishlist) Count() int {
	return len(w.ids)
}

// IDs returns the wishlisted ids in insertion order.
func (w *Wishlist) IDs() []string {
	out := make([]string, len(w.ids))
	copy(out, w.ids)
	return out
}

// Replace swaps the contents for hydrated ids, dropping blanks and duplicates.
func (w *Wishlist) Replace(ids []string) {
	w.ids = make([]string, 0, len(ids))
	w.members = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := w.members[id]; dup || id == "" {
			continue
		}
		w.members[id] = struct{}{}
		w.ids = append(w.ids, id)
	}
}
