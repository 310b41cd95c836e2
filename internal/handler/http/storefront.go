package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/internal/storefront"
	"github.com/utafrali/storefront/internal/view"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/validator"
)

// StorefrontHandler serves the session-scoped storefront endpoints. Every
// mutation responds with the freshly projected view.
type StorefrontHandler struct {
	catalog  *catalog.Catalog
	sessions *session.Manager
	logger   *slog.Logger
}

// NewStorefrontHandler creates a new storefront HTTP handler.
func NewStorefrontHandler(c *catalog.Catalog, sessions *session.Manager, logger *slog.Logger) *StorefrontHandler {
	return &StorefrontHandler{catalog: c, sessions: sessions, logger: logger}
}

// --- Request DTOs ---

// SelectionRequest replaces the filter, search and sort selection.
type SelectionRequest struct {
	Category string `json:"category" validate:"max=64"`
	Search   string `json:"search" validate:"max=200"`
	Sort     string `json:"sort" validate:"omitempty,oneof=featured price-low price-high rating newest"`
}

// SearchRequest carries a keystroke (debounced) or an explicit submit.
type SearchRequest struct {
	Term   string `json:"term" validate:"max=200"`
	Submit bool   `json:"submit"`
}

// AddItemRequest adds a product to the cart. Quantity defaults to 1.
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gte=0"`
}

// QuantityRequest sets a cart line or modal quantity.
type QuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// WishlistResponse lists the wishlisted products in insertion order.
type WishlistResponse struct {
	Count    int         `json:"count"`
	Products []view.Card `json:"products"`
}

// ToggleResponse reports the wishlist membership after a toggle.
type ToggleResponse struct {
	ProductID  string    `json:"productId"`
	Wishlisted bool      `json:"wishlisted"`
	View       view.View `json:"view"`
}

// --- Helpers ---

func (h *StorefrontHandler) state(w http.ResponseWriter, r *http.Request) (*storefront.State, bool) {
	s, err := h.sessions.Get(r.Context(), logger.SessionIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return nil, false
	}
	return s, true
}

func (h *StorefrontHandler) render(w http.ResponseWriter, status int, s *storefront.State) {
	httputil.WriteData(w, status, view.Project(s.Snapshot()))
}

// decode reads and validates a JSON body, mapping malformed JSON to
// INVALID_INPUT.
func (h *StorefrontHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if !h.decodeJSON(w, r, dst) {
		return false
	}
	if err := validator.Validate(dst); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return false
	}
	return true
}

// decodeJSON reads a JSON body without validating it.
func (h *StorefrontHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return false
	}
	return true
}

func (h *StorefrontHandler) product(w http.ResponseWriter, r *http.Request, id string) (domain.Product, bool) {
	p, ok := h.catalog.Get(id)
	if !ok {
		httputil.WriteError(w, r, apperrors.NotFound("product", id), h.logger)
	}
	return p, ok
}

func invalidSort(s string) error {
	return apperrors.InvalidInput(fmt.Sprintf("unknown sort mode %q", s))
}

// --- Storefront ---

// Get handles GET /api/v1/storefront
func (h *StorefrontHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	h.render(w, http.StatusOK, s)
}

// SetSelection handles PUT /api/v1/storefront/selection
func (h *StorefrontHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req SelectionRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	s.SetSelection(domain.Selection{
		Category:   req.Category,
		SearchTerm: req.Search,
		Sort:       domain.SortMode(req.Sort),
	})
	h.render(w, http.StatusOK, s)
}

// Search handles POST /api/v1/storefront/search. Keystrokes are debounced
// and answered with 202; a submit applies the term at once.
func (h *StorefrontHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	if req.Submit {
		s.SubmitSearch(req.Term)
		h.render(w, http.StatusOK, s)
		return
	}
	s.SearchInput(req.Term)
	h.render(w, http.StatusAccepted, s)
}

// --- Product modal ---

// OpenProduct handles GET /api/v1/products/{id}
func (h *StorefrontHandler) OpenProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	if !s.OpenProduct(id) {
		httputil.WriteError(w, r, apperrors.NotFound("product", id), h.logger)
		return
	}
	v := view.Project(s.Snapshot())
	httputil.WriteData(w, http.StatusOK, v.Modal)
}

// CloseProduct handles POST /api/v1/modal/close
func (h *StorefrontHandler) CloseProduct(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	s.CloseProduct()
	h.render(w, http.StatusOK, s)
}

// SetModalQuantity handles PUT /api/v1/modal/quantity
func (h *StorefrontHandler) SetModalQuantity(w http.ResponseWriter, r *http.Request) {
	var req QuantityRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	s.SetModalQuantity(req.Quantity)
	h.render(w, http.StatusOK, s)
}

// ModalIncrease handles POST /api/v1/modal/increase
func (h *StorefrontHandler) ModalIncrease(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	s.ModalIncrease()
	h.render(w, http.StatusOK, s)
}

// ModalDecrease handles POST /api/v1/modal/decrease
func (h *StorefrontHandler) ModalDecrease(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	s.ModalDecrease()
	h.render(w, http.StatusOK, s)
}

// AddModalToCart handles POST /api/v1/modal/add
func (h *StorefrontHandler) AddModalToCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	if s.Snapshot().ModalProduct == nil {
		httputil.WriteError(w, r, apperrors.Conflict("no product is open"), h.logger)
		return
	}
	s.AddModalToCart(r.Context())
	h.render(w, http.StatusOK, s)
}

// --- Cart ---

// AddItem handles POST /api/v1/cart/items. Out-of-stock products are
// rejected with 409; hitting the quantity limit still answers 200 and the
// view carries the warning toast.
func (h *StorefrontHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	p, ok := h.product(w, r, req.ProductID)
	if !ok {
		return
	}
	if !p.InStock {
		httputil.WriteError(w, r, apperrors.Conflict(p.Name+" is out of stock"), h.logger)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	s.AddToCart(r.Context(), req.ProductID, req.Quantity)
	h.render(w, http.StatusOK, s)
}

// UpdateItem handles PUT /api/v1/cart/items/{id}. A quantity of zero removes
// the line.
func (h *StorefrontHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req QuantityRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.mutateLine(w, r, func(s *storefront.State, id string) bool {
		return s.UpdateQuantity(r.Context(), id, req.Quantity)
	})
}

// RemoveItem handles DELETE /api/v1/cart/items/{id}
func (h *StorefrontHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, func(s *storefront.State, id string) bool {
		return s.RemoveFromCart(r.Context(), id)
	})
}

// IncrementItem handles POST /api/v1/cart/items/{id}/increment
func (h *StorefrontHandler) IncrementItem(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, func(s *storefront.State, id string) bool {
		s.IncrementLine(r.Context(), id)
		return true
	})
}

// DecrementItem handles POST /api/v1/cart/items/{id}/decrement. The last unit
// is never removed by decrement.
func (h *StorefrontHandler) DecrementItem(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, func(s *storefront.State, id string) bool {
		s.DecrementLine(r.Context(), id)
		return true
	})
}

// mutateLine answers 404 when the product has no cart line.
func (h *StorefrontHandler) mutateLine(w http.ResponseWriter, r *http.Request, fn func(*storefront.State, string) bool) {
	id := chi.URLParam(r, "id")
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	if !inCart(s.Snapshot(), id) {
		httputil.WriteError(w, r, apperrors.NotFound("cart item", id), h.logger)
		return
	}
	fn(s, id)
	h.render(w, http.StatusOK, s)
}

func inCart(snap storefront.Snapshot, id string) bool {
	for _, item := range snap.CartItems {
		if item.Line.ProductID == id {
			return true
		}
	}
	return false
}

// OpenCart handles POST /api/v1/cart/open
func (h *StorefrontHandler) OpenCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	s.OpenCart()
	h.render(w, http.StatusOK, s)
}

// CloseCart handles POST /api/v1/cart/close
func (h *StorefrontHandler) CloseCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	s.CloseCart()
	h.render(w, http.StatusOK, s)
}

// --- Wishlist ---

// Wishlist handles GET /api/v1/wishlist
func (h *StorefrontHandler) Wishlist(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	snap := s.Snapshot()
	resp := WishlistResponse{Count: len(snap.Wishlist), Products: make([]view.Card, 0, len(snap.Wishlist))}
	for _, id := range snap.Wishlist {
		if p, ok := h.catalog.Get(id); ok {
			resp.Products = append(resp.Products, view.ProjectCard(p, true, snap.CardAdded(id)))
		}
	}
	httputil.WriteData(w, http.StatusOK, resp)
}

// WishlistSummary handles POST /api/v1/wishlist/summary
func (h *StorefrontHandler) WishlistSummary(w http.ResponseWriter, r *http.Request) {
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	s.ShowWishlistSummary()
	h.render(w, http.StatusOK, s)
}

// ToggleWishlist handles POST /api/v1/wishlist/{id}/toggle
func (h *StorefrontHandler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	member, ok := s.ToggleWishlist(r.Context(), id)
	if !ok {
		httputil.WriteError(w, r, apperrors.NotFound("product", id), h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, ToggleResponse{
		ProductID:  id,
		Wishlisted: member,
		View:       view.Project(s.Snapshot()),
	})
}

// --- Notifications ---

// DismissNotification handles DELETE /api/v1/notifications/{id}
func (h *StorefrontHandler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, ok := h.state(w, r)
	if !ok {
		return
	}
	if !s.DismissToast(id) {
		httputil.WriteError(w, r, apperrors.NotFound("notification", id), h.logger)
		return
	}
	h.render(w, http.StatusOK, s)
}
