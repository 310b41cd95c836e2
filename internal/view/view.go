// Package view projects a storefront snapshot into the view models a UI
// layer renders. Projection is one-directional: nothing here mutates state.
package view

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/utafrali/storefront/internal/checkout"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/storefront"
)

// Button and panel labels.
const (
	LabelAddToCart     = "Add to Cart"
	LabelOutOfStock    = "Out of Stock"
	LabelCardAdded     = "Added!"
	LabelModalAdded    = "Added to Cart!"
	LabelPlaceOrder    = "Place Order"
	LabelProcessing    = "Processing Order..."
	LabelNoResults     = "No products found"
	EmptyCartTitle     = "Your cart is empty"
	EmptyCartMessage   = "Add some products to get started!"
	allCategoriesLabel = "All Products"
)

// View is everything the page shows for one session.
type View struct {
	Header       Header     `json:"header"`
	Search       string     `json:"search"`
	Sort         string     `json:"sort"`
	Categories   []Category `json:"categories"`
	ResultsLabel string     `json:"resultsLabel"`
	NoResults    bool       `json:"noResults"`
	Products     []Card     `json:"products"`
	Cart         CartPanel  `json:"cart"`
	Modal        *Modal     `json:"modal,omitempty"`
	Checkout     Checkout   `json:"checkout"`
	Toasts       []Toast    `json:"toasts"`
}

// Header holds the header badges.
type Header struct {
	CartCount     int  `json:"cartCount"`
	ShowCartBadge bool `json:"showCartBadge"`
	WishlistCount int  `json:"wishlistCount"`
}

// Category is a filter button.
type Category struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// Card is a product grid card.
type Card struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Image         string       `json:"image"`
	Price         string       `json:"price"`
	OriginalPrice string       `json:"originalPrice,omitempty"`
	Discount      string       `json:"discount,omitempty"`
	Stars         domain.Stars `json:"stars"`
	RatingLabel   string       `json:"ratingLabel"`
	InStock       bool         `json:"inStock"`
	Wishlisted    bool         `json:"wishlisted"`
	ButtonLabel   string       `json:"buttonLabel"`
	ButtonEnabled bool         `json:"buttonEnabled"`
}

// CartLine is a row in the cart sidebar.
type CartLine struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"lineTotal"`
}

// Totals are the formatted money amounts.
type Totals struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

// CartPanel is the cart sidebar.
type CartPanel struct {
	Open            bool       `json:"open"`
	Empty           bool       `json:"empty"`
	EmptyTitle      string     `json:"emptyTitle,omitempty"`
	EmptyMessage    string     `json:"emptyMessage,omitempty"`
	Lines           []CartLine `json:"lines"`
	Totals          Totals     `json:"totals"`
	CheckoutEnabled bool       `json:"checkoutEnabled"`
}

// Modal is the product detail modal.
type Modal struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	Description   string       `json:"description"`
	Image         string       `json:"image"`
	Price         string       `json:"price"`
	OriginalPrice string       `json:"originalPrice,omitempty"`
	Discount      string       `json:"discount,omitempty"`
	Stars         domain.Stars `json:"stars"`
	ReviewsLabel  string       `json:"reviewsLabel"`
	Features      []string     `json:"features,omitempty"`
	Gallery       []string     `json:"gallery,omitempty"`
	Quantity      int          `json:"quantity"`
	Wishlisted    bool         `json:"wishlisted"`
	ButtonLabel   string       `json:"buttonLabel"`
	ButtonEnabled bool         `json:"buttonEnabled"`
}

// SummaryLine is a row in the checkout order summary.
type SummaryLine struct {
	Name     string `json:"name"`
	Image    string `json:"image"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// Order is the last order confirmation.
type Order struct {
	ID    string `json:"id"`
	Items int    `json:"items"`
	Total string `json:"total"`
}

// Checkout is the checkout modal.
type Checkout struct {
	Open        bool              `json:"open"`
	State       string            `json:"state"`
	Processing  bool              `json:"processing"`
	SubmitLabel string            `json:"submitLabel"`
	Values      checkout.Form     `json:"values"`
	Errors      map[string]string `json:"errors"`
	Summary     []SummaryLine     `json:"summary"`
	Totals      Totals            `json:"totals"`
	LastOrder   *Order            `json:"lastOrder,omitempty"`
}

// Toast is a live notification.
type Toast struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

// Project builds the view for a snapshot.
func Project(snap storefront.Snapshot) View {
	v := View{
		Header: Header{
			CartCount:     snap.ItemCount,
			ShowCartBadge: snap.ItemCount > 0,
			WishlistCount: len(snap.Wishlist),
		},
		Search:       snap.PendingSearch,
		Sort:         string(snap.Selection.Sort),
		Categories:   categories(snap),
		ResultsLabel: ResultsLabel(len(snap.Products)),
		NoResults:    len(snap.Products) == 0,
		Products:     make([]Card, 0, len(snap.Products)),
		Cart:         cartPanel(snap),
		Checkout:     checkoutPanel(snap),
		Toasts:       make([]Toast, 0, len(snap.Toasts)),
	}

	for _, p := range snap.Products {
		v.Products = append(v.Products, ProjectCard(p, snap.Wishlisted(p.ID), snap.CardAdded(p.ID)))
	}
	if snap.ModalProduct != nil {
		v.Modal = modal(snap)
	}
	for _, t := range snap.Toasts {
		v.Toasts = append(v.Toasts, Toast{ID: t.ID, Title: t.Title, Message: t.Message, Kind: string(t.Kind)})
	}
	return v
}

// ResultsLabel is the product count line above the grid.
func ResultsLabel(n int) string {
	if n == 0 {
		return LabelNoResults
	}
	return fmt.Sprintf("%d Products", n)
}

// Price formats an amount the way the page shows money.
func Price(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

// ProjectCard builds a grid card for p.
func ProjectCard(p domain.Product, wishlisted, added bool) Card {
	c := Card{
		ID:            p.ID,
		Name:          p.Name,
		Image:         p.Image,
		Price:         Price(p.Price),
		Stars:         p.Stars(),
		RatingLabel:   fmt.Sprintf("%s (%d)", ratingText(p.Rating), p.Reviews),
		InStock:       p.InStock,
		Wishlisted:    wishlisted,
		ButtonLabel:   LabelAddToCart,
		ButtonEnabled: p.InStock,
	}
	c.OriginalPrice, c.Discount = discount(p)
	switch {
	case !p.InStock:
		c.ButtonLabel = LabelOutOfStock
	case added:
		c.ButtonLabel = LabelCardAdded
	}
	return c
}

func categories(snap storefront.Snapshot) []Category {
	return CategoryButtons(snap.Categories, snap.Selection.Category)
}

// CategoryButtons labels the category filter buttons and marks the active one.
func CategoryButtons(values []string, active string) []Category {
	title := cases.Title(language.English)
	out := make([]Category, 0, len(values))
	for _, c := range values {
		label := allCategoriesLabel
		if c != domain.CategoryAll {
			label = title.String(c)
		}
		out = append(out, Category{Value: c, Label: label, Active: c == active})
	}
	return out
}

func cartPanel(snap storefront.Snapshot) CartPanel {
	panel := CartPanel{
		Open:            snap.Surfaces.CartOpen,
		Empty:           len(snap.CartItems) == 0,
		Lines:           make([]CartLine, 0, len(snap.CartItems)),
		Totals:          totals(snap),
		CheckoutEnabled: len(snap.CartItems) > 0,
	}
	if panel.Empty {
		panel.EmptyTitle = EmptyCartTitle
		panel.EmptyMessage = EmptyCartMessage
	}
	for _, item := range snap.CartItems {
		// lines for products missing from the catalog are not rendered
		if !item.Known {
			continue
		}
		panel.Lines = append(panel.Lines, CartLine{
			ProductID: item.Line.ProductID,
			Name:      item.Product.Name,
			Image:     item.Product.Image,
			UnitPrice: Price(item.Product.Price) + " each",
			Quantity:  item.Line.Quantity,
			LineTotal: Price(item.LineTotal),
		})
	}
	return panel
}

func modal(snap storefront.Snapshot) *Modal {
	p := *snap.ModalProduct
	m := &Modal{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Image:         p.Image,
		Price:         Price(p.Price),
		Stars:         p.Stars(),
		ReviewsLabel:  fmt.Sprintf("%s (%d reviews)", ratingText(p.Rating), p.Reviews),
		Features:      p.Features,
		Quantity:      snap.Surfaces.ModalQuantity,
		Wishlisted:    snap.Wishlisted(p.ID),
		ButtonLabel:   LabelAddToCart,
		ButtonEnabled: p.InStock,
	}
	m.OriginalPrice, m.Discount = discount(p)
	if len(p.Images) > 1 {
		m.Gallery = p.Images
	}
	switch {
	case !p.InStock:
		m.ButtonLabel = LabelOutOfStock
	case snap.ModalAdded:
		m.ButtonLabel = LabelModalAdded
	}
	return m
}

func checkoutPanel(snap storefront.Snapshot) Checkout {
	c := Checkout{
		Open:        snap.Surfaces.CheckoutOpen,
		State:       string(snap.Checkout.State),
		Processing:  snap.Checkout.State == checkout.StateProcessing,
		SubmitLabel: LabelPlaceOrder,
		Values:      snap.Checkout.Values,
		Errors:      make(map[string]string, len(snap.Checkout.Errors)),
		Summary:     make([]SummaryLine, 0, len(snap.CartItems)),
		Totals:      totals(snap),
	}
	if c.Processing {
		c.SubmitLabel = LabelProcessing
	}
	for f, msg := range snap.Checkout.Errors {
		c.Errors[string(f)] = msg
	}
	for _, item := range snap.CartItems {
		if !item.Known {
			continue
		}
		c.Summary = append(c.Summary, SummaryLine{
			Name:     item.Product.Name,
			Image:    item.Product.Image,
			Quantity: item.Line.Quantity,
			Price:    Price(item.LineTotal),
		})
	}
	if o := snap.Checkout.LastOrder; o != nil {
		c.LastOrder = &Order{ID: o.ID, Items: o.Items, Total: Price(o.Total)}
	}
	return c
}

func totals(snap storefront.Snapshot) Totals {
	return Totals{
		Subtotal: Price(snap.Subtotal),
		Tax:      Price(snap.Tax),
		Total:    Price(snap.Total),
	}
}

func discount(p domain.Product) (original, badge string) {
	if p.OriginalPrice == nil {
		return "", ""
	}
	original = Price(*p.OriginalPrice)
	if pct := p.DiscountPercent(); pct > 0 {
		badge = fmt.Sprintf("%d%% OFF", pct)
	}
	return original, badge
}

func ratingText(r float64) string {
	return strconv.FormatFloat(r, 'f', -1, 64)
}
