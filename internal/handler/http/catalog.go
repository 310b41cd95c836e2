package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/query"
	"github.com/utafrali/storefront/internal/view"
	"github.com/utafrali/storefront/pkg/httputil"
	"github.com/utafrali/storefront/pkg/pagination"
)

// CatalogHandler serves the stateless catalog endpoints.
type CatalogHandler struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(c *catalog.Catalog, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: c, logger: logger}
}

// CatalogResponse is one page of a derived product list. ResultsLabel counts
// every matching product, not just the page.
type CatalogResponse struct {
	Selection    domain.Selection `json:"selection"`
	ResultsLabel string           `json:"resultsLabel"`
	Products     []view.Card      `json:"products"`
	Page         pagination.Meta  `json:"page"`
}

// List handles GET /api/v1/catalog?category=&q=&sort=&page=&per_page=
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sel := domain.Selection{
		Category:   q.Get("category"),
		SearchTerm: q.Get("q"),
		Sort:       domain.SortMode(q.Get("sort")),
	}
	if s := q.Get("sort"); s != "" && !domain.IsValidSort(s) {
		httputil.WriteError(w, r, invalidSort(s), h.logger)
		return
	}
	sel = sel.Normalize()

	products := query.DeriveView(h.catalog.All(), sel)
	page, meta := pagination.Paginate(products, pagination.FromRequest(r))
	cards := make([]view.Card, 0, len(page))
	for _, p := range page {
		cards = append(cards, view.ProjectCard(p, false, false))
	}

	httputil.WriteData(w, http.StatusOK, CatalogResponse{
		Selection:    sel,
		ResultsLabel: view.ResultsLabel(len(products)),
		Products:     cards,
		Page:         meta,
	})
}

// Categories handles GET /api/v1/catalog/categories?active=
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	active := r.URL.Query().Get("active")
	if active == "" {
		active = domain.CategoryAll
	}
	httputil.WriteData(w, http.StatusOK, view.CategoryButtons(h.catalog.Categories(), active))
}
