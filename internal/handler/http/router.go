// Package http exposes the storefront over a JSON API.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/session"
	"github.com/utafrali/storefront/pkg/health"
	"github.com/utafrali/storefront/pkg/middleware"
)

// ServiceName labels metrics and spans.
const ServiceName = "storefront"

// RouterConfig holds the router dependencies.
type RouterConfig struct {
	Catalog  *catalog.Catalog
	Sessions *session.Manager
	Health   *health.Handler
	Logger   *slog.Logger
	CORS     middleware.CORSConfig
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.PrometheusMetrics(ServiceName))
	r.Use(middleware.Tracing(ServiceName))

	if cfg.Health != nil {
		r.Get("/health/live", cfg.Health.LivenessHandler())
		r.Get("/health/ready", cfg.Health.ReadinessHandler())
	}
	r.Handle("/metrics", promhttp.Handler())

	catalogHandler := NewCatalogHandler(cfg.Catalog, cfg.Logger)
	sf := NewStorefrontHandler(cfg.Catalog, cfg.Sessions, cfg.Logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.SessionID())
		r.Use(middleware.RequestLogger(cfg.Logger))

		r.Get("/catalog", catalogHandler.List)
		r.Get("/catalog/categories", catalogHandler.Categories)

		r.Get("/storefront", sf.Get)
		r.Put("/storefront/selection", sf.SetSelection)
		r.Post("/storefront/search", sf.Search)

		r.Get("/products/{id}", sf.OpenProduct)

		r.Route("/modal", func(r chi.Router) {
			r.Post("/close", sf.CloseProduct)
			r.Put("/quantity", sf.SetModalQuantity)
			r.Post("/increase", sf.ModalIncrease)
			r.Post("/decrease", sf.ModalDecrease)
			r.Post("/add", sf.AddModalToCart)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Post("/items", sf.AddItem)
			r.Put("/items/{id}", sf.UpdateItem)
			r.Delete("/items/{id}", sf.RemoveItem)
			r.Post("/items/{id}/increment", sf.IncrementItem)
			r.Post("/items/{id}/decrement", sf.DecrementItem)
			r.Post("/open", sf.OpenCart)
			r.Post("/close", sf.CloseCart)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", sf.Wishlist)
			r.Post("/summary", sf.WishlistSummary)
			r.Post("/{id}/toggle", sf.ToggleWishlist)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", sf.SubmitCheckout)
			r.Post("/open", sf.OpenCheckout)
			r.Post("/close", sf.CloseCheckout)
			r.Post("/fields/{field}/blur", sf.BlurField)
			r.Post("/fields/{field}/edit", sf.EditField)
		})

		r.Delete("/notifications/{id}", sf.DismissNotification)
	})

	return r
}
