package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/cardshop/pkg/health"
	"github.com/utafrali/cardshop/pkg/middleware"
)

// NewRouter creates a chi router with all shop and auth routes registered.
func NewRouter(
	shopService ShopService,
	authService AuthService,
	healthHandler *health.Handler,
	cors middleware.CORSConfig,
	debugCIDRs []string,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cors))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("cardshop"))
	r.Use(middleware.Tracing("cardshop"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	shopHandler := NewShopHandler(shopService, logger)
	authHandler := NewAuthHandler(authService, logger)

	r.Route("/api/v1/shop", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", shopHandler.GetShop)

		r.Post("/cart/items", shopHandler.AddItem)
		r.Post("/cart/items/remove", shopHandler.RemoveItem)
		r.Delete("/cart", shopHandler.EmptyCart)

		r.Put("/delivery", shopHandler.SelectDelivery)
		r.Delete("/delivery", shopHandler.ResetDelivery)

		r.Post("/product", shopHandler.LoadProduct)
	})

	r.Route("/debug", func(r chi.Router) {
		r.Use(middleware.IPAllowlist(debugCIDRs, logger))
		middleware.MountPprof(r)
		r.Get("/shop/graph", shopHandler.Graph)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/login", authHandler.Login)
		r.Get("/currency", authHandler.GetCurrency)
	})

	return r
}
