package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/health"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/middleware"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/service"
)

// catalogMaxAge is the Cache-Control max-age of catalog responses.
const catalogMaxAge = 300

// Services are the business services the router exposes.
type Services struct {
	Catalog   *service.CatalogService
	Cart      *service.CartService
	Checkout  *service.CheckoutService
	Sessions  service.SessionCreator
	Webhooks  *service.WebhookService
	Marketing *service.MarketingService
}

// RouterConfig holds the transport settings of the router.
type RouterConfig struct {
	ServiceName string
	CORS        middleware.CORSConfig
	CartCookie  CartCookieConfig

	// RateLimiter guards the routes that open checkout sessions. Nil
	// disables rate limiting.
	RateLimiter *middleware.RateLimiter

	// HostedPage serves /mock-checkout/{id} in place of the processor's
	// payment page. Nil leaves the route unregistered.
	HostedPage HostedPage
}

// NewRouter creates a chi router with all storefront routes registered.
func NewRouter(
	svcs Services,
	cfg RouterConfig,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	limit := func(next http.Handler) http.Handler { return next }
	if cfg.RateLimiter != nil {
		limit = cfg.RateLimiter.Handler
	}

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	catalogHandler := NewCatalogHandler(svcs.Catalog, logger)
	cartHandler := NewCartHandler(svcs.Cart, logger)
	checkoutHandler := NewCheckoutHandler(svcs.Checkout, logger)
	sessionHandler := NewSessionHandler(svcs.Sessions, logger)
	webhookHandler := NewWebhookHandler(svcs.Webhooks, logger)
	marketingHandler := NewMarketingHandler(svcs.Marketing, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Route("/products", func(r chi.Router) {
			r.Use(middleware.CacheControl(catalogMaxAge))
			r.Get("/", catalogHandler.ListProducts)
			r.Get("/categories", catalogHandler.Categories)
			r.Get("/{id}", catalogHandler.GetProduct)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(CartSession(cfg.CartCookie))

			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)

			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productId}", cartHandler.UpdateItemQuantity)
			r.Delete("/items/{productId}", cartHandler.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Use(CartSession(cfg.CartCookie))

			r.With(limit).Post("/", checkoutHandler.BeginCheckout)
			r.Get("/success", checkoutHandler.CheckoutSuccess)
		})

		r.With(middleware.CacheControl(catalogMaxAge)).Get("/subscriptions/plans", marketingHandler.Plans)

		r.Route("/donations", func(r chi.Router) {
			r.Use(middleware.NoStore)
			r.Get("/options", marketingHandler.DonationOptions)
			r.Get("/success", marketingHandler.DonationSuccess)
			r.With(limit).Post("/", marketingHandler.StartDonation)
		})
	})

	r.With(limit, middleware.NoStore, ContentTypeJSON).Post("/api/checkout/sessions", sessionHandler.CreateSession)
	r.Post("/api/webhooks/stripe", webhookHandler.HandleStripe)

	if cfg.HostedPage != nil {
		r.With(middleware.NoStore).Get("/mock-checkout/{id}", NewHostedPageHandler(cfg.HostedPage, logger).Return)
	}

	return r
}
