package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/ordering-backend/api/controllers"
	"github.com/angelmondragon/ordering-backend/api/middleware"
	"github.com/angelmondragon/ordering-backend/internal/cart"
	"github.com/angelmondragon/ordering-backend/internal/catalog"
	checkoutsvc "github.com/angelmondragon/ordering-backend/internal/checkout"
	"github.com/angelmondragon/ordering-backend/internal/orders"
	"github.com/angelmondragon/ordering-backend/internal/preferences"
	squarewebhook "github.com/angelmondragon/ordering-backend/internal/webhooks/square"
	"github.com/angelmondragon/ordering-backend/pkg/config"
	"github.com/angelmondragon/ordering-backend/pkg/logger"
	"github.com/angelmondragon/ordering-backend/pkg/redis"
)

// requestStore is the slice of Redis the HTTP layer talks to directly.
type requestStore interface {
	redis.Pinger
	middleware.ReplayStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	store requestStore,
	gatherer prometheus.Gatherer,
	catalogService catalog.Service,
	ordersService orders.Service,
	cartService cart.Service,
	preferencesService preferences.Service,
	checkoutService checkoutsvc.Service,
	webhookService *squarewebhook.Service,
	webhookGuard *squarewebhook.Guard,
) http.Handler {
	r := chi.NewRouter()
	if cfg.App.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.RateLimit.CheckoutWindow,
		cfg.RateLimit.CheckoutIPLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, store))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.With(
			middleware.RateLimit(checkoutPolicy, store, logg),
			middleware.Idempotency(store, logg),
		).Post("/create-order", controllers.CreateOrder(ordersService, logg))
		r.Get("/catalog", controllers.Catalog(catalogService, cfg.Catalog.ResponseMaxAge, logg))
		r.Post("/customize", controllers.CustomizePreview(catalogService, logg))
		if webhookService != nil && webhookGuard != nil {
			r.Post("/webhooks/square", controllers.SquareWebhook(webhookService, cfg.Square, webhookGuard, logg))
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(cfg.Session, logg, nil))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(cartService, logg))
				r.Delete("/", controllers.CartClear(cartService, logg))
				r.Post("/items", controllers.CartAddItem(cartService, catalogService, logg))
				r.Patch("/items/{itemId}", controllers.CartUpdateItem(cartService, logg))
				r.Delete("/items/{itemId}", controllers.CartRemoveItem(cartService, logg))
			})

			r.Get("/order-type", controllers.OrderTypeGet(preferencesService, logg))
			r.Put("/order-type", controllers.OrderTypeSet(preferencesService, logg))
			r.Get("/delivery-address", controllers.DeliveryAddressGet(preferencesService, logg))
			r.Patch("/delivery-address", controllers.DeliveryAddressPatch(preferencesService, logg))

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/quote", controllers.CheckoutQuote(checkoutService, logg))
				r.Get("/pickup-times", controllers.CheckoutPickupTimes(checkoutService))
				r.Get("/confirmation", controllers.CheckoutConfirmation(checkoutService, logg))
				r.With(
					middleware.RateLimit(checkoutPolicy, store, logg),
					middleware.Idempotency(store, logg),
				).Post("/", controllers.CheckoutSubmit(checkoutService, logg))
			})
		})
	})

	return r
}
