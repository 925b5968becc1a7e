package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mintmotion/mintmotion-backend/api/controllers"
	"github.com/mintmotion/mintmotion-backend/api/middleware"
	"github.com/mintmotion/mintmotion-backend/internal/cart"
	"github.com/mintmotion/mintmotion-backend/internal/catalog"
	checkoutsvc "github.com/mintmotion/mintmotion-backend/internal/checkout"
	"github.com/mintmotion/mintmotion-backend/internal/networks"
	"github.com/mintmotion/mintmotion-backend/internal/orders"
	"github.com/mintmotion/mintmotion-backend/internal/pricing"
	"github.com/mintmotion/mintmotion-backend/internal/users"
	"github.com/mintmotion/mintmotion-backend/pkg/config"
	"github.com/mintmotion/mintmotion-backend/pkg/logger"
	"github.com/mintmotion/mintmotion-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Cfg          *config.Config
	Logg         *logger.Logger
	Redis        *redis.Client
	DBPinger     controllers.Pinger
	ChainPinger  controllers.Pinger
	Registry     *prometheus.Registry
	Users        users.Repository
	Catalog      catalog.Repository
	CartSvc      *cart.Service
	PricingSvc   *pricing.Service
	NetworksSvc  *networks.Service
	CheckoutSvc  *checkoutsvc.Service
	OrdersSvc    *orders.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Cfg
	logg := deps.Logg

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"database": deps.DBPinger,
			"redis":    deps.Redis,
			"chain":    deps.ChainPinger,
		}))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	loginPolicy := middleware.NewRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
	)
	quotePolicy := middleware.NewRateLimitPolicy(
		"quote",
		cfg.RateLimit.QuoteWindow,
		cfg.RateLimit.QuoteIPLimit,
	)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.RateLimit(loginPolicy, deps.Redis, logg)).
			Post("/wallet", controllers.WalletLogin(cfg.JWT, deps.Users, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/templates", controllers.TemplatesList(deps.Catalog, logg))
		r.Get("/networks", controllers.NetworksList(deps.NetworksSvc, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", controllers.ProjectsList(deps.Catalog, logg))
				r.Post("/", controllers.ProjectCreate(deps.Catalog, logg))
			})

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(deps.CartSvc, logg))
				r.Get("/summary", controllers.CartSummary(deps.CartSvc, logg))
				r.Post("/items", controllers.CartAddItem(deps.CartSvc, logg))
				r.Delete("/items/{itemID}", controllers.CartRemoveItem(deps.CartSvc, logg))
				r.Delete("/", controllers.CartClear(deps.CartSvc, logg))
			})

			r.With(middleware.RateLimit(quotePolicy, deps.Redis, logg)).
				Get("/pricing/quote", controllers.PricingQuote(deps.PricingSvc, deps.NetworksSvc, deps.CartSvc, logg))

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", controllers.CheckoutState(deps.CheckoutSvc, logg))
				r.Post("/", controllers.CheckoutBegin(deps.CheckoutSvc, logg))
				r.Post("/confirm", controllers.CheckoutConfirm(deps.CheckoutSvc, logg))
				r.Post("/cancel", controllers.CheckoutCancel(deps.CheckoutSvc, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersList(deps.OrdersSvc, logg))
				r.Get("/{orderID}", controllers.OrderGet(deps.OrdersSvc, logg))
			})
		})
	})

	return r
}
