package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pantryline/pantryline-backend/api/controllers"
	"github.com/pantryline/pantryline-backend/api/middleware"
	"github.com/pantryline/pantryline-backend/internal/auth"
	"github.com/pantryline/pantryline-backend/internal/items"
	"github.com/pantryline/pantryline-backend/pkg/auth/session"
	"github.com/pantryline/pantryline-backend/pkg/config"
	"github.com/pantryline/pantryline-backend/pkg/logger"
	"github.com/pantryline/pantryline-backend/pkg/redis"
)

// RouterParams bundles everything the HTTP surface depends on.
type RouterParams struct {
	Config       *config.Config
	Logger       *logger.Logger
	DBPinger     redis.Pinger
	RedisClient  *redis.Client
	Sessions     session.AccessSessionChecker
	AuthService  auth.Service
	ItemRegistry *items.Registry
	// Gatherer backs GET /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, params.DBPinger, params.RedisClient, logg))
	})

	if params.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, params.RedisClient, logg)).
			Post("/register", controllers.AuthRegister(params.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, params.RedisClient, logg)).
			Post("/login", controllers.AuthLogin(params.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(params.AuthService, logg))
		r.With(middleware.Auth(cfg.JWT, params.Sessions, logg)).
			Post("/logout", controllers.AuthLogout(params.AuthService, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, params.Sessions, logg))

		r.Route("/lists/{list}/items", func(r chi.Router) {
			r.Get("/", controllers.ItemsList(params.ItemRegistry, logg))
			r.Post("/", controllers.ItemsAdd(params.ItemRegistry, logg))
			r.Route("/{id}", func(r chi.Router) {
				r.Delete("/", controllers.ItemsRemove(params.ItemRegistry, logg))
				r.Patch("/", controllers.ItemsUpdate(params.ItemRegistry, logg))
				r.Post("/increment", controllers.ItemsIncrement(params.ItemRegistry, logg))
				r.Post("/decrement", controllers.ItemsDecrement(params.ItemRegistry, logg))
				r.Post("/move", controllers.ItemsMove(params.ItemRegistry, logg))
			})
		})

		r.Route("/stores", func(r chi.Router) {
			r.Get("/", controllers.StoreTagsList(params.ItemRegistry, logg))
			r.Post("/", controllers.StoreTagsCreate(params.ItemRegistry, logg))
			r.Delete("/{id}", controllers.StoreTagsDelete(params.ItemRegistry, logg))
		})
	})

	return r
}
