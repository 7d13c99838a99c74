package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/registra-pos/registra-backend/api/controllers"
	"github.com/registra-pos/registra-backend/api/middleware"
	"github.com/registra-pos/registra-backend/internal/methods"
	"github.com/registra-pos/registra-backend/internal/register"
	"github.com/registra-pos/registra-backend/internal/sales"
	"github.com/registra-pos/registra-backend/pkg/config"
	"github.com/registra-pos/registra-backend/pkg/logger"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DBPinger    controllers.Pinger
	RedisPinger controllers.Pinger

	IdempotencyStore middleware.IdempotencyStore
	RateLimiter      middleware.RateLimiterStore
	MetricsHandler   http.Handler

	Sales     sales.Service
	Registers register.Service
	Methods   methods.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger))
	})

	metricsHandler := deps.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Idempotency(deps.IdempotencyStore, logg))

		r.Route("/sales", func(r chi.Router) {
			r.Use(middleware.RateLimit(
				middleware.NewRateLimitPolicy("sales", cfg.RateLimit.Window, cfg.RateLimit.SalesLimit),
				deps.RateLimiter, logg,
			))
			r.Post("/", controllers.SaleConfirm(deps.Sales, logg))
			r.Post("/quote", controllers.SaleQuote(deps.Sales, logg))
			r.Get("/{saleId}", controllers.SaleDetail(deps.Sales, logg))
			r.Post("/{saleId}/void", controllers.SaleVoid(deps.Sales, logg))
		})

		r.Route("/registers", func(r chi.Router) {
			r.Use(middleware.RateLimit(
				middleware.NewRateLimitPolicy("registers", cfg.RateLimit.Window, cfg.RateLimit.RegistersLimit),
				deps.RateLimiter, logg,
			))
			r.Post("/open", controllers.RegisterOpen(deps.Registers, logg))
			r.Post("/close", controllers.RegisterClose(deps.Registers, logg))
			r.Post("/deposits", controllers.RegisterDeposit(deps.Registers, logg))
			r.Post("/withdrawals", controllers.RegisterWithdraw(deps.Registers, logg))
			r.Get("/{branchId}/balance", controllers.RegisterSnapshot(deps.Registers, logg))
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/registers", controllers.RegisterReport(deps.Registers, logg))
		})

		r.Route("/payment-methods", func(r chi.Router) {
			r.Get("/", controllers.PaymentMethodList(deps.Methods, logg))
			r.Put("/", controllers.PaymentMethodUpsert(deps.Methods, logg))
			r.Get("/{methodId}", controllers.PaymentMethodDetail(deps.Methods, logg))
		})
	})

	return r
}
