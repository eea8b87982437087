package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smartkasir/pos-backend/api/controllers"
	"github.com/smartkasir/pos-backend/api/middleware"
	"github.com/smartkasir/pos-backend/internal/sales"
	sessionsvc "github.com/smartkasir/pos-backend/internal/session"
	"github.com/smartkasir/pos-backend/pkg/config"
	"github.com/smartkasir/pos-backend/pkg/db"
	"github.com/smartkasir/pos-backend/pkg/logger"
)

type busChecker interface {
	Connected() bool
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	bus busChecker,
	sessionCtrl *sessionsvc.Controller,
	salesService sales.Service,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, bus))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/session", func(r chi.Router) {
			r.Post("/", controllers.SessionStart(sessionCtrl, logg))
			r.Get("/", controllers.SessionFetch(sessionCtrl, logg))
			r.Post("/checkout", controllers.SessionCheckout(sessionCtrl, logg))
			r.Post("/navigation", controllers.SessionNavigation(sessionCtrl, logg))
			r.Post("/reset", controllers.SessionReset(sessionCtrl, logg))
		})

		r.Get("/sales", controllers.SalesList(salesService, logg))
	})

	return r
}
