package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/smartkasir/pos-backend/api/responses"
	"github.com/smartkasir/pos-backend/pkg/config"
	"github.com/smartkasir/pos-backend/pkg/db"
	pkgerrors "github.com/smartkasir/pos-backend/pkg/errors"
	"github.com/smartkasir/pos-backend/pkg/logger"
)

const readyCheckTimeout = 3 * time.Second

type busChecker interface {
	Connected() bool
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SmartKasir-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness of the datasource and the message bus. The
// redis cache is optional and never gates readiness.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, bus busChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-SmartKasir-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		checks := map[string]string{}

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				checks["db"] = "down"
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database not ready").WithDetails(checks))
				return
			}
			checks["db"] = "up"
		}

		if bus != nil {
			if !bus.Connected() {
				checks["mqtt"] = "down"
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeTransport, "message bus not ready").WithDetails(checks))
				return
			}
			checks["mqtt"] = "up"
		}

		checks["status"] = "ready"
		responses.WriteSuccess(w, checks)
	}
}
