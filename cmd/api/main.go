package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/smartkasir/pos-backend/api/routes"
	"github.com/smartkasir/pos-backend/internal/catalog"
	"github.com/smartkasir/pos-backend/internal/sales"
	"github.com/smartkasir/pos-backend/internal/session"
	"github.com/smartkasir/pos-backend/pkg/config"
	"github.com/smartkasir/pos-backend/pkg/db"
	"github.com/smartkasir/pos-backend/pkg/logger"
	"github.com/smartkasir/pos-backend/pkg/metrics"
	"github.com/smartkasir/pos-backend/pkg/midtrans"
	"github.com/smartkasir/pos-backend/pkg/migrate"
	"github.com/smartkasir/pos-backend/pkg/mqtt"
	"github.com/smartkasir/pos-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	mqttClient, err := mqtt.NewClient(context.Background(), cfg.MQTT, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to connect to mqtt broker", err)
		os.Exit(1)
	}
	defer func() {
		if err := mqttClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing mqtt client", err)
		}
	}()

	midtransClient, err := midtrans.NewClient(context.Background(), cfg.Midtrans, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to initialize midtrans client", err)
		os.Exit(1)
	}

	var catalogStore catalog.Store = catalog.NewRepository(dbClient.DB())
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()

		catalogStore, err = catalog.NewCachedStore(catalogStore, redisClient, cfg.Session.CatalogCacheTTL, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to wrap catalog cache", err)
			os.Exit(1)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	sessionMetrics := metrics.NewSessionMetrics(registry)

	router, err := session.NewTopicRouter(mqttClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create topic router", err)
		os.Exit(1)
	}

	salesRepo := sales.NewRepository(dbClient.DB())

	sessionCtrl, err := session.NewController(
		router,
		catalogStore,
		midtransClient,
		salesRepo,
		logg,
		sessionMetrics,
		session.Options{ListenTimeout: cfg.Session.ListenTimeout},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create session controller", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, mqttClient, sessionCtrl, salesRepo, registry),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs error
		errs = multierr.Append(errs, server.Shutdown(shutdownCtx))
		errs = multierr.Append(errs, sessionCtrl.Reset(shutdownCtx))
		if errs != nil {
			logg.Error(ctx, "shutdown completed with errors", errs)
			os.Exit(1)
		}
		logg.Info(ctx, "shutdown complete")
	}
}
