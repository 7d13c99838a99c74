package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/registra-pos/registra-backend/api/routes"
	"github.com/registra-pos/registra-backend/internal/catalog"
	"github.com/registra-pos/registra-backend/internal/combo"
	"github.com/registra-pos/registra-backend/internal/methods"
	"github.com/registra-pos/registra-backend/internal/register"
	"github.com/registra-pos/registra-backend/internal/sales"
	"github.com/registra-pos/registra-backend/pkg/config"
	"github.com/registra-pos/registra-backend/pkg/db"
	"github.com/registra-pos/registra-backend/pkg/logger"
	"github.com/registra-pos/registra-backend/pkg/metrics"
	"github.com/registra-pos/registra-backend/pkg/migrate"
	"github.com/registra-pos/registra-backend/pkg/redis"
)

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
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

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	engineMetrics := metrics.NewEngineMetrics(registry)

	registerService, err := register.NewService(register.NewRepository(dbClient.DB()), dbClient, logg, engineMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	methodsService, err := methods.NewService(
		methods.NewRepository(dbClient.DB()),
		redisClient,
		redis.IsNil,
		cfg.Registers.MethodCacheTTL,
		logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create payment method service", err)
		os.Exit(1)
	}

	salesService, err := sales.NewService(
		sales.NewRepository(dbClient.DB()),
		dbClient,
		catalog.NewRepository(dbClient.DB()),
		combo.NewRepository(dbClient.DB()),
		methodsService,
		registerService,
		logg,
		engineMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales service", err)
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
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:           cfg,
			Logger:           logg,
			DBPinger:         dbClient,
			RedisPinger:      redisClient,
			IdempotencyStore: redisClient,
			RateLimiter:      redisClient,
			MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			Sales:            salesService,
			Registers:        registerService,
			Methods:          methodsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
