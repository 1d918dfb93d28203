package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trippio/trippio-backend/api/routes"
	"github.com/trippio/trippio-backend/internal/basket"
	"github.com/trippio/trippio-backend/internal/bookings"
	checkoutsvc "github.com/trippio/trippio-backend/internal/checkout"
	"github.com/trippio/trippio-backend/internal/orders"
	"github.com/trippio/trippio-backend/internal/payments"
	payoswebhook "github.com/trippio/trippio-backend/internal/webhooks/payos"
	"github.com/trippio/trippio-backend/pkg/config"
	"github.com/trippio/trippio-backend/pkg/db"
	"github.com/trippio/trippio-backend/pkg/idempotency"
	"github.com/trippio/trippio-backend/pkg/logger"
	"github.com/trippio/trippio-backend/pkg/metrics"
	"github.com/trippio/trippio-backend/pkg/migrate"
	"github.com/trippio/trippio-backend/pkg/payos"
	"github.com/trippio/trippio-backend/pkg/redis"
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

	payosClient, err := payos.NewClient(cfg.PayOS)
	if err != nil {
		logg.Error(context.Background(), "failed to build payos client", err)
		os.Exit(1)
	}

	basketSvc, err := basket.NewService(redisClient, cfg.Basket.TTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create basket service", err)
		os.Exit(1)
	}

	orderRepo := orders.NewRepository(dbClient.DB())
	orderSvc, err := orders.NewService(dbClient, orderRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	bookingRepo := bookings.NewRepository(dbClient.DB())
	bookingSvc, err := bookings.NewService(dbClient, bookingRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create bookings service", err)
		os.Exit(1)
	}

	paymentRepo := payments.NewRepository(dbClient.DB())
	paymentSvc, err := payments.NewService(logg, dbClient, paymentRepo, orderRepo, bookingRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	checkoutSvc, err := checkoutsvc.NewService(logg, cfg.PayOS, basketSvc, orderSvc, paymentSvc, payosClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	webhookClaims, err := idempotency.NewStore(redisClient, payoswebhook.ProviderName, cfg.Webhook.IdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook idempotency store", err)
		os.Exit(1)
	}

	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)

	webhookSvc, err := payoswebhook.NewService(logg, payosClient.ChecksumKey(), webhookClaims, paymentSvc, webhookMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
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
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Basket:   basketSvc,
			Checkout: checkoutSvc,
			Orders:   orderSvc,
			Bookings: bookingSvc,
			Payments: paymentSvc,
			Webhook:  webhookSvc,
			Provider: payosClient,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
