package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nbox-app/nbox-backend/api/routes"
	"github.com/nbox-app/nbox-backend/internal/address"
	"github.com/nbox-app/nbox-backend/internal/cart"
	"github.com/nbox-app/nbox-backend/internal/checkout"
	"github.com/nbox-app/nbox-backend/internal/inventory"
	"github.com/nbox-app/nbox-backend/internal/merchants"
	"github.com/nbox-app/nbox-backend/internal/notifications"
	"github.com/nbox-app/nbox-backend/internal/orders"
	"github.com/nbox-app/nbox-backend/internal/products"
	"github.com/nbox-app/nbox-backend/internal/reviews"
	stripewebhook "github.com/nbox-app/nbox-backend/internal/webhooks/stripe"
	"github.com/nbox-app/nbox-backend/pkg/config"
	"github.com/nbox-app/nbox-backend/pkg/db"
	"github.com/nbox-app/nbox-backend/pkg/logger"
	"github.com/nbox-app/nbox-backend/pkg/metrics"
	"github.com/nbox-app/nbox-backend/pkg/migrate"
	"github.com/nbox-app/nbox-backend/pkg/outbox"
	"github.com/nbox-app/nbox-backend/pkg/redis"
	"github.com/nbox-app/nbox-backend/pkg/stripe"
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

	stripeClient, err := stripe.NewClient(context.Background(), cfg.Stripe, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap stripe", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	orderMetrics := metrics.NewOrderMetrics(registry)

	gormDB := dbClient.DB()
	ordersRepo := orders.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	productRepo := products.NewRepository(gormDB)
	addressRepo := address.NewRepository(gormDB)
	reviewsRepo := reviews.NewRepository(gormDB)
	notificationsRepo := notifications.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	merchantSvc, err := merchants.NewService(merchants.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create merchants service", err)
		os.Exit(1)
	}

	ordersSvc, err := orders.NewService(
		ordersRepo,
		cartRepo,
		productRepo,
		merchantSvc,
		reviewsRepo,
		dbClient,
		outboxSvc,
		orders.NewStripeRefunder(stripeClient),
		orderMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	checkoutSvc, err := checkout.NewService(
		cartRepo,
		productRepo,
		ordersRepo,
		addressRepo,
		merchantSvc,
		checkout.NewStripeSessions(stripeClient, cfg.Stripe),
		dbClient,
		cfg.Orders,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	reviewsSvc, err := reviews.NewService(reviewsRepo, ordersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create reviews service", err)
		os.Exit(1)
	}

	notificationsSvc, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Eventing.WebhookIdempotencyTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

	webhookSvc, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		OrdersRepo:        ordersRepo,
		MerchantSvc:       merchantSvc,
		Ledger:            inventory.NewLedger(),
		Sessions:          stripewebhook.NewSessionFetcher(stripeClient),
		Guard:             webhookGuard,
		TransactionRunner: dbClient,
		Publisher:         outboxSvc,
		Metrics:           orderMetrics,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stripe webhook service", err)
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
		Handler: routes.NewRouter(routes.RouterParams{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			HTTPMetrics:   httpMetrics,
			Registry:      registry,
			Checkout:      checkoutSvc,
			Orders:        ordersSvc,
			Reviews:       reviewsSvc,
			Notifications: notificationsSvc,
			StripeClient:  stripeClient,
			StripeWebhook: webhookSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
