package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"storefront-be/internal/address"
	"storefront-be/internal/cart"
	"storefront-be/internal/config"
	"storefront-be/internal/db"
	"storefront-be/internal/inventory"
	"storefront-be/internal/kafka"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/middleware"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/payment/webhook"
	"storefront-be/internal/redisx"
	"storefront-be/internal/rest"

	"go.uber.org/zap"
)

const (
	serviceName     = "storefront-be"
	eventBufferSize = 1024
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database := db.InitDB(cfg)
	defer database.Close()

	handler, cleanup := buildApp(ctx, cfg, database)
	defer cleanup()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}

// buildApp wires repositories, services and optional infrastructure into the
// HTTP router. cleanup flushes the event producer and closes Redis.
func buildApp(ctx context.Context, cfg *config.Config, database *sql.DB) (http.Handler, func()) {
	log := logger.L()
	var closers []func()

	health := map[string]rest.HealthCheck{
		"postgres": database.PingContext,
	}

	checkout := &metrics.Checkout{}
	stock := inventory.NewRepository()
	payments := payment.NewRepository(database)
	cartSvc := cart.NewService(cart.NewRepository(database), stock, database)

	deps := order.Deps{
		DB:             database,
		Orders:         order.NewRepository(database),
		Inventory:      stock,
		Addresses:      address.NewRepository(database),
		Payments:       payments,
		Carts:          cartSvc,
		Metrics:        checkout,
		DefaultCountry: cfg.DefaultCountry,
		TxTimeout:      cfg.OrderTxTimeout,
	}

	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		if err := redisx.Ping(ctx, rdb); err != nil {
			log.Warn("redis unreachable, idempotency cache degraded", zap.Error(err))
		}
		deps.Cache = redisx.NewIdempotencyStore(rdb)
		health["redis"] = func(ctx context.Context) error { return redisx.Ping(ctx, rdb) }
		closers = append(closers, func() {
			if err := rdb.Close(); err != nil {
				log.Warn("redis close failed", zap.Error(err))
			}
		})
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.EventsTopic, eventBufferSize)
		producer.Start(ctx)
		deps.Events = kafka.NewOrderEvents(producer, serviceName)
		closers = append(closers, func() {
			producer.Close()
			producer.WaitClosed()
		})
	} else {
		log.Info("no kafka brokers configured, order events disabled")
	}

	orderSvc := order.NewService(deps)
	verifier := payment.NewVerifier(cfg.WebhookSecret, cfg.WebhookTolerance)

	router := rest.NewRouter(rest.RouterDeps{
		JWTSecret: cfg.JWTSecret,
		Limiter:   middleware.NewLimiter(ctx, cfg.InternalSecretKey, rest.PathOrders, rest.PathWebhook),
		Orders:    rest.NewOrderHandler(orderSvc),
		Carts:     rest.NewCartHandler(cartSvc),
		Webhook:   webhook.NewHandler(orderSvc, payments, verifier, checkout),
		Metrics:   checkout,
		Health:    health,
	})

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return router, cleanup
}
