package rest

import (
	"context"
	"net/http"
	"time"

	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/middleware"
	"storefront-be/internal/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const (
	PathOrders  = "/api/orders"
	PathWebhook = "/webhooks/payment"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterDeps struct {
	JWTSecret string
	Limiter   *middleware.Limiter

	Orders  *OrderHandler
	Carts   *CartHandler
	Webhook http.Handler
	Metrics *metrics.Checkout

	Health map[string]HealthCheck
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP, logger.RequestIDMiddleware, logger.LoggingMiddleware, chimw.Recoverer)
	if d.Limiter != nil {
		r.Use(d.Limiter.Middleware)
	}

	r.Get("/healthz", healthHandler(d.Health))
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/debug/metrics", d.Metrics.Handler())
	}

	// The provider authenticates with a signature, not a user token.
	if d.Webhook != nil {
		r.Method(http.MethodPost, PathWebhook, d.Webhook)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(d.JWTSecret))
		r.Use(middleware.RequireAuth)

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", d.Orders.CreateOrder)
			r.Get("/", d.Orders.ListOrders)
			r.Get("/{id}", d.Orders.GetOrder)
		})

		if d.Carts != nil {
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", d.Carts.GetCart)
				r.Post("/", d.Carts.AddToCart)
				r.Delete("/", d.Carts.ClearCart)
				r.Delete("/items", d.Carts.RemoveItem)
			})
		}

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Patch("/orders/{id}/status", d.Orders.UpdateStatus)
		})
	})

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		code := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.FromCtx(ctx).Warn("health check failed", zap.String("dependency", name), zap.Error(err))
				status[name] = "down"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		utils.WriteJSON(w, code, status)
	}
}
