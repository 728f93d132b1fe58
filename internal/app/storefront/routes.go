// Package storefront собирает HTTP API магазина: маршруты, middleware
// и зависимости обработчиков.
package storefront

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/bookstore/internal/cart"
	"github.com/magabrotheeeer/bookstore/internal/config"
	cartadd "github.com/magabrotheeeer/bookstore/internal/http/handlers/cart/add"
	cartempty "github.com/magabrotheeeer/bookstore/internal/http/handlers/cart/empty"
	cartget "github.com/magabrotheeeer/bookstore/internal/http/handlers/cart/get"
	cartremove "github.com/magabrotheeeer/bookstore/internal/http/handlers/cart/remove"
	cartupdate "github.com/magabrotheeeer/bookstore/internal/http/handlers/cart/update"
	"github.com/magabrotheeeer/bookstore/internal/http/handlers/health"
	"github.com/magabrotheeeer/bookstore/internal/http/handlers/membership"
	"github.com/magabrotheeeer/bookstore/internal/http/handlers/order/cancel"
	"github.com/magabrotheeeer/bookstore/internal/http/handlers/order/create"
	"github.com/magabrotheeeer/bookstore/internal/http/handlers/order/fulfil"
	orderget "github.com/magabrotheeeer/bookstore/internal/http/handlers/order/get"
	"github.com/magabrotheeeer/bookstore/internal/http/handlers/order/list"
	"github.com/magabrotheeeer/bookstore/internal/http/handlers/payment/initiate"
	"github.com/magabrotheeeer/bookstore/internal/http/handlers/payment/status"
	"github.com/magabrotheeeer/bookstore/internal/http/handlers/payment/webhook"
	"github.com/magabrotheeeer/bookstore/internal/http/handlers/product/content"
	"github.com/magabrotheeeer/bookstore/internal/http/handlers/profile/elevate"
	"github.com/magabrotheeeer/bookstore/internal/http/handlers/profile/me"
	profileupdate "github.com/magabrotheeeer/bookstore/internal/http/handlers/profile/update"
	"github.com/magabrotheeeer/bookstore/internal/http/handlers/report/earnings"
	"github.com/magabrotheeeer/bookstore/internal/http/handlers/report/overview"
	"github.com/magabrotheeeer/bookstore/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookstore/internal/models"
	membershipservice "github.com/magabrotheeeer/bookstore/internal/services/membership"
	orderservice "github.com/magabrotheeeer/bookstore/internal/services/order"
	paymentservice "github.com/magabrotheeeer/bookstore/internal/services/payment"
	profileservice "github.com/magabrotheeeer/bookstore/internal/services/profile"
	reportservice "github.com/magabrotheeeer/bookstore/internal/services/report"
)

// Catalog читает товары каталога.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

// Deps — сервисы, которые нужны маршрутам.
type Deps struct {
	Tokens     middlewarectx.TokenParser
	Catalog    Catalog
	Carts      *cart.Store
	Profiles   *profileservice.Service
	Orders     *orderservice.Service
	Initiator  *paymentservice.Initiator
	Reconciler *paymentservice.Reconciler
	Membership *membershipservice.Service
	Reports    *reportservice.Service
	Health     map[string]health.Check
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		cors.New(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowedHeaders:   []string{"Authorization", "Content-Type", cart.SessionHeader},
			AllowCredentials: true,
		}).Handler,
	)

	guard := middlewarectx.NewGuard(cfg.Routes, logger)
	initiateLimit := middlewarectx.NewRateLimiter(cfg.InitiateRPS, cfg.InitiateBurst, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.Authenticate(d.Tokens, d.Profiles, logger))

		// Открытые конечные точки: корзина живёт в сессии браузера и доступна анониму
		r.Get("/membership", membership.New(logger, d.Membership).ServeHTTP)
		r.Get("/cart", cartget.New(logger, d.Carts).ServeHTTP)
		r.Post("/cart/items", cartadd.New(logger, d.Carts, d.Catalog).ServeHTTP)
		r.Put("/cart/items/{productID}", cartupdate.New(logger, d.Carts).ServeHTTP)
		r.Delete("/cart/items/{productID}", cartremove.New(logger, d.Carts).ServeHTTP)
		r.Delete("/cart", cartempty.New(logger, d.Carts).ServeHTTP)
		r.With(middlewarectx.RequireMembership(d.Membership, logger)).
			Get("/products/{id}/content", content.New(logger, d.Catalog).ServeHTTP)

		// Webhook провайдера: аутентификация по подписи тела
		r.Post("/payments/webhook", webhook.New(logger, d.Reconciler, cfg.WebhookSecret).ServeHTTP)

		// Группа для вошедших пользователей
		r.Group(func(r chi.Router) {
			r.Use(guard.RequireAuth)
			r.Get("/me", me.New(logger).ServeHTTP)
			r.Patch("/me", profileupdate.New(logger, d.Profiles).ServeHTTP)
			r.Get("/orders", list.New(logger, d.Orders).ServeHTTP)
			r.Get("/orders/{id}", orderget.New(logger, d.Orders).ServeHTTP)
			r.Post("/orders/{id}/cancel", cancel.New(logger, d.Orders).ServeHTTP)
			r.Get("/orders/{id}/status", status.New(logger, d.Reconciler, cfg.TimeoutHTTP).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(guard.RequireCapability(models.CapOrder))
				r.Post("/orders", create.New(logger, d.Orders, d.Carts).ServeHTTP)
				r.With(initiateLimit.Middleware).
					Post("/orders/{id}/payments", initiate.New(logger, d.Initiator).ServeHTTP)
			})

			reports := earnings.New(logger, d.Reports)
			r.With(guard.RequireCapability(models.CapAuthorDashboard)).Get("/reports/royalties", reports.Royalties)
			r.With(guard.RequireCapability(models.CapPartnerDashboard)).Get("/reports/payouts", reports.Payouts)
		})

		// Администрирование
		r.Route("/admin", func(r chi.Router) {
			r.Use(guard.RequireRole(models.RoleAdmin, models.RoleFounder))
			r.With(guard.RequireCapability(models.CapManageProfiles)).
				Put("/profiles/{id}", elevate.New(logger, d.Profiles).ServeHTTP)
			r.With(guard.RequireCapability(models.CapManageOrders)).
				Post("/orders/{id}/ship", fulfil.NewShip(logger, d.Orders).ServeHTTP)
			r.With(guard.RequireCapability(models.CapManageOrders)).
				Post("/orders/{id}/deliver", fulfil.NewDeliver(logger, d.Orders).ServeHTTP)
			r.With(guard.RequireCapability(models.CapAdminDashboard)).
				Get("/reports/overview", overview.New(logger, d.Reports).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger, d.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
