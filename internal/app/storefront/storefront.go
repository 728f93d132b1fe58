package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/bookstore/internal/cache"
	"github.com/magabrotheeeer/bookstore/internal/cart"
	"github.com/magabrotheeeer/bookstore/internal/config"
	"github.com/magabrotheeeer/bookstore/internal/http/handlers/health"
	"github.com/magabrotheeeer/bookstore/internal/lib/jwt"
	"github.com/magabrotheeeer/bookstore/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/lib/tracing"
	"github.com/magabrotheeeer/bookstore/internal/migrations"
	"github.com/magabrotheeeer/bookstore/internal/paymentprovider"
	membershipservice "github.com/magabrotheeeer/bookstore/internal/services/membership"
	orderservice "github.com/magabrotheeeer/bookstore/internal/services/order"
	paymentservice "github.com/magabrotheeeer/bookstore/internal/services/payment"
	profileservice "github.com/magabrotheeeer/bookstore/internal/services/profile"
	reportservice "github.com/magabrotheeeer/bookstore/internal/services/report"
	"github.com/magabrotheeeer/bookstore/internal/storage/repository"
)

// App — HTTP-сервер витрины и его ресурсы.
type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	cache    *cache.Cache
	conn     *amqp.Connection
	ch       *amqp.Channel
	shutdown tracing.ShutdownFunc
}

// New поднимает хранилище, кеш, брокер и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "storefront.New"

	shutdown, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		db.Close()
		cacheRedis.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.OrdersExchange, rabbitmq.GetOrderQueues())
	if err != nil {
		conn.Close()
		db.Close()
		cacheRedis.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	publisher := rabbitmq.NewStatusPublisher(ch)

	deps := Deps{
		Tokens:     jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		Catalog:    db,
		Carts:      cart.NewStore(cacheRedis, cfg.Cart.TTL),
		Profiles:   profileservice.New(db, cacheRedis, logger),
		Orders:     orderservice.New(db, publisher, logger),
		Initiator:  paymentservice.NewInitiator(db, paymentprovider.NewClient(cfg.PaymentGateway, logger), logger),
		Reconciler: paymentservice.NewReconciler(db, publisher, logger),
		Membership: membershipservice.New(db, cacheRedis, logger),
		Reports: reportservice.New(db, reportservice.Rates{
			RoyaltyBP: cfg.RoyaltyRateBP,
			PayoutBP:  cfg.PayoutRateBP,
		}),
		Health: map[string]health.Check{
			"postgres": func(ctx context.Context) error { return repository.CheckDatabaseReady(ctx, db) },
			"redis":    func(ctx context.Context) error { return cacheRedis.Db.Ping(ctx).Err() },
			"rabbitmq": func(context.Context) error {
				if conn.IsClosed() {
					return amqp.ErrClosed
				}
				return nil
			},
		},
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, deps)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		cache:    cacheRedis,
		conn:     conn,
		ch:       ch,
		shutdown: shutdown,
	}, nil
}

// Run обслуживает запросы до отмены ctx и затем корректно останавливается.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
		if shutdownErr := a.shutdown(timeoutCtx); shutdownErr != nil {
			a.logger.Error("failed to flush traces", sl.Err(shutdownErr))
		}
	}
	a.close()
	return err
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close cache", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
