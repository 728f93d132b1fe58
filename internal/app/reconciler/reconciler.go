// Package reconciler содержит фоновую сверку зависших платежей.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/bookstore/internal/config"
	"github.com/magabrotheeeer/bookstore/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/lib/tracing"
	paymentservice "github.com/magabrotheeeer/bookstore/internal/services/payment"
	"github.com/magabrotheeeer/bookstore/internal/storage/repository"
)

// App представляет приложение сверки.
type App struct {
	reconciler *paymentservice.Reconciler
	db         *repository.Storage
	conn       *amqp.Connection
	ch         *amqp.Channel
	logger     *slog.Logger
	shutdown   tracing.ShutdownFunc
	interval   time.Duration
	ttl        time.Duration
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(ctx, db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New создает новый экземпляр приложения сверки.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	shutdown, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.OrdersExchange, rabbitmq.GetOrderQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	// Миграции применяет витрина; сверка ждёт готовую схему.
	if err := waitForDB(ctx, db); err != nil {
		db.Close()
		closeResources(ch, conn, logger)
		return nil, err
	}

	return &App{
		reconciler: paymentservice.NewReconciler(db, rabbitmq.NewStatusPublisher(ch), logger),
		db:         db,
		conn:       conn,
		ch:         ch,
		logger:     logger,
		shutdown:   shutdown,
		interval:   cfg.SweepInterval,
		ttl:        cfg.AttemptTTL,
	}, nil
}

// Run выполняет сверку каждые interval до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("reconciler started",
		slog.Duration("interval", a.interval),
		slog.Duration("attempt_ttl", a.ttl))

	a.reconciler.Sweep(ctx, a.interval, a.ttl)

	a.logger.Info("reconciler shutting down gracefully")
	timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdown(timeoutCtx); err != nil {
		a.logger.Error("failed to flush traces", sl.Err(err))
	}
	closeResources(a.ch, a.conn, a.logger)
	return a.db.Close()
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}
