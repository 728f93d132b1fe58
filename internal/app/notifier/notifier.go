// Package notifier содержит потребителя событий о статусе заказа,
// который рассылает письма покупателям.
package notifier

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/bookstore/internal/config"
	"github.com/magabrotheeeer/bookstore/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/lib/smtp"
	notifierservice "github.com/magabrotheeeer/bookstore/internal/services/notifier"
)

// App представляет приложение уведомлений.
type App struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	notifier *notifierservice.Service
	retry    rabbitmq.RetryPolicy
	logger   *slog.Logger
}

// New подключается к брокеру и готовит SMTP-транспорт.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.OrdersExchange, rabbitmq.GetOrderQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)

	return &App{
		conn:     conn,
		ch:       ch,
		notifier: notifierservice.New(transport, logger),
		retry: rabbitmq.RetryPolicy{
			MaxAttempts: cfg.ConsumeMaxAttempts,
			Delay:       cfg.ConsumeRetryDelay,
			MaxDelay:    cfg.ConsumeMaxDelay,
		},
		logger: logger,
	}, nil
}

// Run потребляет очередь статусов до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.StatusQueue, a.retry, a.notifier.HandleStatusEvent)
	if err != nil {
		a.logger.Error("failed to start orders.status consumer", sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("notifier shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
