package payment

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/lib/tracing"
	"github.com/magabrotheeeer/bookstore/internal/metrics"
	"github.com/magabrotheeeer/bookstore/internal/models"
	"github.com/magabrotheeeer/bookstore/internal/paymentprovider"
)

// Initiator запускает push-платёж по заказу.
type Initiator struct {
	repo    Repository
	gateway Gateway
	log     *slog.Logger
	tracer  trace.Tracer
}

// NewInitiator создает новый экземпляр Initiator.
func NewInitiator(repo Repository, gateway Gateway, log *slog.Logger) *Initiator {
	return &Initiator{
		repo:    repo,
		gateway: gateway,
		log:     log,
		tracer:  tracing.Tracer("payment"),
	}
}

// Initiate проверяет заказ, резервирует pending-попытку и вызывает шлюз
// с токеном сессии покупателя. Вторая инициация, пока первая не завершена,
// получает ErrConflict. Статус заказа здесь не меняется.
func (i *Initiator) Initiate(ctx context.Context, identity *models.Identity, bearer, orderID, phone string,
	amount int64) (_ *models.PaymentAttempt, err error) {
	const op = "payment.Initiate"

	ctx, span := i.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("order.id", orderID)))
	defer func() { tracing.End(span, err) }()

	if identity == nil || identity.UserID == "" || bearer == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}

	order, err := i.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if order.UserID != identity.UserID {
		return nil, fmt.Errorf("%s: %w: order belongs to another user", op, models.ErrUnauthorized)
	}
	if order.Status != models.OrderPending {
		return nil, fmt.Errorf("%s: %w: order is %s", op, models.ErrConflict, order.Status)
	}
	if len(order.Lines) == 0 {
		return nil, fmt.Errorf("%s: %w: order has no lines", op, models.ErrConflict)
	}
	if amount != order.TotalAmount {
		return nil, fmt.Errorf("%s: %w: amount %d does not match order total %d",
			op, models.ErrInvalidInput, amount, order.TotalAmount)
	}

	log := i.log.With(slog.String("op", op), slog.String("order_id", orderID))

	attempt := &models.PaymentAttempt{OrderID: orderID, Phone: phone, Amount: amount}
	if err := i.repo.CreateAttempt(ctx, attempt); err != nil {
		metrics.PaymentAttempts.WithLabelValues("conflict").Inc()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.PaymentAttempts.WithLabelValues("reserved").Inc()

	resp, err := i.gateway.Push(ctx, bearer, paymentprovider.PushRequest{
		OrderID: orderID,
		Phone:   phone,
		Amount:  amount,
	})
	if err == nil {
		if outcome, ok := paymentprovider.ParseStatus(resp.Status); ok && outcome.Attempt == models.AttemptFailed {
			err = fmt.Errorf("%w: gateway declined: %s", models.ErrUpstream, resp.Message)
		}
	}
	if err != nil {
		metrics.PaymentAttempts.WithLabelValues("upstream_error").Inc()
		if failErr := i.repo.FailAttempt(ctx, attempt.ID); failErr != nil {
			log.Error("failed to release payment attempt", slog.String("attempt_id", attempt.ID), sl.Err(failErr))
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	attempt.ProviderReference = resp.Reference
	if err := i.repo.SetAttemptReference(ctx, attempt.ID, resp.Reference); err != nil {
		// уведомление провайдера всё равно найдёт попытку по order_id
		log.Error("failed to store provider reference",
			slog.String("attempt_id", attempt.ID),
			slog.String("reference", resp.Reference),
			sl.Err(err))
	}
	metrics.PaymentAttempts.WithLabelValues("accepted").Inc()

	log.Info("payment initiated",
		slog.String("attempt_id", attempt.ID),
		slog.String("reference", resp.Reference))
	return attempt, nil
}
