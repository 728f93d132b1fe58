package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/lib/tracing"
	"github.com/magabrotheeeer/bookstore/internal/metrics"
	"github.com/magabrotheeeer/bookstore/internal/models"
	"github.com/magabrotheeeer/bookstore/internal/paymentprovider"
)

const staleBatchSize = 100

var errNotTerminal = errors.New("order is not terminal yet")

// StatusView — состояние заказа и последней попытки оплаты для опроса.
type StatusView struct {
	OrderID       string               `json:"order_id"`
	Status        models.OrderStatus   `json:"status"`
	PaymentID     string               `json:"payment_id,omitempty"`
	AttemptStatus models.AttemptStatus `json:"attempt_status,omitempty"`
	Terminal      bool                 `json:"terminal"`
}

// Reconciler сверяет результат платежей с заказами.
type Reconciler struct {
	repo      Repository
	publisher Publisher
	log       *slog.Logger
	tracer    trace.Tracer
	// pollInterval — начальный интервал опроса в WaitForTerminal.
	pollInterval time.Duration
}

// NewReconciler создает новый экземпляр Reconciler.
func NewReconciler(repo Repository, publisher Publisher, log *slog.Logger) *Reconciler {
	return &Reconciler{
		repo:         repo,
		publisher:    publisher,
		log:          log,
		tracer:       tracing.Tracer("payment"),
		pollInterval: 250 * time.Millisecond,
	}
}

// Status возвращает текущее состояние заказа. Только чтение: повторные
// вызовы ничего не меняют. Чужой заказ неотличим от несуществующего.
func (r *Reconciler) Status(ctx context.Context, viewer models.Viewer, orderID string) (StatusView, error) {
	const op = "payment.Status"
	if !viewer.Authenticated() {
		return StatusView{}, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}

	order, err := r.repo.GetOrder(ctx, orderID)
	if err != nil {
		return StatusView{}, fmt.Errorf("%s: %w", op, err)
	}
	if order.UserID != viewer.UserID() && !viewer.Can(models.CapManageOrders) {
		return StatusView{}, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}

	view := StatusView{
		OrderID:  order.ID,
		Status:   order.Status,
		Terminal: order.Status.IsTerminal(),
	}
	attempt, err := r.repo.LatestAttempt(ctx, orderID)
	switch {
	case errors.Is(err, models.ErrNotFound):
	case err != nil:
		return StatusView{}, fmt.Errorf("%s: %w", op, err)
	default:
		view.PaymentID = attempt.ProviderReference
		view.AttemptStatus = attempt.Status
	}
	return view, nil
}

// WaitForTerminal опрашивает Status с экспоненциальной паузой, пока заказ
// не станет терминальным или не истечёт maxWait. По таймауту возвращается
// последнее нетерминальное состояние без ошибки. Отмена ctx прерывает
// ожидание без побочных эффектов.
func (r *Reconciler) WaitForTerminal(ctx context.Context, viewer models.Viewer, orderID string, maxWait time.Duration) (StatusView, error) {
	const op = "payment.WaitForTerminal"
	if maxWait <= 0 {
		return r.Status(ctx, viewer, orderID)
	}

	var last StatusView
	operation := func() (StatusView, error) {
		view, err := r.Status(ctx, viewer, orderID)
		if err != nil {
			return view, backoff.Permanent(err)
		}
		last = view
		if !view.Terminal {
			return view, errNotTerminal
		}
		return view, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.pollInterval
	b.MaxInterval = 2 * time.Second

	view, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(maxWait))
	switch {
	case err == nil:
		return view, nil
	case ctx.Err() != nil:
		return StatusView{}, fmt.Errorf("%s: %w", op, ctx.Err())
	case errors.Is(err, errNotTerminal):
		return last, nil
	}
	return StatusView{}, fmt.Errorf("%s: %w", op, err)
}

// ApplyEvent применяет уведомление провайдера. Повторное или запоздалое
// событие, которое откатило бы заказ назад, не меняет состояние.
func (r *Reconciler) ApplyEvent(ctx context.Context, event paymentprovider.Event) (err error) {
	const op = "payment.ApplyEvent"

	ctx, span := r.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("payment.reference", event.Reference),
		attribute.String("payment.status", event.Status)))
	defer func() { tracing.End(span, err) }()

	log := r.log.With(slog.String("op", op), slog.String("reference", event.Reference))

	outcome, ok := paymentprovider.ParseStatus(event.Status)
	if !ok {
		metrics.ProviderEvents.WithLabelValues("ignored").Inc()
		log.Info("ignored provider event", slog.String("status", event.Status))
		return nil
	}

	attempt, err := r.findAttempt(ctx, event)
	if err != nil {
		metrics.ProviderEvents.WithLabelValues("unknown_reference").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}

	from, changed, err := r.repo.ApplyPaymentResult(ctx, models.PaymentResult{
		AttemptID:     attempt.ID,
		AttemptStatus: outcome.Attempt,
		OrderID:       attempt.OrderID,
		OrderStatus:   outcome.Order,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("order_id", attempt.OrderID))
	if !changed {
		metrics.ProviderEvents.WithLabelValues("noop").Inc()
		if outcome.Attempt == models.AttemptSucceeded && (from == models.OrderFailed || from == models.OrderCancelled) {
			log.Warn("payment succeeded for a closed order, refund required", slog.String("order_status", string(from)))
			return nil
		}
		log.Info("provider event did not change order",
			slog.String("order_status", string(from)),
			slog.String("event_status", event.Status))
		return nil
	}

	metrics.ProviderEvents.WithLabelValues("applied").Inc()
	r.changed(ctx, log, attempt.OrderID, from, outcome.Order)
	return nil
}

// findAttempt ищет попытку по ссылке провайдера, а если ссылку не успели
// сохранить, то по последней попытке заказа.
func (r *Reconciler) findAttempt(ctx context.Context, event paymentprovider.Event) (*models.PaymentAttempt, error) {
	attempt, err := r.repo.AttemptByReference(ctx, event.Reference)
	if err == nil || !errors.Is(err, models.ErrNotFound) || event.OrderID == "" {
		return attempt, err
	}

	attempt, err = r.repo.LatestAttempt(ctx, event.OrderID)
	if err != nil {
		return nil, err
	}
	if attempt.ProviderReference != "" && attempt.ProviderReference != event.Reference {
		return nil, fmt.Errorf("%w: reference %s does not match order %s", models.ErrNotFound, event.Reference, event.OrderID)
	}
	return attempt, nil
}

// ExpireStale закрывает попытки, висящие в pending дольше ttl: попытка
// failed, заказ failed. Возвращает число закрытых заказов.
func (r *Reconciler) ExpireStale(ctx context.Context, ttl time.Duration) (int, error) {
	const op = "payment.ExpireStale"
	log := r.log.With(slog.String("op", op))

	stale, err := r.repo.ListStaleAttempts(ctx, time.Now().Add(-ttl), staleBatchSize)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	expired := 0
	for _, a := range stale {
		from, changed, err := r.repo.ApplyPaymentResult(ctx, models.PaymentResult{
			AttemptID:     a.ID,
			AttemptStatus: models.AttemptFailed,
			OrderID:       a.OrderID,
			OrderStatus:   models.OrderFailed,
		})
		if err != nil {
			log.Error("failed to expire attempt", slog.String("attempt_id", a.ID), sl.Err(err))
			continue
		}
		if changed {
			expired++
			r.changed(ctx, log.With(slog.String("order_id", a.OrderID)), a.OrderID, from, models.OrderFailed)
		}
	}
	if expired > 0 {
		log.Info("expired stale payment attempts", slog.Int("count", expired))
	}
	return expired, nil
}

// Sweep запускает ExpireStale сразу и затем каждые interval до отмены ctx.
func (r *Reconciler) Sweep(ctx context.Context, interval, ttl time.Duration) {
	r.sweepOnce(ctx, ttl)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweepOnce(ctx, ttl)
		}
	}
}

func (r *Reconciler) sweepOnce(ctx context.Context, ttl time.Duration) {
	if _, err := r.ExpireStale(ctx, ttl); err != nil {
		r.log.Error("sweep failed", sl.Err(err))
	}
}

func (r *Reconciler) changed(ctx context.Context, log *slog.Logger, orderID string, from, to models.OrderStatus) {
	metrics.OrderTransitions.WithLabelValues(string(to)).Inc()
	log.Info("order status changed", slog.String("from", string(from)), slog.String("to", string(to)))

	order, err := r.repo.GetOrder(ctx, orderID)
	if err != nil {
		log.Error("failed to load order for status event", sl.Err(err))
		return
	}
	if err := r.publisher.PublishStatus(ctx, order.StatusEvent(to)); err != nil {
		log.Error("failed to publish status event", sl.Err(err))
	}
}
