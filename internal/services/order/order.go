// Package order превращает корзину в заказ и управляет его жизненным циклом
// вне платёжного потока: просмотр, отмена и отметки исполнения.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/magabrotheeeer/bookstore/internal/cart"
	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/lib/tracing"
	"github.com/magabrotheeeer/bookstore/internal/metrics"
	"github.com/magabrotheeeer/bookstore/internal/models"
)

const defaultListLimit = 50

// Repository определяет операции хранилища, нужные заказам.
type Repository interface {
	GetProducts(ctx context.Context, ids []string) (map[string]models.Product, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Order, error)
	TransitionOrder(ctx context.Context, id string, to models.OrderStatus) (models.OrderStatus, bool, error)
	LatestAttempt(ctx context.Context, orderID string) (*models.PaymentAttempt, error)
}

// Publisher отправляет события о смене статуса заказа.
type Publisher interface {
	PublishStatus(ctx context.Context, event models.OrderStatusEvent) error
}

// Service — Order Builder.
type Service struct {
	repo      Repository
	publisher Publisher
	log       *slog.Logger
	tracer    trace.Tracer
}

// New создает новый экземпляр Service.
func New(repo Repository, publisher Publisher, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       log,
		tracer:    tracing.Tracer("order"),
	}
}

// Place оформляет заказ из строк корзины. Цены берутся из каталога:
// расхождение с ценой в корзине или с заявленной суммой — ErrConflict,
// клиент должен пересчитать корзину. Заказ и строки пишутся одной транзакцией.
func (s *Service) Place(ctx context.Context, identity *models.Identity, shipping models.Shipping,
	lines []cart.Line, declaredTotal int64) (_ *models.Order, err error) {
	const op = "order.Place"

	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(attribute.Int("order.lines", len(lines))))
	defer func() { tracing.End(span, err) }()

	if identity == nil || identity.UserID == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%s: %w: cart is empty", op, models.ErrInvalidInput)
	}

	ids := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 || l.Quantity > models.MaxLineQuantity {
			return nil, fmt.Errorf("%s: %w: quantity of %s must be between 1 and %d",
				op, models.ErrInvalidInput, l.ProductID, models.MaxLineQuantity)
		}
		if _, dup := seen[l.ProductID]; dup {
			return nil, fmt.Errorf("%s: %w: duplicate product %s", op, models.ErrInvalidInput, l.ProductID)
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}

	catalog, err := s.repo.GetProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrUpstream, err)
	}

	order := &models.Order{
		UserID:   identity.UserID,
		Status:   models.OrderPending,
		Shipping: shipping,
		Lines:    make([]models.OrderLine, 0, len(lines)),
	}
	for _, l := range lines {
		p, ok := catalog[l.ProductID]
		if !ok {
			return nil, fmt.Errorf("%s: %w: unknown product %s", op, models.ErrInvalidInput, l.ProductID)
		}
		if p.Price != l.UnitPrice {
			return nil, fmt.Errorf("%s: %w: price of %s changed from %d to %d",
				op, models.ErrConflict, l.ProductID, l.UnitPrice, p.Price)
		}
		order.Lines = append(order.Lines, models.OrderLine{
			ProductID:       p.ID,
			Quantity:        l.Quantity,
			PriceAtPurchase: p.Price,
			Snapshot: models.ProductSnapshot{
				Title:     p.Title,
				Category:  p.Category,
				ImageRef:  p.ImageRef,
				AuthorID:  p.AuthorID,
				PartnerID: p.PartnerID,
			},
		})
	}
	total, err := order.LinesTotal()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	order.TotalAmount = total
	if order.TotalAmount != declaredTotal {
		return nil, fmt.Errorf("%s: %w: declared total %d, computed %d",
			op, models.ErrConflict, declaredTotal, order.TotalAmount)
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	span.SetAttributes(attribute.String("order.id", order.ID))
	metrics.OrdersCreated.Inc()

	s.log.Info("order placed",
		slog.String("op", op),
		slog.String("order_id", order.ID),
		slog.String("user_id", order.UserID),
		slog.Int64("total", order.TotalAmount))

	return order, nil
}

// Get возвращает заказ со строками владельцу или пользователю с правом manage_orders.
// Чужой заказ для остальных неотличим от несуществующего.
func (s *Service) Get(ctx context.Context, viewer models.Viewer, orderID string) (*models.Order, error) {
	const op = "order.Get"
	if !viewer.Authenticated() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if order.UserID != viewer.UserID() && !viewer.Can(models.CapManageOrders) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return order, nil
}

// ListMine возвращает заказы текущего пользователя.
func (s *Service) ListMine(ctx context.Context, identity *models.Identity, limit, offset int) ([]*models.Order, error) {
	const op = "order.ListMine"
	if identity == nil || identity.UserID == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	orders, err := s.repo.ListOrdersByUser(ctx, identity.UserID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	return orders, nil
}

// Cancel отменяет ожидающий оплаты заказ. Пока по заказу идёт платёж,
// отмена запрещена.
func (s *Service) Cancel(ctx context.Context, viewer models.Viewer, orderID string) (*models.Order, error) {
	const op = "order.Cancel"

	order, err := s.Get(ctx, viewer, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if order.Status != models.OrderPending {
		return nil, fmt.Errorf("%s: %w: order is %s", op, models.ErrConflict, order.Status)
	}

	attempt, err := s.repo.LatestAttempt(ctx, orderID)
	switch {
	case errors.Is(err, models.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("%s: %w", op, err)
	case attempt.Status == models.AttemptPending:
		return nil, fmt.Errorf("%s: %w: payment attempt is outstanding", op, models.ErrConflict)
	}

	return s.transition(ctx, op, order, models.OrderCancelled)
}

// MarkShipped отмечает оплаченный заказ отправленным.
func (s *Service) MarkShipped(ctx context.Context, viewer models.Viewer, orderID string) (*models.Order, error) {
	return s.fulfil(ctx, "order.MarkShipped", viewer, orderID, models.OrderShipped)
}

// MarkDelivered отмечает отправленный заказ доставленным (completed).
func (s *Service) MarkDelivered(ctx context.Context, viewer models.Viewer, orderID string) (*models.Order, error) {
	return s.fulfil(ctx, "order.MarkDelivered", viewer, orderID, models.OrderCompleted)
}

func (s *Service) fulfil(ctx context.Context, op string, viewer models.Viewer, orderID string, to models.OrderStatus) (*models.Order, error) {
	if !viewer.Authenticated() {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}
	if !viewer.Can(models.CapManageOrders) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if to == models.OrderCompleted && order.Status != models.OrderShipped {
		return nil, fmt.Errorf("%s: %w: order is %s", op, models.ErrConflict, order.Status)
	}
	return s.transition(ctx, op, order, to)
}

func (s *Service) transition(ctx context.Context, op string, order *models.Order, to models.OrderStatus) (*models.Order, error) {
	from, changed, err := s.repo.TransitionOrder(ctx, order.ID, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !changed {
		return nil, fmt.Errorf("%s: %w: cannot move order from %s to %s", op, models.ErrConflict, from, to)
	}
	order.Status = to
	metrics.OrderTransitions.WithLabelValues(string(to)).Inc()

	log := s.log.With(slog.String("op", op), slog.String("order_id", order.ID))
	log.Info("order status changed", slog.String("from", string(from)), slog.String("to", string(to)))
	if err := s.publisher.PublishStatus(ctx, order.StatusEvent(to)); err != nil {
		log.Error("failed to publish status event", sl.Err(err))
	}
	return order, nil
}
