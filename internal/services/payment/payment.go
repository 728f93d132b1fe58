// Package payment запускает push-платежи по заказам и сверяет их результат.
//
// Initiator резервирует попытку оплаты и вызывает шлюз. Reconciler читает
// состояние заказа для опроса, применяет уведомления провайдера и
// просроченные попытки. Статус заказа меняется только монотонно: условие
// UPDATE в хранилище допускает лишь переходы из таблицы models.OrderStatus.
package payment

import (
	"context"
	"time"

	"github.com/magabrotheeeer/bookstore/internal/models"
	"github.com/magabrotheeeer/bookstore/internal/paymentprovider"
)

// Repository определяет операции хранилища над заказами и попытками оплаты.
type Repository interface {
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	CreateAttempt(ctx context.Context, attempt *models.PaymentAttempt) error
	SetAttemptReference(ctx context.Context, attemptID, reference string) error
	FailAttempt(ctx context.Context, attemptID string) error
	LatestAttempt(ctx context.Context, orderID string) (*models.PaymentAttempt, error)
	AttemptByReference(ctx context.Context, reference string) (*models.PaymentAttempt, error)
	ApplyPaymentResult(ctx context.Context, r models.PaymentResult) (models.OrderStatus, bool, error)
	ListStaleAttempts(ctx context.Context, before time.Time, limit int) ([]*models.PaymentAttempt, error)
}

// Gateway — шлюз push-платежей.
type Gateway interface {
	Push(ctx context.Context, bearer string, req paymentprovider.PushRequest) (*paymentprovider.PushResponse, error)
}

// Publisher отправляет события о смене статуса заказа.
type Publisher interface {
	PublishStatus(ctx context.Context, event models.OrderStatusEvent) error
}
