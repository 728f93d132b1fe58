package payment

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/bookstore/internal/models"
	"github.com/magabrotheeeer/bookstore/internal/paymentprovider"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *RepoMock) CreateAttempt(ctx context.Context, attempt *models.PaymentAttempt) error {
	return m.Called(ctx, attempt).Error(0)
}

func (m *RepoMock) SetAttemptReference(ctx context.Context, attemptID, reference string) error {
	return m.Called(ctx, attemptID, reference).Error(0)
}

func (m *RepoMock) FailAttempt(ctx context.Context, attemptID string) error {
	return m.Called(ctx, attemptID).Error(0)
}

func (m *RepoMock) LatestAttempt(ctx context.Context, orderID string) (*models.PaymentAttempt, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentAttempt), args.Error(1)
}

func (m *RepoMock) AttemptByReference(ctx context.Context, reference string) (*models.PaymentAttempt, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentAttempt), args.Error(1)
}

func (m *RepoMock) ApplyPaymentResult(ctx context.Context, r models.PaymentResult) (models.OrderStatus, bool, error) {
	args := m.Called(ctx, r)
	return args.Get(0).(models.OrderStatus), args.Bool(1), args.Error(2)
}

func (m *RepoMock) ListStaleAttempts(ctx context.Context, before time.Time, limit int) ([]*models.PaymentAttempt, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PaymentAttempt), args.Error(1)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) Push(ctx context.Context, bearer string, req paymentprovider.PushRequest) (*paymentprovider.PushResponse, error) {
	args := m.Called(ctx, bearer, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.PushResponse), args.Error(1)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishStatus(ctx context.Context, event models.OrderStatusEvent) error {
	return m.Called(ctx, event).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func pendingOrder() *models.Order {
	return &models.Order{
		ID:          "o-1",
		UserID:      "buyer",
		Status:      models.OrderPending,
		TotalAmount: 2500,
		Shipping:    models.Shipping{FullName: "Buyer", Email: "buyer@example.com"},
		Lines:       []models.OrderLine{{OrderID: "o-1", ProductID: "p1", Quantity: 1, PriceAtPurchase: 2500}},
	}
}
