package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/bookstore/internal/models"
	"github.com/magabrotheeeer/bookstore/internal/paymentprovider"
)

func TestInitiator_Initiate(t *testing.T) {
	buyer := &models.Identity{UserID: "buyer"}
	push := paymentprovider.PushRequest{OrderID: "o-1", Phone: "255700000000", Amount: 2500}
	reserve := func(r *RepoMock) {
		r.On("CreateAttempt", mock.Anything, mock.MatchedBy(func(a *models.PaymentAttempt) bool {
			return a.OrderID == "o-1" && a.Amount == 2500
		})).Run(func(args mock.Arguments) {
			a := args.Get(1).(*models.PaymentAttempt)
			a.ID = "att-1"
			a.Status = models.AttemptPending
		}).Return(nil).Once()
	}

	tests := []struct {
		name       string
		identity   *models.Identity
		bearer     string
		amount     int64
		setupMocks func(r *RepoMock, g *GatewayMock)
		wantErr    error
		wantRef    string
	}{
		{
			name:     "accepted",
			identity: buyer,
			bearer:   "token",
			amount:   2500,
			setupMocks: func(r *RepoMock, g *GatewayMock) {
				r.On("GetOrder", mock.Anything, "o-1").Return(pendingOrder(), nil).Once()
				reserve(r)
				g.On("Push", mock.Anything, "token", push).
					Return(&paymentprovider.PushResponse{Reference: "ref-1", Status: "pending"}, nil).Once()
				r.On("SetAttemptReference", mock.Anything, "att-1", "ref-1").Return(nil).Once()
			},
			wantRef: "ref-1",
		},
		{
			name:       "no session",
			identity:   buyer,
			amount:     2500,
			setupMocks: func(_ *RepoMock, _ *GatewayMock) {},
			wantErr:    models.ErrUnauthenticated,
		},
		{
			name:     "unknown order",
			identity: buyer,
			bearer:   "token",
			amount:   2500,
			setupMocks: func(r *RepoMock, _ *GatewayMock) {
				r.On("GetOrder", mock.Anything, "o-1").Return(nil, models.ErrNotFound).Once()
			},
			wantErr: models.ErrNotFound,
		},
		{
			name:     "foreign order",
			identity: &models.Identity{UserID: "intruder"},
			bearer:   "token",
			amount:   2500,
			setupMocks: func(r *RepoMock, _ *GatewayMock) {
				r.On("GetOrder", mock.Anything, "o-1").Return(pendingOrder(), nil).Once()
			},
			wantErr: models.ErrUnauthorized,
		},
		{
			name:     "order already paid",
			identity: buyer,
			bearer:   "token",
			amount:   2500,
			setupMocks: func(r *RepoMock, _ *GatewayMock) {
				o := pendingOrder()
				o.Status = models.OrderCompleted
				r.On("GetOrder", mock.Anything, "o-1").Return(o, nil).Once()
			},
			wantErr: models.ErrConflict,
		},
		{
			name:     "order without lines",
			identity: buyer,
			bearer:   "token",
			amount:   2500,
			setupMocks: func(r *RepoMock, _ *GatewayMock) {
				o := pendingOrder()
				o.Lines = nil
				r.On("GetOrder", mock.Anything, "o-1").Return(o, nil).Once()
			},
			wantErr: models.ErrConflict,
		},
		{
			name:     "amount mismatch",
			identity: buyer,
			bearer:   "token",
			amount:   100,
			setupMocks: func(r *RepoMock, _ *GatewayMock) {
				r.On("GetOrder", mock.Anything, "o-1").Return(pendingOrder(), nil).Once()
			},
			wantErr: models.ErrInvalidInput,
		},
		{
			name:     "attempt outstanding",
			identity: buyer,
			bearer:   "token",
			amount:   2500,
			setupMocks: func(r *RepoMock, _ *GatewayMock) {
				r.On("GetOrder", mock.Anything, "o-1").Return(pendingOrder(), nil).Once()
				r.On("CreateAttempt", mock.Anything, mock.Anything).Return(models.ErrConflict).Once()
			},
			wantErr: models.ErrConflict,
		},
		{
			name:     "gateway failure releases attempt",
			identity: buyer,
			bearer:   "token",
			amount:   2500,
			setupMocks: func(r *RepoMock, g *GatewayMock) {
				r.On("GetOrder", mock.Anything, "o-1").Return(pendingOrder(), nil).Once()
				reserve(r)
				g.On("Push", mock.Anything, "token", push).
					Return(nil, errors.Join(models.ErrUpstream, errors.New("timeout"))).Once()
				r.On("FailAttempt", mock.Anything, "att-1").Return(nil).Once()
			},
			wantErr: models.ErrUpstream,
		},
		{
			name:     "gateway declines immediately",
			identity: buyer,
			bearer:   "token",
			amount:   2500,
			setupMocks: func(r *RepoMock, g *GatewayMock) {
				r.On("GetOrder", mock.Anything, "o-1").Return(pendingOrder(), nil).Once()
				reserve(r)
				g.On("Push", mock.Anything, "token", push).
					Return(&paymentprovider.PushResponse{Reference: "ref-2", Status: "declined", Message: "wallet locked"}, nil).Once()
				r.On("FailAttempt", mock.Anything, "att-1").Return(nil).Once()
			},
			wantErr: models.ErrUpstream,
		},
		{
			name:     "reference not stored still succeeds",
			identity: buyer,
			bearer:   "token",
			amount:   2500,
			setupMocks: func(r *RepoMock, g *GatewayMock) {
				r.On("GetOrder", mock.Anything, "o-1").Return(pendingOrder(), nil).Once()
				reserve(r)
				g.On("Push", mock.Anything, "token", push).
					Return(&paymentprovider.PushResponse{Reference: "ref-3", Status: "accepted"}, nil).Once()
				r.On("SetAttemptReference", mock.Anything, "att-1", "ref-3").Return(errors.New("db blip")).Once()
			},
			wantRef: "ref-3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			gw := new(GatewayMock)
			tt.setupMocks(repo, gw)

			svc := NewInitiator(repo, gw, newNoopLogger())
			attempt, err := svc.Initiate(context.Background(), tt.identity, tt.bearer, "o-1", "255700000000", tt.amount)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, attempt)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantRef, attempt.ProviderReference)
				assert.Equal(t, models.AttemptPending, attempt.Status)
			}
			repo.AssertExpectations(t)
			gw.AssertExpectations(t)
			repo.AssertNotCalled(t, "ApplyPaymentResult", mock.Anything, mock.Anything)
		})
	}
}
