package profile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/bookstore/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *RepoMock) EnsureProfile(ctx context.Context, id, fullName string) error {
	return m.Called(ctx, id, fullName).Error(0)
}

func (m *RepoMock) UpdateProfileSelf(ctx context.Context, id, fullName, avatarURL string) error {
	return m.Called(ctx, id, fullName, avatarURL).Error(0)
}

func (m *RepoMock) UpdateProfileAccess(ctx context.Context, id string, role *models.Role, isMember *bool) error {
	return m.Called(ctx, id, role, isMember).Error(0)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestService_Resolve(t *testing.T) {
	identity := &models.Identity{UserID: "u-1", Email: "u1@example.com", Name: "Reader"}
	author := &models.Profile{ID: "u-1", FullName: "Reader", Role: models.RoleAuthor}

	tests := []struct {
		name       string
		identity   *models.Identity
		setupMocks func(r *RepoMock, c *CacheMock)
		want       *models.Profile
	}{
		{
			name:       "nil identity",
			identity:   nil,
			setupMocks: func(_ *RepoMock, _ *CacheMock) {},
			want:       nil,
		},
		{
			name:     "cache hit",
			identity: identity,
			setupMocks: func(_ *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "profile:u-1", mock.Anything).
					Run(func(args mock.Arguments) {
						*args.Get(2).(*models.Profile) = *author
					}).Return(true, nil).Once()
			},
			want: author,
		},
		{
			name:     "existing profile from store",
			identity: identity,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "profile:u-1", mock.Anything).Return(false, nil).Once()
				r.On("GetProfile", mock.Anything, "u-1").Return(author, nil).Once()
				c.On("Set", mock.Anything, "profile:u-1", author, cacheTTL).Return(nil).Once()
			},
			want: author,
		},
		{
			name:     "first login creates customer profile",
			identity: identity,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				created := &models.Profile{ID: "u-1", FullName: "Reader", Role: models.RoleCustomer}
				c.On("Get", mock.Anything, "profile:u-1", mock.Anything).Return(false, errors.New("redis down")).Once()
				r.On("GetProfile", mock.Anything, "u-1").Return(nil, models.ErrNotFound).Once()
				r.On("EnsureProfile", mock.Anything, "u-1", "Reader").Return(nil).Once()
				r.On("GetProfile", mock.Anything, "u-1").Return(created, nil).Once()
				c.On("Set", mock.Anything, "profile:u-1", created, cacheTTL).Return(nil).Once()
			},
			want: &models.Profile{ID: "u-1", FullName: "Reader", Role: models.RoleCustomer},
		},
		{
			name:     "store failure yields no profile",
			identity: identity,
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "profile:u-1", mock.Anything).Return(false, nil).Once()
				r.On("GetProfile", mock.Anything, "u-1").Return(nil, errors.New("db down")).Once()
			},
			want: nil,
		},
		{
			name:     "insert failure yields no profile",
			identity: &models.Identity{UserID: "u-1", Email: "u1@example.com"},
			setupMocks: func(r *RepoMock, c *CacheMock) {
				c.On("Get", mock.Anything, "profile:u-1", mock.Anything).Return(false, nil).Once()
				r.On("GetProfile", mock.Anything, "u-1").Return(nil, models.ErrNotFound).Once()
				r.On("EnsureProfile", mock.Anything, "u-1", "u1@example.com").Return(errors.New("db down")).Once()
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)

			svc := New(repo, cache, newNoopLogger())
			got := svc.Resolve(context.Background(), tt.identity)

			assert.Equal(t, tt.want, got)
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestService_UpdateSelf(t *testing.T) {
	repo := new(RepoMock)
	cache := new(CacheMock)
	updated := &models.Profile{ID: "u-1", FullName: "New Name", AvatarURL: "https://img/1.png", Role: models.RoleCustomer}

	repo.On("UpdateProfileSelf", mock.Anything, "u-1", "New Name", "https://img/1.png").Return(nil).Once()
	cache.On("Invalidate", mock.Anything, "profile:u-1").Return(nil).Once()
	repo.On("GetProfile", mock.Anything, "u-1").Return(updated, nil).Once()

	svc := New(repo, cache, newNoopLogger())
	got, err := svc.UpdateSelf(context.Background(), &models.Identity{UserID: "u-1"}, "New Name", "https://img/1.png")
	require.NoError(t, err)
	assert.Equal(t, updated, got)

	_, err = svc.UpdateSelf(context.Background(), nil, "x", "")
	assert.ErrorIs(t, err, models.ErrUnauthenticated)

	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestService_Elevate(t *testing.T) {
	admin := &models.Profile{ID: "admin", Role: models.RoleAdmin}
	founder := &models.Profile{ID: "founder", Role: models.RoleFounder}
	customer := &models.Profile{ID: "c", Role: models.RoleCustomer}

	roleOf := func(r models.Role) *models.Role { return &r }
	member := true

	tests := []struct {
		name     string
		actor    *models.Profile
		role     *models.Role
		isMember *bool
		allowed  bool
		wantErr  error
	}{
		{name: "anonymous", actor: nil, role: roleOf(models.RoleAuthor), wantErr: models.ErrUnauthenticated},
		{name: "customer cannot elevate", actor: customer, role: roleOf(models.RoleAuthor), wantErr: models.ErrUnauthorized},
		{name: "admin grants author", actor: admin, role: roleOf(models.RoleAuthor), allowed: true},
		{name: "admin grants membership", actor: admin, isMember: &member, allowed: true},
		{name: "admin cannot grant founder", actor: admin, role: roleOf(models.RoleFounder), wantErr: models.ErrUnauthorized},
		{name: "founder grants founder", actor: founder, role: roleOf(models.RoleFounder), allowed: true},
		{name: "unknown role", actor: admin, role: roleOf("superuser"), wantErr: models.ErrInvalidInput},
		{name: "nothing to change", actor: admin, wantErr: models.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			cache := new(CacheMock)
			if tt.allowed {
				repo.On("UpdateProfileAccess", mock.Anything, "target", tt.role, tt.isMember).Return(nil).Once()
				cache.On("Invalidate", mock.Anything, "profile:target").Return(nil).Once()
				repo.On("GetProfile", mock.Anything, "target").Return(&models.Profile{ID: "target"}, nil).Once()
			}

			svc := New(repo, cache, newNoopLogger())
			got, err := svc.Elevate(context.Background(), tt.actor, "target", tt.role, tt.isMember)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				repo.AssertNotCalled(t, "UpdateProfileAccess", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "target", got.ID)
			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}
