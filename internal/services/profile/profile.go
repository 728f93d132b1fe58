// Package profile разрешает идентичность пользователя в профиль магазина
// и управляет изменением профилей.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/models"
)

// cacheTTL короткий: смена роли администратором видна не позже чем через минуту
// даже без инвалидации.
const cacheTTL = time.Minute

// Repository определяет операции хранилища над профилями.
type Repository interface {
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	EnsureProfile(ctx context.Context, id, fullName string) error
	UpdateProfileSelf(ctx context.Context, id, fullName, avatarURL string) error
	UpdateProfileAccess(ctx context.Context, id string, role *models.Role, isMember *bool) error
}

// Cache описывает кеш профилей.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service — Role Resolver и операции редактирования профиля.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

func cacheKey(id string) string {
	return "profile:" + id
}

// Resolve возвращает профиль для identity. При первом входе создаёт профиль
// с ролью customer. Любая ошибка логируется и даёт nil: пользователь
// аутентифицирован, но без роли.
func (s *Service) Resolve(ctx context.Context, identity *models.Identity) *models.Profile {
	const op = "profile.Resolve"
	if identity == nil || identity.UserID == "" {
		return nil
	}
	log := s.log.With(slog.String("op", op), slog.String("user_id", identity.UserID))

	var cached models.Profile
	found, err := s.cache.Get(ctx, cacheKey(identity.UserID), &cached)
	if err != nil {
		log.Warn("failed to read profile from cache", sl.Err(err))
	}
	if found {
		return &cached
	}

	p, err := s.repo.GetProfile(ctx, identity.UserID)
	if errors.Is(err, models.ErrNotFound) {
		// Вставка не перезаписывает строку, созданную параллельно,
		// поэтому роль, назначенная извне, сохраняется.
		if err = s.repo.EnsureProfile(ctx, identity.UserID, displayName(identity)); err != nil {
			log.Error("failed to create profile", sl.Err(err))
			return nil
		}
		log.Info("created profile on first login")
		p, err = s.repo.GetProfile(ctx, identity.UserID)
	}
	if err != nil {
		log.Error("failed to resolve profile", sl.Err(err))
		return nil
	}

	if err := s.cache.Set(ctx, cacheKey(p.ID), p, cacheTTL); err != nil {
		log.Warn("failed to cache profile", sl.Err(err))
	}
	return p
}

// UpdateSelf меняет имя и аватар текущего пользователя. Роль и членство
// так изменить нельзя.
func (s *Service) UpdateSelf(ctx context.Context, identity *models.Identity, fullName, avatarURL string) (*models.Profile, error) {
	const op = "profile.UpdateSelf"
	if identity == nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}
	if err := s.repo.UpdateProfileSelf(ctx, identity.UserID, fullName, avatarURL); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, identity.UserID)

	p, err := s.repo.GetProfile(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// Elevate меняет роль и/или членство другого пользователя. Требует права
// manage_profiles; назначить founder может только founder.
func (s *Service) Elevate(ctx context.Context, actor *models.Profile, targetID string, role *models.Role, isMember *bool) (*models.Profile, error) {
	const op = "profile.Elevate"
	if actor == nil {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthenticated)
	}
	if !actor.Can(models.CapManageProfiles) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnauthorized)
	}
	if role == nil && isMember == nil {
		return nil, fmt.Errorf("%s: %w: nothing to change", op, models.ErrInvalidInput)
	}
	if role != nil {
		if !role.Valid() {
			return nil, fmt.Errorf("%s: %w: unknown role %q", op, models.ErrInvalidInput, *role)
		}
		if *role == models.RoleFounder && !actor.HasRole(models.RoleFounder) {
			return nil, fmt.Errorf("%s: %w: only a founder may grant founder", op, models.ErrUnauthorized)
		}
	}

	if err := s.repo.UpdateProfileAccess(ctx, targetID, role, isMember); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, targetID)

	s.log.Info("profile access changed",
		slog.String("op", op),
		slog.String("actor", actor.ID),
		slog.String("target", targetID))

	p, err := s.repo.GetProfile(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if err := s.cache.Invalidate(ctx, cacheKey(id)); err != nil {
		s.log.Warn("failed to invalidate profile cache", slog.String("key", cacheKey(id)), sl.Err(err))
	}
}

func displayName(identity *models.Identity) string {
	if identity.Name != "" {
		return identity.Name
	}
	return identity.Email
}
