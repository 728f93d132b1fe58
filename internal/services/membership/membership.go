// Package membership решает, видит ли пользователь платный контент.
package membership

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/models"
)

const (
	settingsKey = "settings:membership"
	settingsTTL = 30 * time.Second
)

// Decision — результат проверки стены членства.
type Decision string

const (
	// DecisionPending — настройки ещё не загружены, показывать нечего.
	DecisionPending Decision = "pending"
	DecisionVisible Decision = "visible"
	DecisionHidden  Decision = "hidden"
)

// CanView решает по настройкам и профилю. Без настроек ответ pending,
// а не hidden: клиент не должен мигать ни стеной, ни контентом.
func CanView(settings *models.Settings, profile *models.Profile) Decision {
	switch {
	case settings == nil:
		return DecisionPending
	case !settings.MembershipWallActive:
		return DecisionVisible
	case profile.Can(models.CapBypassPaywall):
		return DecisionVisible
	case profile != nil && profile.IsMember:
		return DecisionVisible
	}
	return DecisionHidden
}

// Repository читает строку настроек.
type Repository interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
}

// Cache описывает кеш настроек.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Service отдаёт настройки членства и решения стены.
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

// Settings возвращает настройки, сначала из кеша.
func (s *Service) Settings(ctx context.Context) (*models.Settings, error) {
	const op = "membership.Settings"

	var cached models.Settings
	found, err := s.cache.Get(ctx, settingsKey, &cached)
	if err != nil {
		s.log.Warn("failed to read settings from cache", slog.String("op", op), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, settingsKey, settings, settingsTTL); err != nil {
		s.log.Warn("failed to cache settings", slog.String("op", op), sl.Err(err))
	}
	return settings, nil
}

// Decide применяет CanView к актуальным настройкам. Ошибка чтения
// настроек закрывает доступ.
func (s *Service) Decide(ctx context.Context, profile *models.Profile) Decision {
	settings, err := s.Settings(ctx)
	if err != nil {
		s.log.Error("membership settings unavailable, denying", sl.Err(err))
		return DecisionHidden
	}
	return CanView(settings, profile)
}
