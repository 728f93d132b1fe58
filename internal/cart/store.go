package cart

import (
	"context"
	"fmt"
	"time"
)

// keyPrefix отделяет данные корзины от остальных ключей кеша.
const keyPrefix = "cart:"

// SessionHeader — заголовок, в котором клиент передаёт ключ сессии корзины.
const SessionHeader = "X-Cart-Session"

// maxSessionLen ограничивает длину ключа сессии.
const maxSessionLen = 128

// ValidSession проверяет ключ сессии из заголовка.
func ValidSession(session string) bool {
	return session != "" && len(session) <= maxSessionLen
}

// Cache описывает хранилище ключ-значение, в котором живут корзины.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Store сохраняет корзину за сессией браузера или устройства.
type Store struct {
	cache Cache
	ttl   time.Duration
}

// NewStore создаёт Store. ttl продлевается при каждой записи.
func NewStore(cache Cache, ttl time.Duration) *Store {
	return &Store{cache: cache, ttl: ttl}
}

// Load возвращает корзину сессии; отсутствующая корзина — пустая.
func (s *Store) Load(ctx context.Context, session string) (*Cart, error) {
	const op = "cart.Store.Load"
	var lines []Line
	if _, err := s.cache.Get(ctx, key(session), &lines); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return New(lines), nil
}

// Save сохраняет корзину. Пустая корзина удаляет ключ.
func (s *Store) Save(ctx context.Context, session string, c *Cart) error {
	const op = "cart.Store.Save"
	if c.IsEmpty() {
		return s.Clear(ctx, session)
	}
	if err := s.cache.Set(ctx, key(session), c.Lines(), s.ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Clear удаляет корзину сессии.
func (s *Store) Clear(ctx context.Context, session string) error {
	const op = "cart.Store.Clear"
	if err := s.cache.Invalidate(ctx, key(session)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func key(session string) string {
	return keyPrefix + session
}
