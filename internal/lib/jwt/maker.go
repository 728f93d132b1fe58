// Package jwt проверяет токены сессии внешнего провайдера идентификации.
//
// Провайдер подписывает токены HS256 общим секретом; магазин только читает
// из них идентичность пользователя. GenerateToken нужен для локальной
// разработки и тестов.
package jwt

import (
	"time"

	"github.com/magabrotheeeer/bookstore/internal/models"
)

// Maker описывает генерацию и разбор токенов сессии.
type Maker interface {
	// GenerateToken выпускает токен для указанной идентичности.
	GenerateToken(identity models.Identity) (string, error)
	// ParseToken проверяет подпись и срок действия и возвращает claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
