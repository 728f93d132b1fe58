package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/bookstore/internal/models"
)

// CustomClaims описывает данные сессии провайдера идентификации.
// Идентификатор пользователя передаётся в стандартном поле sub.
type CustomClaims struct {
	Email                string `json:"email"`
	Name                 string `json:"name"`
	jwt.RegisteredClaims        // sub, exp, iat
}

// Identity возвращает идентичность пользователя из claims.
func (c *CustomClaims) Identity() *models.Identity {
	return &models.Identity{
		UserID: c.Subject,
		Email:  c.Email,
		Name:   c.Name,
	}
}

// GenerateToken создает токен для identity, подписывая его секретным ключом.
func (j *MakerImpl) GenerateToken(identity models.Identity) (string, error) {
	claims := CustomClaims{
		Email: identity.Email,
		Name:  identity.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken парсит токен, проверяет подпись, срок действия и наличие sub.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("missing subject"))
	}
	return claims, nil
}
