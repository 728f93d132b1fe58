package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/bookstore/internal/lib/jwt"
	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/models"
)

// TokenParser проверяет токен сессии.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// ProfileResolver разрешает идентичность в профиль. nil — вошёл, но без роли.
type ProfileResolver interface {
	Resolve(ctx context.Context, identity *models.Identity) *models.Profile
}

// Authenticate разбирает заголовок Authorization, если он есть. Запрос без
// токена или с неверным токеном продолжается анонимно: решение о доступе
// принимают Require*.
func Authenticate(tokens TokenParser, profiles ProfileResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Authenticate"

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}
			tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			claims, err := tokens.ParseToken(tokenStr)
			if err != nil {
				log.Warn("invalid or expired token",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
					sl.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			identity := claims.Identity()
			viewer := models.Viewer{
				Identity: identity,
				Profile:  profiles.Resolve(r.Context(), identity),
			}
			next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer, tokenStr)))
		})
	}
}
