// Package middlewarectx содержит HTTP middleware аутентификации и
// авторизации витрины и доступ к данным пользователя из контекста запроса.
//
// Authenticate читает необязательный Bearer-токен и кладёт в контекст
// идентичность, сам токен и профиль. Require* закрывают маршруты:
// без входа — редирект на страницу входа с адресом возврата, без прав —
// редирект на нейтральную страницу, чтобы не раскрывать существование маршрута.
package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/bookstore/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// ViewerKey — ключ для models.Viewer в контексте.
	ViewerKey Key = "viewer"
	// BearerKey — ключ для исходного токена сессии.
	BearerKey Key = "bearer"
)

// WithViewer кладёт пользователя и его токен в контекст.
func WithViewer(ctx context.Context, viewer models.Viewer, bearer string) context.Context {
	ctx = context.WithValue(ctx, ViewerKey, viewer)
	return context.WithValue(ctx, BearerKey, bearer)
}

// ViewerFrom возвращает пользователя запроса; для анонима — нулевой Viewer.
func ViewerFrom(ctx context.Context) models.Viewer {
	v, _ := ctx.Value(ViewerKey).(models.Viewer)
	return v
}

// BearerFrom возвращает токен сессии запроса.
func BearerFrom(ctx context.Context) string {
	s, _ := ctx.Value(BearerKey).(string)
	return s
}
