package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookstore/internal/config"
	"github.com/magabrotheeeer/bookstore/internal/http/response"
	"github.com/magabrotheeeer/bookstore/internal/models"
	"github.com/magabrotheeeer/bookstore/internal/services/membership"
)

// Guard закрывает маршруты по входу, правам и членству.
type Guard struct {
	routes config.Routes
	log    *slog.Logger
}

// NewGuard создает новый экземпляр Guard.
func NewGuard(routes config.Routes, log *slog.Logger) *Guard {
	return &Guard{routes: routes, log: log}
}

// RequireAuth пропускает только запросы с идентичностью.
func (g *Guard) RequireAuth(next http.Handler) http.Handler {
	return g.require(func(models.Viewer) bool { return true })(next)
}

// RequireCapability пропускает пользователей, чья роль даёт право c.
func (g *Guard) RequireCapability(c models.Capability) func(http.Handler) http.Handler {
	return g.require(func(v models.Viewer) bool { return v.Can(c) })
}

// RequireRole пропускает пользователей с одной из ролей. Иерархии нет.
func (g *Guard) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return g.require(func(v models.Viewer) bool { return v.Profile.HasRole(roles...) })
}

func (g *Guard) require(allowed func(models.Viewer) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer := ViewerFrom(r.Context())
			if !viewer.Authenticated() {
				target := g.routes.LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusFound)
				return
			}
			if !allowed(viewer) {
				g.log.Info("access denied",
					slog.String("request_id", middleware.GetReqID(r.Context())),
					slog.String("user_id", viewer.UserID()),
					slog.String("path", r.URL.Path))
				http.Redirect(w, r, g.routes.DefaultPath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MembershipGate решает, видит ли профиль платный контент.
type MembershipGate interface {
	Decide(ctx context.Context, profile *models.Profile) membership.Decision
}

// RequireMembership отдаёт 402 вместо контента, если стена закрыта для
// пользователя. Ошибки шлюза закрывают доступ.
func RequireMembership(gate MembershipGate, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer := ViewerFrom(r.Context())
			if gate.Decide(r.Context(), viewer.Profile) != membership.DecisionVisible {
				log.Debug("membership wall", slog.String("user_id", viewer.UserID()), slog.String("path", r.URL.Path))
				render.Status(r, http.StatusPaymentRequired)
				render.JSON(w, r, response.Error("membership required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
