// Package me реализует HTTP-обработчик чтения собственного профиля.
package me

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookstore/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookstore/internal/http/response"
	"github.com/magabrotheeeer/bookstore/internal/models"
)

// Me — идентичность, профиль и права текущего пользователя.
// Profile пуст, если профиль не удалось разрешить.
type Me struct {
	UserID       string          `json:"user_id"`
	Email        string          `json:"email,omitempty"`
	Profile      *models.Profile `json:"profile"`
	Capabilities []string        `json:"capabilities"`
}

// Handler отдаёт профиль текущего пользователя.
type Handler struct {
	log *slog.Logger
}

// New создает новый Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{log: log}
}

// ServeHTTP godoc
// @Summary Текущий пользователь
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=Me}
// @Router /me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	viewer := middlewarectx.ViewerFrom(r.Context())
	me := Me{
		UserID:       viewer.UserID(),
		Profile:      viewer.Profile,
		Capabilities: []string{},
	}
	if viewer.Identity != nil {
		me.Email = viewer.Identity.Email
	}
	if viewer.Profile != nil {
		me.Capabilities = viewer.Profile.Role.Capabilities().Names()
	}
	render.JSON(w, r, response.StatusOKWithData(me))
}
