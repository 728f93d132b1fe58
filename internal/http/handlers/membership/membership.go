// Package membership реализует публичное чтение настроек стены членства
// вместе с решением для текущего пользователя.
package membership

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookstore/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookstore/internal/http/response"
	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/models"
	membershipsvc "github.com/magabrotheeeer/bookstore/internal/services/membership"
)

// View — настройки стены и решение для пользователя.
type View struct {
	Settings *models.Settings       `json:"settings"`
	Decision membershipsvc.Decision `json:"decision"`
}

// Handler отдаёт состояние стены членства.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение настроек.
type Service interface {
	Settings(ctx context.Context) (*models.Settings, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Стена членства
// @Description decision=hidden означает, что вместо контента нужно показать предложение членства.
// @Tags Membership
// @Produce json
// @Success 200 {object} response.Response{data=View}
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /membership [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.membership"

	settings, err := h.service.Settings(r.Context())
	if err != nil {
		h.log.Error("failed to load membership settings",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err))
		response.RenderError(w, r, err)
		return
	}

	viewer := middlewarectx.ViewerFrom(r.Context())
	render.JSON(w, r, response.StatusOKWithData(View{
		Settings: settings,
		Decision: membershipsvc.CanView(settings, viewer.Profile),
	}))
}
