// Package elevate реализует административное изменение роли и членства.
package elevate

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookstore/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookstore/internal/http/response"
	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/models"
)

// Request — изменяемые поля; отсутствующее поле не меняется.
type Request struct {
	Role     *models.Role `json:"role,omitempty"`
	IsMember *bool        `json:"is_member,omitempty"`
}

// Handler меняет доступ другого пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает изменение доступа.
type Service interface {
	Elevate(ctx context.Context, actor *models.Profile, targetID string, role *models.Role, isMember *bool) (*models.Profile, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Назначить роль или членство
// @Description Назначить founder может только founder.
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID профиля"
// @Param request body Request true "Роль и/или членство"
// @Success 200 {object} response.Response{data=models.Profile}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Профиль не найден"
// @Failure 422 {object} response.ErrorResponse "Неизвестная роль или пустой запрос"
// @Router /admin/profiles/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.elevate"
	targetID := chi.URLParam(r, "id")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("target", targetID),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	viewer := middlewarectx.ViewerFrom(r.Context())
	profile, err := h.service.Elevate(r.Context(), viewer.Profile, targetID, req.Role, req.IsMember)
	if err != nil {
		log.Warn("profile access not changed", slog.String("reason", err.Error()))
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(profile))
}
