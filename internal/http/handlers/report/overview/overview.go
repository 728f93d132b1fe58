// Package overview реализует сводку заказов по статусам для администратора.
package overview

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookstore/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookstore/internal/http/response"
	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/models"
)

// Handler отдаёт сводку.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает сводку.
type Service interface {
	Overview(ctx context.Context, admin *models.Profile) ([]models.StatusTotals, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Сводка по статусам заказов
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.StatusTotals}
// @Failure 403 {object} response.ErrorResponse "Нет доступа"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/reports/overview [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.report.overview"

	totals, err := h.service.Overview(r.Context(), middlewarectx.ViewerFrom(r.Context()).Profile)
	if err != nil {
		if !errors.Is(err, models.ErrUnauthorized) {
			h.log.Error("failed to build overview",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				sl.Err(err))
		}
		response.RenderError(w, r, err)
		return
	}
	if totals == nil {
		totals = []models.StatusTotals{}
	}
	render.JSON(w, r, response.StatusOKWithData(totals))
}
