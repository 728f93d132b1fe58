// Package earnings реализует отчёты о роялти автора и выплатах партнёра.
//
// Оба отчёта устроены одинаково и отличаются только методом сервиса,
// поэтому обработчик один с двумя точками входа.
package earnings

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

// Handler отдаёт отчёты о заработке.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает отчёты по ролям.
type Service interface {
	Royalties(ctx context.Context, author *models.Profile) (*models.EarningsReport, error)
	Payouts(ctx context.Context, partner *models.Profile) (*models.EarningsReport, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// Royalties godoc
// @Summary Роялти автора
// @Description Учитываются строки заказов в статусах processing, shipped, completed.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.EarningsReport}
// @Failure 403 {object} response.ErrorResponse "Нет доступа"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /reports/royalties [get]
func (h *Handler) Royalties(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "handlers.report.royalties", h.service.Royalties)
}

// Payouts godoc
// @Summary Выплаты партнёра
// @Description Учитываются строки заказов в статусах processing, shipped, completed.
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.EarningsReport}
// @Failure 403 {object} response.ErrorResponse "Нет доступа"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /reports/payouts [get]
func (h *Handler) Payouts(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "handlers.report.payouts", h.service.Payouts)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, op string,
	build func(context.Context, *models.Profile) (*models.EarningsReport, error)) {
	report, err := build(r.Context(), middlewarectx.ViewerFrom(r.Context()).Profile)
	if err != nil {
		if !errors.Is(err, models.ErrUnauthorized) {
			h.log.Error("failed to build report",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				sl.Err(err))
		}
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(report))
}
