// Package status реализует опрос состояния оплаты заказа.
//
// Без параметра wait это однократное чтение. С wait сервер сам ждёт
// терминального статуса не дольше указанного времени и отдаёт последнее
// известное состояние.
package status

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookstore/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookstore/internal/http/response"
	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/models"
	"github.com/magabrotheeeer/bookstore/internal/services/payment"
)

const (
	maxWait = 25 * time.Second
	// waitMargin оставляет серверу время записать ответ до WriteTimeout.
	waitMargin = 5 * time.Second
)

// Handler отдаёт состояние оплаты.
type Handler struct {
	log     *slog.Logger
	service Service
	limit   time.Duration
}

// Service описывает чтение состояния оплаты.
type Service interface {
	WaitForTerminal(ctx context.Context, viewer models.Viewer, orderID string, maxWait time.Duration) (payment.StatusView, error)
}

// New создает новый Handler. Ожидание ограничено maxWait и writeTimeout
// сервера за вычетом waitMargin; writeTimeout 0 означает отсутствие таймаута.
func New(log *slog.Logger, service Service, writeTimeout time.Duration) *Handler {
	limit := maxWait
	if writeTimeout > 0 {
		limit = max(min(limit, writeTimeout-waitMargin), 0)
	}
	return &Handler{
		log:     log,
		service: service,
		limit:   limit,
	}
}

// ServeHTTP godoc
// @Summary Статус оплаты заказа
// @Description terminal=true означает, что опрос можно прекращать.
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заказа"
// @Param wait query string false "Сколько ждать терминального статуса, например 10s (до 25s)"
// @Success 200 {object} response.Response{data=payment.StatusView}
// @Failure 400 {object} response.ErrorResponse "Некорректный wait"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /orders/{id}/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.status"

	var wait time.Duration
	if raw := r.URL.Query().Get("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid wait duration"))
			return
		}
		wait = min(d, h.limit)
	}

	view, err := h.service.WaitForTerminal(r.Context(), middlewarectx.ViewerFrom(r.Context()), chi.URLParam(r, "id"), wait)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) && !errors.Is(err, context.Canceled) {
			h.log.Error("failed to read payment status",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				sl.Err(err))
		}
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(view))
}
