// Package get реализует HTTP-обработчик чтения заказа со строками.
package get

import (
	"context"
	"errors"
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

// Handler отдаёт заказ владельцу или сотруднику.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение заказа.
type Service interface {
	Get(ctx context.Context, viewer models.Viewer, orderID string) (*models.Order, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Заказ по ID
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заказа"
// @Success 200 {object} response.Response{data=models.Order}
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /orders/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.get"

	order, err := h.service.Get(r.Context(), middlewarectx.ViewerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			h.log.Error("failed to get order",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				sl.Err(err))
		}
		response.RenderError(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(order))
}
