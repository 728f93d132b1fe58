// Package cancel реализует HTTP-обработчик отмены неоплаченного заказа.
package cancel

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookstore/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookstore/internal/http/response"
	"github.com/magabrotheeeer/bookstore/internal/models"
)

// Handler отменяет заказ.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает отмену заказа.
type Service interface {
	Cancel(ctx context.Context, viewer models.Viewer, orderID string) (*models.Order, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Отменить заказ
// @Description Только заказ в статусе pending без незавершённой попытки оплаты.
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заказа"
// @Success 200 {object} response.Response{data=models.Order}
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 409 {object} response.ErrorResponse "Заказ нельзя отменить"
// @Router /orders/{id}/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.cancel"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	order, err := h.service.Cancel(r.Context(), middlewarectx.ViewerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		log.Info("order not cancelled", slog.String("reason", err.Error()))
		response.RenderError(w, r, err)
		return
	}
	log.Info("order cancelled", slog.String("order_id", order.ID))
	render.JSON(w, r, response.StatusOKWithData(order))
}
