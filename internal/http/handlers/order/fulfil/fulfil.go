// Package fulfil реализует HTTP-обработчики отгрузки и подтверждения
// доставки заказа сотрудником.
package fulfil

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

// Action — переход, который выполняет обработчик.
type Action func(ctx context.Context, viewer models.Viewer, orderID string) (*models.Order, error)

// Handler выполняет переход заказа.
type Handler struct {
	log    *slog.Logger
	name   string
	action Action
}

// Service описывает переходы выполнения заказа.
type Service interface {
	MarkShipped(ctx context.Context, viewer models.Viewer, orderID string) (*models.Order, error)
	MarkDelivered(ctx context.Context, viewer models.Viewer, orderID string) (*models.Order, error)
}

// NewShip создает обработчик отгрузки.
//
// @Summary Отгрузить заказ
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заказа"
// @Success 200 {object} response.Response{data=models.Order}
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 409 {object} response.ErrorResponse "Недопустимый переход"
// @Router /admin/orders/{id}/ship [post]
func NewShip(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, name: "ship", action: service.MarkShipped}
}

// NewDeliver создает обработчик подтверждения доставки.
//
// @Summary Подтвердить доставку
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заказа"
// @Success 200 {object} response.Response{data=models.Order}
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 409 {object} response.ErrorResponse "Недопустимый переход"
// @Router /admin/orders/{id}/deliver [post]
func NewDeliver(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, name: "deliver", action: service.MarkDelivered}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.fulfil"
	log := h.log.With(
		slog.String("op", op),
		slog.String("action", h.name),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	order, err := h.action(r.Context(), middlewarectx.ViewerFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		log.Warn("fulfilment refused", slog.String("reason", err.Error()))
		response.RenderError(w, r, err)
		return
	}
	log.Info("order fulfilment updated", slog.String("order_id", order.ID), slog.String("status", string(order.Status)))
	render.JSON(w, r, response.StatusOKWithData(order))
}
