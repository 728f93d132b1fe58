// Package list реализует HTTP-обработчик истории заказов пользователя.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookstore/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookstore/internal/http/response"
	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/models"
)

const defaultLimit = 20

// Handler отдаёт заказы текущего пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение истории заказов.
type Service interface {
	ListMine(ctx context.Context, identity *models.Identity, limit, offset int) ([]*models.Order, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Мои заказы
// @Tags Orders
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Размер страницы (до 50)"
// @Param offset query int false "Смещение"
// @Success 200 {object} response.Response{data=[]models.Order}
// @Failure 400 {object} response.ErrorResponse "Некорректные параметры"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /orders [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.list"

	limit, okLimit := queryInt(r, "limit", defaultLimit)
	offset, okOffset := queryInt(r, "offset", 0)
	if !okLimit || !okOffset || limit < 1 || offset < 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid limit or offset"))
		return
	}

	viewer := middlewarectx.ViewerFrom(r.Context())
	orders, err := h.service.ListMine(r.Context(), viewer.Identity, limit, offset)
	if err != nil {
		h.log.Error("failed to list orders",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err))
		response.RenderError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	render.JSON(w, r, response.StatusOKWithData(orders))
}

func queryInt(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	return v, err == nil
}
