// Package create реализует HTTP-обработчик оформления заказа из корзины.
//
// Строки берутся из корзины сессии, цены перепроверяются сервисом по
// каталогу. После успешного оформления корзина очищается.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/bookstore/internal/cart"
	"github.com/magabrotheeeer/bookstore/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookstore/internal/http/response"
	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/models"
)

// Request — данные оформления.
type Request struct {
	Shipping    models.Shipping `json:"shipping"`
	TotalAmount int64           `json:"total_amount" validate:"gt=0"`
}

// Handler оформляет заказ.
type Handler struct {
	log      *slog.Logger
	service  Service
	carts    CartStore
	validate *validator.Validate
}

// Service описывает оформление заказа.
type Service interface {
	Place(ctx context.Context, identity *models.Identity, shipping models.Shipping,
		lines []cart.Line, declaredTotal int64) (*models.Order, error)
}

// CartStore читает и очищает корзину сессии.
type CartStore interface {
	Load(ctx context.Context, session string) (*cart.Cart, error)
	Clear(ctx context.Context, session string) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, carts CartStore) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		carts:    carts,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Оформить заказ
// @Description Создает заказ со статусом pending из корзины сессии. total_amount должен совпасть с суммой по ценам каталога.
// @Tags Orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param X-Cart-Session header string true "Ключ сессии корзины"
// @Param request body Request true "Доставка и заявленная сумма"
// @Success 201 {object} response.Response{data=models.Order}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 409 {object} response.ErrorResponse "Цены изменились"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /orders [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.order.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	session := r.Header.Get(cart.SessionHeader)
	if !cart.ValidSession(session) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing or invalid cart session"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	c, err := h.carts.Load(r.Context(), session)
	if err != nil {
		log.Error("failed to load cart", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load cart"))
		return
	}

	viewer := middlewarectx.ViewerFrom(r.Context())
	order, err := h.service.Place(r.Context(), viewer.Identity, req.Shipping, c.Lines(), req.TotalAmount)
	if err != nil {
		if !errors.Is(err, models.ErrConflict) && !errors.Is(err, models.ErrInvalidInput) {
			log.Error("failed to place order", sl.Err(err))
		}
		response.RenderError(w, r, err)
		return
	}

	if err := h.carts.Clear(r.Context(), session); err != nil {
		log.Warn("order placed but cart not cleared", slog.String("order_id", order.ID), sl.Err(err))
	}

	log.Info("order placed", slog.String("order_id", order.ID), slog.Int64("total", order.TotalAmount))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(order))
}
