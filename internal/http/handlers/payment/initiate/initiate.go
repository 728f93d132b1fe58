// Package initiate реализует HTTP-обработчик запуска push-платежа по заказу.
//
// Обработчик передаёт шлюзу токен сессии покупателя. Статус заказа здесь
// не меняется: результат придёт уведомлением провайдера.
package initiate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/bookstore/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookstore/internal/http/response"
	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/models"
)

// Request — телефон плательщика и сумма.
type Request struct {
	Phone  string `json:"phone" validate:"required,numeric,min=9,max=15"`
	Amount int64  `json:"amount" validate:"gt=0"`
}

// Result — подтверждение шлюза.
type Result struct {
	OrderID   string               `json:"order_id"`
	PaymentID string               `json:"payment_id"`
	Status    models.AttemptStatus `json:"status"`
}

// Handler запускает оплату.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает запуск оплаты.
type Service interface {
	Initiate(ctx context.Context, identity *models.Identity, bearer, orderID, phone string,
		amount int64) (*models.PaymentAttempt, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Оплатить заказ
// @Description Отправляет push-запрос на телефон плательщика. Повтор, пока попытка не завершена, даёт 409.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID заказа"
// @Param request body Request true "Телефон и сумма"
// @Success 202 {object} response.Response{data=Result}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Чужой заказ"
// @Failure 404 {object} response.ErrorResponse "Заказ не найден"
// @Failure 409 {object} response.ErrorResponse "Оплата уже идёт или заказ закрыт"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 502 {object} response.ErrorResponse "Шлюз недоступен"
// @Router /orders/{id}/payments [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.initiate"
	orderID := chi.URLParam(r, "id")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("order_id", orderID),
	)

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

	viewer := middlewarectx.ViewerFrom(r.Context())
	attempt, err := h.service.Initiate(r.Context(), viewer.Identity, middlewarectx.BearerFrom(r.Context()),
		orderID, req.Phone, req.Amount)
	if err != nil {
		if errors.Is(err, models.ErrUpstream) {
			log.Error("payment gateway failed", sl.Err(err))
		} else {
			log.Info("payment not initiated", slog.String("reason", err.Error()))
		}
		response.RenderError(w, r, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, response.StatusOKWithData(Result{
		OrderID:   attempt.OrderID,
		PaymentID: attempt.ProviderReference,
		Status:    attempt.Status,
	}))
}
