// Package webhook реализует приём уведомлений провайдера о результате платежа.
//
// Тело подписывается провайдером HMAC-SHA256; без верной подписи запрос
// отклоняется до разбора. Повторы и запоздалые события безопасны: сервис
// не откатывает статус заказа назад.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/bookstore/internal/http/response"
	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/models"
	"github.com/magabrotheeeer/bookstore/internal/paymentprovider"
)

const maxBodySize = 64 << 10

// Handler принимает уведомления провайдера.
type Handler struct {
	log      *slog.Logger
	service  Service
	secret   string
	validate *validator.Validate
}

// Service применяет событие провайдера.
type Service interface {
	ApplyEvent(ctx context.Context, event paymentprovider.Event) error
}

// New создает новый Handler. secret — общий ключ подписи уведомлений.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		secret:   secret,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Уведомление провайдера
// @Tags Payments
// @Accept json
// @Produce json
// @Param X-Api-Signature header string true "HMAC-SHA256 тела в base64"
// @Param request body paymentprovider.Event true "Событие"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 404 {object} response.ErrorResponse "Платёж не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Error("failed to read body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if !paymentprovider.VerifySignature(h.secret, body, r.Header.Get(paymentprovider.SignatureHeader)) {
		log.Warn("rejected webhook with bad signature")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid signature"))
		return
	}

	var event paymentprovider.Event
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to decode event", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(event); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.ApplyEvent(r.Context(), event); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Warn("event for unknown payment", slog.String("reference", event.Reference))
		} else {
			log.Error("failed to apply event", slog.String("reference", event.Reference), sl.Err(err))
		}
		response.RenderError(w, r, err)
		return
	}

	render.JSON(w, r, response.Response{Status: response.StatusOK})
}
