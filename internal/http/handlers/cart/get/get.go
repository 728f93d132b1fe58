// Package get реализует HTTP-обработчик чтения корзины текущей сессии.
package get

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookstore/internal/cart"
	"github.com/magabrotheeeer/bookstore/internal/http/response"
	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
)

// Handler отдаёт корзину с пересчитанными итогами.
type Handler struct {
	log   *slog.Logger
	store Store
}

// Store загружает корзину сессии.
type Store interface {
	Load(ctx context.Context, session string) (*cart.Cart, error)
}

// New создает новый Handler.
func New(log *slog.Logger, store Store) *Handler {
	return &Handler{
		log:   log,
		store: store,
	}
}

// ServeHTTP godoc
// @Summary Получить корзину
// @Description Возвращает строки корзины сессии, сумму и количество единиц.
// @Tags Cart
// @Produce json
// @Param X-Cart-Session header string true "Ключ сессии корзины"
// @Success 200 {object} response.Response{data=cart.View}
// @Failure 400 {object} response.ErrorResponse "Нет ключа сессии"
// @Failure 500 {object} response.ErrorResponse "Ошибка хранилища корзины"
// @Router /cart [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.get"
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

	c, err := h.store.Load(r.Context(), session)
	if err != nil {
		log.Error("failed to load cart", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load cart"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(c.View()))
}
