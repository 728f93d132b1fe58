// Package empty реализует HTTP-обработчик очистки корзины.
package empty

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

// Handler очищает корзину сессии.
type Handler struct {
	log   *slog.Logger
	store Store
}

// Store удаляет корзину сессии.
type Store interface {
	Clear(ctx context.Context, session string) error
}

// New создает новый Handler.
func New(log *slog.Logger, store Store) *Handler {
	return &Handler{
		log:   log,
		store: store,
	}
}

// ServeHTTP godoc
// @Summary Очистить корзину
// @Tags Cart
// @Produce json
// @Param X-Cart-Session header string true "Ключ сессии корзины"
// @Success 200 {object} response.Response{data=cart.View}
// @Failure 400 {object} response.ErrorResponse "Нет ключа сессии"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /cart [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.clear"

	session := r.Header.Get(cart.SessionHeader)
	if !cart.ValidSession(session) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing or invalid cart session"))
		return
	}

	if err := h.store.Clear(r.Context(), session); err != nil {
		h.log.Error("failed to clear cart",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not clear cart"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData((&cart.Cart{}).View()))
}
