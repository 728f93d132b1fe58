// Package update реализует HTTP-обработчик изменения количества товара в
// корзине. Количество меньше 1 удаляет строку.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/bookstore/internal/cart"
	"github.com/magabrotheeeer/bookstore/internal/http/response"
	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/models"
)

// Request — тело запроса. Поле обязательно, 0 и меньше удаляют строку.
type Request struct {
	Quantity *int `json:"quantity"`
}

// Handler меняет количество товара в корзине сессии.
type Handler struct {
	log      *slog.Logger
	store    Store
	validate *validator.Validate
}

// Store читает и сохраняет корзину сессии.
type Store interface {
	Load(ctx context.Context, session string) (*cart.Cart, error)
	Save(ctx context.Context, session string, c *cart.Cart) error
}

// New создает новый Handler.
func New(log *slog.Logger, store Store) *Handler {
	return &Handler{
		log:      log,
		store:    store,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить количество товара
// @Description Количество меньше 1 удаляет строку из корзины.
// @Tags Cart
// @Accept json
// @Produce json
// @Param X-Cart-Session header string true "Ключ сессии корзины"
// @Param productID path string true "ID товара"
// @Param request body Request true "Новое количество"
// @Success 200 {object} response.Response{data=cart.View}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Товара нет в корзине"
// @Failure 422 {object} response.ErrorResponse "Количество или итог вне допустимых пределов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /cart/items/{productID} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.update"
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
	productID := chi.URLParam(r, "productID")

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity == nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Var(*req.Quantity, fmt.Sprintf("max=%d", models.MaxLineQuantity)); err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(fmt.Sprintf("quantity must not exceed %d", models.MaxLineQuantity)))
		return
	}

	c, err := h.store.Load(r.Context(), session)
	if err != nil {
		log.Error("failed to load cart", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load cart"))
		return
	}
	if err := c.SetQuantity(productID, *req.Quantity); err != nil {
		if errors.Is(err, cart.ErrNotInCart) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("product is not in the cart"))
			return
		}
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("cart total exceeds the allowed amount"))
		return
	}
	if err := h.store.Save(r.Context(), session, c); err != nil {
		log.Error("failed to save cart", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not save cart"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(c.View()))
}
