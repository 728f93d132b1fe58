// Package add реализует HTTP-обработчик добавления товара в корзину.
//
// Название, цена и категория берутся из каталога, клиент передаёт только
// product_id. Повторное добавление увеличивает количество на 1.
package add

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
	"github.com/magabrotheeeer/bookstore/internal/http/response"
	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/models"
)

// Request — тело запроса.
type Request struct {
	ProductID string `json:"product_id" validate:"required"`
}

// Handler добавляет товар в корзину сессии.
type Handler struct {
	log      *slog.Logger
	store    Store
	catalog  Catalog
	validate *validator.Validate
}

// Store читает и сохраняет корзину сессии.
type Store interface {
	Load(ctx context.Context, session string) (*cart.Cart, error)
	Save(ctx context.Context, session string, c *cart.Cart) error
}

// Catalog возвращает товар по идентификатору.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

// New создает новый Handler.
func New(log *slog.Logger, store Store, catalog Catalog) *Handler {
	return &Handler{
		log:      log,
		store:    store,
		catalog:  catalog,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Добавить товар в корзину
// @Tags Cart
// @Accept json
// @Produce json
// @Param X-Cart-Session header string true "Ключ сессии корзины"
// @Param request body Request true "Товар"
// @Success 200 {object} response.Response{data=cart.View}
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Товар не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации или превышен лимит корзины"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /cart/items [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.add"
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

	product, err := h.catalog.GetProduct(r.Context(), req.ProductID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			log.Error("failed to load product", sl.Err(err))
		}
		response.RenderError(w, r, err)
		return
	}

	c, err := h.store.Load(r.Context(), session)
	if err != nil {
		log.Error("failed to load cart", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load cart"))
		return
	}
	if err := c.Add(*product); err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("cart limit exceeded"))
		return
	}
	if err := h.store.Save(r.Context(), session, c); err != nil {
		log.Error("failed to save cart", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not save cart"))
		return
	}

	log.Info("product added to cart", slog.String("product_id", product.ID))
	render.JSON(w, r, response.StatusOKWithData(c.View()))
}
