// Package content отдаёт закрытый контент товара. Маршрут закрывается
// стеной членства в роутере, здесь доступ уже разрешён.
package content

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookstore/internal/http/response"
	"github.com/magabrotheeeer/bookstore/internal/lib/sl"
	"github.com/magabrotheeeer/bookstore/internal/models"
)

// Content — ссылка на закрытый материал.
type Content struct {
	ProductID  string `json:"product_id"`
	Title      string `json:"title"`
	ContentURL string `json:"content_url"`
}

// Handler отдаёт контент.
type Handler struct {
	log     *slog.Logger
	catalog Catalog
}

// Catalog читает товар.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

// New создает новый Handler.
func New(log *slog.Logger, catalog Catalog) *Handler {
	return &Handler{
		log:     log,
		catalog: catalog,
	}
}

// ServeHTTP godoc
// @Summary Закрытый контент товара
// @Tags Membership
// @Produce json
// @Param id path string true "ID товара"
// @Success 200 {object} response.Response{data=Content}
// @Failure 402 {object} response.ErrorResponse "Нужно членство"
// @Failure 404 {object} response.ErrorResponse "Товар или контент не найден"
// @Router /products/{id}/content [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.product.content"

	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			h.log.Error("failed to load product",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				sl.Err(err))
		}
		response.RenderError(w, r, err)
		return
	}
	if product.ContentURL == "" {
		response.RenderError(w, r, models.ErrNotFound)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(Content{
		ProductID:  product.ID,
		Title:      product.Title,
		ContentURL: product.ContentURL,
	}))
}
