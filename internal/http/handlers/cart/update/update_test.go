package update

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/bookstore/internal/cache"
	"github.com/magabrotheeeer/bookstore/internal/cart"
	"github.com/magabrotheeeer/bookstore/internal/config"
	"github.com/magabrotheeeer/bookstore/internal/models"
)

func TestHandler_ServeHTTP(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()})
	require.NoError(t, err)
	store := cart.NewStore(c, time.Hour)

	seed := func(session string) {
		crt := &cart.Cart{}
		crt.Add(models.Product{ID: "book-a", Title: "Book A", Price: 500})
		crt.Add(models.Product{ID: "book-b", Title: "Book B", Price: 1500})
		require.NoError(t, store.Save(context.Background(), session, crt))
	}

	tests := []struct {
		name           string
		productID      string
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{"set quantity", "book-a", `{"quantity":2}`, http.StatusOK, `"total":2500`},
		{"zero removes line", "book-a", `{"quantity":0}`, http.StatusOK, `"total":1500`},
		{"negative removes line", "book-b", `{"quantity":-3}`, http.StatusOK, `"total":500`},
		{"not in cart", "ghost", `{"quantity":1}`, http.StatusNotFound, "product is not in the cart"},
		{"missing quantity", "book-a", `{}`, http.StatusBadRequest, "invalid request body"},
		{"quantity at limit", "book-a", `{"quantity":9999}`, http.StatusOK, `"total":5001000`},
		{"quantity above limit", "book-a", `{"quantity":10000}`, http.StatusUnprocessableEntity, "quantity must not exceed 9999"},
		{"overflowing quantity", "book-a", `{"quantity":2305843009213693952}`, http.StatusUnprocessableEntity, "quantity must not exceed 9999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := "s-" + strings.ReplaceAll(tt.name, " ", "-")
			seed(session)

			req := httptest.NewRequest(http.MethodPut, "/api/v1/cart/items/"+tt.productID, strings.NewReader(tt.body))
			req.Header.Set(cart.SessionHeader, session)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("productID", tt.productID)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(slog.New(slog.NewTextHandler(io.Discard, nil)), store).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}
