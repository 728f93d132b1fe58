package empty

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/bookstore/internal/cart"
)

type StoreMock struct {
	mock.Mock
}

func (m *StoreMock) Clear(ctx context.Context, session string) error {
	return m.Called(ctx, session).Error(0)
}

func TestHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		session        string
		setupMock      func(*StoreMock)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "cleared",
			session: "s-1",
			setupMock: func(m *StoreMock) {
				m.On("Clear", mock.Anything, "s-1").Return(nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"lines":[],"total":0,"count":0}}`,
		},
		{
			name:    "store error",
			session: "s-1",
			setupMock: func(m *StoreMock) {
				m.On("Clear", mock.Anything, "s-1").Return(errors.New("redis down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not clear cart"}`,
		},
		{
			name:           "no session",
			setupMock:      func(_ *StoreMock) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"missing or invalid cart session"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(StoreMock)
			tt.setupMock(store)

			req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart", nil)
			if tt.session != "" {
				req.Header.Set(cart.SessionHeader, tt.session)
			}
			w := httptest.NewRecorder()
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), store).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			store.AssertExpectations(t)
		})
	}
}
