package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/AlenaMolokova/circlepay/internal/models"
	"github.com/AlenaMolokova/circlepay/internal/testutils"
)

func TestPendingCreateHandlerServeHTTP(t *testing.T) {
	created := models.PendingIntent{
		Token:     "tok-1",
		Owner:     "owner",
		Rail:      "ZELLE",
		Amount:    decimal.NewFromInt(40),
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		ExpiresAt: time.Date(2026, 3, 1, 12, 15, 0, 0, time.UTC),
	}

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*testutils.MockPendingStore)
		expectedStatus int
	}{
		{
			name: "намерение создано",
			body: `{"owner":"owner","rail":"zelle","amount":40}`,
			setupMocks: func(s *testutils.MockPendingStore) {
				s.On("Create", "owner", "zelle", mock.MatchedBy(func(d decimal.Decimal) bool {
					return d.Equal(decimal.NewFromInt(40))
				})).Return(created, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "нет владельца",
			body:           `{"rail":"zelle","amount":40}`,
			setupMocks:     func(s *testutils.MockPendingStore) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "сумма NaN",
			body:           `{"owner":"owner","rail":"zelle","amount":"NaN"}`,
			setupMocks:     func(s *testutils.MockPendingStore) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := new(testutils.MockPendingStore)
			tt.setupMocks(s)
			handler := NewPendingCreateHandler(s)

			req := httptest.NewRequest(http.MethodPost, "/api/deposits/pending", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			s.AssertExpectations(t)
		})
	}
}

func TestPendingGetAndDelete(t *testing.T) {
	s := new(testutils.MockPendingStore)
	s.On("Get", "tok-1").Return(models.PendingIntent{Token: "tok-1", Rail: "ZELLE"}, true)
	s.On("Get", "gone").Return(models.PendingIntent{}, false)
	s.On("Delete", "tok-1").Return()

	w := httptest.NewRecorder()
	NewPendingGetHandler(s).ServeHTTP(w, withURLParam(httptest.NewRequest(http.MethodGet, "/api/deposits/pending/tok-1", nil), "token", "tok-1"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"token":"tok-1"`)

	w = httptest.NewRecorder()
	NewPendingGetHandler(s).ServeHTTP(w, withURLParam(httptest.NewRequest(http.MethodGet, "/api/deposits/pending/gone", nil), "token", "gone"))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	NewPendingDeleteHandler(s).ServeHTTP(w, withURLParam(httptest.NewRequest(http.MethodDelete, "/api/deposits/pending/tok-1", nil), "token", "tok-1"))
	assert.Equal(t, http.StatusNoContent, w.Code)
	s.AssertExpectations(t)
}
