package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/AlenaMolokova/circlepay/internal/models"
	"github.com/AlenaMolokova/circlepay/internal/testutils"
)

func TestWithdrawHandlerServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMocks     func(*testutils.MockWithdrawalService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "заявка создана",
			body: `{"user_id":"42","username":"alice","amount":"75.50","method":"ZELLE","destination":"alice@example.com","priority":true}`,
			setupMocks: func(s *testutils.MockWithdrawalService) {
				s.On("Submit", mock.Anything, mock.MatchedBy(func(r models.WithdrawalRequest) bool {
					return r.UserID == "42" && r.Amount.String() == "75.5" && r.Priority && r.Destination == "alice@example.com"
				})).Return(models.WithdrawalRequest{RequestID: "w1", Status: "QUEUED"}, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "неверный формат запроса",
			body:           `{"user_id":`,
			setupMocks:     func(s *testutils.MockWithdrawalService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid request format"}`,
		},
		{
			name:           "нет реквизитов",
			body:           `{"user_id":"42","amount":50,"method":"ZELLE"}`,
			setupMocks:     func(s *testutils.MockWithdrawalService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Destination failed required"}`,
		},
		{
			name: "метод выключен",
			body: `{"user_id":"42","amount":50,"method":"WIRE","destination":"x"}`,
			setupMocks: func(s *testutils.MockWithdrawalService) {
				s.On("Submit", mock.Anything, mock.Anything).Return(models.WithdrawalRequest{}, models.ErrMethodDisabled)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"error":"method is not enabled"}`,
		},
		{
			name: "ошибка хранилища",
			body: `{"user_id":"42","amount":50,"method":"ZELLE","destination":"x"}`,
			setupMocks: func(s *testutils.MockWithdrawalService) {
				s.On("Submit", mock.Anything, mock.Anything).Return(models.WithdrawalRequest{}, models.ErrTransientIO)
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"Internal server error"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := new(testutils.MockWithdrawalService)
			tt.setupMocks(s)
			handler := NewWithdrawHandler(s)

			req := httptest.NewRequest(http.MethodPost, "/api/withdrawals", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.JSONEq(t, tt.expectedBody, w.Body.String())
			}
			s.AssertExpectations(t)
		})
	}
}
