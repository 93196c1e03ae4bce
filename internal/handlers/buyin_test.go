package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/AlenaMolokova/circlepay/internal/models"
	"github.com/AlenaMolokova/circlepay/internal/testutils"
)

func TestBuyInHandlerServeHTTP(t *testing.T) {
	amount50 := mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(decimal.NewFromInt(50)) })

	tests := []struct {
		name           string
		body           string
		setupMocks     func(*testutils.MockBuyInService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "совпадение с заявкой на вывод",
			body: `{"method":"zelle","amount":50}`,
			setupMocks: func(s *testutils.MockBuyInService) {
				s.On("BuyIn", mock.Anything, "zelle", amount50).Return(models.MatchResult{
					Route: models.RouteCashout,
					Cashout: &models.CashoutMatch{
						Amount: decimal.NewFromInt(50), Method: "ZELLE", RequestID: "w1", Receiver: "@w1",
						CandidateAmount: decimal.NewFromInt(50), Remainder: decimal.Zero,
					},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"route":"CASHOUT","cashout":{"amount":"50","method":"ZELLE","request_id":"w1","receiver":"@w1","candidate_amount":"50","remainder":"0"}}`,
		},
		{
			name: "сумма строкой",
			body: `{"method":"ZELLE","amount":"50"}`,
			setupMocks: func(s *testutils.MockBuyInService) {
				s.On("BuyIn", mock.Anything, "ZELLE", amount50).Return(models.MatchResult{Route: models.RouteOwner, Owner: &models.OwnerMatch{
					Method: "ZELLE", Amount: decimal.NewFromInt(50), Fee: decimal.Zero, Placeholder: true,
				}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"route":"OWNER","owner":{"method":"ZELLE","amount":"50","fee":"0","owner":{"method":"","handle":"","display_name":"","instructions":""},"placeholder":true}}`,
		},
		{
			name:           "неверный формат запроса",
			body:           `invalid json`,
			setupMocks:     func(s *testutils.MockBuyInService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Invalid request format"}`,
		},
		{
			name:           "нет метода",
			body:           `{"amount":50}`,
			setupMocks:     func(s *testutils.MockBuyInService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"error":"Method failed required"}`,
		},
		{
			name:           "отрицательная сумма",
			body:           `{"method":"ZELLE","amount":-5}`,
			setupMocks:     func(s *testutils.MockBuyInService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"error":"invalid amount -5: must be positive"}`,
		},
		{
			name: "сумма вне лимитов",
			body: `{"method":"ZELLE","amount":50}`,
			setupMocks: func(s *testutils.MockBuyInService) {
				s.On("BuyIn", mock.Anything, "ZELLE", amount50).Return(models.MatchResult{},
					&models.AmountError{Amount: decimal.NewFromInt(50), Bound: decimal.NewFromInt(100), Reason: "below minimum"})
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"error":"invalid amount 50: below minimum 100"}`,
		},
		{
			name: "отказ в доступе к таблице",
			body: `{"method":"ZELLE","amount":50}`,
			setupMocks: func(s *testutils.MockBuyInService) {
				s.On("BuyIn", mock.Anything, "ZELLE", amount50).Return(models.MatchResult{}, models.ErrCredentialFailure)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"error":"Store unavailable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := new(testutils.MockBuyInService)
			tt.setupMocks(s)
			handler := NewBuyInHandler(s)

			req := httptest.NewRequest(http.MethodPost, "/api/buyins", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			s.AssertExpectations(t)
		})
	}
}
