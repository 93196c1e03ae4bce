package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AlenaMolokova/circlepay/internal/middleware"
	"github.com/AlenaMolokova/circlepay/internal/models"
	"github.com/AlenaMolokova/circlepay/internal/testutils"
)

func TestSetupRoutes(t *testing.T) {
	secret := "test-secret"
	withdrawals := new(testutils.MockWithdrawalService)
	withdrawals.On("Get", mock.Anything, "w1").Return(models.WithdrawalRequest{RequestID: "w1"}, nil)
	withdrawals.On("Confirm", mock.Anything, "w1", "root").Return(models.WithdrawalRequest{RequestID: "w1", Status: "PAID"}, true, nil)

	r, err := SetupRoutes(Deps{
		Withdrawals: withdrawals,
		BuyIns:      new(testutils.MockBuyInService),
		Pending:     new(testutils.MockPendingStore),
		JWTSecret:   secret,
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)

	admin, err := middleware.IssueToken(secret, "root", middleware.RoleAdmin, time.Hour)
	require.NoError(t, err)
	user, err := middleware.IssueToken(secret, "bob", "user", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name           string
		method         string
		path           string
		token          string
		expectedStatus int
	}{
		{name: "получение заявки", method: http.MethodGet, path: "/api/withdrawals/w1", expectedStatus: http.StatusOK},
		{name: "подтверждение без токена", method: http.MethodPost, path: "/api/withdrawals/w1/confirm", expectedStatus: http.StatusUnauthorized},
		{name: "подтверждение не админом", method: http.MethodPost, path: "/api/withdrawals/w1/confirm", token: user, expectedStatus: http.StatusForbidden},
		{name: "подтверждение админом", method: http.MethodPost, path: "/api/withdrawals/w1/confirm", token: admin, expectedStatus: http.StatusOK},
		{name: "метрики", method: http.MethodGet, path: "/metrics", expectedStatus: http.StatusOK},
		{name: "неизвестный путь", method: http.MethodGet, path: "/api/user/balance", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestSetupRoutesRejectsBadRate(t *testing.T) {
	_, err := SetupRoutes(Deps{RateLimit: "fast", Logger: zerolog.Nop()})
	assert.Error(t, err)
}
