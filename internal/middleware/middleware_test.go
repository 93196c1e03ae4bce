package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlenaMolokova/circlepay/internal/utils"
)

func TestAuthMiddleware(t *testing.T) {
	secret := "test-secret"

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := GetPrincipal(r)
		if !ok {
			utils.WriteJSONError(w, http.StatusInternalServerError, "Principal not found")
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(fmt.Sprintf(`{"sub":%q,"role":%q}`, p.Subject, p.Role)))
	})

	validToken, err := IssueToken(secret, "alice", RoleAdmin, time.Hour)
	require.NoError(t, err)
	expiredToken, err := IssueToken(secret, "alice", RoleAdmin, -time.Hour)
	require.NoError(t, err)
	foreignToken, err := IssueToken("other-secret", "alice", RoleAdmin, time.Hour)
	require.NoError(t, err)
	noSubject := signClaims(t, secret, jwt.MapClaims{"exp": jwt.NewNumericDate(time.Now().Add(time.Hour))})
	noExpiry := signClaims(t, secret, jwt.MapClaims{"sub": "alice"})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "валидный токен",
			authHeader:     "Bearer " + validToken,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"sub":"alice","role":"admin"}`,
		},
		{
			name:           "отсутствует заголовок Authorization",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"Missing or invalid Authorization header"}`,
		},
		{
			name:           "неверный формат заголовка",
			authHeader:     "Basic token",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"Missing or invalid Authorization header"}`,
		},
		{
			name:           "истёкший токен",
			authHeader:     "Bearer " + expiredToken,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"Invalid token"}`,
		},
		{
			name:           "чужая подпись",
			authHeader:     "Bearer " + foreignToken,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"Invalid token"}`,
		},
		{
			name:           "невалидный токен",
			authHeader:     "Bearer invalid.token.here",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"Invalid token"}`,
		},
		{
			name:           "нет subject",
			authHeader:     "Bearer " + noSubject,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"Invalid token claims"}`,
		},
		{
			name:           "нет срока действия",
			authHeader:     "Bearer " + noExpiry,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"error":"Token expired or invalid"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			middleware := AuthMiddleware(secret)(nextHandler)
			middleware.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name           string
		principal      *Principal
		expectedStatus int
	}{
		{name: "администратор", principal: &Principal{Subject: "root", Role: RoleAdmin}, expectedStatus: http.StatusNoContent},
		{name: "обычный пользователь", principal: &Principal{Subject: "bob", Role: "user"}, expectedStatus: http.StatusForbidden},
		{name: "без аутентификации", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", nil)
			if tt.principal != nil {
				req = req.WithContext(WithPrincipal(req.Context(), *tt.principal))
			}
			w := httptest.NewRecorder()

			RequireRole(RoleAdmin)(next).ServeHTTP(w, req)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestRateLimit(t *testing.T) {
	_, err := RateLimit("lots")
	assert.Error(t, err)

	mw, err := RateLimit("2-M")
	require.NoError(t, err)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func signClaims(t *testing.T, secret string, claims jwt.MapClaims) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return tokenString
}
