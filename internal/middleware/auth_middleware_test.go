package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret-for-middleware"

func setupMiddlewareTest() (*gin.Engine, *AuthMiddleware) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router, NewAuthMiddleware(testJWTSecret)
}

func generateTestTokens(t *testing.T, userID uint, email string) *util.TokenPair {
	tokens, err := util.GenerateTokenPair(userID, email, string(model.RoleCustomer), testJWTSecret, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return tokens
}

func whoAmI(c *gin.Context) {
	userID, ok := GetUserID(c)
	email, _ := GetUserEmail(c)
	role, _ := GetUserRole(c)
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "email": email, "role": role, "authenticated": ok})
}

func TestAuthMiddleware_Authenticate_Success(t *testing.T) {
	router, auth := setupMiddlewareTest()
	router.GET("/test", auth.Authenticate(), whoAmI)

	tokens := generateTestTokens(t, 1, "test@example.com")
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"test@example.com"`)
	assert.Contains(t, w.Body.String(), `"role":"customer"`)
}

func TestAuthMiddleware_Authenticate_Rejections(t *testing.T) {
	router, auth := setupMiddlewareTest()
	router.GET("/test", auth.Authenticate(), whoAmI)

	tokens := generateTestTokens(t, 1, "test@example.com")
	expired, err := util.GenerateTokenPair(1, "test@example.com", "customer", testJWTSecret, -time.Minute, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", "AUTH_UNAUTHORIZED"},
		{"wrong scheme", "Basic abc", "AUTH_TOKEN_INVALID"},
		{"garbage token", "Bearer not-a-jwt", "AUTH_TOKEN_INVALID"},
		{"refresh token", "Bearer " + tokens.RefreshToken, "AUTH_TOKEN_INVALID"},
		{"expired token", "Bearer " + expired.AccessToken, "AUTH_TOKEN_EXPIRED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestAuthMiddleware_OptionalAuthenticate(t *testing.T) {
	router, auth := setupMiddlewareTest()
	router.GET("/test", auth.OptionalAuthenticate(), whoAmI)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer junk")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)

	tokens := generateTestTokens(t, 9, "guest@example.com")
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+tokens.AccessToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `"authenticated":true`)
	assert.Contains(t, w.Body.String(), `"user_id":9`)
}

func TestContextGettersWithoutValues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserID(c)
	assert.False(t, ok)
	_, ok = GetUserEmail(c)
	assert.False(t, ok)
	_, ok = GetUserRole(c)
	assert.False(t, ok)
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(LoggingMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "upstream-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "upstream-123", w.Header().Get(RequestIDHeader))
}
