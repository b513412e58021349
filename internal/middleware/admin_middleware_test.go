package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumberhaus/storefront-backend/internal/app/service"
	"github.com/lumberhaus/storefront-backend/pkg/redis"
	"github.com/lumberhaus/storefront-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAdminPassword = "hunter2-but-longer"
	testSessionSecret = "admin-session-secret"
)

func setupAdminMiddlewareTest(t *testing.T) (*gin.Engine, service.AdminAuthService) {
	gin.SetMode(gin.TestMode)

	auth := service.NewAdminAuthService(service.AdminAuthConfig{
		Password:      testAdminPassword,
		SessionSecret: testSessionSecret,
		SessionTTL:    time.Hour,
		StoreTimeout:  time.Second,
	}, redis.NewMemorySessionStore(), nil)

	m := NewAdminMiddleware(auth, []string{"admin_session", "admin-token", "adminToken"}, "/admin/login")

	router := gin.New()
	ok := func(c *gin.Context) {
		id, _ := GetAdminSessionID(c)
		c.String(http.StatusOK, id)
	}
	router.GET("/api/v1/admin/customers", m.RequireAdmin(), ok)
	router.GET("/admin/orders", m.RequireAdmin(), ok)
	return router, auth
}

func login(t *testing.T, auth service.AdminAuthService) *service.AdminSession {
	session, err := auth.Login(context.Background(), testAdminPassword)
	require.NoError(t, err)
	return session
}

func TestAdminMiddleware_AcceptsEveryCredentialLocation(t *testing.T) {
	router, auth := setupAdminMiddlewareTest(t)
	session := login(t, auth)

	requests := map[string]func(r *http.Request){
		"cookie admin_session": func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "admin_session", Value: session.Token}) },
		"cookie admin-token":   func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "admin-token", Value: session.Token}) },
		"cookie adminToken":    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "adminToken", Value: session.Token}) },
		"bearer":               func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+session.Token) },
		"header":               func(r *http.Request) { r.Header.Set(AdminTokenHeader, session.Token) },
	}

	for name, decorate := range requests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/customers", nil)
			decorate(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, session.ID, w.Body.String())
		})
	}
}

func TestAdminMiddleware_PresenceIsNotEnough(t *testing.T) {
	router, auth := setupAdminMiddlewareTest(t)
	session := login(t, auth)

	forged, err := util.GenerateAdminToken(session.ID, "some-other-secret", time.Hour)
	require.NoError(t, err)
	expired, err := util.GenerateAdminToken(session.ID, testSessionSecret, -time.Minute)
	require.NoError(t, err)
	// Correctly signed but never stored.
	unknown, err := util.GenerateAdminToken("admin_0_deadbeef", testSessionSecret, time.Hour)
	require.NoError(t, err)

	for name, value := range map[string]string{
		"arbitrary value": "yes",
		"forged":          forged,
		"expired":         expired,
		"unknown session": unknown,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/customers", nil)
			req.AddCookie(&http.Cookie{Name: "admin_session", Value: value})
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "AUTH_UNAUTHORIZED")
		})
	}
}

func TestAdminMiddleware_StaleCookieDoesNotShadowHeader(t *testing.T) {
	router, auth := setupAdminMiddlewareTest(t)
	stale := login(t, auth)
	require.NoError(t, auth.Logout(context.Background(), stale.Token))
	current := login(t, auth)

	expired, err := util.GenerateAdminToken(current.ID, testSessionSecret, -time.Minute)
	require.NoError(t, err)

	requests := map[string]func(r *http.Request){
		"revoked cookie, valid bearer": func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "admin_session", Value: stale.Token})
			r.Header.Set("Authorization", "Bearer "+current.Token)
		},
		"expired cookie, valid header": func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "adminToken", Value: expired})
			r.Header.Set(AdminTokenHeader, current.Token)
		},
		"garbage bearer, valid header": func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer nonsense")
			r.Header.Set(AdminTokenHeader, current.Token)
		},
	}

	for name, decorate := range requests {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/customers", nil)
			decorate(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, current.ID, w.Body.String())
		})
	}
}

func TestAdminMiddleware_AdminTokensOrder(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewAdminMiddleware(nil, []string{"admin_session", "adminToken"}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/orders", nil)
	req.AddCookie(&http.Cookie{Name: "adminToken", Value: "b"})
	req.AddCookie(&http.Cookie{Name: "admin_session", Value: "a"})
	req.Header.Set("Authorization", "Bearer c")
	req.Header.Set(AdminTokenHeader, "a")

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	assert.Equal(t, []string{"a", "b", "c"}, m.AdminTokens(c))
}

func TestAdminMiddleware_RevokedSession(t *testing.T) {
	router, auth := setupAdminMiddlewareTest(t)
	session := login(t, auth)
	require.NoError(t, auth.Logout(context.Background(), session.Token))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/customers", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminMiddleware_PagesRedirectToLogin(t *testing.T) {
	router, _ := setupAdminMiddlewareTest(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/orders?status=pending", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/admin/login?next=%2Fadmin%2Forders%3Fstatus%3Dpending", w.Header().Get("Location"))
}

func TestIsAPIPath(t *testing.T) {
	assert.True(t, isAPIPath("/api"))
	assert.True(t, isAPIPath("/api/v1/admin/orders"))
	assert.False(t, isAPIPath("/apiary"))
	assert.False(t, isAPIPath("/admin"))
}
