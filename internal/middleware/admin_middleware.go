package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lumberhaus/storefront-backend/internal/app/service"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
)

const (
	AdminSessionIDKey = "admin_session_id"
	AdminTokenHeader  = "X-Admin-Token"
)

// AdminMiddleware guards admin routes. A credential is accepted only if its
// signature, expiry and role verify and its session has not been revoked.
type AdminMiddleware struct {
	auth        service.AdminAuthService
	cookieNames []string
	loginPath   string
}

func NewAdminMiddleware(auth service.AdminAuthService, cookieNames []string, loginPath string) *AdminMiddleware {
	if len(cookieNames) == 0 {
		cookieNames = []string{"admin_session"}
	}
	if loginPath == "" {
		loginPath = "/admin/login"
	}
	return &AdminMiddleware{
		auth:        auth,
		cookieNames: cookieNames,
		loginPath:   loginPath,
	}
}

// AdminTokens returns every admin credential on the request in precedence
// order: the recognized cookies, then the Authorization header, then
// X-Admin-Token. Duplicates are dropped.
func (m *AdminMiddleware) AdminTokens(c *gin.Context) []string {
	var tokens []string
	add := func(token string) {
		if token == "" {
			return
		}
		for _, t := range tokens {
			if t == token {
				return
			}
		}
		tokens = append(tokens, token)
	}

	for _, name := range m.cookieNames {
		if v, err := c.Cookie(name); err == nil {
			add(strings.TrimSpace(v))
		}
	}
	if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
		add(token)
	}
	add(strings.TrimSpace(c.GetHeader(AdminTokenHeader)))
	return tokens
}

// RequireAdmin accepts the request if any of its credentials verifies, so a
// stale cookie does not shadow a valid header.
func (m *AdminMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		tokens := m.AdminTokens(c)
		if len(tokens) == 0 {
			log.Warn("Admin credential missing", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			m.deny(c)
			return
		}

		var lastErr error
		for _, token := range tokens {
			sessionID, err := m.auth.Verify(c.Request.Context(), token)
			if err != nil {
				lastErr = err
				continue
			}
			c.Set(AdminSessionIDKey, sessionID)
			c.Next()
			return
		}

		log.Warn("Admin credential rejected", map[string]interface{}{
			"path":        c.Request.URL.Path,
			"credentials": len(tokens),
			"error":       lastErr.Error(),
		})
		m.deny(c)
	}
}

func (m *AdminMiddleware) deny(c *gin.Context) {
	if isAPIPath(c.Request.URL.Path) {
		apperrors.AbortWithError(c, http.StatusUnauthorized, apperrors.AuthUnauthorized, "Admin login required")
		return
	}
	target := m.loginPath + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
	c.Redirect(http.StatusFound, target)
	c.Abort()
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

func GetAdminSessionID(c *gin.Context) (string, bool) {
	v, exists := c.Get(AdminSessionIDKey)
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
