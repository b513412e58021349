package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumberhaus/storefront-backend/internal/app/service"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/internal/middleware"
)

// AdminCookie controls the session cookie written on admin login.
type AdminCookie struct {
	Name   string
	Secure bool
}

type AdminAuthController struct {
	authService service.AdminAuthService
	admin       *middleware.AdminMiddleware
	cookie      AdminCookie
}

func NewAdminAuthController(authService service.AdminAuthService, admin *middleware.AdminMiddleware, cookie AdminCookie) *AdminAuthController {
	if cookie.Name == "" {
		cookie.Name = "admin_session"
	}
	return &AdminAuthController{
		authService: authService,
		admin:       admin,
		cookie:      cookie,
	}
}

type AdminLoginRequest struct {
	Password *string `json:"password"`
}

// Login exchanges the admin password for a session token.
// POST /api/v1/admin/login
func (ctrl *AdminAuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AdminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == nil {
		log.Warn("Invalid admin login request", map[string]interface{}{
			"client_ip": c.ClientIP(),
		})
		apperrors.BadRequest(c, apperrors.ValidationRequired, "password: password is required")
		return
	}

	session, err := ctrl.authService.Login(c.Request.Context(), *req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAdminPassword):
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid password")
		case errors.Is(err, service.ErrAdminNotConfigured):
			apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.InternalConfigError, "Admin access is not configured")
		default:
			respondServiceError(c, err, "admin session")
		}
		return
	}

	maxAge := int(time.Until(session.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ctrl.cookie.Name, session.Token, maxAge, "/", "", ctrl.cookie.Secure, true)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   session.Token,
	})
}

// Logout revokes every admin session presented on the request and clears the
// cookie.
// POST /api/v1/admin/logout
func (ctrl *AdminAuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	for _, token := range ctrl.admin.AdminTokens(c) {
		if err := ctrl.authService.Logout(c.Request.Context(), token); err != nil {
			log.Error("Failed to revoke admin session", err, nil)
			respondServiceError(c, err, "admin session")
			return
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(ctrl.cookie.Name, "", -1, "/", "", ctrl.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
