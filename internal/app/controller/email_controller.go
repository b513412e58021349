package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lumberhaus/storefront-backend/internal/app/service"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/internal/middleware"
)

type EmailController struct {
	emailService service.EmailService
}

func NewEmailController(emailService service.EmailService) *EmailController {
	return &EmailController{emailService: emailService}
}

type SendEmailRequest struct {
	Type string                 `json:"type" binding:"required"`
	To   string                 `json:"to" binding:"required"`
	Data map[string]interface{} `json:"data"`
}

// Send POST /api/v1/emails
func (ctrl *EmailController) Send(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "body: type and to are required")
		return
	}

	if err := ctrl.emailService.Send(c.Request.Context(), req.Type, req.To, req.Data); err != nil {
		if errors.Is(err, service.ErrEmailSendFailed) {
			log.Warn("Email was not delivered", map[string]interface{}{
				"type": req.Type,
			})
			apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.EmailSendFailed, "Email could not be sent")
			return
		}
		respondServiceError(c, err, "email")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
