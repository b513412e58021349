package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/internal/middleware"
	"github.com/lumberhaus/storefront-backend/internal/storage"
)

const defaultUploadFolder = "products"

type UploadController struct {
	storage storage.Presigner
}

func NewUploadController(presigner storage.Presigner) *UploadController {
	return &UploadController{storage: presigner}
}

type PresignUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	Folder      string `json:"folder"`
}

// PresignUpload issues a short-lived PUT URL for a product image.
// POST /api/v1/admin/uploads/presign
func (ctrl *UploadController) PresignUpload(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if ctrl.storage == nil {
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.InternalConfigError, "Image uploads are not configured")
		return
	}

	var req PresignUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid presign request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationRequired, "body: filename and contentType are required")
		return
	}

	folder := strings.Trim(req.Folder, "/ ")
	if folder == "" || strings.Contains(folder, "..") {
		folder = defaultUploadFolder
	}

	upload, err := ctrl.storage.PresignUpload(c.Request.Context(), folder, req.Filename, strings.ToLower(req.ContentType))
	if err != nil {
		if errors.Is(err, storage.ErrContentTypeNotAllowed) {
			apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only JPEG, PNG and WEBP images are allowed")
			return
		}
		log.Error("Failed to presign upload", err, map[string]interface{}{
			"filename": req.Filename,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Failed to prepare upload")
		return
	}

	log.Info("Upload presigned", map[string]interface{}{
		"key": upload.Key,
	})
	c.JSON(http.StatusOK, upload)
}
