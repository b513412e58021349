package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lumberhaus/storefront-backend/internal/app/service"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/internal/middleware"
)

// respondServiceError writes the response for an error returned by a service
// that has no more specific mapping in the handler. Validation failures keep
// their field name; everything else goes through ParseError so driver details
// stay in the logs.
func respondServiceError(c *gin.Context, err error, resource string) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		apperrors.BadRequest(c, verr.Code, verr.Error())
		return
	}

	info := apperrors.ParseError(err, resource)
	if info.Status >= 500 {
		middleware.GetLoggerFromContext(c).Error("Request failed", err, map[string]interface{}{
			"resource": resource,
		})
	}
	apperrors.RespondWithError(c, info.Status, info.Code, info.Message)
}

// queryInt reads a non-negative integer query parameter. Missing or malformed
// values yield def.
func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func paramUint(c *gin.Context, key string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}
