package controller

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/lumberhaus/storefront-backend/internal/analytics"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/internal/middleware"
)

const maxEventProperties = 32

var eventName = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

// EventController accepts analytics events from the storefront client.
type EventController struct {
	tracker analytics.Tracker
}

func NewEventController(tracker analytics.Tracker) *EventController {
	return &EventController{tracker: tracker}
}

type TrackEventRequest struct {
	Name       string                 `json:"name" binding:"required"`
	Key        string                 `json:"key"`
	Properties map[string]interface{} `json:"properties"`
}

// Track POST /api/v1/events
func (ctrl *EventController) Track(c *gin.Context) {
	var req TrackEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "name: name is required")
		return
	}
	if !eventName.MatchString(req.Name) {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "name: name must be snake_case, at most 64 characters")
		return
	}
	if len(req.Properties) > maxEventProperties {
		apperrors.BadRequest(c, apperrors.ValidationTooLong, "properties: too many properties")
		return
	}

	props := req.Properties
	if props == nil {
		props = map[string]interface{}{}
	}
	if requestID, ok := c.Get(middleware.RequestIDKey); ok {
		props["request_id"] = requestID
	}

	ctrl.tracker.Track(c.Request.Context(), analytics.NewEvent(req.Name, "client", req.Key, props))
	c.JSON(http.StatusAccepted, gin.H{"success": true})
}
