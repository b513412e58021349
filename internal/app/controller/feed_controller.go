package controller

import (
	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/lumberhaus/storefront-backend/internal/middleware"
	"github.com/lumberhaus/storefront-backend/internal/websocket"
)

// FeedController upgrades admin connections onto the live order feed.
type FeedController struct {
	hub      *websocket.Hub
	upgrader *gorillaws.Upgrader
}

func NewFeedController(hub *websocket.Hub, allowedOrigins []string) *FeedController {
	return &FeedController{
		hub:      hub,
		upgrader: websocket.NewUpgrader(allowedOrigins),
	}
}

// Connect GET /api/v1/admin/feed
func (ctrl *FeedController) Connect(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Warn("Feed upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	sessionID, _ := middleware.GetAdminSessionID(c)
	client := websocket.NewClient(ctrl.hub, conn, sessionID)
	ctrl.hub.Register(client)

	log.Info("Admin feed connected", map[string]interface{}{
		"session_id": sessionID,
	})

	go client.WritePump()
	go client.ReadPump()
}
