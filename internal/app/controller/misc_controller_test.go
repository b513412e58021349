package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/lumberhaus/storefront-backend/internal/analytics"
	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/internal/app/service"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/internal/middleware"
	"github.com/lumberhaus/storefront-backend/internal/storage"
	"github.com/lumberhaus/storefront-backend/internal/websocket"
	"github.com/lumberhaus/storefront-backend/pkg/mailer"
	"github.com/lumberhaus/storefront-backend/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	folder string
	err    error
}

func (p *fakePresigner) PresignUpload(_ context.Context, folder, filename, contentType string) (*storage.PresignedUpload, error) {
	if _, ok := storage.ImageContentTypes[contentType]; !ok {
		return nil, storage.ErrContentTypeNotAllowed
	}
	if p.err != nil {
		return nil, p.err
	}
	p.folder = folder
	key := folder + "/" + filename
	return &storage.PresignedUpload{
		UploadURL: "https://bucket.example.com/" + key + "?sig=1",
		FileURL:   "https://cdn.example.com/" + key,
		Key:       key,
	}, nil
}

func TestUploadController_PresignUpload(t *testing.T) {
	presigner := &fakePresigner{}
	r := newTestEngine()
	r.POST("/presign", NewUploadController(presigner).PresignUpload)

	w := doJSON(r, http.MethodPost, "/presign", gin.H{"filename": "chair.png", "contentType": "IMAGE/PNG"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.Equal(t, "products/chair.png", body["key"])
	assert.Equal(t, "https://cdn.example.com/products/chair.png", body["fileUrl"])

	w = doJSON(r, http.MethodPost, "/presign", gin.H{"filename": "a.png", "contentType": "image/png", "folder": "../etc"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "products", presigner.folder)

	w = doJSON(r, http.MethodPost, "/presign", gin.H{"filename": "doc.pdf", "contentType": "application/pdf"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.UploadInvalidFileType, decodeBody(t, w)["error"])

	w = doJSON(r, http.MethodPost, "/presign", gin.H{"filename": "chair.png"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	presigner.err = errors.New("signing failed")
	w = doJSON(r, http.MethodPost, "/presign", gin.H{"filename": "chair.png", "contentType": "image/png"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperrors.UploadFailed, decodeBody(t, w)["error"])
}

func TestUploadController_NotConfigured(t *testing.T) {
	r := newTestEngine()
	r.POST("/presign", NewUploadController(nil).PresignUpload)

	w := doJSON(r, http.MethodPost, "/presign", gin.H{"filename": "chair.png", "contentType": "image/png"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestEventController_Track(t *testing.T) {
	tracker := analytics.NewMemoryTracker()
	r := newTestEngine()
	r.POST("/events", NewEventController(tracker).Track)

	w := doJSON(r, http.MethodPost, "/events", gin.H{"name": "product_viewed", "key": "p-1", "properties": gin.H{"slot": "hero"}})
	require.Equal(t, http.StatusAccepted, w.Code)

	events := tracker.Named("product_viewed")
	require.Len(t, events, 1)
	assert.Equal(t, "client", events[0].Source)
	assert.Equal(t, "p-1", events[0].Key)
	assert.Equal(t, "hero", events[0].Properties["slot"])
	assert.NotEmpty(t, events[0].Properties["request_id"])

	for _, body := range []interface{}{
		gin.H{},
		gin.H{"name": "Product Viewed"},
		gin.H{"name": strings.Repeat("a", 65)},
	} {
		w = doJSON(r, http.MethodPost, "/events", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
	assert.Len(t, tracker.Events(), 1)
}

type failingSender struct{}

func (failingSender) Send(context.Context, string, mailer.Message) error {
	return errors.New("smtp: 554 rejected")
}

func TestEmailController_Send(t *testing.T) {
	r := newTestEngine()
	r.POST("/emails", NewEmailController(service.NewEmailService(mailer.NewLogSender())).Send)

	w := doJSON(r, http.MethodPost, "/emails", gin.H{
		"type": "contact",
		"to":   "studio@example.com",
		"data": gin.H{"name": "Ada", "email": "ada@example.com", "message": "Custom table?"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(r, http.MethodPost, "/emails", gin.H{"type": "newsletter", "to": "studio@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["message"], "type")

	w = doJSON(r, http.MethodPost, "/emails", gin.H{"type": "contact", "to": "nobody"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["message"], "to")

	failing := newTestEngine()
	failing.POST("/emails", NewEmailController(service.NewEmailService(failingSender{})).Send)
	w = doJSON(failing, http.MethodPost, "/emails", gin.H{"type": "contact", "to": "studio@example.com"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, apperrors.EmailSendFailed, decodeBody(t, w)["error"])
}

func TestFeedController_PushesOrderEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	authService := service.NewAdminAuthService(service.AdminAuthConfig{
		Password:      testAdminPassword,
		SessionSecret: "feed-secret",
		SessionTTL:    time.Hour,
	}, redis.NewMemorySessionStore(), nil)
	admin := middleware.NewAdminMiddleware(authService, nil, "")
	session, err := authService.Login(ctx, testAdminPassword)
	require.NoError(t, err)

	r := newTestEngine()
	r.GET("/api/v1/admin/feed", admin.RequireAdmin(), NewFeedController(hub, nil).Connect)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/admin/feed"

	_, resp, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	header := http.Header{}
	header.Set(middleware.AdminTokenHeader, session.Token)
	conn, _, err := gorillaws.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.Publish(model.OrderFeedEvent{Type: service.FeedOrdersUpdated, OrderIDs: []uint{3, 5}, Status: model.OrderStatusShipped})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got model.OrderFeedEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, service.FeedOrdersUpdated, got.Type)
	assert.Equal(t, []uint{3, 5}, got.OrderIDs)
	assert.Equal(t, model.OrderStatusShipped, got.Status)
}
