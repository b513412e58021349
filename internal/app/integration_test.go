package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumberhaus/storefront-backend/config"
	"github.com/lumberhaus/storefront-backend/internal/analytics"
	"github.com/lumberhaus/storefront-backend/internal/app/controller"
	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/internal/app/repository"
	"github.com/lumberhaus/storefront-backend/internal/app/service"
	"github.com/lumberhaus/storefront-backend/internal/db"
	"github.com/lumberhaus/storefront-backend/internal/middleware"
	"github.com/lumberhaus/storefront-backend/internal/router"
	"github.com/lumberhaus/storefront-backend/internal/websocket"
	"github.com/lumberhaus/storefront-backend/pkg/mailer"
	"github.com/lumberhaus/storefront-backend/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	integrationSecret   = "integration-secret"
	integrationPassword = "mortise-and-tenon"
)

type TestServer struct {
	Router   *gin.Engine
	DB       *gorm.DB
	Products repository.ProductRepository
	Tracker  *analytics.MemoryTracker
}

func setupIntegrationTest(t *testing.T) *TestServer {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	tracker := analytics.NewMemoryTracker()
	mail := mailer.NewLogSender()
	hub := websocket.NewHub()

	// Repositories
	userRepo := repository.NewUserRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	reviewRepo := repository.NewReviewRepository(testDB)
	orderRepo := repository.NewOrderRepository(testDB)
	cartRepo := repository.NewCartRepository(testDB)

	// Services
	authService := service.NewAuthService(userRepo, service.AuthConfig{
		JWTSecret:     integrationSecret,
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
	})
	adminAuth := service.NewAdminAuthService(service.AdminAuthConfig{
		Password:      integrationPassword,
		SessionSecret: integrationSecret + "-admin",
		SessionTTL:    time.Hour,
	}, redis.NewMemorySessionStore(), tracker)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(integrationSecret)
	adminMiddleware := middleware.NewAdminMiddleware(adminAuth, nil, "")

	r := router.NewRouter(router.Controllers{
		Auth:          controller.NewAuthController(authService),
		Product:       controller.NewProductController(service.NewProductService(productRepo, 0)),
		Review:        controller.NewReviewController(service.NewReviewService(reviewRepo, productRepo, tracker, 0)),
		Search:        controller.NewSearchController(service.NewSearchService(productRepo, tracker, service.SearchOptions{})),
		Cart:          controller.NewCartController(service.NewCartService(cartRepo, productRepo, 0)),
		Order:         controller.NewOrderController(service.NewOrderService(orderRepo, cartRepo, productRepo, userRepo, mail, tracker, hub, 0)),
		Email:         controller.NewEmailController(service.NewEmailService(mail)),
		Event:         controller.NewEventController(tracker),
		AdminAuth:     controller.NewAdminAuthController(adminAuth, adminMiddleware, controller.AdminCookie{}),
		AdminOrder:    controller.NewAdminOrderController(service.NewAdminOrderService(orderRepo, tracker, hub, mail, service.AdminOrderConfig{})),
		AdminCustomer: controller.NewAdminCustomerController(service.NewCustomerReportService(orderRepo, 0, 0)),
		Upload:        controller.NewUploadController(nil),
		Feed:          controller.NewFeedController(hub, nil),
	}, authMiddleware, adminMiddleware, &config.Config{
		Server: config.ServerConfig{GinMode: gin.TestMode},
	})

	return &TestServer{
		Router:   r.Setup(),
		DB:       testDB,
		Products: productRepo,
		Tracker:  tracker,
	}
}

func (ts *TestServer) do(t *testing.T, method, path string, body interface{}, headers ...string) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	ts.Router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w.Code, out
}

func (ts *TestServer) register(t *testing.T, email, name, address string) string {
	t.Helper()
	code, resp := ts.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email":    email,
		"password": "password123",
		"name":     name,
		"address":  address,
	})
	require.Equal(t, http.StatusCreated, code, resp)
	tokens := resp["tokens"].(map[string]interface{})
	return "Bearer " + tokens["access_token"].(string)
}

func (ts *TestServer) adminLogin(t *testing.T) string {
	t.Helper()
	code, resp := ts.do(t, http.MethodPost, "/api/v1/admin/login", map[string]string{"password": integrationPassword})
	require.Equal(t, http.StatusOK, code, resp)
	return resp["token"].(string)
}

func TestCompleteCustomerJourney(t *testing.T) {
	ts := setupIntegrationTest(t)
	ctx := context.Background()

	t.Log("Step 1: Stock the catalog")
	bench := &model.Product{Name: "Walnut Bench", Category: "seating", Material: "walnut", Price: 420, InStock: true}
	stool := &model.Product{Name: "Ash Stool", Category: "seating", Material: "ash", Price: 95, InStock: true}
	require.NoError(t, ts.Products.Create(ctx, bench))
	require.NoError(t, ts.Products.Create(ctx, stool))

	t.Log("Step 2: Register")
	auth := ts.register(t, "buyer@example.com", "Grace Hopper", "1 Compiler Way")

	t.Log("Step 3: Browse and search")
	code, resp := ts.do(t, http.MethodGet, "/api/v1/products?category=seating", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(2), resp["total"])

	code, resp = ts.do(t, http.MethodGet, "/api/v1/search/suggestions?q=wal", nil)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, resp["suggestions"], 1)

	t.Log("Step 4: Fill the cart")
	code, resp = ts.do(t, http.MethodPut, "/api/v1/cart", map[string]interface{}{
		"items": []map[string]interface{}{
			{"productId": bench.ID, "quantity": 1},
			{"productId": stool.ID, "quantity": 2},
		},
	}, "Authorization", auth)
	require.Equal(t, http.StatusOK, code, resp)

	t.Log("Step 5: Check out")
	code, resp = ts.do(t, http.MethodPost, "/api/v1/orders", nil, "Authorization", auth)
	require.Equal(t, http.StatusCreated, code, resp)
	order := resp["order"].(map[string]interface{})
	assert.Equal(t, float64(610), order["totalAmount"])
	assert.Equal(t, "1 Compiler Way", order["shippingAddress"])
	orderID := uint(order["id"].(float64))

	code, resp = ts.do(t, http.MethodGet, "/api/v1/cart", nil, "Authorization", auth)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, resp["cart"].(map[string]interface{})["items"])

	t.Log("Step 6: Admin ships it")
	adminToken := ts.adminLogin(t)
	code, resp = ts.do(t, http.MethodPatch, "/api/v1/admin/orders/bulk", map[string]interface{}{
		"orderIds": []uint{orderID},
		"status":   "shipped",
	}, middleware.AdminTokenHeader, adminToken)
	require.Equal(t, http.StatusOK, code, resp)
	assert.Equal(t, "Updated 1 orders", resp["message"])

	t.Log("Step 7: Customer sees the new status")
	code, resp = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", orderID), nil, "Authorization", auth)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "shipped", resp["order"].(map[string]interface{})["status"])

	t.Log("Step 8: Customer report")
	code, resp = ts.do(t, http.MethodGet, "/api/v1/admin/customers", nil, middleware.AdminTokenHeader, adminToken)
	require.Equal(t, http.StatusOK, code, resp)
	customers := resp["customers"].([]interface{})
	require.Len(t, customers, 1)
	assert.Equal(t, "buyer@example.com", customers[0].(map[string]interface{})["email"])
	assert.Equal(t, float64(610), customers[0].(map[string]interface{})["totalSpent"])

	assert.Len(t, ts.Tracker.Named(analytics.EventOrderPlaced), 1)
}

func TestAuthenticationFlow(t *testing.T) {
	ts := setupIntegrationTest(t)

	auth := ts.register(t, "test@example.com", "Test User", "")

	code, _ := ts.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "test@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, code)

	code, resp := ts.do(t, http.MethodGet, "/api/v1/auth/me", nil, "Authorization", auth)
	require.Equal(t, http.StatusOK, code)
	user := resp["user"].(map[string]interface{})
	assert.Equal(t, "test@example.com", user["email"])
	assert.Equal(t, "Test User", user["name"])
}

func TestCustomerTokenIsNotAnAdminCredential(t *testing.T) {
	ts := setupIntegrationTest(t)
	auth := ts.register(t, "mallory@example.com", "Mallory", "")

	code, _ := ts.do(t, http.MethodGet, "/api/v1/admin/orders", nil, "Authorization", auth)
	assert.Equal(t, http.StatusUnauthorized, code)

	// and the other way round
	adminToken := ts.adminLogin(t)
	code, _ = ts.do(t, http.MethodGet, "/api/v1/cart", nil, "Authorization", "Bearer "+adminToken)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestUnauthorizedAccess(t *testing.T) {
	ts := setupIntegrationTest(t)

	protectedRoutes := []string{
		"/api/v1/auth/me",
		"/api/v1/cart",
		"/api/v1/orders",
		"/api/v1/admin/orders",
		"/api/v1/admin/customers",
	}

	for _, route := range protectedRoutes {
		t.Run(route, func(t *testing.T) {
			code, _ := ts.do(t, http.MethodGet, route, nil)
			assert.Equal(t, http.StatusUnauthorized, code)
		})
	}
}
