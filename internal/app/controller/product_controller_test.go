package controller

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lumberhaus/storefront-backend/internal/analytics"
	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/internal/app/repository"
	"github.com/lumberhaus/storefront-backend/internal/app/service"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/internal/middleware"
	"github.com/lumberhaus/storefront-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type catalogFixture struct {
	router   *gin.Engine
	products []model.Product
	reviews  repository.ReviewRepository
	tracker  *analytics.MemoryTracker
}

func setupCatalogControllerTest(t *testing.T) catalogFixture {
	testDB := newTestDB(t)
	productRepo := repository.NewProductRepository(testDB)
	reviewRepo := repository.NewReviewRepository(testDB)
	tracker := analytics.NewMemoryTracker()

	f := catalogFixture{
		reviews: reviewRepo,
		tracker: tracker,
		products: []model.Product{
			{Name: "Oak Table", Category: "tables", Material: "oak", Price: 899, InStock: true},
			{Name: "Cloak Stand", Category: "hallway", Material: "oak", Price: 129, InStock: true},
			{Name: "Walnut Chair", Category: "chairs", Material: "walnut", Price: 249, InStock: false},
			{Name: "Oak Chair", Category: "chairs", Material: "oak", Price: 199, InStock: true},
		},
	}
	for i := range f.products {
		require.NoError(t, productRepo.Create(context.Background(), &f.products[i]))
	}

	productCtrl := NewProductController(service.NewProductService(productRepo, 0))
	reviewCtrl := NewReviewController(service.NewReviewService(reviewRepo, productRepo, tracker, 0))
	searchCtrl := NewSearchController(service.NewSearchService(productRepo, tracker, service.SearchOptions{}))
	authMiddleware := middleware.NewAuthMiddleware(testJWTSecret)

	r := newTestEngine()
	r.GET("/products", productCtrl.ListProducts)
	r.GET("/products/:id", productCtrl.GetProduct)
	r.GET("/products/:id/reviews", reviewCtrl.ListReviews)
	r.POST("/products/:id/reviews", authMiddleware.Authenticate(), reviewCtrl.CreateReview)
	r.POST("/reviews/:id/vote", reviewCtrl.Vote)
	r.GET("/categories", productCtrl.ListCategories)
	r.POST("/admin/products", productCtrl.CreateProduct)
	r.GET("/search", searchCtrl.Search)
	r.GET("/search/suggestions", searchCtrl.Suggestions)
	f.router = r
	return f
}

func customerToken(t *testing.T, userID uint, email string) string {
	t.Helper()
	tokens, err := util.GenerateTokenPair(userID, email, string(model.RoleCustomer), testJWTSecret, time.Hour, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tokens.AccessToken
}

func productNames(t *testing.T, list interface{}) []string {
	t.Helper()
	items, ok := list.([]interface{})
	require.True(t, ok)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.(map[string]interface{})["name"].(string))
	}
	return out
}

func TestProductController_ListProducts(t *testing.T) {
	f := setupCatalogControllerTest(t)

	w := doJSON(f.router, http.MethodGet, "/products?material=oak&inStock=true&sort=price&order=asc", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, float64(3), body["total"])
	assert.Equal(t, []string{"Cloak Stand", "Oak Chair", "Oak Table"}, productNames(t, body["products"]))

	w = doJSON(f.router, http.MethodGet, "/products?minPrice=150&maxPrice=300&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, float64(2), body["total"])
	assert.Len(t, body["products"], 1)
}

func TestProductController_ListProductsRejects(t *testing.T) {
	f := setupCatalogControllerTest(t)

	for _, query := range []string{
		"minPrice=cheap",
		"inStock=maybe",
		"sort=popularity",
		"minPrice=500&maxPrice=100",
	} {
		t.Run(query, func(t *testing.T) {
			w := doJSON(f.router, http.MethodGet, "/products?"+query, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestProductController_GetProduct(t *testing.T) {
	f := setupCatalogControllerTest(t)

	w := doJSON(f.router, http.MethodGet, "/products/"+f.products[0].ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	product := decodeBody(t, w)["product"].(map[string]interface{})
	assert.Equal(t, "Oak Table", product["name"])

	w = doJSON(f.router, http.MethodGet, "/products/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ProductNotFound, decodeBody(t, w)["error"])
}

func TestProductController_ListCategories(t *testing.T) {
	f := setupCatalogControllerTest(t)

	w := doJSON(f.router, http.MethodGet, "/categories", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []interface{}{"tables", "hallway", "chairs"}, decodeBody(t, w)["categories"])
}

func TestProductController_CreateProduct(t *testing.T) {
	f := setupCatalogControllerTest(t)

	w := doJSON(f.router, http.MethodPost, "/admin/products", gin.H{
		"name":         "Heirloom Armoire",
		"category":     "Storage",
		"exclusive":    true,
		"priceDisplay": "Contact for price",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := decodeBody(t, w)["product"].(map[string]interface{})
	assert.NotEmpty(t, product["id"])
	assert.Equal(t, "storage", product["category"])
	assert.Equal(t, "heirloom-armoire", product["slug"])

	w = doJSON(f.router, http.MethodPost, "/admin/products", gin.H{"name": "Bench", "category": "seating", "exclusive": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["message"], "priceDisplay")

	w = doJSON(f.router, http.MethodPost, "/admin/products", gin.H{"category": "seating"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchController_Suggestions(t *testing.T) {
	f := setupCatalogControllerTest(t)

	w := doJSON(f.router, http.MethodGet, "/search/suggestions?q=OAK", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	names := productNames(t, body["suggestions"])
	require.Len(t, names, 3)
	// prefix matches before substring-only matches
	assert.ElementsMatch(t, []string{"Oak Chair", "Oak Table"}, names[:2])
	assert.Equal(t, "Cloak Stand", names[2])
	assert.Len(t, f.tracker.Named(analytics.EventSearchPerformed), 1)
}

func TestSearchController_SuggestionsEmptyQuery(t *testing.T) {
	f := setupCatalogControllerTest(t)

	w := doJSON(f.router, http.MethodGet, "/search/suggestions?q=%20%20", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"suggestions":[]}`, w.Body.String())
	assert.Empty(t, f.tracker.Named(analytics.EventSearchPerformed))
}

func TestSearchController_Search(t *testing.T) {
	f := setupCatalogControllerTest(t)

	w := doJSON(f.router, http.MethodGet, "/search?q=chair", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(2), body["total"])
	assert.ElementsMatch(t, []string{"Oak Chair", "Walnut Chair"}, productNames(t, body["products"]))
}

func TestReviewController_CreateListVote(t *testing.T) {
	f := setupCatalogControllerTest(t)
	productID := f.products[0].ID
	auth := customerToken(t, 42, "reviewer@example.com")

	w := doJSON(f.router, http.MethodPost, "/products/"+productID+"/reviews", gin.H{"rating": 4, "body": "Solid joinery."})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(f.router, http.MethodPost, "/products/"+productID+"/reviews",
		gin.H{"rating": 4, "title": "Sturdy", "body": "Solid joinery."}, "Authorization", auth)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	review := decodeBody(t, w)["review"].(map[string]interface{})
	assert.Equal(t, "reviewer@example.com", review["author"])
	reviewID := review["id"].(string)

	w = doJSON(f.router, http.MethodPost, "/products/"+productID+"/reviews",
		gin.H{"rating": 6, "body": "Too good."}, "Authorization", auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeBody(t, w)["message"], "rating")

	w = doJSON(f.router, http.MethodPost, "/products/missing/reviews",
		gin.H{"rating": 3, "body": "Where is it?"}, "Authorization", auth)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(f.router, http.MethodGet, "/products/"+productID+"/reviews", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["reviews"], 1)

	w = doJSON(f.router, http.MethodPost, "/reviews/"+reviewID+"/vote", gin.H{"vote": "helpful"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["helpful"])
	assert.Equal(t, float64(0), body["notHelpful"])

	w = doJSON(f.router, http.MethodPost, "/reviews/"+reviewID+"/vote", gin.H{"vote": "love"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(f.router, http.MethodPost, "/reviews/unknown/vote", gin.H{"vote": "helpful"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperrors.ReviewNotFound, decodeBody(t, w)["error"])
}
