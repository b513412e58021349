package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/internal/app/service"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/internal/middleware"
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{productService: productService}
}

type CreateProductRequest struct {
	Name         string   `json:"name" binding:"required"`
	Slug         string   `json:"slug"`
	Category     string   `json:"category" binding:"required"`
	Price        float64  `json:"price"`
	Description  string   `json:"description"`
	Material     string   `json:"material"`
	Images       []string `json:"images"`
	InStock      bool     `json:"inStock"`
	Exclusive    bool     `json:"exclusive"`
	PriceDisplay string   `json:"priceDisplay"`
}

// ListProducts handles catalog browsing.
// GET /api/v1/products?category=&material=&minPrice=&maxPrice=&inStock=&exclusive=&sort=&order=&limit=&skip=
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	opts := service.ProductListOptions{
		Category:      c.Query("category"),
		Material:      c.Query("material"),
		Sort:          c.Query("sort"),
		SortAscending: strings.EqualFold(c.Query("order"), "asc"),
		Limit:         queryInt(c, "limit", 0),
		Offset:        queryInt(c, "skip", 0),
	}

	var ok bool
	if opts.MinPrice, ok = queryFloat(c, "minPrice"); !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "minPrice: minPrice must be a number")
		return
	}
	if opts.MaxPrice, ok = queryFloat(c, "maxPrice"); !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "maxPrice: maxPrice must be a number")
		return
	}
	if opts.InStock, ok = queryBool(c, "inStock"); !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "inStock: inStock must be true or false")
		return
	}
	if opts.Exclusive, ok = queryBool(c, "exclusive"); !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "exclusive: exclusive must be true or false")
		return
	}

	page, err := ctrl.productService.ListProducts(c.Request.Context(), opts)
	if err != nil {
		respondServiceError(c, err, "products")
		return
	}
	c.JSON(http.StatusOK, page)
}

func queryFloat(c *gin.Context, key string) (*float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func queryBool(c *gin.Context, key string) (*bool, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, false
	}
	return &v, true
}

// GetProduct GET /api/v1/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	product, err := ctrl.productService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
			return
		}
		respondServiceError(c, err, "product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

// ListCategories GET /api/v1/categories
func (ctrl *ProductController) ListCategories(c *gin.Context) {
	categories, err := ctrl.productService.ListCategories(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// CreateProduct adds a catalog entry.
// POST /api/v1/admin/products
func (ctrl *ProductController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid create product request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "body: name and category are required")
		return
	}

	product := &model.Product{
		Name:         req.Name,
		Slug:         req.Slug,
		Category:     req.Category,
		Price:        req.Price,
		Description:  req.Description,
		Material:     req.Material,
		Images:       req.Images,
		InStock:      req.InStock,
		Exclusive:    req.Exclusive,
		PriceDisplay: req.PriceDisplay,
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	if err := ctrl.productService.CreateProduct(c.Request.Context(), product); err != nil {
		respondServiceError(c, err, "product")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "product": product})
}
