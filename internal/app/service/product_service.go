package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/internal/app/repository"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
)

const (
	defaultProductPageSize = 20
	maxProductPageSize     = 100
)

var ErrProductNotFound = errors.New("product not found")

type ProductListOptions struct {
	Category      string
	Material      string
	MinPrice      *float64
	MaxPrice      *float64
	InStock       *bool
	Exclusive     *bool
	Sort          string
	SortAscending bool
	Limit         int
	Offset        int
}

type ProductPage struct {
	Products []model.Product `json:"products"`
	Total    int64           `json:"total"`
}

type ProductService interface {
	ListProducts(ctx context.Context, opts ProductListOptions) (*ProductPage, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListCategories(ctx context.Context) ([]string, error)
	CreateProduct(ctx context.Context, product *model.Product) error
}

type productService struct {
	productRepo  repository.ProductRepository
	storeTimeout time.Duration
}

func NewProductService(productRepo repository.ProductRepository, storeTimeout time.Duration) ProductService {
	return &productService{
		productRepo:  productRepo,
		storeTimeout: storeTimeout,
	}
}

func (s *productService) ListProducts(ctx context.Context, opts ProductListOptions) (*ProductPage, error) {
	filter, err := productFilter(opts)
	if err != nil {
		return nil, err
	}

	logger.Debug("Listing products", map[string]interface{}{
		"category": filter.Category,
		"material": filter.Material,
		"sort":     filter.SortBy,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})

	storeCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	products, err := s.productRepo.FindWithFilter(storeCtx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	total, err := s.productRepo.Count(storeCtx, filter)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	if products == nil {
		products = []model.Product{}
	}
	return &ProductPage{Products: products, Total: total}, nil
}

func productFilter(opts ProductListOptions) (repository.ProductFilter, error) {
	filter := repository.ProductFilter{
		Category:      strings.TrimSpace(opts.Category),
		Material:      strings.TrimSpace(opts.Material),
		MinPrice:      opts.MinPrice,
		MaxPrice:      opts.MaxPrice,
		InStock:       opts.InStock,
		Exclusive:     opts.Exclusive,
		SortAscending: opts.SortAscending,
		Limit:         opts.Limit,
		Offset:        opts.Offset,
	}

	switch repository.ProductSort(strings.ToLower(opts.Sort)) {
	case "", repository.ProductSortNewest:
		filter.SortBy = repository.ProductSortNewest
	case repository.ProductSortPrice:
		filter.SortBy = repository.ProductSortPrice
	case repository.ProductSortRating:
		filter.SortBy = repository.ProductSortRating
	default:
		return filter, invalid("sort", apperrors.ValidationInvalidInput, "sort must be one of price, newest, rating")
	}

	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return filter, invalid("minPrice", apperrors.ValidationInvalidRange, "minPrice must not exceed maxPrice")
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultProductPageSize
	}
	if filter.Limit > maxProductPageSize {
		filter.Limit = maxProductPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return filter, nil
}

func (s *productService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	storeCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	product, err := s.productRepo.FindByID(storeCtx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *productService) ListCategories(ctx context.Context) ([]string, error) {
	storeCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	categories, err := s.productRepo.ListCategories(storeCtx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	return strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func (s *productService) CreateProduct(ctx context.Context, product *model.Product) error {
	product.Name = strings.TrimSpace(product.Name)
	product.Category = strings.ToLower(strings.TrimSpace(product.Category))

	if product.Name == "" {
		return invalid("name", apperrors.ValidationRequired, "name is required")
	}
	if product.Category == "" {
		return invalid("category", apperrors.ValidationRequired, "category is required")
	}
	if product.Price < 0 {
		return invalid("price", apperrors.ValidationInvalidRange, "price must not be negative")
	}
	if product.Exclusive && product.Price == 0 && strings.TrimSpace(product.PriceDisplay) == "" {
		return invalid("priceDisplay", apperrors.ValidationRequired, "exclusive products without a price need priceDisplay")
	}
	if product.Slug == "" {
		product.Slug = slugify(product.Name)
	}

	logger.Info("Creating product", map[string]interface{}{
		"name":     product.Name,
		"category": product.Category,
	})

	storeCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	if err := s.productRepo.Create(storeCtx, product); err != nil {
		return fmt.Errorf("create product: %w", err)
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"slug":       product.Slug,
	})
	return nil
}
