package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductSort string

const (
	ProductSortNewest ProductSort = "newest"
	ProductSortPrice  ProductSort = "price"
	ProductSortRating ProductSort = "rating"
)

type ProductFilter struct {
	Category      string
	Material      string
	MinPrice      *float64
	MaxPrice      *float64
	InStock       *bool
	Exclusive     *bool
	SortBy        ProductSort
	SortAscending bool
	Limit         int
	Offset        int
}

// ProductRepository is the catalog's product store. It is implemented on
// GORM and on MongoDB.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	FindWithFilter(ctx context.Context, filter ProductFilter) ([]model.Product, error)
	Count(ctx context.Context, filter ProductFilter) (int64, error)
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []string) ([]model.Product, error)
	// SearchCandidates returns at most limit products whose name or category
	// contains query, case-insensitively, ordered by name.
	SearchCandidates(ctx context.Context, query string, limit int) ([]model.Product, error)
	Search(ctx context.Context, query string, limit, offset int) ([]model.Product, int64, error)
	ListCategories(ctx context.Context) ([]string, error)
	UpdateRating(ctx context.Context, id string, rating float64, reviewCount int) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	// slug is unique; fall back to the id so unnamed rows never collide.
	if product.Slug == "" {
		product.Slug = product.ID
	}

	logger.Debug("Creating product in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
		"category":   product.Category,
	})

	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name":     product.Name,
			"category": product.Category,
		})
		return err
	}
	return nil
}

func (r *productRepository) filtered(ctx context.Context, filter ProductFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.Product{})

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Material != "" {
		query = query.Where("material = ?", filter.Material)
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.InStock != nil {
		query = query.Where("in_stock = ?", *filter.InStock)
	}
	if filter.Exclusive != nil {
		query = query.Where("exclusive = ?", *filter.Exclusive)
	}
	return query
}

func (r *productRepository) FindWithFilter(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	logger.Debug("Finding products with filter", map[string]interface{}{
		"category":  filter.Category,
		"material":  filter.Material,
		"sort_by":   filter.SortBy,
		"ascending": filter.SortAscending,
		"limit":     filter.Limit,
		"offset":    filter.Offset,
	})

	direction := " DESC"
	if filter.SortAscending {
		direction = " ASC"
	}

	query := r.filtered(ctx, filter)
	switch filter.SortBy {
	case ProductSortPrice:
		query = query.Order("price" + direction)
	case ProductSortRating:
		query = query.Order("rating" + direction)
	default:
		query = query.Order("created_at" + direction)
	}
	query = query.Order("id ASC")

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var products []model.Product
	if err := query.Find(&products).Error; err != nil {
		logger.Error("Failed to find products with filter", err, map[string]interface{}{
			"category": filter.Category,
		})
		return nil, err
	}

	logger.Debug("Products found with filter", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func (r *productRepository) Count(ctx context.Context, filter ProductFilter) (int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		logger.Error("Failed to count products", err, nil)
		return 0, err
	}
	return total, nil
}

func (r *productRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		logger.Error("Failed to find product by ID in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	var products []model.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
		logger.Error("Failed to find products by IDs in database", err, map[string]interface{}{
			"count": len(ids),
		})
		return nil, err
	}
	return products, nil
}

func (r *productRepository) matching(ctx context.Context, query string) *gorm.DB {
	pattern := likePattern(query)
	return r.db.WithContext(ctx).Model(&model.Product{}).
		Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\'`, pattern, pattern)
}

func (r *productRepository) SearchCandidates(ctx context.Context, query string, limit int) ([]model.Product, error) {
	logger.Debug("Fetching search candidates", map[string]interface{}{
		"query": query,
		"limit": limit,
	})

	var products []model.Product
	if err := r.matching(ctx, query).
		Order("name ASC").
		Order("id ASC").
		Limit(limit).
		Find(&products).Error; err != nil {
		logger.Error("Failed to fetch search candidates", err, map[string]interface{}{
			"query": query,
		})
		return nil, err
	}

	logger.Debug("Search candidates fetched", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func (r *productRepository) Search(ctx context.Context, query string, limit, offset int) ([]model.Product, int64, error) {
	var total int64
	if err := r.matching(ctx, query).Count(&total).Error; err != nil {
		logger.Error("Failed to count search results", err, map[string]interface{}{
			"query": query,
		})
		return nil, 0, err
	}

	var products []model.Product
	if err := r.matching(ctx, query).
		Order("name ASC").
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&products).Error; err != nil {
		logger.Error("Failed to search products", err, map[string]interface{}{
			"query": query,
		})
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("category <> ''").
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error; err != nil {
		logger.Error("Failed to list categories", err, nil)
		return nil, err
	}
	return categories, nil
}

func (r *productRepository) UpdateRating(ctx context.Context, id string, rating float64, reviewCount int) error {
	result := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"rating":       rating,
			"review_count": reviewCount,
		})
	if result.Error != nil {
		logger.Error("Failed to update product rating", result.Error, map[string]interface{}{
			"product_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// likePattern builds a case-insensitive contains pattern with LIKE
// metacharacters escaped by backslash.
func likePattern(query string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(query))
	return "%" + escaped + "%"
}
