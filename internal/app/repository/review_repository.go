package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	FindByID(ctx context.Context, id string) (*model.Review, error)
	FindByProduct(ctx context.Context, productID string, limit, offset int) ([]model.Review, error)
	// IncrementVote adds one to exactly one counter of the review.
	IncrementVote(ctx context.Context, id string, vote model.ReviewVote) error
	RatingSummary(ctx context.Context, productID string) (float64, int, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}

	logger.Debug("Creating review in database", map[string]interface{}{
		"product_id": review.ProductID,
		"rating":     review.Rating,
	})

	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		logger.Error("Failed to create review in database", err, map[string]interface{}{
			"product_id": review.ProductID,
		})
		return err
	}
	return nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id string) (*model.Review, error) {
	var review model.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) FindByProduct(ctx context.Context, productID string, limit, offset int) ([]model.Review, error) {
	logger.Debug("Finding reviews by product in database", map[string]interface{}{
		"product_id": productID,
		"limit":      limit,
		"offset":     offset,
	})

	var reviews []model.Review
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&reviews).Error; err != nil {
		logger.Error("Failed to find reviews by product in database", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) IncrementVote(ctx context.Context, id string, vote model.ReviewVote) error {
	column := vote.Column()
	result := r.db.WithContext(ctx).Model(&model.Review{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if result.Error != nil {
		logger.Error("Failed to record review vote", result.Error, map[string]interface{}{
			"review_id": id,
			"vote":      vote,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *reviewRepository) RatingSummary(ctx context.Context, productID string) (float64, int, error) {
	var row struct {
		Average float64
		Total   int
	}
	if err := r.db.WithContext(ctx).Model(&model.Review{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS total").
		Where("product_id = ?", productID).
		Scan(&row).Error; err != nil {
		logger.Error("Failed to summarize product ratings", err, map[string]interface{}{
			"product_id": productID,
		})
		return 0, 0, err
	}
	return row.Average, row.Total, nil
}
