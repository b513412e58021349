package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lumberhaus/storefront-backend/internal/analytics"
	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/internal/app/repository"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/pkg/logger"
)

const (
	defaultReviewPageSize = 20
	maxReviewPageSize     = 100
	maxReviewBodyLen      = 5000
)

var ErrReviewNotFound = errors.New("review not found")

type CreateReviewInput struct {
	ProductID string
	Author    string
	Rating    int
	Title     string
	Body      string
}

type ReviewService interface {
	ListReviews(ctx context.Context, productID string, limit, offset int) ([]model.Review, error)
	CreateReview(ctx context.Context, input CreateReviewInput) (*model.Review, error)
	// Vote increments exactly one of the helpful counters.
	Vote(ctx context.Context, reviewID string, vote model.ReviewVote) (*model.Review, error)
}

type reviewService struct {
	reviewRepo   repository.ReviewRepository
	productRepo  repository.ProductRepository
	tracker      analytics.Tracker
	storeTimeout time.Duration
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	productRepo repository.ProductRepository,
	tracker analytics.Tracker,
	storeTimeout time.Duration,
) ReviewService {
	if tracker == nil {
		tracker = analytics.NewNoopTracker()
	}
	return &reviewService{
		reviewRepo:   reviewRepo,
		productRepo:  productRepo,
		tracker:      tracker,
		storeTimeout: storeTimeout,
	}
}

func (s *reviewService) ListReviews(ctx context.Context, productID string, limit, offset int) ([]model.Review, error) {
	if limit <= 0 {
		limit = defaultReviewPageSize
	}
	if limit > maxReviewPageSize {
		limit = maxReviewPageSize
	}
	if offset < 0 {
		offset = 0
	}

	storeCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	if _, err := s.productRepo.FindByID(storeCtx, productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	reviews, err := s.reviewRepo.FindByProduct(storeCtx, productID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if reviews == nil {
		reviews = []model.Review{}
	}
	return reviews, nil
}

func (s *reviewService) CreateReview(ctx context.Context, input CreateReviewInput) (*model.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, invalid("rating", apperrors.ValidationInvalidRange, "rating must be between 1 and 5")
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, invalid("body", apperrors.ValidationRequired, "body is required")
	}
	if len(body) > maxReviewBodyLen {
		return nil, invalid("body", apperrors.ValidationTooLong, fmt.Sprintf("body must be at most %d characters", maxReviewBodyLen))
	}

	storeCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	if _, err := s.productRepo.FindByID(storeCtx, input.ProductID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	review := &model.Review{
		ProductID: input.ProductID,
		Author:    strings.TrimSpace(input.Author),
		Rating:    input.Rating,
		Title:     strings.TrimSpace(input.Title),
		Body:      body,
	}
	if err := s.reviewRepo.Create(storeCtx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	// Product rating is derived; a failed refresh leaves the previous value.
	avg, count, err := s.reviewRepo.RatingSummary(storeCtx, input.ProductID)
	if err == nil {
		err = s.productRepo.UpdateRating(storeCtx, input.ProductID, avg, count)
	}
	if err != nil {
		logger.Warn("Product rating was not refreshed", map[string]interface{}{
			"product_id": input.ProductID,
			"error":      err.Error(),
		})
	}

	s.tracker.Track(ctx, analytics.NewEvent(analytics.EventReviewSubmitted, "server", review.ProductID, map[string]interface{}{
		"review_id": review.ID,
		"rating":    review.Rating,
	}))

	logger.Info("Review created", map[string]interface{}{
		"review_id":  review.ID,
		"product_id": review.ProductID,
	})
	return review, nil
}

func (s *reviewService) Vote(ctx context.Context, reviewID string, vote model.ReviewVote) (*model.Review, error) {
	if !vote.Valid() {
		return nil, invalid("vote", apperrors.ValidationInvalidInput, `vote must be "helpful" or "not_helpful"`)
	}

	storeCtx, cancel := storeContext(ctx, s.storeTimeout)
	defer cancel()

	if err := s.reviewRepo.IncrementVote(storeCtx, reviewID, vote); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, fmt.Errorf("record vote: %w", err)
	}

	review, err := s.reviewRepo.FindByID(storeCtx, reviewID)
	if err != nil {
		return nil, err
	}

	s.tracker.Track(ctx, analytics.NewEvent(analytics.EventReviewVoted, "server", reviewID, map[string]interface{}{
		"vote": string(vote),
	}))
	return review, nil
}
