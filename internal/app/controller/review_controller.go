package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lumberhaus/storefront-backend/internal/app/model"
	"github.com/lumberhaus/storefront-backend/internal/app/service"
	apperrors "github.com/lumberhaus/storefront-backend/internal/errors"
	"github.com/lumberhaus/storefront-backend/internal/middleware"
)

type ReviewController struct {
	reviewService service.ReviewService
}

func NewReviewController(reviewService service.ReviewService) *ReviewController {
	return &ReviewController{reviewService: reviewService}
}

type CreateReviewRequest struct {
	Author string `json:"author"`
	Rating int    `json:"rating"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

type VoteRequest struct {
	Vote string `json:"vote" binding:"required"`
}

// ListReviews GET /api/v1/products/:id/reviews?limit=&offset=
func (ctrl *ReviewController) ListReviews(c *gin.Context) {
	reviews, err := ctrl.reviewService.ListReviews(
		c.Request.Context(),
		c.Param("id"),
		queryInt(c, "limit", 0),
		queryInt(c, "offset", 0),
	)
	if err != nil {
		ctrl.respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// CreateReview POST /api/v1/products/:id/reviews
func (ctrl *ReviewController) CreateReview(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid review request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "body: request body must be a JSON object")
		return
	}

	author := strings.TrimSpace(req.Author)
	if author == "" {
		author, _ = middleware.GetUserEmail(c)
	}

	review, err := ctrl.reviewService.CreateReview(c.Request.Context(), service.CreateReviewInput{
		ProductID: c.Param("id"),
		Author:    author,
		Rating:    req.Rating,
		Title:     req.Title,
		Body:      req.Body,
	})
	if err != nil {
		ctrl.respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "review": review})
}

// Vote POST /api/v1/reviews/:id/vote
func (ctrl *ReviewController) Vote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "vote: vote is required")
		return
	}

	review, err := ctrl.reviewService.Vote(c.Request.Context(), c.Param("id"), model.ReviewVote(req.Vote))
	if err != nil {
		ctrl.respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"helpful":    review.Helpful,
		"notHelpful": review.NotHelpful,
	})
}

func (ctrl *ReviewController) respond(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProductNotFound):
		apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
	case errors.Is(err, service.ErrReviewNotFound):
		apperrors.NotFound(c, apperrors.ReviewNotFound, "Review not found")
	default:
		respondServiceError(c, err, "review")
	}
}
